package device

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"github.com/itohio/gopulse/pkg/frame"
)

const (
	// DefaultBaudRate is the standard baud rate for the wearable's
	// UART bridge.
	DefaultBaudRate = 115200
	// DefaultBufferSize is the default size for the samples channel buffer.
	DefaultBufferSize = 256
)

// Serial represents a connection to the wearable over a serial port.
type Serial struct {
	port     string
	baudRate int
	bufSize  int
	log      *zap.Logger

	conn      serial.Port
	samples   chan frame.RawSample
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
	done      chan struct{}

	ppgCounter   frame.CounterTracker
	accelCounter frame.CounterTracker

	// Latest auxiliary readings, updated from their own packet types.
	lastAccel       frame.AccelSample
	batteryPercent  float64
	temperatureC    float64
	haveBattery     bool
	haveTemperature bool
}

var _ Device = (*Serial)(nil)

// NewSerial creates a new Serial device with the specified port, baud
// rate, and channel buffer size. Zero values select defaults.
func NewSerial(port string, baudRate, bufSize int, log *zap.Logger) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}
	if log == nil {
		log = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		port:     port,
		baudRate: baudRate,
		bufSize:  bufSize,
		log:      log,
		samples:  make(chan frame.RawSample, bufSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Ports returns the names of available serial ports.
func Ports() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	return ports, nil
}

// Connect opens the serial port and starts reading packets.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return fmt.Errorf("already connected")
	}
	if d.ctx.Err() != nil {
		return fmt.Errorf("device closed")
	}

	port, err := serial.Open(d.port, &serial.Mode{BaudRate: d.baudRate})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	d.conn = port
	d.connected = true
	d.done = make(chan struct{})
	d.ppgCounter.Reset()
	d.accelCounter.Reset()

	go d.readPackets(port)

	return nil
}

// Close closes the connection and stops reading packets. The read
// goroutine owns the samples channel and closes it on exit; Close
// waits for that so no emit can race the closure.
func (d *Serial) Close() error {
	d.mu.Lock()
	if !d.connected {
		d.mu.Unlock()
		return nil
	}

	d.cancel()

	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			d.log.Warn("error closing serial port", zap.Error(err))
		}
		d.conn = nil
	}

	d.connected = false
	done := d.done
	d.mu.Unlock()

	<-done

	return nil
}

// Samples returns the channel of decoded samples.
func (d *Serial) Samples() <-chan frame.RawSample {
	return d.samples
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// Battery returns the latest battery charge estimate and whether one
// has been received yet.
func (d *Serial) Battery() (float64, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.batteryPercent, d.haveBattery
}

// Temperature returns the latest sensor temperature in degrees
// Celsius and whether one has been received yet.
func (d *Serial) Temperature() (float64, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.temperatureC, d.haveTemperature
}

// readPackets reads framed packets from the serial port and emits
// decoded samples. Framing is [type][payload length][payload].
func (d *Serial) readPackets(conn serial.Port) {
	defer close(d.done)
	defer close(d.samples)

	reader := bufio.NewReader(conn)
	header := make([]byte, 2)
	payload := make([]byte, 256)

	for {
		select {
		case <-d.ctx.Done():
			return
		default:
		}

		if _, err := io.ReadFull(reader, header); err != nil {
			if d.ctx.Err() == nil && err != io.EOF {
				d.log.Error("serial read failed", zap.Error(err))
			}
			return
		}

		length := int(header[1])
		if _, err := io.ReadFull(reader, payload[:length]); err != nil {
			if d.ctx.Err() == nil {
				d.log.Error("serial payload read failed", zap.Error(err))
			}
			return
		}

		d.handlePacket(header[0], payload[:length])
	}
}

// handlePacket decodes one packet. Malformed packets are dropped;
// a telemetry stream degrades per-packet, it never halts.
func (d *Serial) handlePacket(kind byte, payload []byte) {
	now := time.Now()

	switch kind {
	case PacketCombined:
		s, ok := frame.DecodeCombined(payload)
		if !ok {
			d.log.Debug("truncated combined packet", zap.Int("len", len(payload)))
			return
		}
		s.Timestamp = now
		d.emit(s)

	case PacketPPG:
		counter, samples, ok := frame.DecodePPG(payload)
		if !ok {
			d.log.Debug("truncated ppg packet", zap.Int("len", len(payload)))
			return
		}
		if lost := d.ppgCounter.Track(counter); lost > 0 {
			d.log.Warn("ppg frames lost", zap.Int("lost", lost), zap.Uint32("counter", counter))
		}
		d.mu.RLock()
		accel := d.lastAccel
		d.mu.RUnlock()
		for _, ppg := range samples {
			d.emit(frame.RawSample{
				Timestamp: now,
				Red:       ppg.Red,
				IR:        ppg.IR,
				Green:     ppg.Green,
				AccelX:    accel.X,
				AccelY:    accel.Y,
				AccelZ:    accel.Z,
			})
		}

	case PacketAccel:
		counter, samples, ok := frame.DecodeAccel(payload)
		if !ok {
			d.log.Debug("truncated accel packet", zap.Int("len", len(payload)))
			return
		}
		if lost := d.accelCounter.Track(counter); lost > 0 {
			d.log.Warn("accel frames lost", zap.Int("lost", lost), zap.Uint32("counter", counter))
		}
		if len(samples) > 0 {
			d.mu.Lock()
			d.lastAccel = samples[len(samples)-1]
			d.mu.Unlock()
		}

	case PacketBattery:
		mv, ok := frame.DecodeBattery(payload)
		if !ok {
			d.log.Debug("invalid battery packet", zap.Int("len", len(payload)))
			return
		}
		d.mu.Lock()
		d.batteryPercent = frame.BatteryPercent(mv)
		d.haveBattery = true
		d.mu.Unlock()

	case PacketTemperature:
		_, celsius, ok := frame.DecodeTemperature(payload)
		if !ok {
			d.log.Debug("truncated temperature packet", zap.Int("len", len(payload)))
			return
		}
		d.mu.Lock()
		d.temperatureC = celsius
		d.haveTemperature = true
		d.mu.Unlock()

	default:
		d.log.Debug("unknown packet type", zap.Uint8("type", kind))
	}
}

// emit sends a sample without blocking the read loop.
func (d *Serial) emit(s frame.RawSample) {
	select {
	case d.samples <- s:
	case <-d.ctx.Done():
	default:
		d.log.Warn("samples channel full, dropping sample")
	}
}
