package device

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/chewxy/math32"

	"github.com/itohio/gopulse/pkg/config"
	"github.com/itohio/gopulse/pkg/frame"
)

// Baseline ADC levels of the simulated optical channels.
const (
	mockIRBase    = 80000
	mockRedBase   = 60000
	mockGreenBase = 50000

	mockIRAmplitude    = 2000
	mockGreenAmplitude = 1500

	mockAccelLSBPerG = 4096
)

// Mock simulates a worn wearable for testing and development. It
// produces a pulsatile PPG at a configurable heart rate with a red
// amplitude matching the configured R-ratio, plus accelerometer output
// around 1 g.
type Mock struct {
	cfg *config.MockConfig

	samples   chan frame.RawSample
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
	done      chan struct{}

	rng   *rand.Rand
	phase float32
}

var _ Device = (*Mock)(nil)

// NewMock creates a new mock wearable.
func NewMock(cfg *config.MockConfig) *Mock {
	if cfg == nil {
		def := config.Default().Mock
		cfg = &def
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Mock{
		cfg:     cfg,
		samples: make(chan frame.RawSample, DefaultBufferSize),
		ctx:     ctx,
		cancel:  cancel,
		rng:     rand.New(rand.NewSource(1)),
	}
}

// Connect starts the sample generator.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}
	if m.ctx.Err() != nil {
		return fmt.Errorf("device closed")
	}
	m.connected = true
	m.done = make(chan struct{})

	go m.generateSamples()

	return nil
}

// Close stops the mock wearable. The generator goroutine owns the
// samples channel and closes it on exit; Close waits for that so no
// send can race the closure.
func (m *Mock) Close() error {
	m.mu.Lock()
	if !m.connected {
		m.mu.Unlock()
		return nil
	}
	m.connected = false
	done := m.done
	m.mu.Unlock()

	m.cancel()
	<-done

	return nil
}

// Samples returns the channel of generated samples.
func (m *Mock) Samples() <-chan frame.RawSample {
	return m.samples
}

// IsConnected returns whether the generator is running.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// generateSamples emits samples at the configured rate until Close.
func (m *Mock) generateSamples() {
	defer close(m.done)
	defer close(m.samples)

	interval := time.Duration(float64(time.Second) / m.cfg.SampleRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			s := m.Next(time.Now())
			select {
			case m.samples <- s:
			case <-m.ctx.Done():
				return
			default:
				// Channel full, drop and keep the waveform phase moving.
			}
		}
	}
}

// Next synthesizes one sample and advances the waveform phase. It is
// exported so tests and batch tooling can generate deterministic
// recordings without the ticker.
func (m *Mock) Next(ts time.Time) frame.RawSample {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.phase += float32(m.cfg.HeartRateBPM / 60 / m.cfg.SampleRateHz)
	if m.phase >= 1 {
		m.phase -= 1
	}

	// Fundamental plus a weak second harmonic gives the asymmetric
	// systolic upstroke real PPG shows.
	pulse := math32.Sin(2*math32.Pi*m.phase) + 0.3*math32.Sin(4*math32.Pi*m.phase)

	// Red amplitude derived from the target R-ratio:
	// R = (acRed/dcRed) / (acIR/dcIR).
	irRatio := float32(mockIRAmplitude) * 2 / mockIRBase
	redAmplitude := float32(m.cfg.SpO2Ratio) * irRatio * mockRedBase / 2

	noise := func() float32 {
		return float32(m.rng.NormFloat64()) * float32(m.cfg.NoiseLevel)
	}

	shake := float32(m.cfg.MotionLevel) * math32.Sin(2*math32.Pi*1.3*m.phase) * mockAccelLSBPerG

	return frame.RawSample{
		Timestamp: ts,
		IR:        int32(mockIRBase + mockIRAmplitude*pulse + noise()),
		Red:       int32(mockRedBase + redAmplitude*pulse + noise()),
		Green:     int32(mockGreenBase + mockGreenAmplitude*pulse + noise()),
		AccelX:    int16(shake + noise()),
		AccelY:    int16(noise()),
		AccelZ:    int16(mockAccelLSBPerG + noise()),
	}
}
