// Package device provides the wearable transports: a serial port
// reader speaking the binary packet protocol and a mock wearable that
// synthesizes believable optical and accelerometer streams.
package device

import "github.com/itohio/gopulse/pkg/frame"

// Device streams decoded samples from a wearable sensor.
type Device interface {
	// Connect opens the transport and starts streaming samples.
	Connect() error
	// Close stops streaming and releases the transport.
	Close() error
	// Samples returns the channel of decoded samples. The channel is
	// closed by Close.
	Samples() <-chan frame.RawSample
	// IsConnected returns whether the device is currently streaming.
	IsConnected() bool
}

// Packet type tags on the serial transport. Every packet is framed as
// [type][payload length][payload].
const (
	PacketPPG         byte = 0x01
	PacketAccel       byte = 0x02
	PacketTemperature byte = 0x03
	PacketBattery     byte = 0x04
	PacketCombined    byte = 0x05
)
