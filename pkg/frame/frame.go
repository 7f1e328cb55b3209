// Package frame implements the wearable's binary wire format: packet
// decoding into typed samples and the matching encoders used by the
// simulator and the session recorder.
//
// All packets are little-endian and carry raw hardware ADC units. With
// the exception of the combined packet, every packet starts with a
// 32-bit frame counter used for packet-loss accounting.
package frame

import (
	"encoding/binary"
	"time"
)

const (
	// HeaderSize is the length of the frame counter prefix.
	HeaderSize = 4
	// PPGSampleSize is the wire size of one optical sample.
	PPGSampleSize = 12
	// AccelSampleSize is the wire size of one accelerometer sample.
	AccelSampleSize = 6
	// CombinedSize is the wire size of a combined packet (one PPG
	// sample followed by one accelerometer sample, no counter).
	CombinedSize = PPGSampleSize + AccelSampleSize
)

// PPGSample is one optical sample: signed 32-bit ADC counts per channel.
type PPGSample struct {
	Red   int32
	IR    int32
	Green int32
}

// AccelSample is one accelerometer sample in device LSB units.
type AccelSample struct {
	X int16
	Y int16
	Z int16
}

// RawSample is a decoded optical+accelerometer pair, the unit the
// processing pipeline consumes.
type RawSample struct {
	Timestamp time.Time

	Red   int32
	IR    int32
	Green int32

	AccelX int16
	AccelY int16
	AccelZ int16
}

// DecodePPG parses a PPG packet: counter + N*12 bytes. It returns
// false when the buffer is shorter than the header plus one sample.
// Trailing bytes shorter than one sample are dropped.
func DecodePPG(buf []byte) (counter uint32, samples []PPGSample, ok bool) {
	if len(buf) < HeaderSize+PPGSampleSize {
		return 0, nil, false
	}
	counter = binary.LittleEndian.Uint32(buf[:HeaderSize])
	payload := buf[HeaderSize:]
	n := len(payload) / PPGSampleSize

	samples = make([]PPGSample, n)
	for i := 0; i < n; i++ {
		off := i * PPGSampleSize
		samples[i] = PPGSample{
			Red:   int32(binary.LittleEndian.Uint32(payload[off:])),
			IR:    int32(binary.LittleEndian.Uint32(payload[off+4:])),
			Green: int32(binary.LittleEndian.Uint32(payload[off+8:])),
		}
	}
	return counter, samples, true
}

// DecodeAccel parses an accelerometer packet: counter + N*6 bytes.
func DecodeAccel(buf []byte) (counter uint32, samples []AccelSample, ok bool) {
	if len(buf) < HeaderSize+AccelSampleSize {
		return 0, nil, false
	}
	counter = binary.LittleEndian.Uint32(buf[:HeaderSize])
	payload := buf[HeaderSize:]
	n := len(payload) / AccelSampleSize

	samples = make([]AccelSample, n)
	for i := 0; i < n; i++ {
		off := i * AccelSampleSize
		samples[i] = AccelSample{
			X: int16(binary.LittleEndian.Uint16(payload[off:])),
			Y: int16(binary.LittleEndian.Uint16(payload[off+2:])),
			Z: int16(binary.LittleEndian.Uint16(payload[off+4:])),
		}
	}
	return counter, samples, true
}

// DecodeTemperature parses a temperature packet: counter + int16
// centidegrees Celsius. The result is in degrees Celsius.
func DecodeTemperature(buf []byte) (counter uint32, celsius float64, ok bool) {
	if len(buf) < HeaderSize+2 {
		return 0, 0, false
	}
	counter = binary.LittleEndian.Uint32(buf[:HeaderSize])
	centi := int16(binary.LittleEndian.Uint16(buf[HeaderSize:]))
	return counter, float64(centi) / 100, true
}

// DecodeCombined parses an 18-byte combined packet: one PPG sample
// followed by one accelerometer sample, no frame counter.
func DecodeCombined(buf []byte) (RawSample, bool) {
	if len(buf) < CombinedSize {
		return RawSample{}, false
	}
	return RawSample{
		Red:    int32(binary.LittleEndian.Uint32(buf[0:])),
		IR:     int32(binary.LittleEndian.Uint32(buf[4:])),
		Green:  int32(binary.LittleEndian.Uint32(buf[8:])),
		AccelX: int16(binary.LittleEndian.Uint16(buf[12:])),
		AccelY: int16(binary.LittleEndian.Uint16(buf[14:])),
		AccelZ: int16(binary.LittleEndian.Uint16(buf[16:])),
	}, true
}

// EncodePPG builds a PPG packet from a counter and samples.
func EncodePPG(counter uint32, samples []PPGSample) []byte {
	buf := make([]byte, HeaderSize+len(samples)*PPGSampleSize)
	binary.LittleEndian.PutUint32(buf, counter)
	for i, s := range samples {
		off := HeaderSize + i*PPGSampleSize
		binary.LittleEndian.PutUint32(buf[off:], uint32(s.Red))
		binary.LittleEndian.PutUint32(buf[off+4:], uint32(s.IR))
		binary.LittleEndian.PutUint32(buf[off+8:], uint32(s.Green))
	}
	return buf
}

// EncodeAccel builds an accelerometer packet.
func EncodeAccel(counter uint32, samples []AccelSample) []byte {
	buf := make([]byte, HeaderSize+len(samples)*AccelSampleSize)
	binary.LittleEndian.PutUint32(buf, counter)
	for i, s := range samples {
		off := HeaderSize + i*AccelSampleSize
		binary.LittleEndian.PutUint16(buf[off:], uint16(s.X))
		binary.LittleEndian.PutUint16(buf[off+2:], uint16(s.Y))
		binary.LittleEndian.PutUint16(buf[off+4:], uint16(s.Z))
	}
	return buf
}

// EncodeCombined builds an 18-byte combined packet from a RawSample.
func EncodeCombined(s RawSample) []byte {
	buf := make([]byte, CombinedSize)
	binary.LittleEndian.PutUint32(buf[0:], uint32(s.Red))
	binary.LittleEndian.PutUint32(buf[4:], uint32(s.IR))
	binary.LittleEndian.PutUint32(buf[8:], uint32(s.Green))
	binary.LittleEndian.PutUint16(buf[12:], uint16(s.AccelX))
	binary.LittleEndian.PutUint16(buf[14:], uint16(s.AccelY))
	binary.LittleEndian.PutUint16(buf[16:], uint16(s.AccelZ))
	return buf
}

// EncodeTemperature builds a temperature packet from degrees Celsius.
func EncodeTemperature(counter uint32, celsius float64) []byte {
	buf := make([]byte, HeaderSize+2)
	binary.LittleEndian.PutUint32(buf, counter)
	binary.LittleEndian.PutUint16(buf[HeaderSize:], uint16(int16(celsius*100)))
	return buf
}
