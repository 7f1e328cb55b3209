package frame

import "encoding/binary"

// Battery voltage limits in millivolts. Readings outside this range
// are treated as measurement glitches, not real cell states.
const (
	BatteryMinValidMV = 2500
	BatteryMaxValidMV = 4500

	batteryEmptyMV = 3000
	batteryFullMV  = 4200
)

// DecodeBattery parses a 4-byte battery packet into millivolts.
// Values outside [2500, 4500] mV are rejected.
func DecodeBattery(buf []byte) (millivolts int32, ok bool) {
	if len(buf) < 4 {
		return 0, false
	}
	mv := int32(binary.LittleEndian.Uint32(buf))
	if mv < BatteryMinValidMV || mv > BatteryMaxValidMV {
		return 0, false
	}
	return mv, true
}

// EncodeBattery builds a battery packet from millivolts.
func EncodeBattery(millivolts int32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(millivolts))
	return buf
}

// BatteryPercent maps a valid battery voltage to a 0-100% charge
// estimate. The map is linear with 3000 mV empty and 4200 mV full,
// clamped at both ends.
func BatteryPercent(millivolts int32) float64 {
	pct := float64(millivolts-batteryEmptyMV) / float64(batteryFullMV-batteryEmptyMV) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
