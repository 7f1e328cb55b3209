package biometrics

import "github.com/itohio/gopulse/pkg/ring"

// Perfusion-index steps in percent separating the signal-strength
// classes.
const (
	perfusionWeak     = 0.05
	perfusionModerate = 0.2
	perfusionStrong   = 0.5
)

// PerfusionIndex returns the AC/DC amplitude ratio of the window in
// percent: (max - min) / mean * 100. A non-positive mean (dark or
// saturated sensor) yields 0.
func PerfusionIndex(window []float64) float64 {
	stats := ring.ComputeSlice(window)
	if stats.Mean <= 0 {
		return 0
	}
	return stats.PeakToPeak() / stats.Mean * 100
}

// ClassifyStrength maps a perfusion index in percent to a signal
// strength class.
func ClassifyStrength(perfusionIndex float64) SignalStrength {
	switch {
	case perfusionIndex < perfusionWeak:
		return SignalNone
	case perfusionIndex < perfusionModerate:
		return SignalWeak
	case perfusionIndex < perfusionStrong:
		return SignalModerate
	default:
		return SignalStrong
	}
}

// IsWorn infers skin contact from a believable pulsatile reading: a
// perfusion index above the configured floor plus a credible heart
// rate. There is no dedicated contact sensor.
func IsWorn(perfusionIndex, minPerfusionIndex float64, hr HeartRate, minHRQuality float64) bool {
	return perfusionIndex > minPerfusionIndex &&
		hr.Available() && hr.BPM > 0 && hr.Quality > minHRQuality
}
