// Package biometrics derives heart rate, SpO2, activity and worn
// status from motion-compensated PPG and accelerometer streams.
package biometrics

import "time"

// HRSource identifies which estimator and channel produced a heart
// rate reading. HRSourceUnavailable marks the absence of a reading, so
// a genuine low rate can never alias "no reading".
type HRSource int

const (
	HRSourceUnavailable HRSource = iota
	HRSourceIR
	HRSourceGreen
	HRSourceFFT
)

func (s HRSource) String() string {
	switch s {
	case HRSourceIR:
		return "ir"
	case HRSourceGreen:
		return "green"
	case HRSourceFFT:
		return "fft"
	default:
		return "unavailable"
	}
}

// HeartRate is a tagged heart-rate reading. When Source is
// HRSourceUnavailable the BPM and Quality fields are meaningless.
type HeartRate struct {
	BPM     float64  `json:"bpm"`
	Quality float64  `json:"quality"` // 0-1
	Source  HRSource `json:"-"`
}

// Available reports whether the reading holds a valid estimate.
func (h HeartRate) Available() bool {
	return h.Source != HRSourceUnavailable
}

// SpO2 is a tagged blood-oxygen reading, rounded to one decimal.
type SpO2 struct {
	Percent float64 `json:"percent"`
	Quality float64 `json:"quality"` // 0-1
	Valid   bool    `json:"valid"`
}

// SignalStrength classifies the perfusion index into coarse steps.
type SignalStrength int

const (
	SignalNone SignalStrength = iota
	SignalWeak
	SignalModerate
	SignalStrong
)

func (s SignalStrength) String() string {
	switch s {
	case SignalWeak:
		return "weak"
	case SignalModerate:
		return "moderate"
	case SignalStrong:
		return "strong"
	default:
		return "none"
	}
}

// Activity is the discrete muscle-activity state.
type Activity int

const (
	ActivityRelaxed Activity = iota
	ActivityClenching
	ActivityGrinding
	ActivityMotion
)

func (a Activity) String() string {
	switch a {
	case ActivityClenching:
		return "clenching"
	case ActivityGrinding:
		return "grinding"
	case ActivityMotion:
		return "motion"
	default:
		return "relaxed"
	}
}

// Method tags how a result was produced.
type Method int

const (
	MethodRealtime Method = iota
	MethodBatch
)

func (m Method) String() string {
	if m == MethodBatch {
		return "batch"
	}
	return "realtime"
}

// Result is the composite output of one processing step. Partial
// results (before the analysis window fills) carry only activity and
// motion; everything else is in its unavailable state.
type Result struct {
	Timestamp time.Time `json:"timestamp"`

	HeartRate HeartRate `json:"heart_rate"`
	SpO2      SpO2      `json:"spo2"`

	PerfusionIndex float64        `json:"perfusion_index"` // percent
	SignalStrength SignalStrength `json:"-"`
	Worn           bool           `json:"worn"`

	Activity    Activity `json:"-"`
	MotionLevel float64  `json:"motion_level"` // g deviation from rest

	Method  Method `json:"-"`
	Partial bool   `json:"partial"`
}
