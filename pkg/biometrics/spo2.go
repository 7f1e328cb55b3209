package biometrics

import (
	"math"

	"github.com/itohio/gopulse/pkg/config"
	"github.com/itohio/gopulse/pkg/ring"
)

// Empirical calibration polynomial: spo2 = c2*R^2 + c1*R + c0, the
// classical ratio-of-ratios curve fitted against pulse-oximeter
// reference data.
const (
	spo2C2 = -45.060
	spo2C1 = 30.354
	spo2C0 = 94.845

	// rMin/rMax bracket the physiologically plausible R-ratio.
	rMin = 0.4
	rMax = 3.4

	// spo2QualityScale normalizes the average AC/DC ratio to quality.
	spo2QualityScale = 0.1
)

// SpO2Estimator computes blood-oxygen saturation from red and IR
// windows by the ratio-of-ratios method.
type SpO2Estimator struct {
	cfg config.BiometricConfig
}

// NewSpO2Estimator creates an estimator bound to the session
// configuration.
func NewSpO2Estimator(cfg config.BiometricConfig) *SpO2Estimator {
	return &SpO2Estimator{cfg: cfg}
}

// RatioToSpO2 evaluates the calibration polynomial for an R-ratio.
func RatioToSpO2(r float64) float64 {
	return spo2C2*r*r + spo2C1*r + spo2C0
}

// Estimate computes SpO2 from equal-length red and IR windows with DC
// content intact. It returns an invalid reading when the windows are
// too short, the channels are degenerate, or the result is
// physiologically implausible.
func (e *SpO2Estimator) Estimate(red, ir []float64) SpO2 {
	window := e.cfg.SpO2WindowSamples()
	if len(red) < window || len(ir) < window {
		return SpO2{}
	}

	redStats := ring.ComputeSlice(red)
	irStats := ring.ComputeSlice(ir)
	if redStats.Mean == 0 || irStats.Mean == 0 {
		return SpO2{}
	}

	ratioRed := redStats.PeakToPeak() / redStats.Mean
	ratioIR := irStats.PeakToPeak() / irStats.Mean
	if ratioIR == 0 {
		return SpO2{}
	}

	r := ratioRed / ratioIR
	if r < rMin || r > rMax {
		return SpO2{}
	}

	spo2 := RatioToSpO2(r)
	if spo2 < e.cfg.MinSpO2 || spo2 > e.cfg.MaxSpO2 {
		return SpO2{}
	}

	quality := clamp01((ratioRed + ratioIR) / 2 / spo2QualityScale)

	return SpO2{
		Percent: math.Round(spo2*10) / 10,
		Quality: quality,
		Valid:   true,
	}
}
