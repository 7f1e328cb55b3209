// Package dsp contains the filters and transforms of the biometric
// pipeline: the adaptive motion canceller, the cardiac band filter,
// a general Butterworth section for batch work, and a real FFT.
package dsp

// LMSFilter is an adaptive Least-Mean-Squares noise canceller. The
// optical sensor sits on moving tissue, so the accelerometer magnitude
// is a strong reference for motion artifacts; the filter learns the
// transfer function online, without an explicit noise model.
type LMSFilter struct {
	weights []float64
	history []float64 // ring of recent noise references, newest first logically
	head    int       // index of the newest reference in history

	order int
	mu    float64

	shockVariance float64
	attenuation   float64
}

const (
	lmsOrder         = 32
	lmsStepSize      = 0.01
	lmsShockVariance = 2.0
	lmsAttenuation   = 0.1
)

// NewLMSFilter creates a zero-initialized canceller of order 32 with
// step size 0.01.
func NewLMSFilter() *LMSFilter {
	return &LMSFilter{
		weights:       make([]float64, lmsOrder),
		history:       make([]float64, lmsOrder),
		order:         lmsOrder,
		mu:            lmsStepSize,
		shockVariance: lmsShockVariance,
		attenuation:   lmsAttenuation,
	}
}

// at returns the i-th most recent noise reference (0 = newest).
func (f *LMSFilter) at(i int) float64 {
	return f.history[(f.head+i)%f.order]
}

// Filter removes the noise-correlated component of signal using
// noiseReference and adapts the weights from the residual. The cleaned
// value doubles as the LMS error term.
func (f *LMSFilter) Filter(signal, noiseReference float64) float64 {
	// Insert the newest reference at the logical front of the ring.
	f.head = (f.head + f.order - 1) % f.order
	f.history[f.head] = noiseReference

	estimated := 0.0
	for i := 0; i < f.order; i++ {
		estimated += f.weights[i] * f.at(i)
	}

	cleaned := signal - estimated

	step := f.mu * cleaned
	for i := 0; i < f.order; i++ {
		f.weights[i] += step * f.at(i)
	}

	// High-shock motion saturates the optical channel beyond what the
	// linear model can cancel; attenuate rather than pass garbage.
	if f.historyVariance() > f.shockVariance {
		cleaned *= f.attenuation
	}

	return cleaned
}

// Reset zeroes the weights and the noise history.
func (f *LMSFilter) Reset() {
	for i := range f.weights {
		f.weights[i] = 0
		f.history[i] = 0
	}
	f.head = 0
}

func (f *LMSFilter) historyVariance() float64 {
	mean := 0.0
	for _, v := range f.history {
		mean += v
	}
	mean /= float64(f.order)

	variance := 0.0
	for _, v := range f.history {
		d := v - mean
		variance += d * d
	}
	return variance / float64(f.order)
}
