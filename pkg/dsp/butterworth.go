package dsp

import (
	"fmt"
	"math"
)

// Biquad is a 2nd-order IIR section in Direct-Form II Transposed,
// derived from the analog Butterworth prototype by bilinear transform.
// It is used on the offline/batch path where the live cardiac filter
// is too crude.
type Biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
	z1, z2     float64
}

// NewLowPass designs a 2nd-order Butterworth low-pass section.
func NewLowPass(cutoffHz, sampleRate float64) (*Biquad, error) {
	if err := checkFreq(cutoffHz, sampleRate); err != nil {
		return nil, err
	}
	k := math.Tan(math.Pi * cutoffHz / sampleRate)
	norm := 1 / (1 + math.Sqrt2*k + k*k)
	return &Biquad{
		b0: k * k * norm,
		b1: 2 * k * k * norm,
		b2: k * k * norm,
		a1: 2 * (k*k - 1) * norm,
		a2: (1 - math.Sqrt2*k + k*k) * norm,
	}, nil
}

// NewHighPass designs a 2nd-order Butterworth high-pass section.
func NewHighPass(cutoffHz, sampleRate float64) (*Biquad, error) {
	if err := checkFreq(cutoffHz, sampleRate); err != nil {
		return nil, err
	}
	k := math.Tan(math.Pi * cutoffHz / sampleRate)
	norm := 1 / (1 + math.Sqrt2*k + k*k)
	return &Biquad{
		b0: norm,
		b1: -2 * norm,
		b2: norm,
		a1: 2 * (k*k - 1) * norm,
		a2: (1 - math.Sqrt2*k + k*k) * norm,
	}, nil
}

// NewBandPass designs a 2nd-order band-pass section between lowHz and
// highHz. The center frequency is the geometric mean of the edges.
func NewBandPass(lowHz, highHz, sampleRate float64) (*Biquad, error) {
	if lowHz >= highHz {
		return nil, fmt.Errorf("dsp: band edges inverted: [%g, %g]", lowHz, highHz)
	}
	if err := checkFreq(highHz, sampleRate); err != nil {
		return nil, err
	}
	center := math.Sqrt(lowHz * highHz)
	q := center / (highHz - lowHz)

	k := math.Tan(math.Pi * center / sampleRate)
	norm := 1 / (1 + k/q + k*k)
	return &Biquad{
		b0: k / q * norm,
		b1: 0,
		b2: -k / q * norm,
		a1: 2 * (k*k - 1) * norm,
		a2: (1 - k/q + k*k) * norm,
	}, nil
}

func checkFreq(cutoffHz, sampleRate float64) error {
	if sampleRate <= 0 {
		return fmt.Errorf("dsp: sample rate must be positive, got %g", sampleRate)
	}
	if cutoffHz <= 0 || cutoffHz >= sampleRate/2 {
		return fmt.Errorf("dsp: cutoff %g Hz outside (0, %g)", cutoffHz, sampleRate/2)
	}
	return nil
}

// Filter processes one sample, updating the internal state.
func (f *Biquad) Filter(x float64) float64 {
	y := f.b0*x + f.z1
	f.z1 = f.b1*x - f.a1*y + f.z2
	f.z2 = f.b2*x - f.a2*y
	return y
}

// FilterBatch filters a signal causally into a new slice.
func (f *Biquad) FilterBatch(signal []float64) []float64 {
	out := make([]float64, len(signal))
	for i, x := range signal {
		out[i] = f.Filter(x)
	}
	return out
}

// FiltFilt applies the filter forward and backward for zero phase
// distortion: forward pass, reverse, forward pass again, reverse.
// Used for batch feature extraction where peak timing must not shift.
// The filter state is cleared before each pass.
func (f *Biquad) FiltFilt(signal []float64) []float64 {
	f.Reset()
	out := f.FilterBatch(signal)
	reverse(out)

	f.Reset()
	for i, x := range out {
		out[i] = f.Filter(x)
	}
	reverse(out)

	f.Reset()
	return out
}

// Reset clears the delay elements.
func (f *Biquad) Reset() {
	f.z1 = 0
	f.z2 = 0
}

func reverse(xs []float64) {
	for i, j := 0, len(xs)-1; i < j; i, j = i+1, j-1 {
		xs[i], xs[j] = xs[j], xs[i]
	}
}
