package dsp

import (
	"fmt"
	"math"
	"math/bits"
)

// FFTPlan holds the precomputed twiddle factors and bit-reversal
// permutation for a fixed power-of-two transform size. Building a plan
// is much more expensive than running it, so callers memoize plans
// keyed by size and rebuild only when the size changes.
type FFTPlan struct {
	n        int
	twiddles []complex128
	rev      []int
	scratch  []complex128
}

// NewFFTPlan creates a plan for an n-point transform. n must be a
// power of two and at least 2.
func NewFFTPlan(n int) (*FFTPlan, error) {
	if n < 2 || n&(n-1) != 0 {
		return nil, fmt.Errorf("dsp: fft size must be a power of two >= 2, got %d", n)
	}

	p := &FFTPlan{
		n:        n,
		twiddles: make([]complex128, n/2),
		rev:      make([]int, n),
		scratch:  make([]complex128, n),
	}
	for i := range p.twiddles {
		angle := -2 * math.Pi * float64(i) / float64(n)
		p.twiddles[i] = complex(math.Cos(angle), math.Sin(angle))
	}
	shift := bits.UintSize - uint(bits.Len(uint(n-1)))
	for i := range p.rev {
		p.rev[i] = int(bits.Reverse(uint(i)) >> shift)
	}
	return p, nil
}

// Size returns the transform length.
func (p *FFTPlan) Size() int {
	return p.n
}

// Magnitudes computes the one-sided magnitude spectrum of a real
// signal. The signal is zero-padded to the plan size; it must not be
// longer than the plan. The result has Size()/2 bins, bin i mapping to
// frequency i*sampleRate/Size().
func (p *FFTPlan) Magnitudes(signal []float64) ([]float64, error) {
	if len(signal) > p.n {
		return nil, fmt.Errorf("dsp: signal length %d exceeds plan size %d", len(signal), p.n)
	}

	// Bit-reversed copy with zero padding.
	for i := 0; i < p.n; i++ {
		var v float64
		if i < len(signal) {
			v = signal[i]
		}
		p.scratch[p.rev[i]] = complex(v, 0)
	}

	// Iterative radix-2 Cooley-Tukey.
	for size := 2; size <= p.n; size <<= 1 {
		half := size / 2
		step := p.n / size
		for start := 0; start < p.n; start += size {
			for k := 0; k < half; k++ {
				w := p.twiddles[k*step]
				even := p.scratch[start+k]
				odd := p.scratch[start+k+half] * w
				p.scratch[start+k] = even + odd
				p.scratch[start+k+half] = even - odd
			}
		}
	}

	mags := make([]float64, p.n/2)
	for i := range mags {
		re := real(p.scratch[i])
		im := imag(p.scratch[i])
		mags[i] = math.Hypot(re, im)
	}
	return mags, nil
}

// NextPowerOfTwo returns the smallest power of two >= n (and >= 2).
func NextPowerOfTwo(n int) int {
	if n < 2 {
		return 2
	}
	return 1 << bits.Len(uint(n-1))
}

// HannWindow multiplies the signal in place by a Hann window,
// suppressing spectral leakage from the window edges.
func HannWindow(signal []float64) {
	n := len(signal)
	if n < 2 {
		return
	}
	for i := range signal {
		w := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
		signal[i] *= w
	}
}

// ParabolicPeak refines a spectral peak location to sub-bin accuracy
// by fitting a parabola through the bin and its two neighbors. It
// returns the fractional bin index. Edge bins are returned unchanged.
func ParabolicPeak(mags []float64, bin int) float64 {
	if bin <= 0 || bin >= len(mags)-1 {
		return float64(bin)
	}
	alpha := mags[bin-1]
	beta := mags[bin]
	gamma := mags[bin+1]

	denom := alpha - 2*beta + gamma
	if denom == 0 {
		return float64(bin)
	}
	delta := 0.5 * (alpha - gamma) / denom
	if delta < -0.5 || delta > 0.5 {
		return float64(bin)
	}
	return float64(bin) + delta
}
