package ring

import "math"

// Stats bundles the windowed statistics the estimators share so a
// single pass over the buffer serves all of them.
type Stats struct {
	Mean     float64
	StdDev   float64
	Variance float64
	Min      float64
	Max      float64
}

// PeakToPeak returns the AC amplitude of the window.
func (s Stats) PeakToPeak() float64 {
	return s.Max - s.Min
}

// Compute calculates Stats over a float64 buffer in one pass.
func Compute(b *Buffer[float64]) Stats {
	if b.Len() == 0 {
		return Stats{}
	}
	first := b.At(0)
	s := Stats{Min: first, Max: first}
	sum := 0.0
	for i := 0; i < b.Len(); i++ {
		v := b.At(i)
		sum += v
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	s.Mean = sum / float64(b.Len())
	ss := 0.0
	for i := 0; i < b.Len(); i++ {
		d := b.At(i) - s.Mean
		ss += d * d
	}
	s.Variance = ss / float64(b.Len())
	s.StdDev = math.Sqrt(s.Variance)
	return s
}

// ComputeSlice calculates Stats over a plain slice.
func ComputeSlice(xs []float64) Stats {
	if len(xs) == 0 {
		return Stats{}
	}
	s := Stats{Min: xs[0], Max: xs[0]}
	sum := 0.0
	for _, v := range xs {
		sum += v
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	s.Mean = sum / float64(len(xs))
	ss := 0.0
	for _, v := range xs {
		d := v - s.Mean
		ss += d * d
	}
	s.Variance = ss / float64(len(xs))
	s.StdDev = math.Sqrt(s.Variance)
	return s
}
