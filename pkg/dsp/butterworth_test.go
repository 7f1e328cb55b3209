package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLowPass_UnityDCGain(t *testing.T) {
	f, err := NewLowPass(2, 50)
	require.NoError(t, err)

	var out float64
	for i := 0; i < 500; i++ {
		out = f.Filter(1)
	}
	assert.InDelta(t, 1.0, out, 0.001, "low-pass must pass DC at unity gain")
}

func TestNewHighPass_RejectsDC(t *testing.T) {
	f, err := NewHighPass(0.5, 50)
	require.NoError(t, err)

	var out float64
	for i := 0; i < 2000; i++ {
		out = f.Filter(1)
	}
	assert.InDelta(t, 0.0, out, 0.001, "high-pass must reject DC")
}

func TestNewBandPass_RejectsDCAndPassesCenter(t *testing.T) {
	f, err := NewBandPass(0.5, 4, 50)
	require.NoError(t, err)

	var dcOut float64
	for i := 0; i < 2000; i++ {
		dcOut = f.Filter(1)
	}
	assert.InDelta(t, 0.0, dcOut, 0.01)

	f.Reset()
	center := math.Sqrt(0.5 * 4)
	var min, max float64
	for i := 0; i < 2000; i++ {
		y := f.Filter(math.Sin(2 * math.Pi * center * float64(i) / 50))
		if i > 1000 {
			if y < min {
				min = y
			}
			if y > max {
				max = y
			}
		}
	}
	assert.Greater(t, max-min, 1.0, "center frequency should pass near unity")
}

func TestDesignErrors(t *testing.T) {
	tests := []struct {
		name string
		fn   func() error
	}{
		{"lowpass zero cutoff", func() error { _, err := NewLowPass(0, 50); return err }},
		{"lowpass at nyquist", func() error { _, err := NewLowPass(25, 50); return err }},
		{"highpass negative rate", func() error { _, err := NewHighPass(1, -50); return err }},
		{"bandpass inverted edges", func() error { _, err := NewBandPass(4, 2, 50); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.fn())
		})
	}
}

func TestFiltFilt_ZeroPhase(t *testing.T) {
	f, err := NewLowPass(5, 50)
	require.NoError(t, err)

	// A symmetric bump must stay centered after zero-phase filtering;
	// a causal pass would delay it.
	n := 201
	center := n / 2
	signal := make([]float64, n)
	for i := range signal {
		d := float64(i-center) / 10
		signal[i] = math.Exp(-0.5 * d * d)
	}

	out := f.FiltFilt(signal)
	require.Len(t, out, n)

	peak := 0
	for i := range out {
		if out[i] > out[peak] {
			peak = i
		}
	}
	assert.InDelta(t, float64(center), float64(peak), 1,
		"zero-phase output peak must not shift")
}

func TestFilterBatch_MatchesFilter(t *testing.T) {
	a, err := NewLowPass(3, 50)
	require.NoError(t, err)
	b, err := NewLowPass(3, 50)
	require.NoError(t, err)

	signal := []float64{1, 2, 3, 2, 1, 0, -1, -2}
	batch := a.FilterBatch(signal)
	for i, x := range signal {
		assert.InDelta(t, b.Filter(x), batch[i], 1e-12)
	}
}
