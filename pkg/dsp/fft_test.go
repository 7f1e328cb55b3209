package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFFTPlan_SizeValidation(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{name: "too small", size: 1, wantErr: true},
		{name: "not power of two", size: 100, wantErr: true},
		{name: "minimum", size: 2, wantErr: false},
		{name: "typical", size: 256, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewFFTPlan(tt.size)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.size, p.Size())
		})
	}
}

func TestNextPowerOfTwo(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 2}, {1, 2}, {2, 2}, {3, 4}, {128, 128}, {129, 256}, {150, 256}, {500, 512},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NextPowerOfTwo(tt.in), "NextPowerOfTwo(%d)", tt.in)
	}
}

func TestMagnitudes_SinusoidPeak(t *testing.T) {
	const n = 256
	p, err := NewFFTPlan(n)
	require.NoError(t, err)

	// Exactly 10 cycles in the window: all energy lands in bin 10.
	signal := make([]float64, n)
	for i := range signal {
		signal[i] = math.Sin(2 * math.Pi * 10 * float64(i) / n)
	}

	mags, err := p.Magnitudes(signal)
	require.NoError(t, err)
	require.Len(t, mags, n/2)

	peak := 0
	for i := range mags {
		if mags[i] > mags[peak] {
			peak = i
		}
	}
	assert.Equal(t, 10, peak)
	assert.InDelta(t, n/2, mags[10], 1.0, "bin magnitude of a unit sinusoid is N/2")
}

func TestMagnitudes_ZeroPadsShortSignal(t *testing.T) {
	p, err := NewFFTPlan(128)
	require.NoError(t, err)

	mags, err := p.Magnitudes(make([]float64, 100))
	require.NoError(t, err)
	for _, m := range mags {
		assert.InDelta(t, 0.0, m, 1e-12)
	}

	_, err = p.Magnitudes(make([]float64, 129))
	assert.Error(t, err, "signal longer than plan must be rejected")
}

func TestHannWindow(t *testing.T) {
	signal := []float64{1, 1, 1, 1, 1}
	HannWindow(signal)

	assert.InDelta(t, 0.0, signal[0], 1e-12)
	assert.InDelta(t, 1.0, signal[2], 1e-12)
	assert.InDelta(t, 0.0, signal[4], 1e-12)
	assert.InDelta(t, signal[1], signal[3], 1e-12, "window is symmetric")
}

func TestParabolicPeak(t *testing.T) {
	// Symmetric neighbors keep the peak on the bin.
	mags := []float64{0, 1, 4, 1, 0}
	assert.InDelta(t, 2.0, ParabolicPeak(mags, 2), 1e-12)

	// A heavier right neighbor pulls the estimate right.
	mags = []float64{0, 1, 4, 3, 0}
	refined := ParabolicPeak(mags, 2)
	assert.Greater(t, refined, 2.0)
	assert.Less(t, refined, 2.5)

	// Edge bins are returned unchanged.
	assert.Equal(t, 0.0, ParabolicPeak(mags, 0))
	assert.Equal(t, 4.0, ParabolicPeak(mags, 4))
}
