package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCardiacFilter_RejectsDC(t *testing.T) {
	f := NewCardiacFilter(0.05, 0.15)

	var out float64
	for i := 0; i < 500; i++ {
		out = f.Filter(80000)
	}
	assert.InDelta(t, 0.0, out, 1e-6, "constant input must be rejected")
}

func TestCardiacFilter_PassesCardiacBand(t *testing.T) {
	f := NewCardiacFilter(0.05, 0.15)

	// 1.2 Hz (72 BPM) at 50 Hz sampling.
	const fs = 50.0
	var min, max float64
	for i := 0; i < 500; i++ {
		x := 80000 + 1000*math.Sin(2*math.Pi*1.2*float64(i)/fs)
		y := f.Filter(x)
		if i > 250 { // settle first
			if y < min {
				min = y
			}
			if y > max {
				max = y
			}
		}
	}

	assert.Greater(t, max-min, 50.0, "cardiac-band oscillation should survive")
}

func TestCardiacFilter_Reset(t *testing.T) {
	f := NewCardiacFilter(0.05, 0.15)
	for i := 0; i < 100; i++ {
		f.Filter(float64(i * 100))
	}
	f.Reset()

	// A fresh filter seeded by the first sample outputs no step.
	assert.InDelta(t, 0.0, f.Filter(80000), 1e-9)
}
