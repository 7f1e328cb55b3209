package biometrics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/itohio/gopulse/pkg/config"
)

func TestClassify_RelaxedAtBaseline(t *testing.T) {
	c := NewActivityClassifier(config.Preset50Hz())

	for i := 0; i < 100; i++ {
		assert.Equal(t, ActivityRelaxed, c.Classify(80000, 1.0))
	}
}

func TestClassify_MotionOverridesEverything(t *testing.T) {
	c := NewActivityClassifier(config.Preset50Hz())

	tests := []struct {
		name string
		ir   float64
	}{
		{name: "baseline ir", ir: 80000},
		{name: "huge deviation", ir: 200000},
		{name: "zero ir", ir: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, ActivityMotion, c.Classify(tt.ir, 2.0))
		})
	}
}

func TestClassify_MotionGateIsExclusive(t *testing.T) {
	c := NewActivityClassifier(config.Preset50Hz())

	// 1.15 g is the gate: at the gate it is not motion yet.
	assert.NotEqual(t, ActivityMotion, c.Classify(80000, 1.15))
	assert.Equal(t, ActivityMotion, c.Classify(80000, 1.16))
}

func TestClassify_SustainedDeviationIsClenching(t *testing.T) {
	c := NewActivityClassifier(config.Preset50Hz())

	// Establish the baseline.
	for i := 0; i < 10; i++ {
		c.Classify(80000, 1.0)
	}

	// A sustained level shift: once the history variance settles, the
	// steady deviation reads as clenching.
	var got Activity
	for i := 0; i < 64; i++ {
		got = c.Classify(86000, 1.0)
	}
	assert.Equal(t, ActivityClenching, got)
}

func TestClassify_OscillatingDeviationIsGrinding(t *testing.T) {
	c := NewActivityClassifier(config.Preset50Hz())

	for i := 0; i < 10; i++ {
		c.Classify(80000, 1.0)
	}

	// Rapid oscillation around the deviated level keeps variance high.
	var got Activity
	for i := 0; i < 64; i++ {
		ir := 86000.0
		if i%2 == 1 {
			ir = 74000.0
		}
		got = c.Classify(ir, 1.0)
	}
	assert.Equal(t, ActivityGrinding, got)
}

func TestClassify_BaselineTracksSlowDrift(t *testing.T) {
	c := NewActivityClassifier(config.Preset50Hz())

	// Drift the level slowly; the EMA follows, so the deviation gate
	// never fires.
	level := 80000.0
	for i := 0; i < 400; i++ {
		level += 20
		assert.Equal(t, ActivityRelaxed, c.Classify(level, 1.0))
	}
}

func TestClassifier_Reset(t *testing.T) {
	c := NewActivityClassifier(config.Preset50Hz())
	for i := 0; i < 50; i++ {
		c.Classify(80000, 1.0)
	}
	c.Reset()

	// Fresh baseline: a very different level reads as relaxed again
	// because the first sample reseeds it.
	assert.Equal(t, ActivityRelaxed, c.Classify(20000, 1.0))
}
