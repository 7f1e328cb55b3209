package biometrics

import (
	"math"

	"github.com/itohio/gopulse/pkg/config"
	"github.com/itohio/gopulse/pkg/ring"
)

const (
	activityHistoryLen = 32
	baselineDecay      = 0.05
)

// ActivityClassifier derives the discrete muscle-activity state from
// the IR channel and the accelerometer magnitude. It keeps a slow EMA
// baseline of the IR level and a short history for variance, nothing
// more; it is not a multi-step state machine.
type ActivityClassifier struct {
	history  *ring.Buffer[float64]
	baseline float64
	seeded   bool

	motionGate    float64 // raw accel magnitude in g above which everything is motion
	deviationGate float64 // ADC units
	grindingGate  float64 // IR variance separating grinding from clenching
}

// NewActivityClassifier creates a classifier from the session
// configuration.
func NewActivityClassifier(cfg config.BiometricConfig) *ActivityClassifier {
	return &ActivityClassifier{
		history:       ring.New[float64](activityHistoryLen),
		motionGate:    1 + cfg.MotionThreshold,
		deviationGate: cfg.DeviationThreshold,
		grindingGate:  cfg.GrindingVariance,
	}
}

// Classify returns the activity for one sample. ir is the
// motion-compensated IR value in ADC counts, accMagnitude the raw
// accelerometer magnitude in g.
func (c *ActivityClassifier) Classify(ir, accMagnitude float64) Activity {
	// Motion overrides everything; an optical deviation during body
	// motion is an artifact, not muscle activity.
	if accMagnitude > c.motionGate {
		return ActivityMotion
	}

	if !c.seeded {
		c.baseline = ir
		c.seeded = true
	}

	c.history.Push(ir)

	deviation := math.Abs(ir - c.baseline)
	if deviation > c.deviationGate {
		if ring.Compute(c.history).Variance > c.grindingGate {
			return ActivityGrinding
		}
		return ActivityClenching
	}

	// Track slow drift only while relaxed, so sustained clenching does
	// not get absorbed into the baseline.
	c.baseline = (1-baselineDecay)*c.baseline + baselineDecay*ir
	return ActivityRelaxed
}

// Reset clears the baseline and the IR history.
func (c *ActivityClassifier) Reset() {
	c.history.Reset()
	c.baseline = 0
	c.seeded = false
}
