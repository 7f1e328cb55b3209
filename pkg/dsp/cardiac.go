package dsp

// CardiacFilter is the live-path band-limiting filter: a recursive
// high-pass cascaded with a recursive low-pass. With the default
// coefficients it approximates a 0.1-2 Hz cardiac band at negligible
// per-sample cost.
type CardiacFilter struct {
	alphaHP float64
	alphaLP float64

	hp     float64
	lp     float64
	prev   float64
	primed bool
}

// NewCardiacFilter creates a filter with the given smoothing
// coefficients. Typical values are 0.05 (high-pass) and 0.15
// (low-pass).
func NewCardiacFilter(alphaHP, alphaLP float64) *CardiacFilter {
	return &CardiacFilter{alphaHP: alphaHP, alphaLP: alphaLP}
}

// Filter processes one sample and returns the band-limited value.
func (f *CardiacFilter) Filter(x float64) float64 {
	if !f.primed {
		// Seed with the first sample so the high-pass does not see the
		// full DC level as a step.
		f.prev = x
		f.primed = true
	}

	f.hp = f.alphaHP * (f.hp + x - f.prev)
	f.prev = x

	f.lp += f.alphaLP * (f.hp - f.lp)
	return f.lp
}

// Reset clears the filter state.
func (f *CardiacFilter) Reset() {
	f.hp = 0
	f.lp = 0
	f.prev = 0
	f.primed = false
}
