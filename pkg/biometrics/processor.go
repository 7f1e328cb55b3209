package biometrics

import (
	"math"
	"sync"

	"github.com/itohio/gopulse/pkg/config"
	"github.com/itohio/gopulse/pkg/dsp"
	"github.com/itohio/gopulse/pkg/frame"
	"github.com/itohio/gopulse/pkg/ring"
)

// accelLSBPerG converts raw accelerometer counts to g. The wearable
// reports 16-bit samples at an 8 g full scale.
const accelLSBPerG = 4096.0

// Processor owns all pipeline state and sequences motion
// compensation, activity classification, buffering and the estimators
// per sample or per batch. All mutation happens under one mutex: the
// LMS weights and buffer indices are strictly order-dependent on the
// call sequence, so unsynchronized concurrent calls would corrupt
// state.
type Processor struct {
	cfg config.BiometricConfig

	mu sync.Mutex

	lmsIR    *dsp.LMSFilter
	lmsRed   *dsp.LMSFilter
	lmsGreen *dsp.LMSFilter

	cardiacIR    *dsp.CardiacFilter
	cardiacGreen *dsp.CardiacFilter

	classifier *ActivityClassifier
	hr         *HREstimator
	spo2       *SpO2Estimator

	// Raw (DC-preserving) windows feed SpO2 and the perfusion gate;
	// band-limited windows feed the heart-rate estimators.
	irRaw      *ring.Buffer[float64]
	redRaw     *ring.Buffer[float64]
	irFiltered *ring.Buffer[float64]
	greenFilt  *ring.Buffer[float64]
	accelMag   *ring.Buffer[float64]

	// The FFT plan is memoized by size and survives Reset: it depends
	// only on the configuration, and building one is expensive.
	fftPlan     *dsp.FFTPlan
	fftPlanSize int

	// Scratch slices reused across calls to keep Process allocation-free
	// on the steady path.
	scratchIR    []float64
	scratchRed   []float64
	scratchHRIR  []float64
	scratchGreen []float64

	callbacks []func(Result)
	cbMu      sync.RWMutex
}

// NewProcessor creates a Processor for one session. The configuration
// is copied and never mutated afterwards.
func NewProcessor(cfg config.BiometricConfig) *Processor {
	hrWindow := cfg.HRWindowSamples()
	spo2Window := cfg.SpO2WindowSamples()

	return &Processor{
		cfg:          cfg,
		lmsIR:        dsp.NewLMSFilter(),
		lmsRed:       dsp.NewLMSFilter(),
		lmsGreen:     dsp.NewLMSFilter(),
		cardiacIR:    dsp.NewCardiacFilter(cfg.HighPassAlpha, cfg.LowPassAlpha),
		cardiacGreen: dsp.NewCardiacFilter(cfg.HighPassAlpha, cfg.LowPassAlpha),
		classifier:   NewActivityClassifier(cfg),
		hr:           NewHREstimator(cfg),
		spo2:         NewSpO2Estimator(cfg),
		irRaw:        ring.New[float64](spo2Window),
		redRaw:       ring.New[float64](spo2Window),
		irFiltered:   ring.New[float64](hrWindow),
		greenFilt:    ring.New[float64](hrWindow),
		accelMag:     ring.New[float64](hrWindow),
	}
}

// Config returns the session configuration.
func (p *Processor) Config() config.BiometricConfig {
	return p.cfg
}

// OnResult registers a callback invoked after every realtime Process
// call. Callbacks run outside the processor lock.
func (p *Processor) OnResult(cb func(Result)) {
	p.cbMu.Lock()
	defer p.cbMu.Unlock()
	p.callbacks = append(p.callbacks, cb)
}

// Process runs one decoded sample through the pipeline and returns the
// composite result. Until the heart-rate window fills, the result is
// partial and carries only activity and motion.
func (p *Processor) Process(s frame.RawSample) Result {
	p.mu.Lock()
	res := p.processLocked(s)
	res.Method = MethodRealtime
	p.mu.Unlock()

	p.notify(res)
	return res
}

// ProcessBatch replays a whole recording: it resets all state, runs
// every index across the six channel arrays truncated to the shortest,
// and returns only the final result tagged as batch. Callbacks are not
// invoked; batch replay is an offline operation.
func (p *Processor) ProcessBatch(ir, red, green []int32, ax, ay, az []int16) Result {
	n := len(ir)
	for _, l := range []int{len(red), len(green), len(ax), len(ay), len(az)} {
		if l < n {
			n = l
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.resetLocked()

	// An empty batch never filled a window, so the result stays partial.
	res := Result{Partial: true}
	for i := 0; i < n; i++ {
		res = p.processLocked(frame.RawSample{
			IR:     ir[i],
			Red:    red[i],
			Green:  green[i],
			AccelX: ax[i],
			AccelY: ay[i],
			AccelZ: az[i],
		})
	}
	res.Method = MethodBatch
	return res
}

// ProcessSamples consumes decoded samples from a channel until it
// closes. Feeding the processor from a single goroutine provides the
// serialization the pipeline requires.
func (p *Processor) ProcessSamples(input <-chan frame.RawSample) {
	for s := range input {
		p.Process(s)
	}
}

// Reset clears buffers and filter state, e.g. on reconnect or a new
// session. The cached FFT plan is kept: it depends only on the
// configuration and stays valid across sessions.
func (p *Processor) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
}

// AverageMotion returns the mean motion level over the accelerometer
// window, useful for logging and rate-limited telemetry.
func (p *Processor) AverageMotion() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return ring.Compute(p.accelMag).Mean
}

func (p *Processor) resetLocked() {
	p.irRaw.Reset()
	p.redRaw.Reset()
	p.irFiltered.Reset()
	p.greenFilt.Reset()
	p.accelMag.Reset()

	p.lmsIR.Reset()
	p.lmsRed.Reset()
	p.lmsGreen.Reset()
	p.cardiacIR.Reset()
	p.cardiacGreen.Reset()
	p.classifier.Reset()
}

func (p *Processor) processLocked(s frame.RawSample) Result {
	magnitude := math.Sqrt(
		float64(s.AccelX)*float64(s.AccelX)+
			float64(s.AccelY)*float64(s.AccelY)+
			float64(s.AccelZ)*float64(s.AccelZ)) / accelLSBPerG
	motionLevel := math.Abs(magnitude - 1)

	// The accelerometer magnitude is the LMS noise reference for all
	// three optical channels: skin motion modulates them coherently.
	ir := p.lmsIR.Filter(float64(s.IR), motionLevel)
	red := p.lmsRed.Filter(float64(s.Red), motionLevel)
	green := p.lmsGreen.Filter(float64(s.Green), motionLevel)

	activity := p.classifier.Classify(ir, magnitude)

	p.irRaw.Push(ir)
	p.redRaw.Push(red)
	p.irFiltered.Push(p.cardiacIR.Filter(ir))
	p.greenFilt.Push(p.cardiacGreen.Filter(green))
	p.accelMag.Push(motionLevel)

	res := Result{
		Timestamp:   s.Timestamp,
		Activity:    activity,
		MotionLevel: motionLevel,
	}

	if !p.irFiltered.Full() {
		res.Partial = true
		return res
	}

	p.scratchIR = p.irRaw.Slice(p.scratchIR)
	res.PerfusionIndex = PerfusionIndex(p.scratchIR)
	res.SignalStrength = ClassifyStrength(res.PerfusionIndex)

	if activity != ActivityMotion {
		p.scratchHRIR = p.irFiltered.Slice(p.scratchHRIR)
		p.scratchGreen = p.greenFilt.Slice(p.scratchGreen)
		res.HeartRate = p.hr.Estimate(p.scratchHRIR, p.scratchGreen, p.plan())
	}

	if activity != ActivityMotion &&
		res.SignalStrength != SignalNone && res.SignalStrength != SignalWeak {
		p.scratchRed = p.redRaw.Slice(p.scratchRed)
		res.SpO2 = p.spo2.Estimate(p.scratchRed, p.scratchIR)
	}

	res.Worn = IsWorn(res.PerfusionIndex, p.cfg.MinPerfusionIndex, res.HeartRate, p.cfg.MinHRQuality)
	return res
}

// plan returns the memoized FFT plan for the heart-rate window,
// building it on first use. A failed build leaves the plan nil and the
// spectral path disabled.
func (p *Processor) plan() *dsp.FFTPlan {
	need := dsp.NextPowerOfTwo(p.cfg.HRWindowSamples())
	if p.fftPlan != nil && p.fftPlanSize == need {
		return p.fftPlan
	}

	plan, err := dsp.NewFFTPlan(need)
	if err != nil {
		p.fftPlan = nil
		p.fftPlanSize = 0
		return nil
	}
	p.fftPlan = plan
	p.fftPlanSize = need
	return plan
}

func (p *Processor) notify(res Result) {
	p.cbMu.RLock()
	callbacks := make([]func(Result), len(p.callbacks))
	copy(callbacks, p.callbacks)
	p.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(res)
		}
	}
}
