package biometrics

import (
	"math"

	"github.com/itohio/gopulse/pkg/config"
	"github.com/itohio/gopulse/pkg/dsp"
	"github.com/itohio/gopulse/pkg/ring"
)

const (
	// flatSignalStdDev rejects windows with no pulsatile content.
	flatSignalStdDev = 1.0
	// peakThresholdFactor scales the adaptive detection threshold.
	peakThresholdFactor = 0.6
	// spectralMinSamples is the minimum window for the FFT path.
	spectralMinSamples = 128
	// crossValidationBPM is the estimator disagreement above which the
	// spectral result wins.
	crossValidationBPM = 15
	// fftPreferredQualityFactor discounts the time-domain quality when
	// the spectral estimate overrides it.
	fftPreferredQualityFactor = 0.8
	// spectralFallbackQualityFactor relaxes the quality gate when only
	// the spectral path produced anything.
	spectralFallbackQualityFactor = 0.7
)

// HREstimator computes heart rate from band-limited PPG windows using
// a time-domain adaptive peak detector cross-validated by an FFT
// spectral estimator.
type HREstimator struct {
	cfg config.BiometricConfig
}

// NewHREstimator creates an estimator bound to the session
// configuration.
func NewHREstimator(cfg config.BiometricConfig) *HREstimator {
	return &HREstimator{cfg: cfg}
}

// Estimate runs the selection policy over the IR and green windows.
// plan may be nil when no FFT plan could be allocated; the spectral
// path is then skipped and the time-domain result stands alone.
func (e *HREstimator) Estimate(ir, green []float64, plan *dsp.FFTPlan) HeartRate {
	if hr := e.estimateChannel(ir, HRSourceIR, plan); hr.Available() {
		return hr
	}
	if hr := e.estimateChannel(green, HRSourceGreen, plan); hr.Available() {
		return hr
	}

	// Both channels failed the time-domain gate; the spectrum is more
	// tolerant of irregular peak shapes, so try it alone with a
	// relaxed quality requirement.
	fallbackGate := spectralFallbackQualityFactor * e.cfg.MinHRQuality
	if hr := e.EstimateSpectral(ir, plan); hr.Available() && hr.Quality >= fallbackGate {
		return hr
	}
	if hr := e.EstimateSpectral(green, plan); hr.Available() && hr.Quality >= fallbackGate {
		return hr
	}

	return HeartRate{}
}

// estimateChannel applies the time-domain detector to one channel and
// cross-validates a passing result against the spectral estimate.
func (e *HREstimator) estimateChannel(window []float64, source HRSource, plan *dsp.FFTPlan) HeartRate {
	hr := e.EstimateTimeDomain(window, source)
	if !hr.Available() || hr.Quality < e.cfg.MinHRQuality {
		return HeartRate{}
	}

	spectral := e.EstimateSpectral(window, plan)
	if spectral.Available() && math.Abs(spectral.BPM-hr.BPM) > crossValidationBPM {
		return HeartRate{
			BPM:     spectral.BPM,
			Quality: fftPreferredQualityFactor * hr.Quality,
			Source:  HRSourceFFT,
		}
	}
	return hr
}

// EstimateTimeDomain detects peaks over an adaptive threshold and
// derives BPM from the median inter-peak interval.
func (e *HREstimator) EstimateTimeDomain(window []float64, source HRSource) HeartRate {
	if len(window) < 2 {
		return HeartRate{}
	}

	stats := ring.ComputeSlice(window)
	if stats.StdDev < flatSignalStdDev {
		return HeartRate{}
	}

	threshold := stats.Mean + peakThresholdFactor*stats.StdDev

	minInterval := 60 / e.cfg.MaxBPM // seconds, max-rate refractory gate
	maxInterval := 60 / e.cfg.MinBPM
	refractory := int(minInterval * e.cfg.SampleRate)

	peaks := make([]int, 0, 16)
	lastPeak := -refractory
	for i := 1; i < len(window)-1; i++ {
		if window[i] <= threshold {
			continue
		}
		if window[i] <= window[i-1] || window[i] < window[i+1] {
			continue
		}
		if i-lastPeak < refractory {
			continue
		}
		peaks = append(peaks, i)
		lastPeak = i
	}

	if len(peaks) < 2 {
		return HeartRate{}
	}

	intervals := make([]float64, 0, len(peaks)-1)
	for i := 1; i < len(peaks); i++ {
		dt := float64(peaks[i]-peaks[i-1]) / e.cfg.SampleRate
		if dt >= minInterval && dt <= maxInterval {
			intervals = append(intervals, dt)
		}
	}
	if len(intervals) == 0 {
		return HeartRate{}
	}

	bpm := math.Round(60 / median(intervals))
	if bpm < e.cfg.MinBPM || bpm > e.cfg.MaxBPM {
		return HeartRate{}
	}

	amplitude := 0.0
	if stats.Mean != 0 {
		amplitude = clamp01(stats.StdDev / math.Abs(stats.Mean))
	} else {
		amplitude = 1
	}
	quality := 0.6*amplitude + 0.4*clamp01(float64(len(intervals))/10)

	return HeartRate{BPM: bpm, Quality: quality, Source: source}
}

// EstimateSpectral computes BPM from the dominant in-band FFT bin with
// parabolic sub-bin refinement.
func (e *HREstimator) EstimateSpectral(window []float64, plan *dsp.FFTPlan) HeartRate {
	if plan == nil || len(window) < spectralMinSamples || len(window) > plan.Size() {
		return HeartRate{}
	}

	// Remove DC and taper before transforming.
	stats := ring.ComputeSlice(window)
	tapered := make([]float64, len(window))
	for i, v := range window {
		tapered[i] = v - stats.Mean
	}
	dsp.HannWindow(tapered)

	mags, err := plan.Magnitudes(tapered)
	if err != nil {
		return HeartRate{}
	}

	binHz := e.cfg.SampleRate / float64(plan.Size())
	loBin := int(math.Ceil(e.cfg.MinBPM / 60 / binHz))
	hiBin := int(math.Floor(e.cfg.MaxBPM / 60 / binHz))
	if loBin < 1 {
		loBin = 1
	}
	if hiBin >= len(mags) {
		hiBin = len(mags) - 1
	}
	if loBin >= hiBin {
		return HeartRate{}
	}

	peakBin := loBin
	sum := 0.0
	for i := loBin; i <= hiBin; i++ {
		sum += mags[i]
		if mags[i] > mags[peakBin] {
			peakBin = i
		}
	}
	avg := sum / float64(hiBin-loBin+1)
	if avg == 0 {
		return HeartRate{}
	}

	freq := dsp.ParabolicPeak(mags, peakBin) * binHz
	bpm := math.Round(freq * 60)
	if bpm < e.cfg.MinBPM || bpm > e.cfg.MaxBPM {
		return HeartRate{}
	}

	quality := clamp01((mags[peakBin]/avg - 1) / 4)
	return HeartRate{BPM: bpm, Quality: quality, Source: HRSourceFFT}
}

// median returns the outlier-robust middle value. The slice is sorted
// in place.
func median(xs []float64) float64 {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j] < xs[j-1]; j-- {
			xs[j], xs[j-1] = xs[j-1], xs[j]
		}
	}
	if len(xs)%2 == 1 {
		return xs[len(xs)/2]
	}
	return (xs[len(xs)/2-1] + xs[len(xs)/2]) / 2
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
