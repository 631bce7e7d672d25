// SPDX-License-Identifier: MIT
/*
Package analysis decides whether a recording contains the test tone.

The verdict combines three independent checks on a single full-length FFT of
the recording: the overall level must exceed a floor, the dominant non-DC bin
must sit within a tolerance of the expected frequency, and the magnitude at
the expected frequency must stand out from the spectrum outside a guard band
around it. Analysis is pure; the same input always yields the same Result.
*/
package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	"loopcheck/internal/config"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// fallbackNoiseFloor is used when the guard band covers the whole spectrum.
const fallbackNoiseFloor = 0.0001

// Thresholds configure the detection verdict.
type Thresholds struct {
	MinRMS             float64 // RMS must be strictly above this.
	FrequencyTolerance float64 // Hz, |detected-expected| must be strictly below this.
	SNRThreshold       float64 // SNR must be strictly above this.
	NoiseBandHz        float64 // Half-width of the band excluded from the noise floor.
}

// DefaultThresholds returns the built-in detection thresholds.
func DefaultThresholds() Thresholds {
	return ThresholdsFromConfig(config.NewConfig().Detection)
}

// ThresholdsFromConfig maps the detection section of the configuration.
func ThresholdsFromConfig(c config.DetectionConfig) Thresholds {
	return Thresholds{
		MinRMS:             c.MinRMS,
		FrequencyTolerance: c.FrequencyTolerance,
		SNRThreshold:       c.SNRThreshold,
		NoiseBandHz:        c.NoiseBandHz,
	}
}

// Result holds the measurements of one recording and the derived verdict.
type Result struct {
	ExpectedFrequency   float64 `json:"expectedFrequency"`
	RMS                 float64 `json:"rms"`
	Peak                float64 `json:"peak"`
	DetectedFrequency   float64 `json:"detectedFrequency"`
	MagnitudeAtExpected float64 `json:"magnitudeAtExpected"`
	NoiseFloor          float64 `json:"noiseFloor"`
	SNR                 float64 `json:"snr"`
	FrequencyMatches    bool    `json:"frequencyMatches"`
	ToneDetected        bool    `json:"toneDetected"`
}

// Analyzer applies Thresholds to recordings.
type Analyzer struct {
	Thresholds Thresholds
}

// New returns an Analyzer using t.
func New(t Thresholds) *Analyzer {
	return &Analyzer{Thresholds: t}
}

// Analyze measures a mono recording taken at sampleRate for a tone at
// expected Hz. An empty recording yields a zero Result that is not detected.
func (a *Analyzer) Analyze(samples []float32, sampleRate, expected float64) Result {
	res := Result{ExpectedFrequency: expected}
	n := len(samples)
	if n == 0 || sampleRate <= 0 {
		return res
	}

	x := make([]float64, n)
	for i, s := range samples {
		x[i] = float64(s)
	}

	res.RMS = math.Sqrt(floats.Dot(x, x) / float64(n))
	res.Peak = floats.Norm(x, math.Inf(1))

	mags := magnitudes(x)
	binHz := sampleRate / float64(n)

	if len(mags) > 1 {
		dominant := floats.MaxIdx(mags[1:]) + 1 // skip DC
		res.DetectedFrequency = float64(dominant) * binHz
	}

	res.MagnitudeAtExpected = mags[nearestBin(expected, binHz, len(mags))]

	lo := nearestBin(expected-a.Thresholds.NoiseBandHz, binHz, len(mags))
	hi := nearestBin(expected+a.Thresholds.NoiseBandHz, binHz, len(mags))
	noise := make([]float64, 0, len(mags))
	noise = append(noise, mags[:lo]...)
	noise = append(noise, mags[hi+1:]...)
	if len(noise) > 0 {
		res.NoiseFloor = stat.Mean(noise, nil)
	} else {
		res.NoiseFloor = fallbackNoiseFloor
	}

	if res.NoiseFloor > 0 {
		res.SNR = res.MagnitudeAtExpected / res.NoiseFloor
	}

	res.FrequencyMatches = math.Abs(res.DetectedFrequency-expected) < a.Thresholds.FrequencyTolerance
	res.ToneDetected = res.RMS > a.Thresholds.MinRMS &&
		res.FrequencyMatches &&
		res.SNR > a.Thresholds.SNRThreshold

	return res
}

// magnitudes returns |X[k]|/N for k in [0, N/2].
func magnitudes(x []float64) []float64 {
	fft := fourier.NewFFT(len(x))
	coeffs := fft.Coefficients(nil, x)

	scale := 1 / float64(len(x))
	mags := make([]float64, len(coeffs))
	for i, c := range coeffs {
		mags[i] = cmplx.Abs(c) * scale
	}
	return mags
}

// nearestBin returns the index of the bin whose centre is closest to freq,
// preferring the lower bin on an exact tie.
func nearestBin(freq, binHz float64, bins int) int {
	i := int(math.Ceil(freq/binHz - 0.5))
	return min(max(i, 0), bins-1)
}

// Reasons explains a negative verdict, one line per failed check. It is
// empty when the tone was detected.
func (r Result) Reasons(t Thresholds) []string {
	if r.ToneDetected {
		return nil
	}
	var reasons []string
	if r.RMS <= t.MinRMS {
		reasons = append(reasons, fmt.Sprintf("RMS too low (%.6f <= %g)", r.RMS, t.MinRMS))
	}
	if !r.FrequencyMatches {
		reasons = append(reasons, fmt.Sprintf("wrong frequency (%.1f Hz, expected %.1f Hz)", r.DetectedFrequency, r.ExpectedFrequency))
	}
	if r.SNR <= t.SNRThreshold {
		reasons = append(reasons, fmt.Sprintf("SNR too low (%.1f <= %g)", r.SNR, t.SNRThreshold))
	}
	return reasons
}
