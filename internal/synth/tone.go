// SPDX-License-Identifier: MIT
/*
Package synth generates the signals played through audio paths: the faded
sine test tone used for loopback detection, and short musical samples used
for audible manual checks.

All generators are pure and deterministic. Invalid inputs (negative duration
or sample rate) are a caller error and yield an empty waveform.
*/
package synth

import (
	"math"
	"time"
)

// DefaultFade is the fade length applied to both ends of a test tone.
const DefaultFade = 50 * time.Millisecond

// SampleCount returns round(sampleRate * duration).
func SampleCount(sampleRate float64, duration time.Duration) int {
	n := int(math.Round(sampleRate * duration.Seconds()))
	if n < 0 {
		return 0
	}
	return n
}

// GenerateTone returns round(sampleRate*duration) samples of
// amplitude*sin(2*pi*frequency*t) with a DefaultFade linear ramp at each end.
func GenerateTone(frequency float64, duration time.Duration, sampleRate, amplitude float64) []float32 {
	return GenerateFadedTone(frequency, duration, sampleRate, amplitude, DefaultFade)
}

// GenerateFadedTone is GenerateTone with an explicit fade length. The fade is
// clamped to half the tone so the ramps never overlap.
func GenerateFadedTone(frequency float64, duration time.Duration, sampleRate, amplitude float64, fade time.Duration) []float32 {
	n := SampleCount(sampleRate, duration)
	if n == 0 || sampleRate <= 0 {
		return []float32{}
	}

	env := fadeEnvelope(n, SampleCount(sampleRate, fade))
	out := make([]float32, n)
	w := 2 * math.Pi * frequency / sampleRate
	for i := range out {
		out[i] = float32(amplitude * env[i] * math.Sin(w*float64(i)))
	}
	return out
}

// fadeEnvelope returns a gain curve of length n that ramps linearly from 0 to
// 1 over the first fade samples, holds 1, and ramps back to 0 over the last
// fade samples.
func fadeEnvelope(n, fade int) []float64 {
	env := make([]float64, n)
	for i := range env {
		env[i] = 1
	}
	fade = min(fade, n/2)
	if fade < 2 {
		return env
	}

	step := 1 / float64(fade-1)
	for i := range fade {
		g := float64(i) * step
		env[i] = g
		env[n-1-i] = g
	}
	return env
}
