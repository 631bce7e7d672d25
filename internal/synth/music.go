// SPDX-License-Identifier: MIT
package synth

import (
	"math"
	"time"
)

// Note frequencies in Hz.
const (
	NoteC4 = 261.63
	NoteD4 = 293.66
	NoteE4 = 329.63
	NoteF4 = 349.23
	NoteG4 = 392.00
	NoteA4 = 440.00
	NoteB4 = 493.88
	NoteC5 = 523.25
	NoteE5 = 659.25
	NoteG5 = 783.99
)

const (
	chimeNoteLength = 150 * time.Millisecond
	chimeAmplitude  = 0.4
	melodyAmplitude = 0.3
	harmonyRatio    = 1.5 // perfect fifth
)

// Chime returns a short ascending C5-E5-G5 arpeggio, each note shaped by a
// half-sine envelope.
func Chime(sampleRate float64) []float32 {
	notes := []float64{NoteC5, NoteE5, NoteG5}
	per := SampleCount(sampleRate, chimeNoteLength)
	out := make([]float32, 0, per*len(notes))

	for _, f := range notes {
		w := 2 * math.Pi * f / sampleRate
		for i := range per {
			env := halfSine(i, per)
			out = append(out, float32(chimeAmplitude*env*math.Sin(w*float64(i))))
		}
	}
	return out
}

// Melody returns an ascending C4-C5 scale spread evenly over duration, each
// note doubled a fifth above at half level.
func Melody(sampleRate float64, duration time.Duration) []float32 {
	scale := []float64{NoteC4, NoteD4, NoteE4, NoteF4, NoteG4, NoteA4, NoteB4, NoteC5}
	n := SampleCount(sampleRate, duration)
	out := make([]float32, n)
	per := n / len(scale)
	if per == 0 {
		return out
	}

	for k, f := range scale {
		start := k * per
		w := 2 * math.Pi * f / sampleRate
		for i := range per {
			t := float64(i)
			v := melodyAmplitude*math.Sin(w*t) + melodyAmplitude/2*math.Sin(w*harmonyRatio*t)
			out[start+i] = float32(halfSine(i, per) * v)
		}
	}
	return out
}

// halfSine is sin(pi * i/(n-1)), zero at both ends of the note.
func halfSine(i, n int) float64 {
	if n < 2 {
		return 0
	}
	return math.Sin(math.Pi * float64(i) / float64(n-1))
}
