// SPDX-License-Identifier: MIT
package synth

import (
	"fmt"
	"math"
	"testing"
	"time"
)

func TestGenerateToneLength(t *testing.T) {
	tests := []struct {
		freq       float64
		duration   time.Duration
		sampleRate float64
		want       int
	}{
		{1000, 2 * time.Second, 48000, 96000},
		{440, 100 * time.Millisecond, 16000, 1600},
		{1000, 333 * time.Millisecond, 44100, 14685}, // 14685.3 rounds down
		{1000, 10 * time.Millisecond, 8000, 80},
		{1000, 0, 48000, 0},
		{1000, -time.Second, 48000, 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v@%.0f", tt.duration, tt.sampleRate), func(t *testing.T) {
			got := GenerateTone(tt.freq, tt.duration, tt.sampleRate, 0.8)
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestGenerateToneBounded(t *testing.T) {
	amplitudes := []float64{0.1, 0.5, 0.8, 1.0}
	for _, a := range amplitudes {
		tone := GenerateTone(1000, time.Second, 48000, a)
		limit := float32(a)
		for i, s := range tone {
			if s > limit || s < -limit {
				t.Fatalf("amplitude %.1f: sample %d = %f exceeds bound", a, i, s)
			}
		}
	}
}

func TestGenerateToneEdgesAreSilent(t *testing.T) {
	tone := GenerateTone(1000, time.Second, 48000, 0.8)
	if tone[0] != 0 || tone[len(tone)-1] != 0 {
		t.Errorf("edges = (%f, %f), want both 0", tone[0], tone[len(tone)-1])
	}
}

func TestFadeEnvelopeMonotonic(t *testing.T) {
	tests := []struct {
		n, fade int
	}{
		{96000, 2400},
		{100, 10},
		{100, 80}, // clamped to 50
		{3, 1},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("n=%d fade=%d", tt.n, tt.fade), func(t *testing.T) {
			env := fadeEnvelope(tt.n, tt.fade)
			fade := min(tt.fade, tt.n/2)

			for i := 1; i < fade; i++ {
				if env[i] < env[i-1] {
					t.Fatalf("fade-in decreases at %d: %f < %f", i, env[i], env[i-1])
				}
			}
			for i := tt.n - fade + 1; i < tt.n; i++ {
				if env[i] > env[i-1] {
					t.Fatalf("fade-out increases at %d: %f > %f", i, env[i], env[i-1])
				}
			}
			for i := fade; i < tt.n-fade; i++ {
				if env[i] != 1 {
					t.Fatalf("sustain gain at %d = %f, want 1", i, env[i])
				}
			}
		})
	}
}

func TestGenerateToneFrequency(t *testing.T) {
	const rate = 48000.0
	tone := GenerateFadedTone(1000, time.Second, rate, 1, 0)

	crossings := 0
	for i := 1; i < len(tone); i++ {
		if (tone[i-1] < 0) != (tone[i] < 0) {
			crossings++
		}
	}
	// 1000 Hz for 1 s crosses zero about 2000 times.
	if math.Abs(float64(crossings)-2000) > 4 {
		t.Errorf("zero crossings = %d, want about 2000", crossings)
	}
}

func TestGenerateToneDeterministic(t *testing.T) {
	a := GenerateTone(1000, 500*time.Millisecond, 16000, 0.8)
	b := GenerateTone(1000, 500*time.Millisecond, 16000, 0.8)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d differs: %f vs %f", i, a[i], b[i])
		}
	}
}

func TestChime(t *testing.T) {
	c := Chime(16000)
	if want := 3 * 2400; len(c) != want {
		t.Fatalf("len = %d, want %d", len(c), want)
	}
	for i, s := range c {
		if math.Abs(float64(s)) > chimeAmplitude+1e-6 {
			t.Fatalf("sample %d = %f exceeds chime amplitude", i, s)
		}
	}
	if c[0] != 0 || c[2399] > 1e-6 || c[2399] < -1e-6 {
		t.Errorf("first note not enveloped: start %f end %f", c[0], c[2399])
	}
}

func TestMelody(t *testing.T) {
	m := Melody(16000, 3*time.Second)
	if len(m) != 48000 {
		t.Fatalf("len = %d, want 48000", len(m))
	}
	limit := melodyAmplitude * 1.5
	var energy float64
	for i, s := range m {
		if math.Abs(float64(s)) > limit+1e-6 {
			t.Fatalf("sample %d = %f exceeds %f", i, s, limit)
		}
		energy += float64(s) * float64(s)
	}
	if energy == 0 {
		t.Error("melody is silent")
	}

	if short := Melody(16000, time.Millisecond); len(short) != 16 {
		t.Errorf("short melody len = %d, want 16", len(short))
	}
}
