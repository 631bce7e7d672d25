// SPDX-License-Identifier: MIT
//
// Package utils holds signal fixtures and fakes shared by package tests.
package utils

import (
	"math"
	"math/rand/v2"
	"sync"
)

// MockTransport records everything sent to it instead of transmitting.
type MockTransport struct {
	mu     sync.Mutex
	Events []any
	Closed bool
	Err    error // Returned by Send when set.
}

// Send stores the event for later inspection.
func (m *MockTransport) Send(event any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Events = append(m.Events, event)
	return nil
}

// Close marks the transport closed.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// Sent returns a copy of the recorded events.
func (m *MockTransport) Sent() []any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]any, len(m.Events))
	copy(out, m.Events)
	return out
}

// SineWave returns size samples of amplitude*sin(2πft) with no envelope.
func SineWave(size int, sampleRate, frequency, amplitude float64) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = float32(amplitude * math.Sin(2*math.Pi*frequency*t))
	}
	return buffer
}

// WhiteNoise returns size uniformly distributed samples in [-amplitude,
// amplitude]. The same seed always yields the same buffer.
func WhiteNoise(size int, amplitude float64, seed uint64) []float32 {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	buffer := make([]float32, size)
	for i := range buffer {
		buffer[i] = float32(amplitude * (2*rng.Float64() - 1))
	}
	return buffer
}

// Mix adds the buffers sample by sample. The result has the length of the
// shortest input.
func Mix(buffers ...[]float32) []float32 {
	if len(buffers) == 0 {
		return nil
	}
	n := len(buffers[0])
	for _, b := range buffers[1:] {
		n = min(n, len(b))
	}
	out := make([]float32, n)
	for _, b := range buffers {
		for i := range out {
			out[i] += b[i]
		}
	}
	return out
}

// Offset adds a constant to every sample in place and returns the buffer.
func Offset(buffer []float32, dc float32) []float32 {
	for i := range buffer {
		buffer[i] += dc
	}
	return buffer
}

// FindPeakBin returns the index of the largest magnitude in
// [startBin, endBin], clamped to the slice.
func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}

	if startBin < 0 {
		startBin = 0
	}

	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]

	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}

	return peakBin
}
