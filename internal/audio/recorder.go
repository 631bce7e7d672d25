// SPDX-License-Identifier: MIT
/*
Package audio captures microphone input through PortAudio and moves samples
between memory and WAV files.

Capture runs on the PortAudio callback thread and only ever writes into a
pre-sized RingBuffer; the buffer is drained after the stream is stopped.
Every stream opened here is closed before Record returns, on every path.
*/
package audio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	applog "loopcheck/internal/log"

	"github.com/gordonklaus/portaudio"
)

// ErrRecording marks failures of the input device or the capture itself.
var ErrRecording = errors.New("recording failed")

// Capture is one fixed-rate mono recording.
type Capture struct {
	Samples    []float32
	SampleRate float64
	Dropped    int // Samples lost because the capture buffer was full.
}

// Len returns the number of samples.
func (c *Capture) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Samples)
}

// Duration returns the captured length.
func (c *Capture) Duration() time.Duration {
	if c == nil || c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(c.Samples)) / c.SampleRate * float64(time.Second))
}

// Recorder captures a fixed-duration mono buffer from the default input.
type Recorder interface {
	Record(ctx context.Context, duration time.Duration, sampleRate float64) (*Capture, error)
}

// PortAudioRecorder records from the system default input device.
type PortAudioRecorder struct {
	Channels        int // Channels opened on the device; only the first is kept.
	FramesPerBuffer int
	// StallGrace is how long past the requested duration to wait for a
	// device that delivers samples slower than real time.
	StallGrace time.Duration
}

var _ Recorder = (*PortAudioRecorder)(nil)

// NewPortAudioRecorder returns a mono recorder with the given callback size.
func NewPortAudioRecorder(framesPerBuffer int) *PortAudioRecorder {
	return &PortAudioRecorder{
		Channels:        1,
		FramesPerBuffer: framesPerBuffer,
		StallGrace:      time.Second,
	}
}

// Record blocks for duration while capturing, then returns the first
// round(duration*sampleRate) frames collapsed to mono. A device that stalls
// yields a short capture rather than an error.
func (r *PortAudioRecorder) Record(ctx context.Context, duration time.Duration, sampleRate float64) (*Capture, error) {
	frames := int(math.Round(duration.Seconds() * sampleRate))
	if frames <= 0 {
		return &Capture{SampleRate: sampleRate}, nil
	}
	channels := max(1, r.Channels)

	dev, err := DefaultInputDevice()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRecording, err)
	}
	if dev.MaxInputChannels < channels {
		return nil, fmt.Errorf("%w: device %q has %d input channels, need %d",
			ErrRecording, dev.Name, dev.MaxInputChannels, channels)
	}

	target := frames * channels
	ring := NewRingBuffer(target)
	full := make(chan struct{})
	var fullOnce sync.Once

	callback := func(in []float32) {
		ring.Write(in)
		if ring.Len() >= target {
			fullOnce.Do(func() { close(full) })
		}
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: channels,
			Latency:  dev.DefaultHighInputLatency,
		},
		SampleRate:      sampleRate,
		FramesPerBuffer: r.FramesPerBuffer,
	}

	stream, err := portaudio.OpenStream(params, callback)
	if err != nil {
		return nil, fmt.Errorf("%w: open input stream on %q: %w", ErrRecording, dev.Name, err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("%w: start input stream: %w", ErrRecording, err)
	}
	applog.Debugf("Recorder: capturing %d frames at %.0f Hz from %q", frames, sampleRate, dev.Name)

	deadline := time.NewTimer(duration + r.StallGrace)
	defer deadline.Stop()

	var waitErr error
	select {
	case <-full:
	case <-deadline.C:
		applog.Warnf("Recorder: input stalled, got %d of %d samples", ring.Len(), target)
	case <-ctx.Done():
		waitErr = ctx.Err()
	}

	if err := stream.Stop(); err != nil {
		applog.Warnf("Recorder: stop input stream: %v", err)
	}
	if waitErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrRecording, waitErr)
	}

	raw := make([]float32, target)
	n := ring.Read(raw)
	return &Capture{
		Samples:    firstChannel(raw[:n], channels),
		SampleRate: sampleRate,
		Dropped:    ring.Dropped() / channels,
	}, nil
}

// firstChannel extracts channel 0 from interleaved frames.
func firstChannel(interleaved []float32, channels int) []float32 {
	if channels <= 1 {
		return interleaved
	}
	out := make([]float32, len(interleaved)/channels)
	for i := range out {
		out[i] = interleaved[i*channels]
	}
	return out
}
