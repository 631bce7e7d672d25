// SPDX-License-Identifier: MIT
package playback

import (
	"context"
	"fmt"

	"loopcheck/internal/audio"
	applog "loopcheck/internal/log"

	"github.com/gordonklaus/portaudio"
)

// outputStream is the part of *portaudio.Stream used for blocking writes.
type outputStream interface {
	Start() error
	Write() error
	Stop() error
	Close() error
}

// NativePlayer writes the in-memory tone to an output device through
// PortAudio's blocking API.
type NativePlayer struct {
	Device          string // "default" or an exact PortAudio device name
	FramesPerBuffer int

	resolve func(name string) (*portaudio.DeviceInfo, error)
	open    func(dev *portaudio.DeviceInfo, rate float64, buf []float32) (outputStream, error)
}

var _ Player = (*NativePlayer)(nil)

// NewNativePlayer returns a mono player for the named output device.
func NewNativePlayer(device string, framesPerBuffer int) *NativePlayer {
	return &NativePlayer{
		Device:          device,
		FramesPerBuffer: framesPerBuffer,
		resolve:         audio.OutputDevice,
		open:            openOutput,
	}
}

func openOutput(dev *portaudio.DeviceInfo, rate float64, buf []float32) (outputStream, error) {
	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: 1,
			Latency:  dev.DefaultLowOutputLatency,
		},
		SampleRate:      rate,
		FramesPerBuffer: len(buf),
	}
	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		return nil, err
	}
	return stream, nil
}

// Play blocks until every sample has been written or ctx is done.
func (p *NativePlayer) Play(ctx context.Context, tone *Tone) error {
	if tone == nil || len(tone.Samples) == 0 {
		return fmt.Errorf("%w: no samples to play", ErrPlayback)
	}

	dev, err := p.resolve(p.Device)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPlayback, err)
	}

	buf := make([]float32, max(1, p.FramesPerBuffer))
	stream, err := p.open(dev, tone.SampleRate, buf)
	if err != nil {
		return fmt.Errorf("%w: open output stream on %q: %w", ErrPlayback, dev.Name, err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("%w: start output stream: %w", ErrPlayback, err)
	}
	applog.Debugf("NativePlayer: writing %d samples to %q", len(tone.Samples), dev.Name)

	for off := 0; off < len(tone.Samples); off += len(buf) {
		if err := ctx.Err(); err != nil {
			stream.Stop()
			return fmt.Errorf("%w: %w", ErrPlayback, err)
		}
		n := copy(buf, tone.Samples[off:])
		clear(buf[n:])
		if err := stream.Write(); err != nil {
			stream.Stop()
			return fmt.Errorf("%w: write output stream: %w", ErrPlayback, err)
		}
	}

	// Stop drains queued buffers before returning.
	if err := stream.Stop(); err != nil {
		return fmt.Errorf("%w: stop output stream: %w", ErrPlayback, err)
	}
	return nil
}
