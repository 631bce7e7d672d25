// SPDX-License-Identifier: MIT
/*
Package playback plays the test tone through one audio path.

Each playback mechanism has its own Player. For resolves the Player for a
descriptor once, before any recording starts. A Player reports every failure
as an error value and never panics; a nil error means the tone was handed to
the device in full.
*/
package playback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"loopcheck/internal/config"
	"loopcheck/internal/registry"
)

var (
	// ErrConfiguration means a descriptor cannot be played at all.
	ErrConfiguration = errors.New("no playback method configured")
	// ErrPlayback covers tool failures, timeouts and audio API errors.
	ErrPlayback = errors.New("playback failed")
)

// Tone is the waveform under test, in memory and on disk. External players
// read File; the native player writes Samples.
type Tone struct {
	Samples    []float32
	SampleRate float64
	Duration   time.Duration
	File       string
}

// Player plays a tone through one path and blocks until it is done.
type Player interface {
	Play(ctx context.Context, tone *Tone) error
}

// Deps carries what the players need besides the descriptor.
type Deps struct {
	Config          config.PlaybackConfig
	FramesPerBuffer int
	Runner          Runner // nil selects ExecRunner.
}

// For returns the Player for desc. A descriptor without a method or target is
// an ErrConfiguration.
func For(desc registry.Descriptor, deps Deps) (Player, error) {
	if desc.Target == "" {
		return nil, fmt.Errorf("%w: path %q has no device target", ErrConfiguration, desc.Name)
	}

	runner := deps.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	cfg := deps.Config

	switch desc.Method {
	case registry.MethodDevicePlayer:
		return &DevicePlayer{
			Tool:    cfg.DevicePlayer,
			Device:  desc.Target,
			Timeout: cfg.DeviceTimeout,
			Runner:  runner,
		}, nil
	case registry.MethodStreamPlayer:
		return &StreamPlayer{
			Tool:             cfg.StreamPlayer,
			Device:           desc.Target,
			LengthMargin:     cfg.StreamLengthMargin,
			TimeoutMargin:    cfg.StreamTimeoutMargin,
			TimeoutIsSuccess: cfg.StreamTimeoutIsSuccess,
			Runner:           runner,
		}, nil
	case registry.MethodNative:
		return NewNativePlayer(desc.Target, deps.FramesPerBuffer), nil
	default:
		return nil, fmt.Errorf("%w: path %q", ErrConfiguration, desc.Name)
	}
}

// truncate shortens tool output for one-line reports.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
