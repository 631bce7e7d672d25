// SPDX-License-Identifier: MIT
package playback

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	applog "loopcheck/internal/log"
)

const streamErrorLimit = 100

// StreamPlayer plays the tone file with a media player addressed by device
// URI, e.g. mpv --audio-device=alsa/default. Playback length is capped with
// --length so the player exits on its own; the process is killed once the
// cap plus TimeoutMargin has passed.
type StreamPlayer struct {
	Tool          string
	Device        string
	LengthMargin  time.Duration
	TimeoutMargin time.Duration
	// TimeoutIsSuccess treats a killed player as a completed playback.
	TimeoutIsSuccess bool
	Runner           Runner
}

var _ Player = (*StreamPlayer)(nil)

func (p *StreamPlayer) Play(ctx context.Context, tone *Tone) error {
	if tone == nil || tone.File == "" {
		return fmt.Errorf("%w: %s needs a tone file", ErrPlayback, p.Tool)
	}

	length := tone.Duration + p.LengthMargin
	timeout := length + p.TimeoutMargin

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{
		"--no-video",
		"--really-quiet",
		"--audio-device=" + p.Device,
		"--length=" + strconv.FormatFloat(length.Seconds(), 'f', -1, 64),
		tone.File,
	}
	applog.Debugf("StreamPlayer: %s %s", p.Tool, strings.Join(args, " "))

	stderr, err := p.Runner.Run(runCtx, p.Tool, args...)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %w", ErrPlayback, ctx.Err())
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		if p.TimeoutIsSuccess {
			applog.Warnf("StreamPlayer: %s still running after %s, counting as played", p.Tool, timeout)
			return nil
		}
		return fmt.Errorf("%w: %s timed out after %s", ErrPlayback, p.Tool, timeout)
	}

	msg := strings.TrimSpace(string(stderr))
	if msg == "" {
		msg = err.Error()
	}
	return fmt.Errorf("%w: %s", ErrPlayback, truncate(msg, streamErrorLimit))
}
