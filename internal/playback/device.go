// SPDX-License-Identifier: MIT
package playback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	applog "loopcheck/internal/log"
)

// DevicePlayer plays the tone file with a single-shot player that takes an
// explicit device argument, e.g. aplay -D plughw:0,0.
type DevicePlayer struct {
	Tool    string
	Device  string
	Timeout time.Duration
	Runner  Runner
}

var _ Player = (*DevicePlayer)(nil)

func (p *DevicePlayer) Play(ctx context.Context, tone *Tone) error {
	if tone == nil || tone.File == "" {
		return fmt.Errorf("%w: %s needs a tone file", ErrPlayback, p.Tool)
	}

	runCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	args := []string{"-D", p.Device, tone.File}
	applog.Debugf("DevicePlayer: %s %s", p.Tool, strings.Join(args, " "))

	stderr, err := p.Runner.Run(runCtx, p.Tool, args...)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %w", ErrPlayback, ctx.Err())
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s timed out after %s", ErrPlayback, p.Tool, p.Timeout)
	}

	msg := strings.TrimSpace(string(stderr))
	if msg == "" {
		msg = err.Error()
	}
	return fmt.Errorf("%w: %s", ErrPlayback, msg)
}
