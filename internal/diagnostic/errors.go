// SPDX-License-Identifier: MIT
package diagnostic

import (
	"errors"
	"fmt"

	"loopcheck/internal/audio"
	"loopcheck/internal/playback"
)

// Failure classes of a single path test. All of them are local to the path:
// the run continues with the next descriptor.
var (
	ErrConfiguration = playback.ErrConfiguration
	ErrPlayback      = playback.ErrPlayback
	ErrRecording     = audio.ErrRecording
	ErrEmptyCapture  = errors.New("recording is empty")
	ErrPanic         = errors.New("path test panicked")
)

// Stage names the step of a path test that failed.
type Stage string

const (
	StageResolve   Stage = "resolve"
	StagePlayback  Stage = "playback"
	StageRecording Stage = "recording"
	StageTest      Stage = "test"
)

// PathError ties a failure to the path and stage it happened in.
type PathError struct {
	Path  string
	Stage Stage
	Err   error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Stage, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}
