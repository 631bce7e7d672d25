// SPDX-License-Identifier: MIT
package diagnostic

import (
	"fmt"
	"time"

	"loopcheck/internal/analysis"
	"loopcheck/internal/audio"
	"loopcheck/internal/registry"
)

// Outcome is the terminal state of a path test.
type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomePlaybackFailed
	OutcomeRecordingFailed
	OutcomeEmptyRecording
)

var outcomeNames = [...]string{"completed", "playback-failed", "recording-failed", "empty-recording"}

func (o Outcome) String() string {
	if int(o) >= 0 && int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// MarshalText encodes the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// PathResult is the record of one path test. It is not modified after the
// driver appends it to a report.
type PathResult struct {
	Name              string           `json:"name"`
	Description       string           `json:"description"`
	Method            string           `json:"method"`
	Target            string           `json:"target"`
	Outcome           Outcome          `json:"outcome"`
	PlaybackSucceeded bool             `json:"playbackSucceeded"`
	PlaybackError     string           `json:"playbackError,omitempty"`
	Analysis          *analysis.Result `json:"analysis,omitempty"` // nil unless the test completed
	ToneDetected      bool             `json:"toneDetected"`
	Error             string           `json:"error,omitempty"`
	Elapsed           time.Duration    `json:"elapsed"`

	Err     error          `json:"-"`
	capture *audio.Capture // kept for --save-dir
}

func newResult(desc registry.Descriptor) PathResult {
	return PathResult{
		Name:        desc.Name,
		Description: desc.Description,
		Method:      desc.Method.String(),
		Target:      desc.Target,
	}
}

// fail records err as the terminal failure of the test.
func (r *PathResult) fail(outcome Outcome, stage Stage, err error) {
	r.Outcome = outcome
	r.Err = &PathError{Path: r.Name, Stage: stage, Err: err}
	r.Error = err.Error()
	if outcome == OutcomePlaybackFailed {
		r.PlaybackSucceeded = false
		r.PlaybackError = err.Error()
	}
	r.Analysis = nil
	r.ToneDetected = false
}
