// SPDX-License-Identifier: MIT
/*
Package diagnostic runs the loopback test over every audio path.

A path test records from the default input in the background, waits for the
capture to settle, plays the tone through the path and joins the capture
with a bounded wait before analysing it. Paths are tested strictly one after
another; the recording is the only work that runs alongside playback.
*/
package diagnostic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"loopcheck/internal/analysis"
	"loopcheck/internal/audio"
	"loopcheck/internal/config"
	applog "loopcheck/internal/log"
	"loopcheck/internal/playback"
	"loopcheck/internal/registry"
)

// Resolver returns the player for a descriptor.
type Resolver func(desc registry.Descriptor) (playback.Player, error)

// Tester performs a single path test.
type Tester struct {
	Recorder audio.Recorder
	Analyzer *analysis.Analyzer
	Resolve  Resolver

	Frequency      float64
	SampleRate     float64
	RecordDuration time.Duration // Strictly longer than the tone.
	SettleDelay    time.Duration // Capture head start before playback.
	JoinMargin     time.Duration // Extra wait when joining the capture.
}

// NewTester builds a Tester from the configuration. Players are resolved
// with playback.For using deps.
func NewTester(cfg *config.Config, rec audio.Recorder, deps playback.Deps) *Tester {
	return &Tester{
		Recorder: rec,
		Analyzer: analysis.New(analysis.ThresholdsFromConfig(cfg.Detection)),
		Resolve: func(desc registry.Descriptor) (playback.Player, error) {
			return playback.For(desc, deps)
		},
		Frequency:      cfg.Tone.Frequency,
		SampleRate:     cfg.Audio.SampleRate,
		RecordDuration: cfg.Capture.Duration,
		SettleDelay:    cfg.Capture.SettleDelay,
		JoinMargin:     cfg.Capture.JoinMargin,
	}
}

// Test plays tone through desc while recording and returns the verdict.
// Failures are reported in the result, never returned.
func (t *Tester) Test(ctx context.Context, desc registry.Descriptor, tone *playback.Tone) (res PathResult) {
	start := time.Now()
	res = newResult(desc)
	defer func() { res.Elapsed = time.Since(start) }()

	player, err := t.Resolve(desc)
	if err != nil {
		res.fail(OutcomePlaybackFailed, StageResolve, err)
		return res
	}

	task := startRecording(ctx, t.Recorder, t.RecordDuration, t.SampleRate)
	defer task.cancel()

	settle(ctx, t.SettleDelay)

	playErr := player.Play(ctx, tone)
	capture, recErr := task.wait(t.RecordDuration + t.JoinMargin)

	if playErr != nil {
		res.fail(OutcomePlaybackFailed, StagePlayback, playErr)
		return res
	}
	res.PlaybackSucceeded = true

	if recErr != nil {
		if !errors.Is(recErr, audio.ErrRecording) {
			recErr = fmt.Errorf("%w: %w", audio.ErrRecording, recErr)
		}
		res.fail(OutcomeRecordingFailed, StageRecording, recErr)
		return res
	}
	if capture.Len() == 0 {
		res.fail(OutcomeEmptyRecording, StageRecording, ErrEmptyCapture)
		return res
	}
	res.capture = capture
	if capture.Dropped > 0 {
		applog.Warnf("Tester: %s: %d samples dropped during capture", desc.Name, capture.Dropped)
	}

	result := t.Analyzer.Analyze(capture.Samples, capture.SampleRate, t.Frequency)
	res.Outcome = OutcomeCompleted
	res.Analysis = &result
	res.ToneDetected = result.ToneDetected
	return res
}

// settle waits d or until ctx is done.
func settle(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// recordTask is a background capture that can only be joined. Its context
// is cancelled when the test ends, which makes the recorder close the input
// stream even if the join timed out or playback panicked.
type recordTask struct {
	cancel  context.CancelFunc
	done    chan struct{}
	capture *audio.Capture
	err     error
}

func startRecording(ctx context.Context, rec audio.Recorder, d time.Duration, rate float64) *recordTask {
	ctx, cancel := context.WithCancel(ctx)
	task := &recordTask{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(task.done)
		defer func() {
			if r := recover(); r != nil {
				task.capture, task.err = nil, fmt.Errorf("%w: recorder panicked: %v", audio.ErrRecording, r)
			}
		}()
		task.capture, task.err = rec.Record(ctx, d, rate)
	}()
	return task
}

// wait joins the capture, giving up after timeout.
func (t *recordTask) wait(timeout time.Duration) (*audio.Capture, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-t.done:
		return t.capture, t.err
	case <-timer.C:
		t.cancel()
		return nil, fmt.Errorf("%w: capture still running after %s", audio.ErrRecording, timeout)
	}
}
