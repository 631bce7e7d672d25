// SPDX-License-Identifier: MIT
package diagnostic

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"loopcheck/internal/analysis"
	"loopcheck/internal/audio"
	"loopcheck/internal/config"
	applog "loopcheck/internal/log"
	"loopcheck/internal/playback"
	"loopcheck/internal/registry"
	"loopcheck/internal/synth"
	"loopcheck/internal/transport"

	"github.com/google/uuid"
)

// Driver tests every path of a registry and builds the report.
type Driver struct {
	Tester    *Tester
	Tone      config.ToneConfig
	Transport transport.Transport
	Out       io.Writer // Progress and report, usually stdout.
	Verbose   bool      // Print the full analysis of each path.
	SaveDir   string    // When set, every capture is kept as <path>.wav.
}

// NewDriver returns a driver printing to stdout and publishing nowhere.
func NewDriver(cfg *config.Config, tester *Tester) *Driver {
	return &Driver{
		Tester:    tester,
		Tone:      cfg.Tone,
		Transport: transport.Discard{},
		Out:       os.Stdout,
	}
}

// Report is the outcome of one diagnostic run.
type Report struct {
	RunID          string         `json:"runId"`
	Started        time.Time      `json:"started"`
	Elapsed        time.Duration  `json:"elapsed"`
	Results        []PathResult   `json:"results"`
	Summary        Summary        `json:"summary"`
	Recommendation Recommendation `json:"recommendation"`
	Interrupted    bool           `json:"interrupted,omitempty"`
}

// ExitCode is 0 when at least one path played the tone audibly.
func (r *Report) ExitCode() int {
	if len(r.Summary.Working) > 0 {
		return 0
	}
	return 1
}

// Run tests the paths of reg in order. A failing or panicking path is
// recorded and the run moves on; only the tone file setup and a cancelled
// ctx stop it early. The returned error is non-nil only when no path could
// be attempted.
func (d *Driver) Run(ctx context.Context, reg *registry.Registry) (*Report, error) {
	report := &Report{RunID: uuid.NewString(), Started: time.Now()}

	tone, cleanup, err := d.prepareTone()
	if err != nil {
		return nil, err
	}
	defer cleanup()

	d.printHeader(report.RunID, reg.Len())
	d.publish(transport.RunStarted, report.RunID, "", nil)

	for _, desc := range reg.All() {
		if ctx.Err() != nil {
			applog.Warnf("Driver: interrupted, skipping remaining paths")
			report.Interrupted = true
			break
		}

		fmt.Fprintf(d.Out, "\n  Testing: %s\n", desc.Name)
		fmt.Fprintf(d.Out, "    Method: %s, Target: %s\n", desc.Method, desc.Target)
		d.publish(transport.PathStarted, report.RunID, desc.Name, desc)

		res := d.testPath(ctx, desc, tone)
		d.printResult(res)
		d.saveCapture(res)

		d.publish(transport.PathFinished, report.RunID, desc.Name, res)
		report.Results = append(report.Results, res)
	}

	report.Summary = Summarize(report.Results)
	report.Recommendation = Recommend(report.Results)
	report.Elapsed = time.Since(report.Started)
	d.publish(transport.RunFinished, report.RunID, "", report)
	return report, nil
}

// testPath isolates a single path test from panics.
func (d *Driver) testPath(ctx context.Context, desc registry.Descriptor, tone *playback.Tone) (res PathResult) {
	defer func() {
		if r := recover(); r != nil {
			applog.Errorf("Driver: %s panicked: %v", desc.Name, r)
			res = newResult(desc)
			res.fail(OutcomePlaybackFailed, StageTest, fmt.Errorf("%w: %v", ErrPanic, r))
		}
	}()
	return d.Tester.Test(ctx, desc, tone)
}

// prepareTone renders the test tone and writes it where external players can
// read it. cleanup removes the file.
func (d *Driver) prepareTone() (*playback.Tone, func(), error) {
	rate := d.Tester.SampleRate
	samples := synth.GenerateFadedTone(d.Tone.Frequency, d.Tone.Duration, rate, d.Tone.Amplitude, d.Tone.Fade)

	path, err := audio.WriteTempWAV(samples, int(rate))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to write test tone: %w", err)
	}
	applog.Debugf("Driver: test tone written to %s", path)

	cleanup := func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			applog.Warnf("Driver: remove %s: %v", path, err)
		}
	}
	return &playback.Tone{
		Samples:    samples,
		SampleRate: rate,
		Duration:   d.Tone.Duration,
		File:       path,
	}, cleanup, nil
}

func (d *Driver) saveCapture(res PathResult) {
	if d.SaveDir == "" || res.capture.Len() == 0 {
		return
	}
	if err := os.MkdirAll(d.SaveDir, 0o755); err != nil {
		applog.Warnf("Driver: save capture: %v", err)
		return
	}
	path := filepath.Join(d.SaveDir, res.Name+".wav")
	if err := audio.WriteWAV(path, res.capture.Samples, int(res.capture.SampleRate)); err != nil {
		applog.Warnf("Driver: save capture: %v", err)
		return
	}
	fmt.Fprintf(d.Out, "    Saved recording to %s\n", path)
}

func (d *Driver) publish(typ transport.EventType, runID, path string, data any) {
	ev := transport.Event{Type: typ, RunID: runID, Path: path, Time: time.Now(), Data: data}
	if err := d.Transport.Send(ev); err != nil {
		applog.Warnf("Driver: publish %s: %v", typ, err)
	}
}

func (d *Driver) printHeader(runID string, paths int) {
	w := d.Out
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "AUDIO PATH DIAGNOSTIC")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Run ID:          %s\n", runID)
	fmt.Fprintf(w, "Paths:           %d\n", paths)
	fmt.Fprintf(w, "Test frequency:  %.0f Hz\n", d.Tone.Frequency)
	fmt.Fprintf(w, "Tone duration:   %s\n", d.Tone.Duration)
	fmt.Fprintf(w, "Record duration: %s\n", d.Tester.RecordDuration)
	fmt.Fprintf(w, "Sample rate:     %.0f Hz\n", d.Tester.SampleRate)
}

func (d *Driver) printResult(res PathResult) {
	w := d.Out
	switch res.Outcome {
	case OutcomePlaybackFailed:
		fmt.Fprintf(w, "    ✗ Playback failed: %s\n", res.PlaybackError)
		return
	case OutcomeRecordingFailed:
		fmt.Fprintf(w, "    ✓ Playback command succeeded\n")
		fmt.Fprintf(w, "    ✗ Recording failed: %s\n", res.Error)
		return
	case OutcomeEmptyRecording:
		fmt.Fprintf(w, "    ✓ Playback command succeeded\n")
		fmt.Fprintf(w, "    ✗ Recording is empty\n")
		return
	}

	fmt.Fprintf(w, "    ✓ Playback command succeeded\n")
	fmt.Fprintf(w, "    ✓ Recorded %d samples\n", res.capture.Len())
	if d.Verbose {
		printAnalysis(w, res.Analysis)
	}

	a := res.Analysis
	if a.ToneDetected {
		fmt.Fprintf(w, "    ✓ TONE DETECTED! (SNR: %.1fx, freq: %.0fHz)\n", a.SNR, a.DetectedFrequency)
		return
	}
	fmt.Fprintf(w, "    ✗ Tone NOT detected: %s\n", joinReasons(a.Reasons(d.Tester.Analyzer.Thresholds)))
}

func printAnalysis(w io.Writer, a *analysis.Result) {
	fmt.Fprintf(w, "      RMS:                %.6f\n", a.RMS)
	fmt.Fprintf(w, "      Peak:               %.6f\n", a.Peak)
	fmt.Fprintf(w, "      Detected frequency: %.1f Hz (expected %.1f Hz)\n", a.DetectedFrequency, a.ExpectedFrequency)
	fmt.Fprintf(w, "      Magnitude at tone:  %.6f\n", a.MagnitudeAtExpected)
	fmt.Fprintf(w, "      Noise floor:        %.6f\n", a.NoiseFloor)
	fmt.Fprintf(w, "      SNR:                %.1fx\n", a.SNR)
}
