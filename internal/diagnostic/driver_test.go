// SPDX-License-Identifier: MIT
package diagnostic

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"loopcheck/internal/audio"
	"loopcheck/internal/config"
	"loopcheck/internal/playback"
	"loopcheck/internal/registry"
	"loopcheck/internal/transport"
	"loopcheck/pkg/utils"
)

// okRunner pretends every external player exits cleanly.
type okRunner struct{}

func (okRunner) Run(context.Context, string, ...string) ([]byte, error) { return nil, nil }

func newTestDriver(t *testing.T, tester *Tester) (*Driver, *bytes.Buffer) {
	t.Helper()
	cfg := config.NewConfig()
	cfg.Tone.Duration = 200 * time.Millisecond
	var out bytes.Buffer
	d := NewDriver(cfg, tester)
	d.Out = &out
	return d, &out
}

func mustRegistry(t *testing.T, descs ...registry.Descriptor) *registry.Registry {
	t.Helper()
	reg, err := registry.New(descs...)
	if err != nil {
		t.Fatalf("registry.New: %v", err)
	}
	return reg
}

func TestDriverNativeLoopbackScenario(t *testing.T) {
	tester := newTestTester(loopback(testTone()), resolveTo(playerFunc(succeed)))
	d, out := newTestDriver(t, tester)

	report, err := d.Run(context.Background(), mustRegistry(t, nativeDefault))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(report.Results) != 1 || !report.Results[0].ToneDetected {
		t.Fatalf("results = %+v", report.Results)
	}
	if report.ExitCode() != 0 {
		t.Errorf("ExitCode() = %d, want 0", report.ExitCode())
	}
	if report.Recommendation.Path != "native_default" {
		t.Errorf("Recommendation = %+v", report.Recommendation)
	}
	if !strings.Contains(out.String(), "TONE DETECTED") {
		t.Errorf("progress output missing detection line:\n%s", out)
	}
	if report.RunID == "" {
		t.Error("RunID is empty")
	}
}

func TestDriverEmptyTargetThenNextPath(t *testing.T) {
	deps := playback.Deps{Config: config.NewConfig().Playback, Runner: okRunner{}}
	tester := newTestTester(loopback(testTone()), func(desc registry.Descriptor) (playback.Player, error) {
		return playback.For(desc, deps)
	})
	d, _ := newTestDriver(t, tester)

	reg := mustRegistry(t,
		registry.Descriptor{Name: "unconfigured", Method: registry.MethodDevicePlayer, Priority: 1},
		registry.Descriptor{Name: registry.PlugHWDirect, Method: registry.MethodDevicePlayer, Target: "plughw:0,0", Priority: 2},
	)
	report, err := d.Run(context.Background(), reg)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(report.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(report.Results))
	}

	bad, good := report.Results[0], report.Results[1]
	if !errors.Is(bad.Err, ErrConfiguration) || bad.PlaybackSucceeded || bad.Analysis != nil {
		t.Errorf("unconfigured path = %+v", bad)
	}
	if !good.ToneDetected {
		t.Errorf("second path not tested normally: %+v", good)
	}
	if report.Recommendation.Path != registry.PlugHWDirect {
		t.Errorf("Recommendation = %+v", report.Recommendation)
	}
}

func TestDriverIsolatesPanickingPath(t *testing.T) {
	boom := playerFunc(func(context.Context, *playback.Tone) error { panic("adapter bug") })
	tester := newTestTester(loopback(testTone()), func(desc registry.Descriptor) (playback.Player, error) {
		if desc.Name == "first" {
			return boom, nil
		}
		return playerFunc(succeed), nil
	})
	d, _ := newTestDriver(t, tester)

	reg := mustRegistry(t,
		registry.Descriptor{Name: "first", Method: registry.MethodNative, Target: "default", Priority: 1},
		registry.Descriptor{Name: "second", Method: registry.MethodNative, Target: "default", Priority: 2},
		registry.Descriptor{Name: "third", Method: registry.MethodNative, Target: "default", Priority: 3},
	)
	report, err := d.Run(context.Background(), reg)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(report.Results) != 3 {
		t.Fatalf("got %d results, want one per path", len(report.Results))
	}
	if !errors.Is(report.Results[0].Err, ErrPanic) || report.Results[0].PlaybackSucceeded {
		t.Errorf("panicking path = %+v", report.Results[0])
	}
	for _, r := range report.Results[1:] {
		if !r.ToneDetected {
			t.Errorf("%s not detected after an earlier panic", r.Name)
		}
	}
	if got := report.Summary.Working; len(got) != 2 || got[0] != "second" {
		t.Errorf("Working = %v", got)
	}
}

func TestDriverPublishesEvents(t *testing.T) {
	tester := newTestTester(loopback(testTone()), resolveTo(playerFunc(succeed)))
	d, _ := newTestDriver(t, tester)
	mt := &utils.MockTransport{}
	d.Transport = mt

	reg := mustRegistry(t,
		registry.Descriptor{Name: "a", Method: registry.MethodNative, Target: "default"},
		registry.Descriptor{Name: "b", Method: registry.MethodNative, Target: "default"},
	)
	report, err := d.Run(context.Background(), reg)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	events := mt.Sent()
	want := []transport.EventType{
		transport.RunStarted,
		transport.PathStarted, transport.PathFinished,
		transport.PathStarted, transport.PathFinished,
		transport.RunFinished,
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d", len(events), len(want))
	}
	for i, ev := range events {
		e := ev.(transport.Event)
		if e.Type != want[i] {
			t.Errorf("event %d = %s, want %s", i, e.Type, want[i])
		}
		if e.RunID != report.RunID {
			t.Errorf("event %d RunID = %q, want %q", i, e.RunID, report.RunID)
		}
	}
}

func TestDriverRemovesToneFile(t *testing.T) {
	var file string
	capture := playerFunc(func(_ context.Context, tone *playback.Tone) error {
		file = tone.File
		if _, err := os.Stat(tone.File); err != nil {
			t.Errorf("tone file missing during playback: %v", err)
		}
		return nil
	})
	tester := newTestTester(loopback(testTone()), resolveTo(capture))
	d, _ := newTestDriver(t, tester)

	if _, err := d.Run(context.Background(), mustRegistry(t, nativeDefault)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if file == "" {
		t.Fatal("player never saw a tone file")
	}
	if _, err := os.Stat(file); !os.IsNotExist(err) {
		t.Errorf("tone file %s left behind (stat err = %v)", file, err)
	}
}

func TestDriverSavesCaptures(t *testing.T) {
	tester := newTestTester(loopback(testTone()), resolveTo(playerFunc(succeed)))
	d, _ := newTestDriver(t, tester)
	d.SaveDir = filepath.Join(t.TempDir(), "captures")

	if _, err := d.Run(context.Background(), mustRegistry(t, nativeDefault)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	samples, rate, err := audio.ReadWAV(filepath.Join(d.SaveDir, "native_default.wav"))
	if err != nil {
		t.Fatalf("saved capture unreadable: %v", err)
	}
	if rate != int(testRate) || len(samples) != len(testTone()) {
		t.Errorf("saved capture rate=%d len=%d", rate, len(samples))
	}
}

func TestDriverStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	first := playerFunc(func(context.Context, *playback.Tone) error {
		cancel()
		return nil
	})
	tester := newTestTester(loopback(testTone()), resolveTo(first))
	d, _ := newTestDriver(t, tester)

	reg := mustRegistry(t,
		registry.Descriptor{Name: "a", Method: registry.MethodNative, Target: "default", Priority: 1},
		registry.Descriptor{Name: "b", Method: registry.MethodNative, Target: "default", Priority: 2},
	)
	report, err := d.Run(ctx, reg)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !report.Interrupted || len(report.Results) != 1 {
		t.Errorf("Interrupted = %v results = %d", report.Interrupted, len(report.Results))
	}
}

func TestDriverVerboseAnalysis(t *testing.T) {
	tester := newTestTester(loopback(make([]float32, 4800)), resolveTo(playerFunc(succeed)))
	d, out := newTestDriver(t, tester)
	d.Verbose = true

	report, err := d.Run(context.Background(), mustRegistry(t, nativeDefault))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for _, want := range []string{"Noise floor:", "Tone NOT detected", "RMS too low"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q", want)
		}
	}
	if report.ExitCode() != 1 {
		t.Errorf("ExitCode() = %d, want 1", report.ExitCode())
	}
}
