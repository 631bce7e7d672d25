// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"loopcheck/internal/audio"
	"loopcheck/internal/config"
	"loopcheck/internal/diagnostic"
	applog "loopcheck/internal/log"
	"loopcheck/internal/playback"
	"loopcheck/internal/registry"
	"loopcheck/internal/synth"
	"loopcheck/internal/transport"
)

// Execute runs the selected command and returns the process exit code. A
// non-nil error is fatal and reported before any path is tested.
func Execute(ctx context.Context, opts *config.Options, out io.Writer) (int, error) {
	cfg, err := config.LoadConfig(opts.ConfigFile)
	if err != nil {
		return 1, err
	}

	level, _ := applog.ParseLevel(cfg.LogLevel)
	if opts.Verbose {
		level = applog.LevelDebug
	}
	applog.SetLevel(level)

	if opts.ServeAddr != "" {
		cfg.Transport.ServeAddr = opts.ServeAddr
	}

	reg, err := registry.Load(cfg)
	if err != nil {
		return 1, err
	}

	switch opts.Command {
	case CommandPaths:
		printPaths(out, reg)
		return 0, nil
	case CommandList:
		return 0, withPortAudio(func() error { return audio.ListDevices(out) })
	case CommandPlay:
		return playSample(ctx, cfg, reg, opts, out)
	case CommandRun:
		return runDiagnostic(ctx, cfg, reg, opts, out)
	default:
		return 1, fmt.Errorf("unknown command %q", opts.Command)
	}
}

// withPortAudio brackets fn with PortAudio initialization.
func withPortAudio(fn func() error) error {
	if err := audio.Initialize(); err != nil {
		return err
	}
	defer func() {
		if err := audio.Terminate(); err != nil {
			applog.Warnf("%v", err)
		}
	}()
	return fn()
}

func playbackDeps(cfg *config.Config) playback.Deps {
	return playback.Deps{
		Config:          cfg.Playback,
		FramesPerBuffer: cfg.Audio.FramesPerBuffer,
	}
}

func runDiagnostic(ctx context.Context, cfg *config.Config, reg *registry.Registry, opts *config.Options, out io.Writer) (int, error) {
	names := opts.Paths
	if opts.Quick {
		names = []string{registry.PlugHWDirect}
	}
	if len(names) > 0 {
		selected, err := reg.Select(names...)
		if err != nil {
			return 1, err
		}
		reg = selected
	}

	deps := playbackDeps(cfg)
	if err := playback.CheckTools(reg.Descriptors(), deps); err != nil {
		return 1, err
	}

	var report *diagnostic.Report
	err := withPortAudio(func() error {
		rec := audio.NewPortAudioRecorder(cfg.Audio.FramesPerBuffer)
		rec.Channels = cfg.Capture.Channels

		driver := diagnostic.NewDriver(cfg, diagnostic.NewTester(cfg, rec, deps))
		driver.Out = out
		driver.Verbose = opts.Verbose
		driver.SaveDir = opts.SaveDir

		tr, err := openTransport(cfg, opts.Verbose)
		if err != nil {
			return err
		}
		defer tr.Close()
		driver.Transport = tr

		report, err = driver.Run(ctx, reg)
		return err
	})
	if err != nil {
		return 1, err
	}

	report.Print(out)
	return report.ExitCode(), nil
}

func openTransport(cfg *config.Config, verbose bool) (transport.Transport, error) {
	if cfg.Transport.ServeAddr != "" {
		ws := transport.NewWebSocketTransport(cfg.Transport.ServeAddr)
		if err := ws.Start(); err != nil {
			ws.Close()
			return nil, err
		}
		return ws, nil
	}
	if verbose {
		return transport.NewLoggingTransport(), nil
	}
	return transport.Discard{}, nil
}

// renderSample produces the named sample at the configured rate.
func renderSample(cfg *config.Config, name string) ([]float32, error) {
	rate := cfg.Audio.SampleRate
	switch name {
	case "tone":
		return synth.GenerateFadedTone(cfg.Tone.Frequency, cfg.Tone.Duration, rate, cfg.Tone.Amplitude, cfg.Tone.Fade), nil
	case "chime":
		return synth.Chime(rate), nil
	case "melody":
		return synth.Melody(rate, cfg.Tone.Duration), nil
	default:
		return nil, fmt.Errorf("unknown sample %q", name)
	}
}

func playSample(ctx context.Context, cfg *config.Config, reg *registry.Registry, opts *config.Options, out io.Writer) (int, error) {
	if len(opts.Args) != 1 {
		return 1, fmt.Errorf("play needs exactly one path name")
	}
	desc, ok := reg.Lookup(opts.Args[0])
	if !ok {
		return 1, fmt.Errorf("unknown path %q", opts.Args[0])
	}
	samples, err := renderSample(cfg, opts.Sample)
	if err != nil {
		return 1, err
	}

	deps := playbackDeps(cfg)
	if err := playback.CheckTools([]registry.Descriptor{desc}, deps); err != nil {
		return 1, err
	}
	player, err := playback.For(desc, deps)
	if err != nil {
		return 1, err
	}

	file, err := audio.WriteTempWAV(samples, int(cfg.Audio.SampleRate))
	if err != nil {
		return 1, err
	}
	defer os.Remove(file)

	tone := &playback.Tone{
		Samples:    samples,
		SampleRate: cfg.Audio.SampleRate,
		Duration:   time.Duration(float64(len(samples)) / cfg.Audio.SampleRate * float64(time.Second)),
		File:       file,
	}

	fmt.Fprintf(out, "Playing %s through %s\n", opts.Sample, desc)
	err = withPortAudio(func() error { return player.Play(ctx, tone) })
	if err != nil {
		fmt.Fprintf(out, "✗ %v\n", err)
		return 1, nil
	}
	fmt.Fprintln(out, "✓ Playback finished. Did you hear it?")
	return 0, nil
}

func printPaths(w io.Writer, reg *registry.Registry) {
	fmt.Fprintf(w, "%-4s %-20s %-17s %-20s %s\n", "PRI", "NAME", "METHOD", "TARGET", "DESCRIPTION")
	for _, d := range reg.All() {
		fmt.Fprintf(w, "%-4d %-20s %-17s %-20s %s\n", d.Priority, d.Name, d.Method, d.Target, d.Description)
	}
}
