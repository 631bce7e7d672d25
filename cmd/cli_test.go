// SPDX-License-Identifier: MIT
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"loopcheck/internal/config"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		check   func(*testing.T, *config.Options)
		wantErr string
	}{
		{
			name: "default runs the diagnostic",
			args: nil,
			check: func(t *testing.T, o *config.Options) {
				if o.Command != CommandRun || o.Quick || o.Verbose {
					t.Errorf("options = %+v", o)
				}
			},
		},
		{
			name: "run flags",
			args: []string{"-v", "-c", "lab.yaml", "--path", "hw_direct", "-p", "alsa_default", "--save-dir", "out", "--serve", ":9090"},
			check: func(t *testing.T, o *config.Options) {
				if !o.Verbose || o.ConfigFile != "lab.yaml" || o.SaveDir != "out" || o.ServeAddr != ":9090" {
					t.Errorf("options = %+v", o)
				}
				if !slices.Equal(o.Paths, []string{"hw_direct", "alsa_default"}) {
					t.Errorf("Paths = %v", o.Paths)
				}
			},
		},
		{
			name: "quick",
			args: []string{"--quick"},
			check: func(t *testing.T, o *config.Options) {
				if !o.Quick || o.Command != CommandRun {
					t.Errorf("options = %+v", o)
				}
			},
		},
		{
			name:    "quick and path conflict",
			args:    []string{"--quick", "-p", "hw_direct"},
			wantErr: "mutually exclusive",
		},
		{
			name: "list",
			args: []string{"list"},
			check: func(t *testing.T, o *config.Options) {
				if o.Command != CommandList {
					t.Errorf("Command = %q", o.Command)
				}
			},
		},
		{
			name: "paths with persistent config flag",
			args: []string{"paths", "--config", "lab.yaml"},
			check: func(t *testing.T, o *config.Options) {
				if o.Command != CommandPaths || o.ConfigFile != "lab.yaml" {
					t.Errorf("options = %+v", o)
				}
			},
		},
		{
			name: "play with sample",
			args: []string{"play", "plughw_direct", "--sample", "chime"},
			check: func(t *testing.T, o *config.Options) {
				if o.Command != CommandPlay || o.Sample != "chime" || !slices.Equal(o.Args, []string{"plughw_direct"}) {
					t.Errorf("options = %+v", o)
				}
			},
		},
		{
			name: "play defaults to tone",
			args: []string{"play", "hw_direct"},
			check: func(t *testing.T, o *config.Options) {
				if o.Sample != "tone" {
					t.Errorf("Sample = %q", o.Sample)
				}
			},
		},
		{name: "play unknown sample", args: []string{"play", "hw_direct", "--sample", "siren"}, wantErr: "unknown sample"},
		{name: "play needs a path", args: []string{"play"}, wantErr: "arg"},
		{name: "unknown flag", args: []string{"--loud"}, wantErr: "unknown flag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := ParseArgs(tt.args)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("ParseArgs(%v) error = %v, want %q", tt.args, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseArgs(%v) error = %v", tt.args, err)
			}
			tt.check(t, opts)
		})
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "loopcheck.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExecutePaths(t *testing.T) {
	var out bytes.Buffer
	code, err := Execute(context.Background(), &config.Options{Command: CommandPaths}, &out)
	if err != nil || code != 0 {
		t.Fatalf("Execute() = %d, %v", code, err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 9 {
		t.Fatalf("got %d lines, want header and 8 paths:\n%s", len(lines), out.String())
	}
	if !strings.Contains(lines[1], "plughw_direct") || !strings.Contains(lines[8], "native_default") {
		t.Errorf("paths not in priority order:\n%s", out.String())
	}
}

func TestExecutePathsFromConfig(t *testing.T) {
	cfgPath := writeConfig(t, `
paths:
  - name: second
    method: mpv
    target: alsa/default
    priority: 2
  - name: first
    method: aplay
    target: plughw:1,0
    priority: 1
`)
	var out bytes.Buffer
	code, err := Execute(context.Background(), &config.Options{Command: CommandPaths, ConfigFile: cfgPath}, &out)
	if err != nil || code != 0 {
		t.Fatalf("Execute() = %d, %v", code, err)
	}
	s := out.String()
	if strings.Index(s, "first") > strings.Index(s, "second") || !strings.Contains(s, "streaming-player") {
		t.Errorf("unexpected listing:\n%s", s)
	}
}

func TestExecuteFatalErrors(t *testing.T) {
	tests := []struct {
		name    string
		opts    *config.Options
		wantErr string
	}{
		{"bad config", &config.Options{Command: CommandPaths, ConfigFile: "missing.yaml"}, "failed to read config file"},
		{"unknown path selected", &config.Options{Command: CommandRun, Paths: []string{"nope"}}, "unknown path"},
		{"play unknown path", &config.Options{Command: CommandPlay, Args: []string{"nope"}, Sample: "tone"}, "unknown path"},
		{"play unknown sample", &config.Options{Command: CommandPlay, Args: []string{"hw_direct"}, Sample: "siren"}, "unknown sample"},
		{"unknown command", &config.Options{Command: "dance"}, "unknown command"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := Execute(context.Background(), tt.opts, &bytes.Buffer{})
			if code != 1 || err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Execute() = %d, %v, want error containing %q", code, err, tt.wantErr)
			}
		})
	}
}

func TestRenderSample(t *testing.T) {
	cfg := config.NewConfig()
	for _, name := range samples {
		s, err := renderSample(cfg, name)
		if err != nil || len(s) == 0 {
			t.Errorf("renderSample(%q) = %d samples, %v", name, len(s), err)
		}
	}
	if _, err := renderSample(cfg, "siren"); err == nil {
		t.Error("expected error for unknown sample")
	}
}
