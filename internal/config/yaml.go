// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	applog "loopcheck/internal/log"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from the YAML file at path. If path is
// empty, DefaultConfigFile is tried in the working directory and built-in
// defaults are used when it does not exist. Fields missing from the file keep
// their defaults. Environment overrides are applied after the file, then the
// result is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the relationships between settings that the measurement
// depends on.
func (c *Config) Validate() error {
	var errs []error

	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		errs = append(errs, fmt.Errorf("audio.sample_rate %.0f outside [%d, %d]",
			c.Audio.SampleRate, MinSampleRate, MaxSampleRate))
	}
	if c.Audio.FramesPerBuffer <= 0 {
		errs = append(errs, fmt.Errorf("audio.frames_per_buffer must be positive"))
	}
	if c.Tone.Frequency <= 0 || c.Tone.Frequency >= c.Audio.SampleRate/2 {
		errs = append(errs, fmt.Errorf("tone.frequency %.1f must be between 0 and Nyquist", c.Tone.Frequency))
	}
	if c.Tone.Duration <= 0 {
		errs = append(errs, fmt.Errorf("tone.duration must be positive"))
	}
	if c.Tone.Amplitude <= 0 || c.Tone.Amplitude > 1 {
		errs = append(errs, fmt.Errorf("tone.amplitude %.2f outside (0, 1]", c.Tone.Amplitude))
	}
	if c.Tone.Fade < 0 {
		errs = append(errs, fmt.Errorf("tone.fade must not be negative"))
	}
	if c.Capture.Duration <= c.Tone.Duration {
		errs = append(errs, fmt.Errorf("capture.duration %s must be longer than tone.duration %s",
			c.Capture.Duration, c.Tone.Duration))
	}
	if c.Capture.SettleDelay < 0 || c.Capture.JoinMargin < 0 {
		errs = append(errs, fmt.Errorf("capture delays must not be negative"))
	}
	if c.Capture.Channels < 1 {
		errs = append(errs, fmt.Errorf("capture.channels must be at least 1"))
	}
	if c.Detection.MinRMS < 0 || c.Detection.FrequencyTolerance < 0 ||
		c.Detection.SNRThreshold < 0 || c.Detection.NoiseBandHz < 0 {
		errs = append(errs, fmt.Errorf("detection thresholds must not be negative"))
	}
	if c.Playback.DeviceTimeout <= 0 {
		errs = append(errs, fmt.Errorf("playback.device_timeout must be positive"))
	}
	if _, ok := applog.ParseLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("unknown log_level %q", c.LogLevel))
	}

	seen := make(map[string]bool, len(c.Paths))
	for _, p := range c.Paths {
		if p.Name == "" {
			errs = append(errs, fmt.Errorf("paths: entry without a name"))
			continue
		}
		if seen[p.Name] {
			errs = append(errs, fmt.Errorf("paths: duplicate name %q", p.Name))
		}
		seen[p.Name] = true
	}

	return errors.Join(errs...)
}

// applyEnvOverrides lets a deployment adjust logging and publishing without
// editing the file. Measurement settings are intentionally not overridable.
//
//	LOOPCHECK_LOG_LEVEL   log level name
//	LOOPCHECK_DEBUG       bool, forces debug logging
//	LOOPCHECK_SERVE_ADDR  websocket listen address
func (c *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv("LOOPCHECK_LOG_LEVEL"); ok {
		c.LogLevel = val
	}
	if val, ok := os.LookupEnv("LOOPCHECK_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil && bVal {
			c.LogLevel = "debug"
		}
	}
	if val, ok := os.LookupEnv("LOOPCHECK_SERVE_ADDR"); ok {
		c.Transport.ServeAddr = val
	}
}
