// SPDX-License-Identifier: MIT
package config

import "time"

// Core constants that define the defaults for a diagnostic run. These are
// the values used when no configuration file is present.
const (
	DefaultLogLevel   = "info"
	DefaultSampleRate = 48000 // Matches the native rate of common USB mic arrays

	// Test tone
	DefaultToneFrequency = 1000.0 // Hz, easy to detect and not too harsh
	DefaultToneDuration  = 2 * time.Second
	DefaultToneAmplitude = 0.8
	DefaultToneFade      = 50 * time.Millisecond

	// Capture
	DefaultRecordDuration = 3 * time.Second // Longer than the tone to catch latency and tail
	DefaultSettleDelay    = 300 * time.Millisecond
	DefaultJoinMargin     = 2 * time.Second
	DefaultInputChannels  = 1

	// Detection thresholds
	DefaultMinRMS             = 0.001
	DefaultFrequencyTolerance = 50.0 // Hz
	DefaultSNRThreshold       = 3.0
	DefaultNoiseBandHz        = 100.0

	// Playback
	DefaultDevicePlayer           = "aplay"
	DefaultDeviceTimeout          = 5 * time.Second
	DefaultStreamPlayer           = "mpv"
	DefaultStreamLengthMargin     = 1 * time.Second
	DefaultStreamTimeoutMargin    = 2 * time.Second
	DefaultStreamTimeoutIsSuccess = true
	DefaultFramesPerBuffer        = 512

	MinSampleRate = 8000
	MaxSampleRate = 192000

	// DefaultConfigFile is looked up in the working directory when no
	// explicit path is given.
	DefaultConfigFile = "loopcheck.yaml"
)

// Config is the complete configuration of a diagnostic run, loaded from YAML.
type Config struct {
	LogLevel  string          `yaml:"log_level"`
	Audio     AudioConfig     `yaml:"audio"`
	Tone      ToneConfig      `yaml:"tone"`
	Capture   CaptureConfig   `yaml:"capture"`
	Detection DetectionConfig `yaml:"detection"`
	Playback  PlaybackConfig  `yaml:"playback"`
	Transport TransportConfig `yaml:"transport"`
	Paths     []PathConfig    `yaml:"paths,omitempty"` // Replaces the built-in registry when set.
}

// AudioConfig holds settings shared by capture and native playback.
type AudioConfig struct {
	SampleRate      float64 `yaml:"sample_rate"`
	FramesPerBuffer int     `yaml:"frames_per_buffer"`
}

// ToneConfig describes the test tone played through every path.
type ToneConfig struct {
	Frequency float64       `yaml:"frequency"`
	Duration  time.Duration `yaml:"duration"`
	Amplitude float64       `yaml:"amplitude"`
	Fade      time.Duration `yaml:"fade"`
}

// CaptureConfig controls the background recording of each path test.
type CaptureConfig struct {
	Duration    time.Duration `yaml:"duration"`     // Must be strictly longer than the tone.
	SettleDelay time.Duration `yaml:"settle_delay"` // Wait between starting capture and playback.
	JoinMargin  time.Duration `yaml:"join_margin"`  // Extra wait when joining the capture.
	Channels    int           `yaml:"channels"`
}

// DetectionConfig holds the thresholds of the tone detection verdict.
type DetectionConfig struct {
	MinRMS             float64 `yaml:"min_rms"`
	FrequencyTolerance float64 `yaml:"frequency_tolerance"`
	SNRThreshold       float64 `yaml:"snr_threshold"`
	NoiseBandHz        float64 `yaml:"noise_band_hz"`
}

// PlaybackConfig names the external players and their time bounds.
type PlaybackConfig struct {
	DevicePlayer           string        `yaml:"device_player"`
	DeviceTimeout          time.Duration `yaml:"device_timeout"`
	StreamPlayer           string        `yaml:"stream_player"`
	StreamLengthMargin     time.Duration `yaml:"stream_length_margin"`
	StreamTimeoutMargin    time.Duration `yaml:"stream_timeout_margin"`
	StreamTimeoutIsSuccess bool          `yaml:"stream_timeout_is_success"`
}

// TransportConfig holds settings for publishing live results.
type TransportConfig struct {
	ServeAddr string `yaml:"serve_addr"` // Empty disables the websocket server.
}

// PathConfig is the file representation of one audio path descriptor.
type PathConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Method      string `yaml:"method"` // device-player, streaming-player or native
	Target      string `yaml:"target"`
	Priority    int    `yaml:"priority"`
}

// Options are per-invocation switches parsed from the command line. They
// select what to run, never how the measurement is made.
type Options struct {
	ConfigFile string
	Quick      bool
	Verbose    bool
	Paths      []string
	SaveDir    string
	ServeAddr  string
	Command    string
	Args       []string
	Sample     string
}

// NewConfig creates a new Config instance with default values.
func NewConfig() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Audio: AudioConfig{
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
		},
		Tone: ToneConfig{
			Frequency: DefaultToneFrequency,
			Duration:  DefaultToneDuration,
			Amplitude: DefaultToneAmplitude,
			Fade:      DefaultToneFade,
		},
		Capture: CaptureConfig{
			Duration:    DefaultRecordDuration,
			SettleDelay: DefaultSettleDelay,
			JoinMargin:  DefaultJoinMargin,
			Channels:    DefaultInputChannels,
		},
		Detection: DetectionConfig{
			MinRMS:             DefaultMinRMS,
			FrequencyTolerance: DefaultFrequencyTolerance,
			SNRThreshold:       DefaultSNRThreshold,
			NoiseBandHz:        DefaultNoiseBandHz,
		},
		Playback: PlaybackConfig{
			DevicePlayer:           DefaultDevicePlayer,
			DeviceTimeout:          DefaultDeviceTimeout,
			StreamPlayer:           DefaultStreamPlayer,
			StreamLengthMargin:     DefaultStreamLengthMargin,
			StreamTimeoutMargin:    DefaultStreamTimeoutMargin,
			StreamTimeoutIsSuccess: DefaultStreamTimeoutIsSuccess,
		},
	}
}
