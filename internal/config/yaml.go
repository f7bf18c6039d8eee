// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"samplex/pkg/bitint"

	"gopkg.in/yaml.v3"
)

// Hardware and processing limits.
const (
	MaxBufferFrames = 8192 // Maximum frames per buffer (power of 2)
	MaxFFTSize      = 65536
)

// Tuner strategies.
const (
	TunerHPS = "hps"
	TunerYIN = "yin"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	LogLevel  string          `yaml:"log_level"` // Logging level ("debug", "info", "warn", "error").
	Audio     AudioConfig     `yaml:"audio"`     // Playback engine settings.
	Analysis  AnalysisConfig  `yaml:"analysis"`  // Analyzer settings.
	Waveform  WaveformConfig  `yaml:"waveform"`  // Background waveform decoding.
	Transport TransportConfig `yaml:"transport"` // Snapshot publishing for external renderers.
}

// AudioConfig holds settings related to audio output and the playback loop.
type AudioConfig struct {
	FramesPerBuffer int  `yaml:"frames_per_buffer"` // Frames per blocking write (affects latency and command polling).
	LowLatency      bool `yaml:"low_latency"`       // Request low latency settings from the device.
	CommandQueue    int  `yaml:"command_queue"`     // Capacity of the engine command queue.
	EventQueue      int  `yaml:"event_queue"`       // Capacity of the engine event queue.
	UIFrameRate     int  `yaml:"ui_frame_rate"`     // Visualization blocks and position polls per second.
}

// AnalysisConfig holds the analyzer engines' parameters.
type AnalysisConfig struct {
	Window          string  `yaml:"window"` // FFT window: hann, hamming, blackman, ...
	SpectrumFFTSize int     `yaml:"spectrum_fft_size"`
	SpectrumMinHz   float64 `yaml:"spectrum_min_hz"`
	SpectrumMaxHz   float64 `yaml:"spectrum_max_hz"`
	TunerStrategy   string  `yaml:"tuner_strategy"` // "hps" or "yin".
	TunerFFTSize    int     `yaml:"tuner_fft_size"`
	TunerMinHz      float64 `yaml:"tuner_min_hz"`
	TunerMaxHz      float64 `yaml:"tuner_max_hz"`
	HPSHarmonics    int     `yaml:"hps_harmonics"`
	YINBufferSize   int     `yaml:"yin_buffer_size"`
	YINThreshold    float64 `yaml:"yin_threshold"`
	SilenceFloor    float64 `yaml:"silence_floor"` // RMS below which the tuner skips estimation.
	DBFloor         float64 `yaml:"db_floor"`      // dB value mapped to 0 on the meters and spectrum.
}

// WaveformConfig holds settings of the background waveform loader.
type WaveformConfig struct {
	SamplesPerPeak int `yaml:"samples_per_peak"` // Mono frames summarised by one peak.
	ChunkPeaks     int `yaml:"chunk_peaks"`      // Peaks per SamplesReady event.
	CommandQueue   int `yaml:"command_queue"`
	EventQueue     int `yaml:"event_queue"`
	Columns        int `yaml:"columns"` // Envelope width published in snapshots.
}

// TransportConfig holds settings related to sending analyzer snapshots over the network.
type TransportConfig struct {
	WebSocketEnabled bool          `yaml:"websocket_enabled"`
	WebSocketAddress string        `yaml:"websocket_address"`
	UDPEnabled       bool          `yaml:"udp_enabled"`
	UDPTargetAddress string        `yaml:"udp_target_address"`
	PublishInterval  time.Duration `yaml:"publish_interval"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Audio: AudioConfig{
			FramesPerBuffer: 512,
			LowLatency:      false,
			CommandQueue:    8,
			EventQueue:      256,
			UIFrameRate:     60,
		},
		Analysis: AnalysisConfig{
			Window:          "hann",
			SpectrumFFTSize: 2048,
			SpectrumMinHz:   20,
			SpectrumMaxHz:   22000,
			TunerStrategy:   TunerHPS,
			TunerFFTSize:    8192,
			TunerMinHz:      20,
			TunerMaxHz:      10000,
			HPSHarmonics:    4,
			YINBufferSize:   4096,
			YINThreshold:    0.15,
			SilenceFloor:    0.001,
			DBFloor:         -60,
		},
		Waveform: WaveformConfig{
			SamplesPerPeak: 256,
			ChunkPeaks:     2048,
			CommandQueue:   8,
			EventQueue:     16,
			Columns:        512,
		},
		Transport: TransportConfig{
			WebSocketEnabled: false,
			WebSocketAddress: "127.0.0.1:8080",
			UDPEnabled:       false,
			UDPTargetAddress: "127.0.0.1:9090",
			PublishInterval:  33 * time.Millisecond, // ~30Hz.
		},
	}
}

// LoadConfig loads configuration from a YAML file specified by path. If path is empty,
// it searches default locations ("config.yaml"). If no file is found, it uses built-in
// defaults. After loading defaults or from file, it applies environment variable
// overrides and validates the final configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		for _, candidate := range searchPaths() {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
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

	// Apply environment variable overrides AFTER loading from file.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func searchPaths() []string {
	paths := []string{"config.yaml"}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, dir+"/samplex/config.yaml")
	}
	return paths
}

// Validate checks every bound the engines rely on.
func (c *Config) Validate() error {
	a := c.Audio
	if a.FramesPerBuffer <= 0 || a.FramesPerBuffer > MaxBufferFrames {
		return fmt.Errorf("%w: audio.frames_per_buffer must be in 1..%d, got %d", ErrInvalidConfig, MaxBufferFrames, a.FramesPerBuffer)
	}
	if a.CommandQueue <= 0 || a.EventQueue < 8 {
		return fmt.Errorf("%w: audio queues too small (command %d, event %d)", ErrInvalidConfig, a.CommandQueue, a.EventQueue)
	}
	if a.UIFrameRate <= 0 || a.UIFrameRate > 240 {
		return fmt.Errorf("%w: audio.ui_frame_rate %d", ErrInvalidConfig, a.UIFrameRate)
	}

	an := c.Analysis
	for name, size := range map[string]int{"spectrum_fft_size": an.SpectrumFFTSize, "tuner_fft_size": an.TunerFFTSize} {
		if !bitint.IsPowerOfTwo(size) || size < 64 || size > MaxFFTSize {
			return fmt.Errorf("%w: analysis.%s must be a power of 2 in 64..%d, got %d", ErrInvalidConfig, name, MaxFFTSize, size)
		}
	}
	if an.SpectrumMinHz < 0 || an.SpectrumMaxHz <= an.SpectrumMinHz {
		return fmt.Errorf("%w: spectrum band %.1f..%.1f Hz", ErrInvalidConfig, an.SpectrumMinHz, an.SpectrumMaxHz)
	}
	if an.TunerMinHz <= 0 || an.TunerMaxHz <= an.TunerMinHz {
		return fmt.Errorf("%w: tuner band %.1f..%.1f Hz", ErrInvalidConfig, an.TunerMinHz, an.TunerMaxHz)
	}
	switch strings.ToLower(an.TunerStrategy) {
	case TunerHPS, TunerYIN:
	default:
		return fmt.Errorf("%w: unknown tuner strategy %q", ErrInvalidConfig, an.TunerStrategy)
	}
	if an.HPSHarmonics < 1 || an.HPSHarmonics > 8 {
		return fmt.Errorf("%w: analysis.hps_harmonics %d", ErrInvalidConfig, an.HPSHarmonics)
	}
	if an.YINBufferSize < 256 || an.YINThreshold <= 0 || an.YINThreshold >= 1 {
		return fmt.Errorf("%w: yin buffer %d threshold %.2f", ErrInvalidConfig, an.YINBufferSize, an.YINThreshold)
	}
	if an.SilenceFloor < 0 || an.DBFloor >= 0 {
		return fmt.Errorf("%w: silence_floor %.4f db_floor %.1f", ErrInvalidConfig, an.SilenceFloor, an.DBFloor)
	}

	w := c.Waveform
	if w.SamplesPerPeak <= 0 || w.ChunkPeaks <= 0 || w.CommandQueue <= 0 || w.EventQueue <= 0 || w.Columns <= 0 {
		return fmt.Errorf("%w: waveform settings %+v", ErrInvalidConfig, w)
	}

	t := c.Transport
	if t.WebSocketEnabled && t.WebSocketAddress == "" {
		return fmt.Errorf("%w: transport.websocket_address must be set when websocket is enabled", ErrInvalidConfig)
	}
	if t.UDPEnabled && !strings.Contains(t.UDPTargetAddress, ":") {
		return fmt.Errorf("%w: transport.udp_target_address %q appears invalid (missing port?)", ErrInvalidConfig, t.UDPTargetAddress)
	}
	if (t.WebSocketEnabled || t.UDPEnabled) && t.PublishInterval <= 0 {
		return fmt.Errorf("%w: transport.publish_interval must be positive", ErrInvalidConfig)
	}

	return nil
}

// applyEnvOverrides applies SAMPLEX_* environment variables on top of the
// file values. Unparseable values are ignored.
func (c *Config) applyEnvOverrides() {
	// SAMPLEX_LOG_LEVEL
	if val, ok := os.LookupEnv("SAMPLEX_LOG_LEVEL"); ok {
		c.LogLevel = val
	}
	// SAMPLEX_FRAMES_PER_BUFFER
	if val, ok := os.LookupEnv("SAMPLEX_FRAMES_PER_BUFFER"); ok {
		if n, err := strconv.Atoi(val); err == nil {
			c.Audio.FramesPerBuffer = n
		}
	}
	// SAMPLEX_TUNER
	if val, ok := os.LookupEnv("SAMPLEX_TUNER"); ok {
		c.Analysis.TunerStrategy = strings.ToLower(val)
	}

	// SAMPLEX_WS_{...} and SAMPLEX_UDP_{...} are specific to the transport layer.

	if val, ok := os.LookupEnv("SAMPLEX_WS_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Transport.WebSocketEnabled = bVal
		}
	}
	if val, ok := os.LookupEnv("SAMPLEX_WS_ADDRESS"); ok {
		c.Transport.WebSocketAddress = val
	}
	if val, ok := os.LookupEnv("SAMPLEX_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Transport.UDPEnabled = bVal
		}
	}
	if val, ok := os.LookupEnv("SAMPLEX_UDP_TARGET_ADDRESS"); ok {
		c.Transport.UDPTargetAddress = val
	}
	if val, ok := os.LookupEnv("SAMPLEX_PUBLISH_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			c.Transport.PublishInterval = dur
		}
	}
}
