// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cfg.Analysis.SpectrumFFTSize != 2048 || cfg.Analysis.TunerFFTSize != 8192 {
		t.Errorf("unexpected default FFT sizes: %+v", cfg.Analysis)
	}
	if cfg.Audio.UIFrameRate != 60 {
		t.Errorf("UIFrameRate = %d, want 60", cfg.Audio.UIFrameRate)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("nonexistent.yaml")
	if err == nil {
		t.Errorf("expected error for missing file, got nil")
	}
	if cfg != nil {
		t.Errorf("expected nil config on error, got %+v", cfg)
	}
}

func TestLoadConfig_UnmarshalError(t *testing.T) {
	path := writeTempConfig(t, ":\n:bad")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Errorf("expected unmarshal error, got %v", err)
	}
}

func TestLoadConfig_FileValues(t *testing.T) {
	path := writeTempConfig(t, `
log_level: debug
audio:
  frames_per_buffer: 1024
analysis:
  tuner_strategy: yin
  spectrum_max_hz: 10000
waveform:
  event_queue: 64
transport:
  websocket_enabled: true
  publish_interval: 50ms
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.LogLevel != "debug" || cfg.Audio.FramesPerBuffer != 1024 {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Analysis.TunerStrategy != TunerYIN || cfg.Analysis.SpectrumMaxHz != 10000 {
		t.Errorf("analysis values not applied: %+v", cfg.Analysis)
	}
	if cfg.Transport.PublishInterval != 50*time.Millisecond {
		t.Errorf("PublishInterval = %s", cfg.Transport.PublishInterval)
	}
	if cfg.Waveform.EventQueue != 64 || cfg.Waveform.CommandQueue != 8 {
		t.Errorf("waveform values not applied: %+v", cfg.Waveform)
	}
	// Untouched keys keep their defaults.
	if cfg.Analysis.TunerFFTSize != 8192 {
		t.Errorf("TunerFFTSize = %d, want default", cfg.Analysis.TunerFFTSize)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SAMPLEX_TUNER", "YIN")
	t.Setenv("SAMPLEX_UDP_ENABLED", "true")
	t.Setenv("SAMPLEX_UDP_TARGET_ADDRESS", "10.0.0.2:7000")
	t.Setenv("SAMPLEX_FRAMES_PER_BUFFER", "not-a-number")

	path := writeTempConfig(t, "log_level: warn\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Analysis.TunerStrategy != TunerYIN {
		t.Errorf("TunerStrategy = %q", cfg.Analysis.TunerStrategy)
	}
	if !cfg.Transport.UDPEnabled || cfg.Transport.UDPTargetAddress != "10.0.0.2:7000" {
		t.Errorf("udp overrides not applied: %+v", cfg.Transport)
	}
	if cfg.Audio.FramesPerBuffer != 512 {
		t.Errorf("invalid env value should be ignored, got %d frames", cfg.Audio.FramesPerBuffer)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"FFT not power of two", func(c *Config) { c.Analysis.SpectrumFFTSize = 2000 }},
		{"Tuner FFT too small", func(c *Config) { c.Analysis.TunerFFTSize = 32 }},
		{"Unknown tuner", func(c *Config) { c.Analysis.TunerStrategy = "autotune" }},
		{"Inverted spectrum band", func(c *Config) { c.Analysis.SpectrumMaxHz = 10 }},
		{"Positive dB floor", func(c *Config) { c.Analysis.DBFloor = 3 }},
		{"Zero frames", func(c *Config) { c.Audio.FramesPerBuffer = 0 }},
		{"Huge buffer", func(c *Config) { c.Audio.FramesPerBuffer = 16384 }},
		{"Tiny event queue", func(c *Config) { c.Audio.EventQueue = 2 }},
		{"Zero peak size", func(c *Config) { c.Waveform.SamplesPerPeak = 0 }},
		{"Zero waveform event queue", func(c *Config) { c.Waveform.EventQueue = 0 }},
		{"UDP without port", func(c *Config) {
			c.Transport.UDPEnabled = true
			c.Transport.UDPTargetAddress = "localhost"
		}},
	}

	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}
