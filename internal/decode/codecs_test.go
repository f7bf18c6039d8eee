// SPDX-License-Identifier: MIT
package decode

import (
	"math"
	"path/filepath"
	"testing"
)

// testdata/ramp.flac holds 2048 stereo frames at 8 kHz in 256-frame blocks.
// Frame n is n*8-8192 on the left and its negation on the right.
func rampSample(frame int64) float32 {
	return float32(frame*8-8192) / 32768
}

func TestCompressedFormats(t *testing.T) {
	tests := []struct {
		name       string
		file       string
		sampleRate int
		channels   int
		frames     int64
	}{
		{"FLAC", "ramp.flac", 8000, 2, 2048},
		// Ten silent mono frames; the decoder always yields stereo.
		{"MP3", "silence.mp3", 44100, 2, 10 * 1152},
		{"Vorbis", "tone.ogg", 44100, 1, 44100},
	}

	reg := NewRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := reg.Open(filepath.Join("testdata", tt.file))
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer src.Close()

			if got := src.SampleRate(); got != tt.sampleRate {
				t.Errorf("SampleRate() = %d, want %d", got, tt.sampleRate)
			}
			if got := src.Channels(); got != tt.channels {
				t.Errorf("Channels() = %d, want %d", got, tt.channels)
			}
			if got := src.Frames(); got != tt.frames {
				t.Errorf("Frames() = %d, want %d", got, tt.frames)
			}
			if got := int64(len(readAll(t, src))); got != tt.frames*int64(tt.channels) {
				t.Errorf("decoded %d samples, want %d", got, tt.frames*int64(tt.channels))
			}
		})
	}
}

func TestFLACSeekFrame(t *testing.T) {
	tests := []struct {
		name  string
		frame int64
	}{
		{"Start", 0},
		{"Block Boundary", 256},
		{"Mid Block", 300},
		{"Late", 1000},
		{"Last Frame", 2047},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := OpenFLAC(filepath.Join("testdata", "ramp.flac"))
			if err != nil {
				t.Fatalf("OpenFLAC() error = %v", err)
			}
			defer src.Close()

			// Read past the target first so the seek has to go backwards too.
			buf := make([]float32, 2*600)
			if _, err := src.ReadSamples(buf); err != nil {
				t.Fatalf("ReadSamples() error = %v", err)
			}

			if err := src.SeekFrame(tt.frame); err != nil {
				t.Fatalf("SeekFrame(%d) error = %v", tt.frame, err)
			}
			rest := readAll(t, src)
			if want := (2048 - tt.frame) * 2; int64(len(rest)) != want {
				t.Fatalf("read %d samples after seek, want %d", len(rest), want)
			}
			if rest[0] != rampSample(tt.frame) || rest[1] != -rampSample(tt.frame) {
				t.Errorf("first frame after seek = (%v, %v), want (%v, %v)",
					rest[0], rest[1], rampSample(tt.frame), -rampSample(tt.frame))
			}
		})
	}
}

func TestMP3SeekFrame(t *testing.T) {
	const total = 10 * 1152
	tests := []struct {
		name  string
		frame int64
	}{
		{"Start", 0},
		{"Inside First Frame", 100},
		{"Frame Boundary", 1152},
		{"Mid Stream", 5*1152 + 10},
		{"Negative Clamps", -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := OpenMP3(filepath.Join("testdata", "silence.mp3"))
			if err != nil {
				t.Fatalf("OpenMP3() error = %v", err)
			}
			defer src.Close()

			if err := src.SeekFrame(tt.frame); err != nil {
				t.Fatalf("SeekFrame(%d) error = %v", tt.frame, err)
			}
			rest := readAll(t, src)
			want := int64(total - max(tt.frame, 0))
			if int64(len(rest)) != want*2 {
				t.Errorf("read %d samples after seek, want %d", len(rest), want*2)
			}
			for i, v := range rest {
				if v != 0 {
					t.Fatalf("sample %d = %v, want silence", i, v)
				}
			}
		})
	}
}

func TestVorbisSeekFrame(t *testing.T) {
	path := filepath.Join("testdata", "tone.ogg")
	src, err := OpenVorbis(path)
	if err != nil {
		t.Fatalf("OpenVorbis() error = %v", err)
	}
	defer src.Close()
	linear := readAll(t, src)

	tests := []struct {
		name  string
		frame int64
	}{
		{"Start", 0},
		{"Early", 1000},
		{"Middle", 22050},
		{"Near End", 44000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := src.SeekFrame(tt.frame); err != nil {
				t.Fatalf("SeekFrame(%d) error = %v", tt.frame, err)
			}
			buf := make([]float32, 100)
			n, err := src.ReadSamples(buf)
			if err != nil {
				t.Fatalf("ReadSamples() error = %v", err)
			}
			for i := range n {
				want := linear[tt.frame+int64(i)]
				if math.Abs(float64(buf[i]-want)) > 1e-4 {
					t.Fatalf("sample %d after seek = %v, want %v", i, buf[i], want)
				}
			}
		})
	}

	if err := src.SeekFrame(src.Frames()); err != nil {
		t.Fatalf("SeekFrame(end) error = %v", err)
	}
	if n, _ := src.ReadSamples(make([]float32, 10)); n != 0 {
		t.Errorf("ReadSamples() at end = %d samples, want 0", n)
	}
}
