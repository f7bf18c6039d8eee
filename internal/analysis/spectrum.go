// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"

	"samplex/internal/log"
)

// SpectrumConfig selects the transform and the displayed band.
type SpectrumConfig struct {
	FFTSize int
	Window  WindowFunc
	MinHz   float64
	MaxHz   float64
	FloorDB float64
}

// Spectrum turns mono blocks into normalized per-bin magnitudes restricted
// to [MinHz, MaxHz].
type Spectrum struct {
	cfg        SpectrumConfig
	fft        *FFTProcessor
	sampleRate int
	bins       []float32
	firstBin   int // Frequency of bins[0] is firstBin * rate / size.
}

func NewSpectrum(cfg SpectrumConfig) (*Spectrum, error) {
	if cfg.MaxHz <= cfg.MinHz {
		return nil, fmt.Errorf("spectrum band %.1f..%.1f Hz is empty", cfg.MinHz, cfg.MaxHz)
	}
	fft, err := NewFFTProcessor(cfg.FFTSize, cfg.Window)
	if err != nil {
		return nil, fmt.Errorf("spectrum: %w", err)
	}
	return &Spectrum{
		cfg:  cfg,
		fft:  fft,
		bins: make([]float32, 0, cfg.FFTSize/2),
	}, nil
}

// SetSampleRate records the rate of the upcoming blocks and drops any
// carried audio from the previous rate. A rate of 0 means no source.
func (s *Spectrum) SetSampleRate(rate int) {
	if rate != s.sampleRate {
		log.Debugf("Analysis: Spectrum sample rate %d -> %d Hz", s.sampleRate, rate)
	}
	s.sampleRate = rate
	s.fft.Reset()
}

func (s *Spectrum) Process(mono []float32) {
	if s.sampleRate <= 0 {
		return
	}
	for out, ok := s.fft.Process(mono); ok; out, ok = s.fft.Next() {
		s.update(out)
	}
}

func (s *Spectrum) update(out []complex128) {
	size := s.fft.Size()
	rate := float64(s.sampleRate)
	s.bins = s.bins[:0]
	s.firstBin = -1
	// Bins above size/2 mirror the lower half.
	for i := range size / 2 {
		f := BinFrequency(i, size, rate)
		if f < s.cfg.MinHz || f > s.cfg.MaxHz {
			continue
		}
		if s.firstBin < 0 {
			s.firstBin = i
		}
		db := AmplitudeToDB(s.fft.Amplitude(out[i]))
		s.bins = append(s.bins, float32(NormalizeDB(db, s.cfg.FloorDB)))
	}
}

// Bins returns the latest normalized magnitudes, lowest frequency first.
func (s *Spectrum) Bins() []float32 { return s.bins }

// BinFrequency returns the center frequency of Bins()[i].
func (s *Spectrum) BinFrequency(i int) float64 {
	if s.firstBin < 0 || s.sampleRate <= 0 {
		return 0
	}
	return BinFrequency(s.firstBin+i, s.fft.Size(), float64(s.sampleRate))
}

// Reset clears the displayed bins and the carry. The sample rate is kept.
func (s *Spectrum) Reset() {
	s.bins = s.bins[:0]
	s.fft.Reset()
}
