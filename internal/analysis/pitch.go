// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
	"math/cmplx"
	"strings"

	"samplex/internal/log"
	"samplex/pkg/bitint"
)

// PitchEstimator is one pitch-detection strategy. Implementations buffer
// input internally and report a new estimate when one is available.
type PitchEstimator interface {
	Estimate(mono []float32, sampleRate int) (hz float64, ok bool)
	Reset()
	Name() string
}

// PitchConfig bounds the search and tunes both strategies.
type PitchConfig struct {
	MinHz        float64
	MaxHz        float64
	FFTSize      int     // HPS transform size.
	Harmonics    int     // HPS downsampling factors 1..Harmonics.
	YINSize      int     // YIN analysis window.
	YINThreshold float64 // YIN: cumulative mean normalized difference cutoff.
}

// NewPitchEstimator builds the named strategy ("hps" or "yin").
func NewPitchEstimator(strategy string, cfg PitchConfig) (PitchEstimator, error) {
	switch strings.ToLower(strategy) {
	case "hps", "":
		return NewHPS(cfg)
	case "yin":
		return NewYIN(cfg)
	default:
		return nil, fmt.Errorf("unknown pitch strategy %q", strategy)
	}
}

// hpsMeanFloor is the mean normalized magnitude below which a spectrum is
// treated as empty.
const hpsMeanFloor = 1e-6

// hpsSupport is the share of the strongest bin a product peak needs.
const hpsSupport = 0.1

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// FrequencyToMIDI returns the nearest MIDI note number (A4 = 440 Hz = 69).
func FrequencyToMIDI(hz float64) int {
	return int(math.Round(12*math.Log2(hz/440) + 69))
}

// MIDIToFrequency returns the equal-tempered frequency of a MIDI note.
func MIDIToFrequency(note int) float64 {
	return 440 * math.Pow(2, float64(note-69)/12)
}

// NoteName returns the pitch class of a MIDI note.
func NoteName(midi int) string {
	return noteNames[((midi%12)+12)%12]
}

// --- Harmonic Product Spectrum ---

// HPS multiplies the magnitude spectrum with copies of itself downsampled by
// 2..Harmonics so the fundamental is reinforced and overtones cancel out.
type HPS struct {
	cfg     PitchConfig
	fft     *FFTProcessor
	mags    []float64
	product []float64
}

func NewHPS(cfg PitchConfig) (*HPS, error) {
	if cfg.Harmonics < 1 {
		return nil, fmt.Errorf("hps needs at least one harmonic, got %d", cfg.Harmonics)
	}
	fft, err := NewFFTProcessor(cfg.FFTSize, Hann)
	if err != nil {
		return nil, fmt.Errorf("hps: %w", err)
	}
	half := cfg.FFTSize / 2
	return &HPS{
		cfg:     cfg,
		fft:     fft,
		mags:    make([]float64, half),
		product: make([]float64, half),
	}, nil
}

func (h *HPS) Name() string { return "hps" }

func (h *HPS) Reset() { h.fft.Reset() }

func (h *HPS) Estimate(mono []float32, sampleRate int) (float64, bool) {
	var (
		hz    float64
		found bool
	)
	for out, ok := h.fft.Process(mono); ok; out, ok = h.fft.Next() {
		if f, ok := h.analyze(out, sampleRate); ok {
			hz, found = f, true
		}
	}
	return hz, found
}

func (h *HPS) analyze(out []complex128, sampleRate int) (float64, bool) {
	size := h.fft.Size()
	var mean float64
	for i := range h.mags {
		h.mags[i] = cmplx.Abs(out[i]) / h.fft.FullScale()
		mean += h.mags[i]
	}
	mean /= float64(len(h.mags))
	if mean < hpsMeanFloor {
		return 0, false
	}

	rate := float64(sampleRate)
	minBin := int(math.Ceil(h.cfg.MinHz * float64(size) / rate))
	maxBin := int(h.cfg.MaxHz * float64(size) / rate)
	// Every downsampled copy must stay inside the spectrum.
	if limit := (len(h.mags) - 1) / h.cfg.Harmonics; maxBin > limit {
		maxBin = limit
	}
	if minBin < 1 {
		minBin = 1
	}
	if maxBin <= minBin {
		return 0, false
	}

	best := minBin
	for bin := minBin; bin <= maxBin; bin++ {
		p := h.mags[bin]
		for k := 2; k <= h.cfg.Harmonics; k++ {
			p *= h.mags[bin*k]
		}
		h.product[bin] = p
		if p > h.product[best] {
			best = bin
		}
	}

	// A pure tone has no overtones, so its product is sidelobe noise. The
	// product peak must sit on a spectral peak carrying a real share of the
	// energy, otherwise the strongest bin in the band wins.
	peak := minBin
	top := min(int(h.cfg.MaxHz*float64(size)/rate), len(h.mags)-2)
	for bin := minBin; bin <= top; bin++ {
		if h.mags[bin] > h.mags[peak] {
			peak = bin
		}
	}
	if h.mags[peak] <= 0 {
		return 0, false
	}
	score := h.product[best]
	best = climbPeak(h.mags, best)
	if score <= 0 || h.mags[best] < hpsSupport*h.mags[peak] {
		best = peak
	}

	return interpolatePeak(h.mags, best) * rate / float64(size), true
}

// climbPeak walks uphill from bin to the nearest local maximum.
func climbPeak(mags []float64, bin int) int {
	for bin+1 < len(mags) && mags[bin+1] > mags[bin] {
		bin++
	}
	for bin > 0 && mags[bin-1] > mags[bin] {
		bin--
	}
	return bin
}

// interpolatePeak refines a local maximum with a parabola through its
// neighbours and returns the fractional bin, at most half a bin away.
func interpolatePeak(mags []float64, bin int) float64 {
	if bin <= 0 || bin >= len(mags)-1 {
		return float64(bin)
	}
	a, b, c := mags[bin-1], mags[bin], mags[bin+1]
	if b < a || b < c {
		return float64(bin)
	}
	denom := a - 2*b + c
	if denom == 0 {
		return float64(bin)
	}
	offset := max(-0.5, min(0.5, 0.5*(a-c)/denom))
	return float64(bin) + offset
}

// --- YIN ---

// YIN runs the cumulative mean normalized difference function over a
// rolling window of raw samples.
type YIN struct {
	cfg    PitchConfig
	buffer []float32
	diff   []float64
}

func NewYIN(cfg PitchConfig) (*YIN, error) {
	if cfg.YINSize < 64 {
		return nil, fmt.Errorf("yin window too small: %d", cfg.YINSize)
	}
	if cfg.YINThreshold <= 0 || cfg.YINThreshold >= 1 {
		return nil, fmt.Errorf("yin threshold must be in (0, 1), got %.3f", cfg.YINThreshold)
	}
	if size := bitint.NextPowerOfTwo(cfg.YINSize); size != cfg.YINSize {
		log.Debugf("Analysis: YIN window %d rounded up to %d", cfg.YINSize, size)
		cfg.YINSize = size
	}
	return &YIN{
		cfg:    cfg,
		buffer: make([]float32, 0, 2*cfg.YINSize),
		diff:   make([]float64, cfg.YINSize/2),
	}, nil
}

func (y *YIN) Name() string { return "yin" }

func (y *YIN) Reset() { y.buffer = y.buffer[:0] }

func (y *YIN) Estimate(mono []float32, sampleRate int) (float64, bool) {
	y.buffer = append(y.buffer, mono...)
	var (
		hz    float64
		found bool
	)
	for len(y.buffer) >= y.cfg.YINSize {
		if f, ok := y.analyze(y.buffer[:y.cfg.YINSize], sampleRate); ok {
			hz, found = f, true
		}
		n := copy(y.buffer, y.buffer[y.cfg.YINSize:])
		y.buffer = y.buffer[:n]
	}
	return hz, found
}

func (y *YIN) analyze(frame []float32, sampleRate int) (float64, bool) {
	half := len(y.diff)
	rate := float64(sampleRate)
	tauMin := max(2, int(rate/y.cfg.MaxHz))
	tauMax := min(half-1, int(rate/y.cfg.MinHz))
	if tauMax <= tauMin {
		return 0, false
	}

	// --- 1. Difference function ---
	y.diff[0] = 1
	for tau := 1; tau <= tauMax; tau++ {
		var sum float64
		for j := range half {
			d := float64(frame[j]) - float64(frame[j+tau])
			sum += d * d
		}
		y.diff[tau] = sum
	}

	// --- 2. Cumulative mean normalization ---
	var running float64
	for tau := 1; tau <= tauMax; tau++ {
		running += y.diff[tau]
		if running == 0 {
			y.diff[tau] = 1
			continue
		}
		y.diff[tau] *= float64(tau) / running
	}

	// --- 3. Absolute threshold ---
	tau := -1
	for t := tauMin; t <= tauMax; t++ {
		if y.diff[t] < y.cfg.YINThreshold {
			for t+1 <= tauMax && y.diff[t+1] < y.diff[t] {
				t++
			}
			tau = t
			break
		}
	}
	if tau < 0 {
		return 0, false
	}

	// --- 4. Parabolic interpolation (on a minimum) ---
	refined := float64(tau)
	if tau > 1 && tau < tauMax {
		a, b, c := y.diff[tau-1], y.diff[tau], y.diff[tau+1]
		if denom := a - 2*b + c; denom != 0 {
			refined += 0.5 * (a - c) / denom
		}
	}
	return rate / refined, true
}
