// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
	"math/cmplx"
	"strings"

	"samplex/internal/log"
	"samplex/pkg/bitint"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// WindowFunc defines the type for selecting an FFT window function.
type WindowFunc int

// Enum for available window functions.
const (
	Hann WindowFunc = iota
	BartlettHann
	Blackman
	BlackmanNuttall
	Hamming
	Nuttall
)

// Epsilon is the smallest amplitude considered before taking a logarithm.
const Epsilon = 1e-10

// Pre-allocated buffers for FFT calculations.
type fftWorkspace struct {
	input  []complex128 // Windowed input, imaginary part always zero.
	output []complex128 // FFT complex results, length fftSize.
	window []float64    // Pre-calculated window coefficients.
}

// FFTProcessor accumulates samples in a carry buffer and transforms them in
// consecutive, non-overlapping windows of fftSize samples. It is not safe for
// concurrent use; each analyzer owns its own instance.
type FFTProcessor struct {
	fft       *fourier.CmplxFFT
	fftSize   int
	carry     []float32 // Samples not yet transformed.
	fullScale float64   // Magnitude of a 0 dBFS sine in one bin.
	workspace fftWorkspace
}

// NewFFTProcessor builds a processor for the given power-of-two size.
func NewFFTProcessor(fftSize int, windowType WindowFunc) (*FFTProcessor, error) {
	if !bitint.IsPowerOfTwo(fftSize) {
		return nil, fmt.Errorf("fft size must be a power of 2, got %d", fftSize)
	}

	coeffs := make([]float64, fftSize)
	applyWindow(coeffs, windowType)

	var sum float64
	for _, c := range coeffs {
		sum += c
	}

	log.Debugf("Analysis: Initializing FFTProcessor (Size: %d, Window: %v)", fftSize, windowType)

	return &FFTProcessor{
		fft:       fourier.NewCmplxFFT(fftSize),
		fftSize:   fftSize,
		carry:     make([]float32, 0, 2*fftSize),
		fullScale: sum / 2,
		workspace: fftWorkspace{
			input:  make([]complex128, fftSize),
			output: make([]complex128, fftSize),
			window: coeffs,
		},
	}, nil
}

// Write appends samples to the carry buffer without transforming.
func (p *FFTProcessor) Write(samples []float32) {
	p.carry = append(p.carry, samples...)
}

// Next transforms the oldest fftSize carried samples if enough are buffered.
// The returned slice is owned by the processor and valid until the next call.
func (p *FFTProcessor) Next() ([]complex128, bool) {
	if len(p.carry) < p.fftSize {
		return nil, false
	}

	// --- 1. Window ---
	for i, w := range p.workspace.window {
		p.workspace.input[i] = complex(float64(p.carry[i])*w, 0)
	}

	// --- 2. Consume ---
	remaining := copy(p.carry, p.carry[p.fftSize:])
	p.carry = p.carry[:remaining]

	// --- 3. Transform ---
	p.fft.Coefficients(p.workspace.output, p.workspace.input)
	return p.workspace.output, true
}

// Process appends samples and returns the first transform that became
// available. More may be pending; drain them with Next.
//
//	for spec, ok := p.Process(block); ok; spec, ok = p.Next() { ... }
func (p *FFTProcessor) Process(samples []float32) ([]complex128, bool) {
	p.Write(samples)
	return p.Next()
}

// Reset drops carried samples. The FFT plan and window are kept.
func (p *FFTProcessor) Reset() {
	p.carry = p.carry[:0]
}

// Size returns the configured FFT size (number of points).
func (p *FFTProcessor) Size() int { return p.fftSize }

// FullScale returns the bin magnitude produced by a full-scale sine.
func (p *FFTProcessor) FullScale() float64 { return p.fullScale }

// Amplitude converts a complex bin to a linear amplitude relative to full scale.
func (p *FFTProcessor) Amplitude(c complex128) float64 {
	return cmplx.Abs(c) / p.fullScale
}

// BinFrequency returns the center frequency (Hz) of a bin.
func BinFrequency(bin, fftSize int, sampleRate float64) float64 {
	return float64(bin) * sampleRate / float64(fftSize)
}

// AmplitudeToDB converts a linear amplitude to decibels, flooring at Epsilon.
func AmplitudeToDB(amplitude float64) float64 {
	return 20 * math.Log10(math.Max(amplitude, Epsilon))
}

// NormalizeDB maps floorDB..0 dB onto 0..1, clamped.
func NormalizeDB(db, floorDB float64) float64 {
	v := (db - floorDB) / -floorDB
	return math.Max(0, math.Min(1, v))
}

func (w WindowFunc) String() string {
	switch w {
	case Hann:
		return "hann"
	case BartlettHann:
		return "bartletthann"
	case Blackman:
		return "blackman"
	case BlackmanNuttall:
		return "blackmannuttall"
	case Hamming:
		return "hamming"
	case Nuttall:
		return "nuttall"
	default:
		return fmt.Sprintf("WindowFunc(%d)", int(w))
	}
}

// ParseWindowFunc converts a string name (case-insensitive) to a WindowFunc
// enum, returns a known default (Hann) and an error if the name is unknown.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "hann", "hanning", "":
		return Hann, nil
	case "bartletthann":
		return BartlettHann, nil
	case "blackman":
		return Blackman, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	case "hamming":
		return Hamming, nil
	case "nuttall":
		return Nuttall, nil
	default:
		return Hann, fmt.Errorf("unknown FFT window function name: '%s'", name)
	}
}

// applyWindow fills coeffs with the selected window function.
func applyWindow(coeffs []float64, windowType WindowFunc) {
	// The gonum window funcs scale in place, so start from ones.
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	switch windowType {
	case BartlettHann:
		window.BartlettHann(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case BlackmanNuttall:
		window.BlackmanNuttall(coeffs)
	case Hamming:
		window.Hamming(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	default:
		window.Hann(coeffs)
	}
}
