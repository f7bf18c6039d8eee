// SPDX-License-Identifier: MIT
package analysis

import (
	"math"

	"samplex/internal/log"
)

// Tuner reports the note nearest to the detected fundamental of the mono
// stream. Pitch detection is delegated to a PitchEstimator.
type Tuner struct {
	estimator  PitchEstimator
	gate       *Gate
	sampleRate int
	hz         float64
	midi       int
	note       string
	cents      float64
}

// NewTuner wraps an estimator. Blocks with RMS below silenceFloor are not
// analyzed and clear the displayed note.
func NewTuner(estimator PitchEstimator, silenceFloor float64) *Tuner {
	log.Infof("Analysis: Tuner using %s pitch estimation", estimator.Name())
	return &Tuner{estimator: estimator, gate: NewGate(silenceFloor)}
}

func (t *Tuner) SetSampleRate(rate int) {
	t.sampleRate = rate
	t.estimator.Reset()
}

func (t *Tuner) Process(mono []float32) {
	if t.sampleRate <= 0 {
		return
	}
	if !t.gate.Open(mono) {
		t.clearNote()
		return
	}
	hz, ok := t.estimator.Estimate(mono, t.sampleRate)
	if !ok {
		return
	}
	t.hz = hz
	t.midi = FrequencyToMIDI(hz)
	t.note = NoteName(t.midi)
	t.cents = 1200 * math.Log2(hz/MIDIToFrequency(t.midi))
}

// Note returns the latest pitch class ("A", "C#", ...) or "" when none.
func (t *Tuner) Note() string { return t.note }

// Frequency returns the latest detected fundamental in Hz, 0 when none.
func (t *Tuner) Frequency() float64 { return t.hz }

// MIDI returns the latest MIDI note number, meaningful only when Note is set.
func (t *Tuner) MIDI() int { return t.midi }

// Cents returns how far the latest frequency is from the equal-tempered
// note, in -50..+50.
func (t *Tuner) Cents() float64 { return t.cents }

// Strategy names the active estimator.
func (t *Tuner) Strategy() string { return t.estimator.Name() }

func (t *Tuner) Reset() {
	t.estimator.Reset()
	t.clearNote()
}

func (t *Tuner) clearNote() {
	t.hz, t.midi, t.note, t.cents = 0, 0, "", 0
}
