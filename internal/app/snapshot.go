// SPDX-License-Identifier: MIT
package app

import (
	"path/filepath"
	"slices"

	"samplex/internal/visual"
)

// Snapshot is an immutable copy of everything a display needs for one
// frame. It is safe to hand to another goroutine.
type Snapshot struct {
	Generation  uint64         `json:"generation"`
	File        string         `json:"file,omitempty"`
	Playing     bool           `json:"playing"`
	Position    float32        `json:"position"`
	SampleRate  int            `json:"sample_rate"`
	Levels      []float32      `json:"levels"`
	Points      []visual.Point `json:"points,omitempty"`
	Correlation float32        `json:"correlation"`
	Spectrum    []float32      `json:"spectrum"`
	SpectrumHz  [2]float64     `json:"spectrum_hz"` // Center frequencies of the first and last bins.
	Scope       []float32      `json:"scope,omitempty"`
	Tuner       TunerReading   `json:"tuner"`
	Waveform    WaveformView   `json:"waveform"`
}

type TunerReading struct {
	Strategy  string  `json:"strategy"`
	Note      string  `json:"note"`
	MIDI      int     `json:"midi,omitempty"`
	Frequency float64 `json:"frequency,omitempty"`
	Cents     float64 `json:"cents,omitempty"`
}

type WaveformView struct {
	Columns  []float32 `json:"columns"`
	Progress float32   `json:"progress"`
	Loading  bool      `json:"loading"`
}

// SnapshotOptions trims the snapshot for its consumer. Zero values leave the
// waveform columns and vectorscope points out.
type SnapshotOptions struct {
	WaveformColumns int
	Points          bool
	Scope           bool
}

// Snapshot copies the current state.
func (a *App) Snapshot(opts SnapshotOptions) Snapshot {
	an := a.analyzers
	s := Snapshot{
		Generation:  a.generation,
		Playing:     a.playing,
		Position:    a.position,
		SampleRate:  a.sampleRate,
		Levels:      slices.Clone(an.VU.Levels()),
		Correlation: an.Correlation.Value(),
		Spectrum:    slices.Clone(an.Spectrum.Bins()),
		Tuner: TunerReading{
			Strategy:  an.Tuner.Strategy(),
			Note:      an.Tuner.Note(),
			Frequency: an.Tuner.Frequency(),
		},
		Waveform: WaveformView{
			Progress: a.waveform.Progress(),
			Loading:  a.waveform.Loading(),
		},
	}
	if a.selected != "" {
		s.File = filepath.Base(a.selected)
	}
	if s.Tuner.Note != "" {
		s.Tuner.MIDI = an.Tuner.MIDI()
		s.Tuner.Cents = an.Tuner.Cents()
	}
	if n := len(s.Spectrum); n > 0 {
		s.SpectrumHz = [2]float64{an.Spectrum.BinFrequency(0), an.Spectrum.BinFrequency(n - 1)}
	}
	if opts.WaveformColumns > 0 {
		s.Waveform.Columns = a.waveform.Columns(opts.WaveformColumns)
	}
	if opts.Points {
		s.Points = slices.Clone(an.Vectorscope.Points())
	}
	if opts.Scope {
		s.Scope = slices.Clone(an.Scope.Samples())
	}
	return s
}

// SpectrumBins lets binary transports publish the spectrum alone.
func (s Snapshot) SpectrumBins() []float32 { return s.Spectrum }
