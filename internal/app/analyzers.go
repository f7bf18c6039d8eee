// SPDX-License-Identifier: MIT
package app

import (
	"fmt"

	"samplex/internal/analysis"
	"samplex/internal/config"
	"samplex/internal/visual"
)

// Analyzers is the full set of displays fed by the dispatcher.
type Analyzers struct {
	VU          *analysis.VUMeter
	Vectorscope *analysis.Vectorscope
	Correlation *analysis.Correlation
	Spectrum    *analysis.Spectrum
	Tuner       *analysis.Tuner
	Scope       *analysis.Scope
}

// NewAnalyzers builds every analyzer from the analysis configuration.
func NewAnalyzers(cfg config.AnalysisConfig) (*Analyzers, error) {
	window, err := analysis.ParseWindowFunc(cfg.Window)
	if err != nil {
		return nil, err
	}
	spectrum, err := analysis.NewSpectrum(analysis.SpectrumConfig{
		FFTSize: cfg.SpectrumFFTSize,
		Window:  window,
		MinHz:   cfg.SpectrumMinHz,
		MaxHz:   cfg.SpectrumMaxHz,
		FloorDB: cfg.DBFloor,
	})
	if err != nil {
		return nil, err
	}
	estimator, err := analysis.NewPitchEstimator(cfg.TunerStrategy, analysis.PitchConfig{
		MinHz:        cfg.TunerMinHz,
		MaxHz:        cfg.TunerMaxHz,
		FFTSize:      cfg.TunerFFTSize,
		Harmonics:    cfg.HPSHarmonics,
		YINSize:      cfg.YINBufferSize,
		YINThreshold: cfg.YINThreshold,
	})
	if err != nil {
		return nil, fmt.Errorf("tuner: %w", err)
	}
	return &Analyzers{
		VU:          analysis.NewVUMeter(cfg.DBFloor),
		Vectorscope: analysis.NewVectorscope(),
		Correlation: analysis.NewCorrelation(),
		Spectrum:    spectrum,
		Tuner:       analysis.NewTuner(estimator, cfg.SilenceFloor),
		Scope:       analysis.NewScope(),
	}, nil
}

// attach registers every analyzer with d.
func (a *Analyzers) attach(d *visual.Dispatcher) {
	d.AddLevelSink(a.VU)
	d.AddPointSink(a.Vectorscope)
	d.AddPointSink(a.Correlation)
	d.AddBlockSink(a.Spectrum)
	d.AddBlockSink(a.Tuner)
	d.AddBlockSink(a.Scope)
}
