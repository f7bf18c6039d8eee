// SPDX-License-Identifier: MIT

// Package app owns the current selection and everything derived from it:
// the generation counter, the waveform model, and the analyzers. It is driven
// from a single goroutine (the terminal UI or the headless runner) and talks
// to the audio engine and waveform loader only through their command and
// event channels.
package app

import (
	"errors"
	"path/filepath"

	"samplex/internal/audio"
	"samplex/internal/decode"
	"samplex/internal/log"
	"samplex/internal/visual"
	"samplex/internal/waveform"
)

// Player is the command side of the audio engine.
type Player interface {
	Play(path string) error
	Stop() error
	QueryPosition() error
	SetPosition(fraction float32) error
}

// WaveformLoader is the command side of the waveform loader.
type WaveformLoader interface {
	LoadFile(path string, generation uint64) error
	StopLoading() error
}

var (
	_ Player         = (*audio.Engine)(nil)
	_ WaveformLoader = (*waveform.Loader)(nil)
)

type App struct {
	player     Player
	loader     WaveformLoader
	analyzers  *Analyzers
	dispatcher *visual.Dispatcher
	waveform   *waveform.Model

	generation uint64
	selected   string // Empty when nothing playable is selected.
	playing    bool
	started    bool // A SampleRateChanged arrived for the current selection.
	failed     bool // The loader could not open the current selection.
	position   float32
	sampleRate int
}

func New(player Player, loader WaveformLoader, analyzers *Analyzers) *App {
	d := visual.NewDispatcher()
	analyzers.attach(d)
	return &App{
		player:     player,
		loader:     loader,
		analyzers:  analyzers,
		dispatcher: d,
		waveform:   waveform.NewModel(),
	}
}

// SelectFile reacts to a selection change. A supported path starts playback
// and a waveform load under a new generation; an empty or unsupported path
// stops both. Either way results of the previous generation are ignored from
// now on. The analyzers are cleared by the engine's reset block, not here.
func (a *App) SelectFile(path string) error {
	a.generation++
	a.waveform.Expect(a.generation)
	a.position, a.started, a.failed = 0, false, false

	if path == "" || !decode.IsSupported(path) {
		if path != "" {
			log.Debugf("App: %s is not a supported audio file", filepath.Base(path))
		}
		a.selected, a.playing = "", false
		return errors.Join(a.player.Stop(), a.loader.StopLoading())
	}

	a.selected, a.playing = path, true
	return errors.Join(
		a.player.Play(path),
		a.loader.LoadFile(path, a.generation),
	)
}

// HandleAudio folds an engine event into the analyzers. It reports whether
// the current selection reached its end.
func (a *App) HandleAudio(ev audio.Event) (ended bool) {
	switch e := ev.(type) {
	case audio.Position:
		a.position = e.Fraction
	case audio.SampleRateChanged:
		a.sampleRate = e.Rate
		a.dispatcher.SetSampleRate(e.Rate)
		if e.Rate > 0 {
			a.started = true
		}
	case audio.Block:
		a.dispatcher.Dispatch(e.Channels, e.Samples)
	case audio.EndOfStream:
		if e.Path != a.selected {
			return false
		}
		a.playing = false
		a.position = 1
		return true
	}
	return false
}

// HandleWaveform folds a loader event into the envelope. Events from older
// generations are dropped by the model. It reports whether the envelope
// changed.
func (a *App) HandleWaveform(ev waveform.Event) bool {
	if c, ok := ev.(waveform.Cleared); ok && c.Generation == a.generation && a.selected != "" {
		// Cleared before LoadingStarted means the file did not open. The
		// engine uses the same decoders, so it will not play it either.
		if !a.waveform.Loading() && !a.waveform.Finished() && len(a.waveform.Peaks()) == 0 {
			a.failed = true
			a.playing = false
		}
	}
	return a.waveform.Apply(ev)
}

// Failed reports whether the current selection could not be decoded.
func (a *App) Failed() bool { return a.failed && !a.started }

// Tick asks the engine for the playhead. Call it once per display frame.
func (a *App) Tick() error {
	if !a.playing {
		return nil
	}
	return a.player.QueryPosition()
}

// Seek moves the playhead of the current selection, restarting it if it
// had already ended.
func (a *App) Seek(fraction float32) error {
	if a.selected == "" {
		return nil
	}
	a.playing = true
	return a.player.SetPosition(max(0, min(1, fraction)))
}

// Stop halts playback but keeps the selection and its envelope.
func (a *App) Stop() error {
	a.playing = false
	return a.player.Stop()
}

func (a *App) Generation() uint64        { return a.generation }
func (a *App) Selected() string          { return a.selected }
func (a *App) Playing() bool             { return a.playing }
func (a *App) Position() float32         { return a.position }
func (a *App) Waveform() *waveform.Model { return a.waveform }
func (a *App) Analyzers() *Analyzers     { return a.analyzers }
