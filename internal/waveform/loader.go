// SPDX-License-Identifier: MIT

// Package waveform builds a peak envelope of a whole file in the background.
// Every event carries the generation of the load that produced it; the Model
// drops anything that does not match the generation it is waiting for.
package waveform

import (
	"errors"
	"io"
	"math"
	"path/filepath"
	"sync"

	"samplex/internal/config"
	"samplex/internal/decode"
	"samplex/internal/log"
)

var (
	// ErrQueueFull is returned when a command cannot be queued.
	ErrQueueFull = errors.New("waveform: command queue full")
	// ErrClosed is returned for commands sent after Close.
	ErrClosed = errors.New("waveform: loader closed")
)

// Event is emitted by the loader goroutine.
type Event interface {
	waveformEvent()
	Gen() uint64
}

// LoadingStarted opens a load. Estimate is the expected number of peaks
// when Known is set.
type LoadingStarted struct {
	Generation uint64
	Estimate   int
	Known      bool
}

// SamplesReady carries the next chunk of peaks, each the largest absolute
// mono amplitude over SamplesPerPeak frames.
type SamplesReady struct {
	Generation uint64
	Peaks      []float32
}

// LoadingFinished closes a load that decoded to the end.
type LoadingFinished struct {
	Generation uint64
}

// Cleared tells the consumer to drop the envelope of Generation: the load
// was stopped or the file could not be decoded.
type Cleared struct {
	Generation uint64
}

func (LoadingStarted) waveformEvent()  {}
func (SamplesReady) waveformEvent()    {}
func (LoadingFinished) waveformEvent() {}
func (Cleared) waveformEvent()         {}

func (e LoadingStarted) Gen() uint64  { return e.Generation }
func (e SamplesReady) Gen() uint64    { return e.Generation }
func (e LoadingFinished) Gen() uint64 { return e.Generation }
func (e Cleared) Gen() uint64         { return e.Generation }

type cmdKind int

const (
	cmdLoad cmdKind = iota
	cmdStop
	cmdClose
)

type command struct {
	kind       cmdKind
	path       string
	generation uint64
}

// Options tunes the loader.
type Options struct {
	SamplesPerPeak int
	ChunkPeaks     int
	CommandQueue   int
	EventQueue     int
	Opener         func(path string) (decode.Source, error) // Defaults to decode.Open.
}

// OptionsFromConfig maps the waveform section of the configuration.
func OptionsFromConfig(cfg config.WaveformConfig) Options {
	return Options{
		SamplesPerPeak: cfg.SamplesPerPeak,
		ChunkPeaks:     cfg.ChunkPeaks,
		CommandQueue:   cfg.CommandQueue,
		EventQueue:     cfg.EventQueue,
	}
}

// Loader decodes whole files on its own goroutine, one at a time.
type Loader struct {
	opts     Options
	commands chan command
	events   chan Event
	done     chan struct{}

	startOnce sync.Once
	closeOnce sync.Once

	// Owned by the loop goroutine.
	readBuf []float32
}

func NewLoader(opts Options) *Loader {
	if opts.SamplesPerPeak <= 0 {
		opts.SamplesPerPeak = 256
	}
	if opts.ChunkPeaks <= 0 {
		opts.ChunkPeaks = 2048
	}
	if opts.CommandQueue <= 0 {
		opts.CommandQueue = 8
	}
	if opts.EventQueue <= 0 {
		opts.EventQueue = 16
	}
	if opts.Opener == nil {
		opts.Opener = decode.Open
	}
	return &Loader{
		opts:     opts,
		commands: make(chan command, opts.CommandQueue),
		events:   make(chan Event, opts.EventQueue),
		done:     make(chan struct{}),
	}
}

// Start launches the loader goroutine. Calling it more than once has no effect.
func (l *Loader) Start() {
	l.startOnce.Do(func() {
		go l.run()
	})
}

func (l *Loader) Events() <-chan Event { return l.events }

// LoadFile supersedes any load in progress with path under generation.
func (l *Loader) LoadFile(path string, generation uint64) error {
	return l.send(command{kind: cmdLoad, path: path, generation: generation})
}

// StopLoading cancels the load in progress and emits Cleared.
func (l *Loader) StopLoading() error {
	return l.send(command{kind: cmdStop})
}

// Close cancels any load and waits for the goroutine to exit.
func (l *Loader) Close() error {
	l.closeOnce.Do(func() {
		l.Start()
		l.commands <- command{kind: cmdClose}
	})
	<-l.done
	return nil
}

func (l *Loader) send(cmd command) error {
	select {
	case <-l.done:
		return ErrClosed
	default:
	}
	select {
	case l.commands <- cmd:
		return nil
	default:
		log.Errorf("WaveformLoader: Command queue full")
		return ErrQueueFull
	}
}

func (l *Loader) run() {
	defer close(l.done)

	var (
		pending *command
		current uint64 // Generation of the last load started.
	)
	for {
		var cmd command
		if pending != nil {
			cmd, pending = *pending, nil
		} else {
			cmd = <-l.commands
		}

		switch cmd.kind {
		case cmdClose:
			return
		case cmdStop:
			if next := l.emit(Cleared{Generation: current}); next != nil {
				pending = next
			}
		case cmdLoad:
			current = cmd.generation
			pending = l.load(cmd.path, cmd.generation)
		}
	}
}

// load decodes path to the end. It returns the command that interrupted it,
// or nil when the file was fully processed or failed.
func (l *Loader) load(path string, gen uint64) *command {
	name := filepath.Base(path)
	src, err := l.opts.Opener(path)
	if err != nil {
		log.Debugf("WaveformLoader: Cannot decode %s: %v", name, err)
		return l.emit(Cleared{Generation: gen})
	}
	defer src.Close()

	channels := src.Channels()
	spp := l.opts.SamplesPerPeak
	started := LoadingStarted{Generation: gen}
	if frames := src.Frames(); frames >= 0 {
		started.Estimate = int((frames + int64(spp) - 1) / int64(spp))
		started.Known = true
	}
	if next := l.emit(started); next != nil {
		return next
	}
	log.Debugf("WaveformLoader: Loading %s (generation %d)", name, gen)

	if need := 4096 * channels; cap(l.readBuf) < need {
		l.readBuf = make([]float32, need)
	}
	buf := l.readBuf[:4096*channels]

	chunk := make([]float32, 0, l.opts.ChunkPeaks)
	var (
		peak   float32
		frames int
	)
	for {
		// Cancellation is checked between reads.
		select {
		case cmd := <-l.commands:
			log.Debugf("WaveformLoader: Load of %s interrupted", name)
			return &cmd
		default:
		}

		n, err := src.ReadSamples(buf)
		for f := 0; f+channels <= n; f += channels {
			var sum float32
			for _, s := range buf[f : f+channels] {
				sum += s
			}
			peak = max(peak, float32(math.Abs(float64(sum/float32(channels)))))
			frames++
			if frames == spp {
				chunk = append(chunk, peak)
				peak, frames = 0, 0
				if len(chunk) == cap(chunk) {
					if next := l.emit(SamplesReady{Generation: gen, Peaks: chunk}); next != nil {
						return next
					}
					chunk = make([]float32, 0, l.opts.ChunkPeaks)
				}
			}
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			log.Warnf("WaveformLoader: Decode error in %s: %v", name, err)
			return l.emit(Cleared{Generation: gen})
		}
	}

	if frames > 0 {
		chunk = append(chunk, peak)
	}
	if len(chunk) > 0 {
		if next := l.emit(SamplesReady{Generation: gen, Peaks: chunk}); next != nil {
			return next
		}
	}
	log.Debugf("WaveformLoader: Finished %s", name)
	return l.emit(LoadingFinished{Generation: gen})
}

// emit waits for room in the event queue but gives up as soon as a new
// command arrives, returning it.
func (l *Loader) emit(ev Event) *command {
	select {
	case l.events <- ev:
		return nil
	case cmd := <-l.commands:
		return &cmd
	}
}
