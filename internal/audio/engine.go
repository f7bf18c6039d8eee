// SPDX-License-Identifier: MIT
/*
Package audio implements the playback engine:
- A single goroutine owns the output sink and the decoder of the current track
- Commands arrive on a small bounded queue and are polled between blocks
- Every decoded sample is tapped into UI-frame sized blocks before output
- Events leave on a bounded queue with non-blocking sends; the loop never
  waits on its consumer

State machine:

	Ready --Play--> Playing --Stop/EOF--> Ready
	Playing --Play--> Playing (previous session torn down, not mixed)
*/
package audio

import (
	"errors"
	"io"
	"path/filepath"
	"sync"

	"samplex/internal/config"
	"samplex/internal/decode"
	"samplex/internal/log"
)

var (
	// ErrQueueFull is returned when a command cannot be queued. Queues are
	// drained continuously, so this indicates a stalled loop.
	ErrQueueFull = errors.New("audio: command queue full")
	// ErrClosed is returned for commands sent after Close.
	ErrClosed = errors.New("audio: engine closed")
)

// eventHeadroom is the number of event slots kept free for control events;
// visualization blocks are dropped rather than eat into it.
const eventHeadroom = 4

type cmdKind int

const (
	cmdPlay cmdKind = iota
	cmdStop
	cmdQueryPosition
	cmdSetPosition
	cmdClose
)

func (k cmdKind) String() string {
	switch k {
	case cmdPlay:
		return "Play"
	case cmdStop:
		return "Stop"
	case cmdQueryPosition:
		return "QueryPosition"
	case cmdSetPosition:
		return "SetPosition"
	case cmdClose:
		return "Close"
	default:
		return "Unknown"
	}
}

type command struct {
	kind     cmdKind
	path     string
	fraction float32
}

// Opener opens a decodable source for a path.
type Opener func(path string) (decode.Source, error)

// Options sizes the engine queues and blocks.
type Options struct {
	FramesPerBuffer int // Frames decoded per loop step.
	CommandQueue    int
	EventQueue      int
	UIFrameRate     int    // Tap blocks per second of audio.
	Opener          Opener // Defaults to decode.Open.
}

// OptionsFromConfig maps the audio section of the configuration.
func OptionsFromConfig(cfg config.AudioConfig) Options {
	return Options{
		FramesPerBuffer: cfg.FramesPerBuffer,
		CommandQueue:    cfg.CommandQueue,
		EventQueue:      cfg.EventQueue,
		UIFrameRate:     cfg.UIFrameRate,
	}
}

type session struct {
	path     string
	src      decode.Source
	sink     Sink
	rate     int
	channels int
	frames   int64 // -1 when unknown
	cursor   int64 // Frames handed to the sink.
	finished bool  // Played to the end; path and format are kept for seeking.
}

// Engine plays one file at a time on its own goroutine.
type Engine struct {
	device Device
	opts   Options

	commands chan command
	events   chan Event
	done     chan struct{}

	startOnce sync.Once
	closeOnce sync.Once

	// Owned by the loop goroutine.
	session       *session
	readBuf       []float32
	tap           *tap
	droppedBlocks uint64
}

// NewEngine creates an engine that plays through device. A nil device
// leaves the engine permanently silent: commands are accepted and ignored.
func NewEngine(device Device, opts Options) *Engine {
	if opts.FramesPerBuffer <= 0 {
		opts.FramesPerBuffer = 512
	}
	if opts.CommandQueue <= 0 {
		opts.CommandQueue = 8
	}
	if opts.EventQueue < 2*eventHeadroom {
		opts.EventQueue = 2 * eventHeadroom
	}
	if opts.UIFrameRate <= 0 {
		opts.UIFrameRate = 60
	}
	if opts.Opener == nil {
		opts.Opener = decode.Open
	}

	e := &Engine{
		device:   device,
		opts:     opts,
		commands: make(chan command, opts.CommandQueue),
		events:   make(chan Event, opts.EventQueue),
		done:     make(chan struct{}),
	}
	e.tap = newTap(e.emitBlock)

	if device == nil {
		log.Errorf("AudioEngine: No output device, playback disabled for this run")
	}
	return e
}

// InitializeOutput brings up PortAudio and opens the default output device.
// On failure it logs and returns a nil Device; the returned cleanup func is
// always safe to call.
func InitializeOutput(cfg config.AudioConfig) (Device, func()) {
	if err := Initialize(); err != nil {
		log.Errorf("AudioEngine: %v", err)
		return nil, func() {}
	}
	cleanup := func() {
		if err := Terminate(); err != nil {
			log.Warnf("AudioEngine: %v", err)
		}
	}
	device, err := NewDefaultDevice(cfg.FramesPerBuffer, cfg.LowLatency)
	if err != nil {
		log.Errorf("AudioEngine: %v", err)
		return nil, cleanup
	}
	return device, cleanup
}

// Start launches the engine loop. Calling it more than once has no effect.
func (e *Engine) Start() {
	e.startOnce.Do(func() {
		go e.run()
	})
}

// Events returns the event stream. It is never closed while the engine runs.
func (e *Engine) Events() <-chan Event { return e.events }

// Play replaces whatever is playing with path.
func (e *Engine) Play(path string) error {
	return e.send(command{kind: cmdPlay, path: path})
}

// Stop halts output and emits the reset signal.
func (e *Engine) Stop() error { return e.send(command{kind: cmdStop}) }

// QueryPosition asks for a Position event.
func (e *Engine) QueryPosition() error { return e.send(command{kind: cmdQueryPosition}) }

// SetPosition seeks to fraction (0..1) of the current track.
func (e *Engine) SetPosition(fraction float32) error {
	return e.send(command{kind: cmdSetPosition, fraction: fraction})
}

// Close stops playback and waits for the loop to exit.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		e.Start()
		e.commands <- command{kind: cmdClose}
	})
	<-e.done
	return nil
}

func (e *Engine) send(cmd command) error {
	select {
	case <-e.done:
		return ErrClosed
	default:
	}
	select {
	case e.commands <- cmd:
		return nil
	default:
		log.Errorf("AudioEngine: Command queue full, dropping %s", cmd.kind)
		return ErrQueueFull
	}
}

// --- Loop ---

func (e *Engine) run() {
	defer close(e.done)
	log.Debugf("AudioEngine: Loop started (%d frames per step, %d blocks/s)", e.opts.FramesPerBuffer, e.opts.UIFrameRate)

	for {
		var cmd command
		if e.playing() {
			select {
			case cmd = <-e.commands:
			default:
				e.step()
				continue
			}
		} else {
			cmd = <-e.commands
		}
		if !e.handle(cmd) {
			return
		}
	}
}

func (e *Engine) playing() bool {
	return e.session != nil && !e.session.finished
}

func (e *Engine) handle(cmd command) bool {
	switch cmd.kind {
	case cmdClose:
		e.teardown()
		if e.droppedBlocks > 0 {
			log.Debugf("AudioEngine: %d visualization blocks dropped", e.droppedBlocks)
		}
		log.Debugf("AudioEngine: Loop stopped")
		return false
	case cmdStop:
		e.stop()
	case cmdQueryPosition:
		e.emit(Position{Fraction: e.position()})
	case cmdPlay:
		if e.device == nil {
			log.Debugf("AudioEngine: Ignoring Play, no output device")
			return true
		}
		e.play(cmd.path)
	case cmdSetPosition:
		if e.device == nil {
			return true
		}
		e.seek(cmd.fraction)
	}
	return true
}

// step decodes one buffer, taps it, and blocks on the sink.
func (e *Engine) step() {
	s := e.session
	n, err := s.src.ReadSamples(e.readBuf)
	if n > 0 {
		samples := e.readBuf[:n]
		e.tap.write(samples)
		if werr := s.sink.Write(samples); werr != nil {
			log.Errorf("AudioEngine: Output failed for %s: %v", filepath.Base(s.path), werr)
			e.finish()
			return
		}
		s.cursor += int64(n / s.channels)
	}

	switch {
	case err == io.EOF:
		e.finish()
	case err != nil:
		log.Warnf("AudioEngine: Decode error in %s, ending playback: %v", filepath.Base(s.path), err)
		e.finish()
	}
}

func (e *Engine) play(path string) {
	// A file that cannot be played still replaces the current one.
	src, err := e.opts.Opener(path)
	if err != nil {
		log.Warnf("AudioEngine: Cannot play %s: %v", filepath.Base(path), err)
		e.stop()
		return
	}
	rate, channels := src.SampleRate(), src.Channels()
	if rate <= 0 || channels <= 0 {
		src.Close()
		log.Warnf("AudioEngine: Cannot play %s: invalid format %d Hz x %d", filepath.Base(path), rate, channels)
		e.stop()
		return
	}

	// The previous session is discarded, never reused. Its consumers are
	// reset here; a finished session already sent its reset.
	if e.playing() {
		e.teardown()
		e.emitReset()
	} else {
		e.teardown()
	}

	sink, err := e.device.Open(rate, channels)
	if err != nil {
		src.Close()
		log.Errorf("AudioEngine: %v", err)
		return
	}

	e.session = &session{
		path:     path,
		src:      src,
		sink:     sink,
		rate:     rate,
		channels: channels,
		frames:   src.Frames(),
	}
	if need := e.opts.FramesPerBuffer * channels; cap(e.readBuf) < need {
		e.readBuf = make([]float32, need)
	} else {
		e.readBuf = e.readBuf[:need]
	}
	e.tap.configure(rate, channels, e.opts.UIFrameRate)
	e.emit(SampleRateChanged{Rate: rate})

	if d, ok := decode.Duration(src); ok {
		log.Infof("AudioEngine: Playing %s (%d Hz, %d ch, %s)", filepath.Base(path), rate, channels, d)
	} else {
		log.Infof("AudioEngine: Playing %s (%d Hz, %d ch, unknown length)", filepath.Base(path), rate, channels)
	}
}

func (e *Engine) stop() {
	if e.session == nil {
		return
	}
	// A finished session already sent its reset.
	active := !e.session.finished
	e.teardown()
	if active {
		e.emitReset()
	}
	log.Debugf("AudioEngine: Stopped")
}

// finish ends a session that ran out of audio: flush the tap, reset the
// consumers, and keep the path so a seek can restart it.
func (e *Engine) finish() {
	s := e.session
	if err := s.sink.Drain(); err != nil {
		log.Debugf("AudioEngine: Drain failed: %v", err)
	}
	e.closeSession(s)
	s.finished = true

	e.tap.flush()
	e.emit(Block{Channels: s.channels})
	e.emit(EndOfStream{Path: s.path})
	log.Debugf("AudioEngine: End of stream %s", filepath.Base(s.path))
}

func (e *Engine) seek(fraction float32) {
	s := e.session
	if s == nil {
		return
	}
	if s.frames <= 0 {
		log.Debugf("AudioEngine: Seek ignored, %s has unknown length", filepath.Base(s.path))
		return
	}
	fraction = max(0, min(1, fraction))
	target := int64(float64(fraction) * float64(s.frames))

	if s.finished {
		src, err := e.opts.Opener(s.path)
		if err != nil {
			log.Warnf("AudioEngine: Cannot reopen %s: %v", filepath.Base(s.path), err)
			return
		}
		sink, err := e.device.Open(s.rate, s.channels)
		if err != nil {
			src.Close()
			log.Errorf("AudioEngine: %v", err)
			return
		}
		s.src, s.sink, s.finished = src, sink, false
		s.cursor = 0
	}

	if err := s.src.SeekFrame(target); err != nil {
		log.Warnf("AudioEngine: Seek in %s failed: %v", filepath.Base(s.path), err)
	} else {
		s.cursor = target
	}
	e.tap.reset()
	e.emit(SampleRateChanged{Rate: s.rate})
}

func (e *Engine) position() float32 {
	s := e.session
	if s == nil || s.frames <= 0 {
		return 0
	}
	return float32(min(1, float64(s.cursor)/float64(s.frames)))
}

func (e *Engine) teardown() {
	if e.session == nil {
		return
	}
	e.closeSession(e.session)
	e.session = nil
	e.tap.reset()
}

func (e *Engine) closeSession(s *session) {
	if s.sink != nil {
		if err := s.sink.Close(); err != nil {
			log.Debugf("AudioEngine: Closing sink: %v", err)
		}
		s.sink = nil
	}
	if s.src != nil {
		s.src.Close()
		s.src = nil
	}
}

// --- Events ---

func (e *Engine) emitReset() {
	e.emit(SampleRateChanged{Rate: 0})
	e.emit(Block{})
}

// emit delivers a control event without blocking.
func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
	default:
		log.Warnf("AudioEngine: Event queue full, dropped %T", ev)
	}
}

// emitBlock delivers a visualization block unless the queue is close to full.
func (e *Engine) emitBlock(b Block) {
	if len(e.events) >= cap(e.events)-eventHeadroom {
		e.droppedBlocks++
		return
	}
	e.emit(b)
}
