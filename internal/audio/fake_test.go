// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"samplex/internal/config"
	"samplex/internal/decode"
)

// memSource is an in-memory decode.Source.
type memSource struct {
	rate     int
	channels int
	data     []float32
	pos      int
	unknown  bool
	closed   bool
}

func newMemSource(rate, channels, frames int) *memSource {
	data := make([]float32, frames*channels)
	for i := range data {
		data[i] = float32(i%200)/200 - 0.5
	}
	return &memSource{rate: rate, channels: channels, data: data}
}

func (s *memSource) SampleRate() int { return s.rate }
func (s *memSource) Channels() int   { return s.channels }

func (s *memSource) Frames() int64 {
	if s.unknown {
		return -1
	}
	return int64(len(s.data) / s.channels)
}

func (s *memSource) ReadSamples(dst []float32) (int, error) {
	if s.pos >= len(s.data) {
		return 0, io.EOF
	}
	n := copy(dst, s.data[s.pos:])
	s.pos += n
	return n, nil
}

func (s *memSource) SeekFrame(frame int64) error {
	s.pos = min(int(frame)*s.channels, len(s.data))
	return nil
}

func (s *memSource) Close() error {
	s.closed = true
	return nil
}

// fakeDevice records every sink it opens.
type fakeDevice struct {
	mu    sync.Mutex
	sinks []*fakeSink
	delay time.Duration
	err   error
}

func (d *fakeDevice) Name() string { return "fake" }

func (d *fakeDevice) Open(sampleRate, channels int) (Sink, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	s := &fakeSink{rate: sampleRate, channels: channels, delay: d.delay}
	d.sinks = append(d.sinks, s)
	return s, nil
}

func (d *fakeDevice) opened() []*fakeSink {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*fakeSink(nil), d.sinks...)
}

type fakeSink struct {
	mu       sync.Mutex
	rate     int
	channels int
	delay    time.Duration
	written  int
	drained  bool
	closed   bool
}

func (s *fakeSink) Write(samples []float32) error {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("write after close")
	}
	s.written += len(samples)
	return nil
}

func (s *fakeSink) Drain() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drained = true
	return nil
}

func (s *fakeSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSink) state() (written int, drained, closed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written, s.drained, s.closed
}

// sources hands out registered memSources by path.
type sources struct {
	mu     sync.Mutex
	byPath map[string]func() *memSource
	opens  map[string]int
}

func newSources() *sources {
	return &sources{byPath: map[string]func() *memSource{}, opens: map[string]int{}}
}

func (s *sources) add(path string, mk func() *memSource) { s.byPath[path] = mk }

func (s *sources) open(path string) (decode.Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mk, ok := s.byPath[path]
	if !ok {
		return nil, decode.ErrUnsupportedFormat
	}
	s.opens[path]++
	return mk(), nil
}

func (s *sources) openCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opens[path]
}

const eventTimeout = 2 * time.Second

// collectUntil reads events until match returns true and returns all of
// them, the matching one last.
func collectUntil(t *testing.T, e *Engine, match func(Event) bool) []Event {
	t.Helper()
	var got []Event
	timeout := time.After(eventTimeout)
	for {
		select {
		case ev := <-e.Events():
			got = append(got, ev)
			if match(ev) {
				return got
			}
		case <-timeout:
			t.Fatalf("timed out waiting for event, got %d events: %v", len(got), summarize(got))
			return nil
		}
	}
}

func isEndOfStream(ev Event) bool {
	_, ok := ev.(EndOfStream)
	return ok
}

func isRate(rate int) func(Event) bool {
	return func(ev Event) bool {
		r, ok := ev.(SampleRateChanged)
		return ok && r.Rate == rate
	}
}

func isPosition(ev Event) bool {
	_, ok := ev.(Position)
	return ok
}

func summarize(events []Event) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		switch v := ev.(type) {
		case Block:
			if v.IsReset() {
				out = append(out, "Reset")
			} else {
				out = append(out, "Block")
			}
		case SampleRateChanged:
			out = append(out, "Rate")
		case Position:
			out = append(out, "Position")
		case EndOfStream:
			out = append(out, "EOS")
		}
	}
	return out
}

func configForTest() config.AudioConfig {
	return config.Default().Audio
}
