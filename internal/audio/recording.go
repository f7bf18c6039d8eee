// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"samplex/internal/log"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const recordingBitDepth = 16

// RecordingDevice tees everything played into WAV files. With a nil inner
// device nothing is audible and playback runs as fast as decoding allows,
// which turns the engine into an offline bounce.
type RecordingDevice struct {
	inner Device
	path  string
	takes int
}

var _ Device = (*RecordingDevice)(nil)

// NewRecordingDevice records to path. When more than one session is opened
// the second and later takes get a numeric suffix (out-2.wav, ...).
func NewRecordingDevice(inner Device, path string) *RecordingDevice {
	return &RecordingDevice{inner: inner, path: path}
}

func (d *RecordingDevice) Name() string {
	if d.inner == nil {
		return "recorder"
	}
	return d.inner.Name() + " + recorder"
}

func (d *RecordingDevice) Open(sampleRate, channels int) (Sink, error) {
	d.takes++
	path := d.path
	if d.takes > 1 {
		ext := filepath.Ext(path)
		path = fmt.Sprintf("%s-%d%s", strings.TrimSuffix(path, ext), d.takes, ext)
	}

	rec, err := newRecordingSink(path, sampleRate, channels)
	if err != nil {
		return nil, err
	}
	if d.inner == nil {
		return rec, nil
	}
	out, err := d.inner.Open(sampleRate, channels)
	if err != nil {
		rec.Close()
		return nil, err
	}
	rec.next = out
	return rec, nil
}

type recordingSink struct {
	file      *os.File
	encoder   *wav.Encoder
	sampleBuf *audio.IntBuffer // Reusable buffer for format conversion.
	next      Sink
}

func newRecordingSink(path string, sampleRate, channels int) (*recordingSink, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create recording: %w", err)
	}
	log.Infof("Recorder: Writing %s (%d Hz, %d ch)", path, sampleRate, channels)
	return &recordingSink{
		file:    file,
		encoder: wav.NewEncoder(file, sampleRate, recordingBitDepth, channels, 1),
		sampleBuf: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: channels,
				SampleRate:  sampleRate,
			},
			SourceBitDepth: recordingBitDepth,
		},
	}, nil
}

func (s *recordingSink) Write(samples []float32) error {
	if cap(s.sampleBuf.Data) < len(samples) {
		s.sampleBuf.Data = make([]int, len(samples))
	}
	s.sampleBuf.Data = s.sampleBuf.Data[:len(samples)]
	for i, v := range samples {
		v = max(-1, min(1, v))
		s.sampleBuf.Data[i] = int(math.Round(float64(v) * math.MaxInt16))
	}
	if err := s.encoder.Write(s.sampleBuf); err != nil {
		return fmt.Errorf("write recording: %w", err)
	}
	if s.next != nil {
		return s.next.Write(samples)
	}
	return nil
}

func (s *recordingSink) Drain() error {
	if s.next != nil {
		return s.next.Drain()
	}
	return nil
}

// Close finalizes the WAV header. It is safe to call more than once.
func (s *recordingSink) Close() error {
	var errs []error
	if s.next != nil {
		errs = append(errs, s.next.Close())
		s.next = nil
	}
	if s.encoder != nil {
		errs = append(errs, s.encoder.Close())
		s.encoder = nil
	}
	if s.file != nil {
		errs = append(errs, s.file.Close())
		s.file = nil
	}
	return errors.Join(errs...)
}
