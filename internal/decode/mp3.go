// SPDX-License-Identifier: MIT
package decode

import (
	"errors"
	"fmt"
	"io"
	"os"

	gomp3 "github.com/hajimehoshi/go-mp3"
)

// go-mp3 always produces 16-bit little-endian stereo.
const (
	mp3Channels      = 2
	mp3BytesPerFrame = 4
)

type mp3Source struct {
	f   *os.File
	dec *gomp3.Decoder
	buf []byte
}

// OpenMP3 opens an MPEG-1/2 layer III file.
func OpenMP3(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	dec, err := gomp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	return &mp3Source{f: f, dec: dec, buf: make([]byte, 8192)}, nil
}

func (s *mp3Source) SampleRate() int { return s.dec.SampleRate() }
func (s *mp3Source) Channels() int   { return mp3Channels }

func (s *mp3Source) Frames() int64 {
	if n := s.dec.Length(); n > 0 {
		return n / mp3BytesPerFrame
	}
	return -1
}

func (s *mp3Source) ReadSamples(dst []float32) (int, error) {
	need := len(dst) * 2
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	s.buf = s.buf[:need]

	n, err := io.ReadFull(s.dec, s.buf)
	samples := n / 2
	for i := range samples {
		v := int16(uint16(s.buf[2*i]) | uint16(s.buf[2*i+1])<<8)
		dst[i] = float32(v) / 32768
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = io.EOF
	}
	if samples > 0 && err == io.EOF {
		return samples, nil
	}
	return samples, err
}

func (s *mp3Source) SeekFrame(frame int64) error {
	if frame < 0 {
		frame = 0
	}
	_, err := s.dec.Seek(frame*mp3BytesPerFrame, io.SeekStart)
	return err
}

func (s *mp3Source) Close() error { return s.f.Close() }
