// SPDX-License-Identifier: MIT
package decode

import (
	"fmt"
	"io"
	"os"

	"github.com/jfreymuth/oggvorbis"
)

type vorbisSource struct {
	f   *os.File
	dec *oggvorbis.Reader
}

// OpenVorbis opens an Ogg Vorbis file.
func OpenVorbis(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	dec, err := oggvorbis.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	return &vorbisSource{f: f, dec: dec}, nil
}

func (s *vorbisSource) SampleRate() int { return s.dec.SampleRate() }
func (s *vorbisSource) Channels() int   { return s.dec.Channels() }

func (s *vorbisSource) Frames() int64 {
	if n := s.dec.Length(); n > 0 {
		return n
	}
	return -1
}

func (s *vorbisSource) ReadSamples(dst []float32) (int, error) {
	// Keep reads frame aligned so channels never drift.
	aligned := len(dst) - len(dst)%s.Channels()
	if aligned == 0 {
		return 0, nil
	}
	n, err := s.dec.Read(dst[:aligned])
	if n > 0 && err == io.EOF {
		return n, nil
	}
	return n, err
}

func (s *vorbisSource) SeekFrame(frame int64) error {
	if frame < 0 {
		frame = 0
	}
	return s.dec.SetPosition(frame)
}

func (s *vorbisSource) Close() error { return s.f.Close() }
