// SPDX-License-Identifier: MIT
package decode

import (
	"fmt"
	"io"
	"os"

	"github.com/mewkiz/flac"
)

type flacSource struct {
	f       *os.File
	stream  *flac.Stream
	scale   float32
	pending []float32 // decoded but not yet returned, interleaved
}

// OpenFLAC opens a native FLAC file.
func OpenFLAC(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	stream, err := flac.NewSeek(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	return &flacSource{
		f:      f,
		stream: stream,
		scale:  float32(int64(1) << (stream.Info.BitsPerSample - 1)),
	}, nil
}

func (s *flacSource) SampleRate() int { return int(s.stream.Info.SampleRate) }
func (s *flacSource) Channels() int   { return int(s.stream.Info.NChannels) }

func (s *flacSource) Frames() int64 {
	if s.stream.Info.NSamples == 0 {
		return -1
	}
	return int64(s.stream.Info.NSamples)
}

func (s *flacSource) ReadSamples(dst []float32) (int, error) {
	written := 0
	for written < len(dst) {
		if len(s.pending) == 0 {
			if err := s.decodeFrame(); err != nil {
				if written > 0 && err == io.EOF {
					return written, nil
				}
				return written, err
			}
		}
		n := copy(dst[written:], s.pending)
		s.pending = s.pending[n:]
		written += n
	}
	return written, nil
}

func (s *flacSource) decodeFrame() error {
	frame, err := s.stream.ParseNext()
	if err != nil {
		return err
	}
	channels := len(frame.Subframes)
	if channels == 0 {
		return nil
	}
	blockSize := len(frame.Subframes[0].Samples)
	need := blockSize * channels
	if cap(s.pending) < need {
		s.pending = make([]float32, need)
	}
	s.pending = s.pending[:need]
	for ch, sub := range frame.Subframes {
		for i, v := range sub.Samples {
			s.pending[i*channels+ch] = float32(v) / s.scale
		}
	}
	return nil
}

func (s *flacSource) SeekFrame(frame int64) error {
	if frame < 0 {
		frame = 0
	}
	s.pending = s.pending[:0]
	actual, err := s.stream.Seek(uint64(frame))
	if err != nil {
		return fmt.Errorf("flac seek: %w", err)
	}
	// Seek lands on the frame boundary at or before the target.
	if skip := frame - int64(actual); skip > 0 {
		return discardFrames(s, skip)
	}
	return nil
}

func (s *flacSource) Close() error {
	s.stream.Close()
	return s.f.Close()
}
