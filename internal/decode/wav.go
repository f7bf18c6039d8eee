// SPDX-License-Identifier: MIT
package decode

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

type wavSource struct {
	path       string
	f          *os.File
	dec        *wav.Decoder
	sampleRate int
	channels   int
	bitDepth   int
	frames     int64
	buf        *audio.IntBuffer
}

// OpenWAV opens an integer PCM RIFF/WAVE file.
func OpenWAV(path string) (Source, error) {
	s := &wavSource{path: path}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *wavSource) open() error {
	f, err := os.Open(s.path)
	if err != nil {
		return err
	}
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		f.Close()
		return fmt.Errorf("%w: not a valid wav file", ErrUnsupportedFormat)
	}
	if err := dec.FwdToPCM(); err != nil {
		f.Close()
		return fmt.Errorf("wav: locate pcm data: %w", err)
	}
	if dec.WavAudioFormat != wavFormatPCM && dec.WavAudioFormat != wavFormatExtensible {
		f.Close()
		return fmt.Errorf("%w: wav encoding %d", ErrUnsupportedFormat, dec.WavAudioFormat)
	}

	format := dec.Format()
	bitDepth := int(dec.BitDepth)
	if format == nil || format.NumChannels <= 0 || bitDepth == 0 {
		f.Close()
		return fmt.Errorf("%w: wav header incomplete", ErrUnsupportedFormat)
	}

	s.f = f
	s.dec = dec
	s.sampleRate = format.SampleRate
	s.channels = format.NumChannels
	s.bitDepth = bitDepth
	s.frames = -1
	if bytesPerFrame := int64(bitDepth/8) * int64(s.channels); bytesPerFrame > 0 && dec.PCMSize > 0 {
		s.frames = int64(dec.PCMSize) / bytesPerFrame
	}
	return nil
}

func (s *wavSource) SampleRate() int { return s.sampleRate }
func (s *wavSource) Channels() int   { return s.channels }
func (s *wavSource) Frames() int64   { return s.frames }

func (s *wavSource) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if s.buf == nil || cap(s.buf.Data) < len(dst) {
		s.buf = &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: s.channels, SampleRate: s.sampleRate},
			Data:           make([]int, len(dst)),
			SourceBitDepth: s.bitDepth,
		}
	}
	s.buf.Data = s.buf.Data[:len(dst)]

	n, err := s.dec.PCMBuffer(s.buf)
	if n == 0 {
		if err == nil || err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		return 0, err
	}

	if s.bitDepth == 8 {
		// 8-bit WAV is unsigned with the midpoint at 128.
		for i, v := range s.buf.Data[:n] {
			dst[i] = float32(v-128) / 128
		}
		return n, nil
	}
	scale := float32(int64(1) << (s.bitDepth - 1))
	for i, v := range s.buf.Data[:n] {
		dst[i] = float32(v) / scale
	}
	return n, nil
}

// SeekFrame reopens the file and decodes forward; the riff chunk reader
// does not support repositioning.
func (s *wavSource) SeekFrame(frame int64) error {
	if frame < 0 {
		frame = 0
	}
	if err := s.Close(); err != nil {
		return err
	}
	if err := s.open(); err != nil {
		return err
	}
	return discardFrames(s, frame)
}

func (s *wavSource) Close() error {
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}
