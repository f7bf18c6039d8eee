// SPDX-License-Identifier: MIT

// Package decode turns audio files into streams of interleaved float32
// samples in [-1, 1]. Each supported container registers an Opener keyed by
// file extension; callers go through Open and never see the codec library.
package decode

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	// ErrUnsupportedFormat is returned when no decoder is registered for a
	// file or the file's encoding is one the decoder cannot read.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrSeekUnsupported is returned by sources that cannot reposition.
	ErrSeekUnsupported = errors.New("seek not supported")
)

// Source is an open, decodable audio stream.
type Source interface {
	// SampleRate of the PCM stream in Hz.
	SampleRate() int
	// Channels count (1=mono, 2=stereo, ...).
	Channels() int
	// Frames is the total length in frames, or -1 when the container does
	// not declare it.
	Frames() int64
	// ReadSamples fills dst with interleaved samples and returns the number
	// of float32 values written. n == 0 with io.EOF means the stream is done.
	ReadSamples(dst []float32) (n int, err error)
	// SeekFrame positions the stream so the next read starts at frame.
	SeekFrame(frame int64) error
	// Close releases any resources.
	Close() error
}

// Opener constructs a Source for the file at path.
type Opener func(path string) (Source, error)

// Registry maps lower-case file extensions (".wav") to openers.
type Registry struct {
	mu      sync.RWMutex
	openers map[string]Opener
}

func NewRegistry() *Registry {
	return &Registry{openers: make(map[string]Opener)}
}

// Register binds one or more extensions to an opener.
func (r *Registry) Register(o Opener, exts ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range exts {
		r.openers[normalizeExt(ext)] = o
	}
}

// Lookup returns the opener registered for path's extension.
func (r *Registry) Lookup(path string) (Opener, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.openers[normalizeExt(filepath.Ext(path))]
	return o, ok
}

// Extensions lists the registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.openers))
	for ext := range r.openers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Open decodes the header of path with the registered opener.
func (r *Registry) Open(path string) (Source, error) {
	open, ok := r.Lookup(path)
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedFormat,
			filepath.Ext(path), strings.Join(r.Extensions(), " "))
	}
	src, err := open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	return src, nil
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && ext[0] != '.' {
		ext = "." + ext
	}
	return ext
}

// Default holds the built-in decoders. MIDI is deliberately absent: it has
// an audio MIME type but carries no samples.
var Default = func() *Registry {
	r := NewRegistry()
	r.Register(OpenWAV, ".wav", ".wave")
	r.Register(OpenFLAC, ".flac")
	r.Register(OpenVorbis, ".ogg", ".oga")
	r.Register(OpenMP3, ".mp3")
	return r
}()

// Open decodes path with the Default registry.
func Open(path string) (Source, error) {
	return Default.Open(path)
}

// IsSupported reports whether path names a file the Default registry can play.
func IsSupported(path string) bool {
	_, ok := Default.Lookup(path)
	return ok
}

// Duration returns the playing time of src, or false when its length is unknown.
func Duration(src Source) (time.Duration, bool) {
	frames := src.Frames()
	if frames < 0 || src.SampleRate() <= 0 {
		return 0, false
	}
	return time.Duration(frames) * time.Second / time.Duration(src.SampleRate()), true
}

// discardFrames reads and drops frames from src; used by decoders that can
// only seek forward by decoding.
func discardFrames(src Source, frames int64) error {
	ch := int64(src.Channels())
	scratch := make([]float32, 4096*ch)
	for remaining := frames * ch; remaining > 0; {
		want := int64(len(scratch))
		if remaining < want {
			want = remaining
		}
		n, err := src.ReadSamples(scratch[:want])
		remaining -= int64(n)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
	return nil
}
