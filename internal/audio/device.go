// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"time"

	"samplex/internal/log"

	"github.com/gordonklaus/portaudio"
)

// Device opens output sinks. A new sink is opened for every playback
// session and closed when the session ends.
type Device interface {
	Open(sampleRate, channels int) (Sink, error)
	Name() string
}

// Sink accepts interleaved float32 samples. Write blocks until the device
// has room, which is what paces the engine loop in real time.
type Sink interface {
	Write(samples []float32) error
	// Drain plays out everything written so far and waits for it.
	Drain() error
	// Close stops output immediately, discarding queued audio.
	Close() error
}

// PortAudioDevice plays through a PortAudio output device in blocking-write
// mode. PortAudio must stay initialized for the lifetime of the device.
type PortAudioDevice struct {
	info            *portaudio.DeviceInfo
	framesPerBuffer int
	lowLatency      bool
}

var _ Device = (*PortAudioDevice)(nil)

// NewDefaultDevice resolves the system default output device.
func NewDefaultDevice(framesPerBuffer int, lowLatency bool) (*PortAudioDevice, error) {
	info, err := DefaultOutputDevice()
	if err != nil {
		return nil, err
	}
	log.Infof("AudioEngine: Output device %q (default rate %.0f Hz)", info.Name, info.DefaultSampleRate)
	return &PortAudioDevice{
		info:            info,
		framesPerBuffer: framesPerBuffer,
		lowLatency:      lowLatency,
	}, nil
}

func (d *PortAudioDevice) Name() string { return d.info.Name }

func (d *PortAudioDevice) latency() time.Duration {
	if d.lowLatency {
		return d.info.DefaultLowOutputLatency
	}
	return d.info.DefaultHighOutputLatency
}

// Open starts an output stream at the file's native rate and channel count.
func (d *PortAudioDevice) Open(sampleRate, channels int) (Sink, error) {
	if channels > d.info.MaxOutputChannels {
		return nil, fmt.Errorf("device %q supports %d channels, file has %d",
			d.info.Name, d.info.MaxOutputChannels, channels)
	}

	s := &portAudioSink{
		buffer: make([]float32, d.framesPerBuffer*channels),
	}
	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   d.info,
			Channels: channels,
			Latency:  d.latency(),
		},
		SampleRate:      float64(sampleRate),
		FramesPerBuffer: d.framesPerBuffer,
	}

	stream, err := portaudio.OpenStream(params, &s.buffer)
	if err != nil {
		return nil, fmt.Errorf("open output stream (%d Hz, %d ch): %w", sampleRate, channels, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("start output stream: %w", err)
	}
	s.stream = stream
	return s, nil
}

type portAudioSink struct {
	stream *portaudio.Stream
	buffer []float32 // Bound to the stream; Write copies into it.
	filled int
}

// Write copies samples into the stream buffer and hands each full buffer to
// PortAudio. A trailing partial buffer is kept for the next call.
func (s *portAudioSink) Write(samples []float32) error {
	for len(samples) > 0 {
		n := copy(s.buffer[s.filled:], samples)
		s.filled += n
		samples = samples[n:]
		if s.filled < len(s.buffer) {
			return nil
		}
		s.filled = 0
		if err := s.stream.Write(); err != nil && !errors.Is(err, portaudio.OutputUnderflowed) {
			return err
		}
	}
	return nil
}

// Drain pads the trailing partial buffer with silence, writes it, and waits
// for the stream to play out.
func (s *portAudioSink) Drain() error {
	if s.stream == nil {
		return nil
	}
	if s.filled > 0 {
		clear(s.buffer[s.filled:])
		s.filled = 0
		if err := s.stream.Write(); err != nil && !errors.Is(err, portaudio.OutputUnderflowed) {
			return err
		}
	}
	return s.stream.Stop()
}

// Close drops anything still queued and releases the stream.
func (s *portAudioSink) Close() error {
	if s.stream == nil {
		return nil
	}
	// Abort fails on a stream Drain already stopped; only Close matters then.
	_ = s.stream.Abort()
	err := s.stream.Close()
	s.stream = nil
	s.filled = 0
	return err
}
