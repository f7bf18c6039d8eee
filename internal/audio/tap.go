// SPDX-License-Identifier: MIT
package audio

// tap accumulates the samples going to the sink into fixed blocks of one
// UI frame (sampleRate * channels / framesPerSecond samples) and emits a
// copy of each full block.
type tap struct {
	channels int
	block    []float32
	emit     func(Block)
}

func newTap(emit func(Block)) *tap {
	return &tap{emit: emit}
}

// configure sizes the block for a new stream and drops any partial block.
func (t *tap) configure(sampleRate, channels, framesPerSecond int) {
	size := sampleRate * channels / framesPerSecond
	// Keep blocks frame aligned.
	size -= size % channels
	if size < channels {
		size = channels
	}
	t.channels = channels
	if cap(t.block) < size {
		t.block = make([]float32, 0, size)
	}
	t.block = t.block[:0:size]
}

// blockSize returns the configured number of samples per block.
func (t *tap) blockSize() int { return cap(t.block) }

func (t *tap) write(samples []float32) {
	if cap(t.block) == 0 {
		return
	}
	for len(samples) > 0 {
		room := cap(t.block) - len(t.block)
		if room > len(samples) {
			room = len(samples)
		}
		t.block = append(t.block, samples[:room]...)
		samples = samples[room:]
		if len(t.block) == cap(t.block) {
			t.send()
		}
	}
}

// flush emits whatever partial block is pending.
func (t *tap) flush() {
	if len(t.block) > 0 {
		t.send()
	}
}

func (t *tap) reset() {
	t.block = t.block[:0]
}

func (t *tap) send() {
	out := make([]float32, len(t.block))
	copy(out, t.block)
	t.block = t.block[:0]
	t.emit(Block{Channels: t.channels, Samples: out})
}
