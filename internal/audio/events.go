// SPDX-License-Identifier: MIT
package audio

// Event is emitted by the engine loop. Events are values; nothing in them
// is shared with the loop after emission.
type Event interface {
	audioEvent()
}

// Position answers QueryPosition with the playhead as a fraction 0..1 of the
// track. It is 0 when nothing is loaded or the duration is unknown.
type Position struct {
	Fraction float32
}

// Block is one UI frame of tapped audio. An empty Samples slice is the
// reset signal sent on Stop and at end of stream.
type Block struct {
	Channels int
	Samples  []float32
}

// SampleRateChanged announces the rate of the blocks that follow. Rate 0
// means playback stopped. It is also re-sent after a seek so consumers drop
// audio carried over from before the jump.
type SampleRateChanged struct {
	Rate int
}

// EndOfStream follows the reset block when a track plays to the end.
type EndOfStream struct {
	Path string
}

func (Position) audioEvent()          {}
func (Block) audioEvent()             {}
func (SampleRateChanged) audioEvent() {}
func (EndOfStream) audioEvent()       {}

// IsReset reports whether b is the empty reset block.
func (b Block) IsReset() bool { return len(b.Samples) == 0 }
