// SPDX-License-Identifier: MIT
package visual

// LevelSink consumes per-channel RMS values.
type LevelSink interface {
	SetLevels(rms []float32)
	Reset()
}

// PointSink consumes vectorscope point pairs.
type PointSink interface {
	SetPoints(points []Point)
	Reset()
}

// BlockSink consumes mono-downmixed blocks and needs to know the rate they
// were produced at.
type BlockSink interface {
	Process(mono []float32)
	SetSampleRate(rate int)
	Reset()
}

// Dispatcher fans a tapped block out to every registered sink. Payload
// slices passed to sinks are reused on the next Dispatch; sinks that keep
// data must copy it.
//
// An empty block is the single reset signal: every sink's Reset is called
// exactly once and nothing else is delivered for that block.
type Dispatcher struct {
	levels []LevelSink
	points []PointSink
	blocks []BlockSink

	rmsBuf   []float32
	pointBuf []Point
	monoBuf  []float32
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

func (d *Dispatcher) AddLevelSink(s LevelSink) { d.levels = append(d.levels, s) }
func (d *Dispatcher) AddPointSink(s PointSink) { d.points = append(d.points, s) }
func (d *Dispatcher) AddBlockSink(s BlockSink) { d.blocks = append(d.blocks, s) }

// Dispatch derives RMS, points, and a mono downmix from the interleaved
// block and hands each to its sinks.
func (d *Dispatcher) Dispatch(channels int, samples []float32) {
	if len(samples) == 0 || channels <= 0 {
		d.Reset()
		return
	}

	if len(d.levels) > 0 {
		d.rmsBuf = RMS(d.rmsBuf, channels, samples)
		for _, s := range d.levels {
			s.SetLevels(d.rmsBuf)
		}
	}

	if len(d.points) > 0 {
		d.pointBuf = Points(d.pointBuf, channels, samples)
		for _, s := range d.points {
			s.SetPoints(d.pointBuf)
		}
	}

	if len(d.blocks) > 0 {
		mono := Downmix(d.monoBuf, channels, samples)
		if channels != 1 {
			d.monoBuf = mono
		}
		for _, s := range d.blocks {
			s.Process(mono)
		}
	}
}

// SetSampleRate forwards a rate change to the block sinks.
func (d *Dispatcher) SetSampleRate(rate int) {
	for _, s := range d.blocks {
		s.SetSampleRate(rate)
	}
}

// Reset clears every sink.
func (d *Dispatcher) Reset() {
	for _, s := range d.levels {
		s.Reset()
	}
	for _, s := range d.points {
		s.Reset()
	}
	for _, s := range d.blocks {
		s.Reset()
	}
}
