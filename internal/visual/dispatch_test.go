// SPDX-License-Identifier: MIT
package visual

import "testing"

type recorder struct {
	levels [][]float32
	points [][]Point
	blocks [][]float32
	rates  []int
	resets int
}

func (r *recorder) SetLevels(rms []float32) {
	r.levels = append(r.levels, append([]float32(nil), rms...))
}

func (r *recorder) SetPoints(p []Point) {
	r.points = append(r.points, append([]Point(nil), p...))
}

func (r *recorder) Process(mono []float32) {
	r.blocks = append(r.blocks, append([]float32(nil), mono...))
}

func (r *recorder) SetSampleRate(rate int) { r.rates = append(r.rates, rate) }
func (r *recorder) Reset()                 { r.resets++ }

func TestDispatcherFanOut(t *testing.T) {
	vu, scope, spectrum, tuner := &recorder{}, &recorder{}, &recorder{}, &recorder{}
	d := NewDispatcher()
	d.AddLevelSink(vu)
	d.AddPointSink(scope)
	d.AddBlockSink(spectrum)
	d.AddBlockSink(tuner)

	d.SetSampleRate(44100)
	d.Dispatch(2, []float32{0.5, 0.6, 0.7, 0.8})

	if len(vu.levels) != 1 || len(vu.levels[0]) != 2 {
		t.Fatalf("vu got %v", vu.levels)
	}
	if len(scope.points) != 1 || scope.points[0][1] != (Point{0.7, 0.8}) {
		t.Errorf("vectorscope got %v", scope.points)
	}
	for _, r := range []*recorder{spectrum, tuner} {
		if len(r.rates) != 1 || r.rates[0] != 44100 {
			t.Errorf("block sink rates = %v", r.rates)
		}
		if len(r.blocks) != 1 || !approx(r.blocks[0][0], 0.55) || !approx(r.blocks[0][1], 0.75) {
			t.Errorf("block sink got %v", r.blocks)
		}
	}
	if len(vu.rates) != 0 {
		t.Error("level sinks must not receive sample rates")
	}
}

func TestDispatcherEmptyBlockResetsOnce(t *testing.T) {
	sinks := []*recorder{{}, {}, {}}
	d := NewDispatcher()
	d.AddLevelSink(sinks[0])
	d.AddPointSink(sinks[1])
	d.AddBlockSink(sinks[2])

	d.Dispatch(2, []float32{0.1, 0.1})
	d.Dispatch(2, nil)

	for i, s := range sinks {
		if s.resets != 1 {
			t.Errorf("sink %d reset %d times, want 1", i, s.resets)
		}
	}
	if len(sinks[2].blocks) != 1 {
		t.Errorf("empty block must not be processed, got %d blocks", len(sinks[2].blocks))
	}
}

func TestDispatcherSurroundSkipsPoints(t *testing.T) {
	vu, scope := &recorder{}, &recorder{}
	d := NewDispatcher()
	d.AddLevelSink(vu)
	d.AddPointSink(scope)

	d.Dispatch(3, []float32{0.1, 0.2, 0.3})

	if len(vu.levels) != 1 || len(vu.levels[0]) != 3 {
		t.Errorf("vu should still meter 3 channels, got %v", vu.levels)
	}
	if len(scope.points) != 1 || len(scope.points[0]) != 0 {
		t.Errorf("vectorscope should receive an empty batch, got %v", scope.points)
	}
}
