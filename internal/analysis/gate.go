// SPDX-License-Identifier: MIT
package analysis

import "math"

// Gate rejects blocks whose RMS falls below a threshold so silence never
// reaches pitch estimation.
// A zero threshold passes every non-empty block.
type Gate struct {
	threshold float64
}

// NewGate returns a gate with the given threshold.
func NewGate(threshold float64) *Gate {
	g := &Gate{}
	g.SetThreshold(threshold)
	return g
}

// SetThreshold adjusts the gate threshold as a linear RMS amplitude.
// The value is in the range of 0.0-1.0 where 0=always open, 1=always closed.
func (g *Gate) SetThreshold(threshold float64) {
	g.threshold = math.Max(0, math.Min(1, threshold))
}

// Open reports whether the block is loud enough to analyze. An empty block
// never opens the gate.
func (g *Gate) Open(block []float32) bool {
	if len(block) == 0 {
		return false
	}
	if g.threshold == 0 {
		return true
	}
	var sum float64
	for _, s := range block {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum/float64(len(block))) >= g.threshold
}
