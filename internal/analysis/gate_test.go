// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"strconv"
	"testing"

	"samplex/pkg/utils"
)

func TestGateSilence(t *testing.T) {
	quiet := []float32{0.01, -0.01}

	if NewGate(0.5).Open(quiet) {
		t.Error("gate should reject a quiet block")
	}
	if !NewGate(0).Open(quiet) {
		t.Error("zero threshold should pass every non-empty block")
	}
	if NewGate(0).Open(nil) {
		t.Error("an empty block never opens the gate")
	}
	if !NewGate(0).Open(make([]float32, 8)) {
		t.Error("zero threshold should pass digital silence")
	}
}

func TestGateThresholdBoundaries(t *testing.T) {
	tests := []struct {
		input    float64
		expected float64
	}{
		{-0.1, 0.0}, // Below min
		{0.0, 0.0},  // Minimum
		{0.5, 0.5},  // Middle
		{1.0, 1.0},  // Maximum
		{1.5, 1.0},  // Above max
	}

	g := NewGate(0)
	for _, tt := range tests {
		t.Run(strconv.FormatFloat(tt.input, 'f', 2, 64), func(t *testing.T) {
			g.SetThreshold(tt.input)
			if got := g.threshold; math.Abs(got-tt.expected) > 0.001 {
				t.Errorf("threshold: got %.3f, want %.3f", got, tt.expected)
			}
		})
	}
}

func TestGateOpensAtRMS(t *testing.T) {
	// A sine of amplitude A has RMS A/sqrt(2).
	sine := utils.GenerateSine(4410, testSampleRate, 100, 0.1)
	tests := []struct {
		threshold float64
		open      bool
	}{
		{0.001, true},
		{0.07, true},
		{0.0708, false},
		{1, false},
	}
	for _, tt := range tests {
		if got := NewGate(tt.threshold).Open(sine); got != tt.open {
			t.Errorf("threshold %.4f: Open() = %v, want %v", tt.threshold, got, tt.open)
		}
	}
}

func TestGateZeroAllocs(t *testing.T) {
	g := NewGate(0.001)
	block := make([]float32, 735)
	allocs := testing.AllocsPerRun(100, func() {
		_ = g.Open(block)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations, got %.1f", allocs)
	}
}
