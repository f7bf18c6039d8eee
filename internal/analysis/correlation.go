// SPDX-License-Identifier: MIT
package analysis

import (
	"math"

	"samplex/internal/visual"
)

// Correlation measures the phase relationship between the two channels of
// the latest point batch: +1 is mono-compatible, 0 unrelated, -1 out of
// phase. Silence reads 0.
type Correlation struct {
	value float32
}

func NewCorrelation() *Correlation { return &Correlation{} }

func (c *Correlation) SetPoints(points []visual.Point) {
	if len(points) == 0 {
		return
	}
	c.value = float32(pearson(points))
}

func (c *Correlation) Value() float32 { return c.value }

func (c *Correlation) Reset() { c.value = 0 }

func pearson(points []visual.Point) float64 {
	n := float64(len(points))
	var sumL, sumR float64
	for _, p := range points {
		sumL += float64(p.X)
		sumR += float64(p.Y)
	}
	meanL, meanR := sumL/n, sumR/n

	var cov, varL, varR float64
	for _, p := range points {
		dl := float64(p.X) - meanL
		dr := float64(p.Y) - meanR
		cov += dl * dr
		varL += dl * dl
		varR += dr * dr
	}

	// Silence on either side reads as unrelated.
	const silent = 1e-12
	if varL < silent || varR < silent {
		return 0
	}
	r := cov / math.Sqrt(varL*varR)
	return math.Max(-1, math.Min(1, r))
}
