// SPDX-License-Identifier: MIT
package analysis

import "samplex/internal/visual"

// Vectorscope keeps the latest batch of L/R point pairs.
type Vectorscope struct {
	points []visual.Point
}

func NewVectorscope() *Vectorscope { return &Vectorscope{} }

func (v *Vectorscope) SetPoints(points []visual.Point) {
	v.points = append(v.points[:0], points...)
}

func (v *Vectorscope) Points() []visual.Point { return v.points }

func (v *Vectorscope) Reset() { v.points = v.points[:0] }
