// SPDX-License-Identifier: MIT
package analysis

// Scope keeps the latest mono block for an oscilloscope trace.
type Scope struct {
	samples []float32
}

func NewScope() *Scope { return &Scope{} }

func (s *Scope) Process(mono []float32) {
	s.samples = append(s.samples[:0], mono...)
}

func (s *Scope) SetSampleRate(int) {}

func (s *Scope) Samples() []float32 { return s.samples }

func (s *Scope) Reset() { s.samples = s.samples[:0] }
