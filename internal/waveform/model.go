// SPDX-License-Identifier: MIT
package waveform

// Model is the consumer side of the loader: the envelope of the current
// selection. It is not safe for concurrent use; the UI goroutine owns it.
type Model struct {
	generation uint64
	peaks      []float32
	estimate   int
	known      bool
	loading    bool
	finished   bool
}

func NewModel() *Model { return &Model{} }

// Expect discards the current envelope and accepts only events of
// generation from now on.
func (m *Model) Expect(generation uint64) {
	m.generation = generation
	m.Clear()
}

// Generation returns the generation the model accepts.
func (m *Model) Generation() uint64 { return m.generation }

// Clear drops the envelope and any loading state.
func (m *Model) Clear() {
	m.peaks = m.peaks[:0]
	m.estimate, m.known = 0, false
	m.loading, m.finished = false, false
}

// Apply folds a loader event into the model. Events from any other
// generation are ignored. It reports whether the model changed.
func (m *Model) Apply(ev Event) bool {
	if ev.Gen() != m.generation {
		return false
	}
	switch e := ev.(type) {
	case LoadingStarted:
		m.Clear()
		m.estimate, m.known = e.Estimate, e.Known
		m.loading = true
	case SamplesReady:
		peaks := e.Peaks
		if m.known {
			room := m.estimate - len(m.peaks)
			if room <= 0 {
				return false
			}
			if len(peaks) > room {
				peaks = peaks[:room]
			}
		}
		m.peaks = append(m.peaks, peaks...)
	case LoadingFinished:
		m.loading, m.finished = false, true
	case Cleared:
		m.Clear()
	default:
		return false
	}
	return true
}

// Peaks returns the loaded envelope.
func (m *Model) Peaks() []float32 { return m.peaks }

// Loading reports whether a load is in progress.
func (m *Model) Loading() bool { return m.loading }

// Finished reports whether the whole file has been loaded.
func (m *Model) Finished() bool { return m.finished }

// Progress returns the loaded fraction, 1 when finished, 0 when unknown.
func (m *Model) Progress() float32 {
	switch {
	case m.finished:
		return 1
	case m.known && m.estimate > 0:
		return float32(len(m.peaks)) / float32(m.estimate)
	default:
		return 0
	}
}

// Columns resamples the envelope to width columns taking the maximum of
// each column's span. While loading with a known estimate the envelope is
// laid out against the full length, so unloaded columns stay at zero.
func (m *Model) Columns(width int) []float32 {
	if width <= 0 {
		return nil
	}
	out := make([]float32, width)
	span := len(m.peaks)
	if m.known && !m.finished && m.estimate > span {
		span = m.estimate
	}
	if span == 0 {
		return out
	}
	for c := range width {
		from := c * span / width
		to := (c + 1) * span / width
		if to == from {
			to = from + 1
		}
		for i := from; i < to && i < len(m.peaks); i++ {
			out[c] = max(out[c], m.peaks[i])
		}
	}
	return out
}
