// SPDX-License-Identifier: MIT
package analysis

// VUMeter holds one normalized level per channel.
type VUMeter struct {
	floorDB float64
	levels  []float32
}

// NewVUMeter maps floorDB..0 dBFS onto 0..1.
func NewVUMeter(floorDB float64) *VUMeter {
	return &VUMeter{floorDB: floorDB}
}

// SetLevels recomputes every channel from its RMS. The channel count follows
// the input.
func (m *VUMeter) SetLevels(rms []float32) {
	if cap(m.levels) < len(rms) {
		m.levels = make([]float32, len(rms))
	}
	m.levels = m.levels[:len(rms)]
	for i, r := range rms {
		m.levels[i] = float32(NormalizeDB(AmplitudeToDB(float64(r)), m.floorDB))
	}
}

// Levels returns the latest levels. The slice is overwritten by SetLevels.
func (m *VUMeter) Levels() []float32 { return m.levels }

func (m *VUMeter) Reset() { m.levels = m.levels[:0] }
