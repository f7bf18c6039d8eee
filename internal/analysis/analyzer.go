// SPDX-License-Identifier: MIT
package analysis

import "samplex/internal/visual"

// Every analyzer holds a "latest frame" and falls back to its silence
// representation through the sink's Reset, whether the cause is Stop, end
// of stream, or a track change.
var (
	_ visual.LevelSink = (*VUMeter)(nil)
	_ visual.PointSink = (*Vectorscope)(nil)
	_ visual.PointSink = (*Correlation)(nil)
	_ visual.BlockSink = (*Spectrum)(nil)
	_ visual.BlockSink = (*Tuner)(nil)
	_ visual.BlockSink = (*Scope)(nil)
)
