// SPDX-License-Identifier: MIT

// Package visual derives per-analyzer payloads from tapped audio blocks.
// The transforms are pure; the Dispatcher owns reusable scratch buffers so
// steady-state dispatch does not allocate.
package visual

import "math"

// Point is one vectorscope sample pair.
type Point struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// RMS writes the root mean square of each channel of the interleaved block
// into dst and returns it, resized to channels.
func RMS(dst []float32, channels int, samples []float32) []float32 {
	if channels <= 0 {
		return dst[:0]
	}
	if cap(dst) < channels {
		dst = make([]float32, channels)
	}
	dst = dst[:channels]

	frames := len(samples) / channels
	if frames == 0 {
		clear(dst)
		return dst
	}
	for ch := range channels {
		var sum float64
		for i := ch; i < frames*channels; i += channels {
			s := float64(samples[i])
			sum += s * s
		}
		dst[ch] = float32(math.Sqrt(sum / float64(frames)))
	}
	return dst
}

// Points pairs samples for the vectorscope. Mono duplicates each sample as
// (s, s), stereo pairs (left, right); any other layout yields no points.
func Points(dst []Point, channels int, samples []float32) []Point {
	dst = dst[:0]
	switch channels {
	case 1:
		for _, s := range samples {
			dst = append(dst, Point{X: s, Y: s})
		}
	case 2:
		for i := 0; i+1 < len(samples); i += 2 {
			dst = append(dst, Point{X: samples[i], Y: samples[i+1]})
		}
	}
	return dst
}

// Downmix averages channels per frame. A mono block is returned unchanged.
func Downmix(dst []float32, channels int, samples []float32) []float32 {
	if channels == 1 {
		return samples
	}
	if channels <= 0 {
		return dst[:0]
	}
	frames := len(samples) / channels
	if cap(dst) < frames {
		dst = make([]float32, frames)
	}
	dst = dst[:frames]

	inv := 1 / float32(channels)
	for f := range frames {
		var sum float32
		for _, s := range samples[f*channels : (f+1)*channels] {
			sum += s
		}
		dst[f] = sum * inv
	}
	return dst
}
