// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"math"
	"strings"

	"samplex/internal/visual"
)

var eighths = []rune(" ▁▂▃▄▅▆▇█")

// resample reduces or stretches values to width columns, keeping the
// maximum of each span.
func resample(values []float32, width int) []float32 {
	out := make([]float32, max(width, 0))
	if len(values) == 0 {
		return out
	}
	for c := range out {
		from := c * len(values) / width
		to := max((c+1)*len(values)/width, from+1)
		for _, v := range values[from:min(to, len(values))] {
			out[c] = max(out[c], v)
		}
	}
	return out
}

// bars draws values (0..1) as a bottom-up bar chart of height rows. The
// column at marker, if any, is drawn with markerRune over empty cells.
func bars(values []float32, height, marker int, markerRune rune) []string {
	rows := make([]string, height)
	line := make([]rune, len(values))
	for r := range height {
		// Row 0 is the top; level counts eighths above this row's floor.
		floor := float64(height-1-r) * 8
		for c, v := range values {
			level := math.Round(float64(max(0, min(1, v)))*float64(height)*8) - floor
			switch {
			case level >= 8:
				line[c] = eighths[8]
			case level > 0:
				line[c] = eighths[int(level)]
			case c == marker:
				line[c] = markerRune
			default:
				line[c] = ' '
			}
		}
		rows[r] = string(line)
	}
	return rows
}

// mirrored draws an envelope symmetric around its center line.
func mirrored(values []float32, halfHeight, marker int) []string {
	top := bars(values, halfHeight, marker, '│')
	bottom := make([]string, halfHeight)
	for r := range halfHeight {
		bottom[r] = strings.Map(flip, top[halfHeight-1-r])
	}
	return append(top, bottom...)
}

// flip turns a bottom-anchored block into its top-anchored counterpart at
// half-cell resolution.
func flip(c rune) rune {
	switch c {
	case '▁', '▂', '▃':
		return ' '
	case '▄', '▅', '▆', '▇':
		return '▀'
	default:
		return c
	}
}

// meter renders a horizontal level bar.
func meter(level float32, width int) string {
	level = max(0, min(1, level))
	filled := int(math.Round(float64(level) * float64(width)))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// correlationBar places a marker on a -1..+1 scale.
func correlationBar(value float32, width int) string {
	if width < 3 {
		return ""
	}
	pos := int(math.Round(float64(value+1) / 2 * float64(width-1)))
	pos = max(0, min(width-1, pos))
	line := []rune(strings.Repeat("─", width))
	line[width/2] = '┼'
	line[pos] = '●'
	return string(line)
}

// goniometer plots L/R pairs rotated by 45 degrees, so mono material is a
// vertical line and out-of-phase material a horizontal one.
func goniometer(points []visual.Point, width, height int) []string {
	grid := make([][]rune, height)
	for r := range grid {
		grid[r] = []rune(strings.Repeat(" ", width))
	}
	grid[height/2][width/2] = '+'
	for _, p := range points {
		side := (p.X - p.Y) / math.Sqrt2
		mid := (p.X + p.Y) / math.Sqrt2
		c := int(math.Round(float64((side + 1) / 2 * float32(width-1))))
		r := int(math.Round(float64((1 - mid) / 2 * float32(height-1))))
		if c < 0 || c >= width || r < 0 || r >= height {
			continue
		}
		grid[r][c] = '•'
	}
	rows := make([]string, height)
	for r := range grid {
		rows[r] = string(grid[r])
	}
	return rows
}

func formatHz(hz float64) string {
	if hz >= 1000 {
		return fmt.Sprintf("%.2f kHz", hz/1000)
	}
	return fmt.Sprintf("%.1f Hz", hz)
}

// axisLabels puts the lowest frequency under the left edge of a bar graph
// and the highest under the right edge.
func axisLabels(hz [2]float64, width int) string {
	lo, hi := formatHz(hz[0]), formatHz(hz[1])
	gap := width - len(lo) - len(hi)
	if gap < 1 {
		return lo
	}
	return lo + strings.Repeat(" ", gap) + hi
}
