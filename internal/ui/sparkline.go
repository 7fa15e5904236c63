package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Sparkline block characters representing 8 vertical levels (lowest to highest).
const sparklineBlocks = "▁▂▃▄▅▆▇█"

var sparklineBlockRunes = []rune(sparklineBlocks)

// RenderSparkline creates a sparkline visualization from a slice of float64
// values. The width parameter determines how many of the most recent data
// points to display. Values are mapped to 8 vertical levels based on the
// window's min/max range, and the whole line is colored by where the newest
// value sits in that range:
//   - bottom 60%: green
//   - 60-80%: yellow
//   - top 20%: red
func RenderSparkline(data []float64, width int) string {
	if len(data) == 0 || width <= 0 {
		return ""
	}

	if len(data) > width {
		data = data[len(data)-width:]
	}

	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}

	var sb strings.Builder
	sb.Grow(len(data) * 4) // UTF-8 block chars are up to 3 bytes

	numLevels := len(sparklineBlockRunes)
	valueRange := maxVal - minVal

	for _, v := range data {
		level := numLevels / 2
		if valueRange > 0 {
			normalized := (v - minVal) / valueRange
			level = int(normalized * float64(numLevels-1))
			if level < 0 {
				level = 0
			} else if level >= numLevels {
				level = numLevels - 1
			}
		}
		sb.WriteRune(sparklineBlockRunes[level])
	}

	color := ColorSuccess
	if valueRange > 0 {
		normalized := (data[len(data)-1] - minVal) / valueRange
		color = thresholdColor(normalized)
	}

	style := lipgloss.NewStyle().Foreground(color)
	return style.Render(sb.String())
}

// thresholdColor maps a 0..1 normalized position to a traffic-light color.
func thresholdColor(normalized float64) lipgloss.Color {
	switch {
	case normalized >= 0.8:
		return ColorError
	case normalized >= 0.6:
		return ColorWarning
	default:
		return ColorSuccess
	}
}
