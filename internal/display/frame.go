package display

import (
	"math/rand"

	"github.com/f451labs/sysmon/internal/config"
)

// Size is the LED matrix edge length.
const Size = 8

// Pixel is one RGB LED value.
type Pixel struct {
	R, G, B uint8
}

// Frame is a full 8x8 pixel buffer, row-major, row 0 at the top.
type Frame [Size][Size]Pixel

var (
	colorLow  = Pixel{0, 200, 0}
	colorMid  = Pixel{200, 200, 0}
	colorHigh = Pixel{200, 0, 0}
	colorProg = Pixel{80, 80, 80}
)

// Render produces the frame for the current state. values is the recent
// history of the active metric, oldest first; progress is the fraction of
// time elapsed toward the next upload. Sparkles mode is rendered
// separately because it is the only non-deterministic output.
//
// Rendering the same state and values twice yields an identical frame.
func Render(st State, values []float64, progress float64) Frame {
	var f Frame
	if st.Blanked || st.Mode == config.ModeSparkles {
		return f
	}

	renderGraph(&f, values)
	if st.ProgressVisible {
		renderProgress(&f, progress)
	}
	return rotate(f, st.Rotation)
}

// RenderSparkle lights one random pixel per tick and occasionally clears
// the buffer, the decorative screen-saver mode. It never blocks.
func RenderSparkle(st State, prev Frame, rng *rand.Rand) Frame {
	if st.Blanked {
		return Frame{}
	}

	// Roughly one clear per eight sparkles keeps the matrix from filling.
	if rng.Intn(8) == 0 {
		prev = Frame{}
	}
	x, y := rng.Intn(Size), rng.Intn(Size)
	prev[y][x] = Pixel{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256))}
	return prev
}

// Greeting returns the startup animation: rows sweep in from the top,
// then the matrix clears. Played once before the first tick.
func Greeting() []Frame {
	colors := []Pixel{colorLow, colorMid, colorHigh}
	frames := make([]Frame, 0, Size+2)
	for step := 1; step <= Size; step++ {
		var f Frame
		for y := 0; y < step; y++ {
			c := colors[y%len(colors)]
			for x := 0; x < Size; x++ {
				f[y][x] = c
			}
		}
		frames = append(frames, f)
	}
	return append(frames, Frame{})
}

// renderGraph draws the metric history as vertical bars, one column per
// value, newest at the right, scaled to the window's min/max.
func renderGraph(f *Frame, values []float64) {
	if len(values) == 0 {
		return
	}
	if len(values) > Size {
		values = values[len(values)-Size:]
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	// Right-align the window so fresh data enters from the right edge.
	offset := Size - len(values)
	for i, v := range values {
		var norm float64
		if hi > lo {
			norm = (v - lo) / (hi - lo)
		} else {
			norm = 0.5
		}
		bar := 1 + int(norm*float64(Size-1)+0.5)
		if bar > Size {
			bar = Size
		}
		col := offset + i
		color := barColor(norm)
		for row := Size - bar; row < Size; row++ {
			f[row][col] = color
		}
	}
}

func barColor(norm float64) Pixel {
	switch {
	case norm >= 0.8:
		return colorHigh
	case norm >= 0.6:
		return colorMid
	default:
		return colorLow
	}
}

// renderProgress overlays the time-to-next-upload fraction on the top
// row.
func renderProgress(f *Frame, progress float64) {
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	lit := int(progress*Size + 0.5)
	for x := 0; x < lit; x++ {
		f[0][x] = colorProg
	}
}

// rotate returns the frame rotated clockwise by the given multiple of 90
// degrees, matching the physical orientation of the device.
func rotate(f Frame, degrees int) Frame {
	turns := ((degrees / 90) % 4 + 4) % 4
	for ; turns > 0; turns-- {
		var r Frame
		for y := 0; y < Size; y++ {
			for x := 0; x < Size; x++ {
				r[x][Size-1-y] = f[y][x]
			}
		}
		f = r
	}
	return f
}
