package display

import (
	"math/rand"
	"testing"

	"github.com/f451labs/sysmon/internal/config"
	"github.com/f451labs/sysmon/internal/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderBlankedEmitsNoPixels(t *testing.T) {
	st := State{Mode: config.ModeDownload, Blanked: true}
	f := Render(st, []float64{1, 2, 3}, 0.5)
	assert.Equal(t, Frame{}, f)
}

func TestRenderIdempotent(t *testing.T) {
	st := State{Mode: config.ModePing, Rotation: 90, ProgressVisible: true}
	values := []float64{10, 12, 9, 14, 11, 13, 10, 15}

	a := Render(st, values, 0.4)
	b := Render(st, values, 0.4)
	assert.Equal(t, a, b, "identical state and readings must render identically")
}

func TestRenderGraphShape(t *testing.T) {
	st := State{Mode: config.ModeDownload}
	// Strictly increasing values: right-most column tallest.
	f := Render(st, []float64{1, 2, 3, 4, 5, 6, 7, 8}, 0)

	colHeight := func(col int) int {
		h := 0
		for row := 0; row < Size; row++ {
			if f[row][col] != (Pixel{}) {
				h++
			}
		}
		return h
	}

	require.Equal(t, Size, colHeight(Size-1), "max value fills the column")
	assert.Equal(t, 1, colHeight(0), "min value draws a single pixel")
	for col := 1; col < Size; col++ {
		assert.GreaterOrEqual(t, colHeight(col), colHeight(col-1),
			"monotone data renders monotone bars")
	}
}

func TestRenderFewerValuesRightAligned(t *testing.T) {
	st := State{Mode: config.ModeUpload}
	f := Render(st, []float64{5, 9}, 0)

	for col := 0; col < Size-2; col++ {
		for row := 0; row < Size; row++ {
			assert.Equal(t, Pixel{}, f[row][col], "unfilled columns stay dark")
		}
	}
	assert.NotEqual(t, Pixel{}, f[Size-1][Size-1], "newest value lands at the right edge")
}

func TestRenderProgressOverlay(t *testing.T) {
	st := State{Mode: config.ModeDownload, ProgressVisible: true}
	flat := []float64{5, 5, 5, 5, 5, 5, 5, 5}

	f := Render(st, flat, 0.5)
	lit := 0
	for x := 0; x < Size; x++ {
		if f[0][x] == colorProg {
			lit++
		}
	}
	assert.Equal(t, 4, lit, "half progress lights half the top row")

	off := Render(State{Mode: config.ModeDownload}, flat, 0.5)
	for x := 0; x < Size; x++ {
		assert.NotEqual(t, colorProg, off[0][x], "overlay only renders when enabled")
	}
}

func TestRotate(t *testing.T) {
	st := State{Mode: config.ModeDownload}
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8}

	base := Render(st, values, 0)

	st.Rotation = 90
	quarter := Render(st, values, 0)
	assert.NotEqual(t, base, quarter)

	// Four quarter turns are the identity.
	st.Rotation = 360
	assert.Equal(t, base, Render(st, values, 0))

	// 90 applied to an already rendered frame matches direct 90 rendering.
	assert.Equal(t, quarter, rotate(base, 90))
}

func TestSparklesMode(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	st := State{Mode: config.ModeSparkles}

	f := RenderSparkle(st, Frame{}, rng)
	nonZero := 0
	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			if f[y][x] != (Pixel{}) {
				nonZero++
			}
		}
	}
	assert.GreaterOrEqual(t, nonZero, 1, "sparkle lights at least one pixel")

	blanked := State{Mode: config.ModeSparkles, Blanked: true}
	assert.Equal(t, Frame{}, RenderSparkle(blanked, f, rng))
}

func TestGreetingEndsBlank(t *testing.T) {
	frames := Greeting()
	require.NotEmpty(t, frames)
	assert.Equal(t, Frame{}, frames[len(frames)-1], "greeting leaves the matrix clear")
	assert.NotEqual(t, Frame{}, frames[0], "greeting starts with lit rows")
}

func TestHistory(t *testing.T) {
	h := NewHistory(3)

	push := func(d, u, p float64) {
		h.Push(sample.Readings{
			Download: sample.Reading{Metric: sample.Download, Value: d},
			Upload:   sample.Reading{Metric: sample.Upload, Value: u},
			Ping:     sample.Reading{Metric: sample.Ping, Value: p},
		})
	}

	push(1, 10, 100)
	push(2, 20, 200)
	push(3, 30, 300)
	push(4, 40, 400)

	assert.Equal(t, []float64{2, 3, 4}, h.Last(sample.Download, 8),
		"window evicts oldest values")
	assert.Equal(t, []float64{30, 40}, h.Last(sample.Upload, 2))
	assert.Equal(t, 3, h.Len(sample.Ping))

	// Last returns a copy, not the backing slice.
	vals := h.Last(sample.Ping, 3)
	vals[0] = -1
	assert.Equal(t, []float64{200, 300, 400}, h.Last(sample.Ping, 3))
}
