package layout

import (
	"testing"

	"github.com/ZacxDev/video-watermarker/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestMapToPixelsCenter(t *testing.T) {
	x, y := MapToPixels(types.Center, 100, 40, 1920, 1080, 5)
	assert.Equal(t, 910, x)
	assert.Equal(t, 520, y)
}

func TestMapToPixelsCorners(t *testing.T) {
	x, y := MapToPixels(types.NormalizedPosition{X: 0, Y: 0}, 100, 40, 1920, 1080, 5)
	assert.Equal(t, 5, x)
	assert.Equal(t, 5, y)

	x, y = MapToPixels(types.NormalizedPosition{X: 1, Y: 1}, 100, 40, 1920, 1080, 5)
	assert.Equal(t, 1920-100-5, x)
	assert.Equal(t, 1080-40-5, y)

	x, y = MapToPixels(types.NormalizedPosition{X: 1, Y: 1}, 100, 40, 1920, 1080, 0)
	assert.Equal(t, 1820, x)
	assert.Equal(t, 1040, y)
}

func TestMapToPixelsClampInvariant(t *testing.T) {
	targets := [][2]int{{1920, 1080}, {640, 360}, {101, 41}, {100, 40}}
	buffers := [][2]int{{1, 1}, {50, 20}, {100, 40}}
	steps := []float64{0, 0.01, 0.25, 0.5, 0.73, 0.99, 1}

	for _, tg := range targets {
		for _, b := range buffers {
			for _, px := range steps {
				for _, py := range steps {
					x, y := MapToPixels(types.NormalizedPosition{X: px, Y: py}, b[0], b[1], tg[0], tg[1], 0)
					assert.True(t, x >= 0 && x <= tg[0]-b[0], "x=%d target=%v buf=%v", x, tg, b)
					assert.True(t, y >= 0 && y <= tg[1]-b[1], "y=%d target=%v buf=%v", y, tg, b)
				}
			}
		}
	}
}

func TestMapToPixelsClampInvariantWithMargin(t *testing.T) {
	const margin = 5
	targets := [][2]int{{1920, 1080}, {640, 360}, {110, 50}}
	buffers := [][2]int{{1, 1}, {50, 20}, {100, 40}}
	steps := []float64{0, 0.01, 0.25, 0.5, 0.73, 0.99, 1}

	for _, tg := range targets {
		for _, b := range buffers {
			for _, px := range steps {
				for _, py := range steps {
					x, y := MapToPixels(types.NormalizedPosition{X: px, Y: py}, b[0], b[1], tg[0], tg[1], margin)
					assert.True(t, x >= margin && x <= tg[0]-b[0]-margin, "x=%d target=%v buf=%v", x, tg, b)
					assert.True(t, y >= margin && y <= tg[1]-b[1]-margin, "y=%d target=%v buf=%v", y, tg, b)
				}
			}
		}
	}
}

func TestMapToPixelsOversizedPins(t *testing.T) {
	x, y := MapToPixels(types.NormalizedPosition{X: 0.9, Y: 0.9}, 800, 400, 640, 360, 5)
	assert.Equal(t, 5, x)
	assert.Equal(t, 5, y)

	// Only the X axis is oversized; Y still clamps to the far margin.
	x, y = MapToPixels(types.NormalizedPosition{X: 0.9, Y: 0.9}, 800, 300, 640, 360, 5)
	assert.Equal(t, 5, x)
	assert.Equal(t, 360-300-5, y)

	x, _ = MapToPixels(types.NormalizedPosition{X: 0.5, Y: 0.5}, 800, 10, 640, 360, 0)
	assert.Equal(t, 0, x)

	// Exactly fills the space left by the margins.
	x, _ = MapToPixels(types.NormalizedPosition{X: 0.7, Y: 0.5}, 630, 10, 640, 360, 5)
	assert.Equal(t, 5, x)
}

func TestMapToPixelsOutOfRangePositionIsClamped(t *testing.T) {
	x, y := MapToPixels(types.NormalizedPosition{X: -3, Y: 7}, 10, 10, 100, 100, 0)
	assert.Equal(t, 0, x)
	assert.Equal(t, 90, y)
}

func TestMapToPixelsIdempotent(t *testing.T) {
	pos := types.NormalizedPosition{X: 0.37, Y: 0.81}
	x1, y1 := MapToPixels(pos, 123, 45, 1280, 720, 5)
	x2, y2 := MapToPixels(pos, 123, 45, 1280, 720, 5)
	assert.Equal(t, x1, x2)
	assert.Equal(t, y1, y2)
}
