// Package layout maps a normalized watermark center onto a target frame.
package layout

import (
	"math"

	"github.com/ZacxDev/video-watermarker/pkg/types"
)

// MapToPixels returns the top-left pixel of a bufW x bufH watermark centered
// at pos in a targetW x targetH frame, kept margin pixels from every edge.
// A watermark that does not fit on an axis is pinned to margin.
func MapToPixels(pos types.NormalizedPosition, bufW, bufH, targetW, targetH, margin int) (int, int) {
	pos = pos.Clamp()
	x := place(pos.X, bufW, targetW, margin)
	y := place(pos.Y, bufH, targetH, margin)
	return x, y
}

func place(center float64, size, target, margin int) int {
	if margin < 0 {
		margin = 0
	}

	v := int(math.Round(center*float64(target) - float64(size)/2))

	upper := target - size - margin
	if upper < margin {
		return margin
	}
	if v < margin {
		return margin
	}
	if v > upper {
		return upper
	}
	return v
}
