package types

import "image/color"

// RGBA is a straight (non-premultiplied) colour.
type RGBA struct {
	R, G, B, A uint8
}

// White is the colour used when no valid colour was supplied.
var White = RGBA{R: 255, G: 255, B: 255, A: 255}

// NRGBA converts the colour for use with image/draw.
func (c RGBA) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

// WatermarkConfig is the snapshot of watermark settings taken when the
// watermark is rendered.
type WatermarkConfig struct {
	Text       string
	FontFamily string
	FontSizePt int
	Color      RGBA
}

// NormalizedPosition is the fractional centre of the watermark relative to
// whatever frame it is drawn on.
type NormalizedPosition struct {
	X float64
	Y float64
}

// Center is the default placement.
var Center = NormalizedPosition{X: 0.5, Y: 0.5}

// Clamp returns the position limited to [0,1]x[0,1].
func (p NormalizedPosition) Clamp() NormalizedPosition {
	return NormalizedPosition{X: clampUnit(p.X), Y: clampUnit(p.Y)}
}

// Nudge moves the position by dx, dy and clamps the result.
func (p NormalizedPosition) Nudge(dx, dy float64) NormalizedPosition {
	return NormalizedPosition{X: p.X + dx, Y: p.Y + dy}.Clamp()
}

// VideoJob pairs a source video with the file it will be written to.
type VideoJob struct {
	SourcePath string
	OutputPath string
}

func clampUnit(v float64) float64 {
	if v != v || v < 0 { // NaN counts as 0
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
