// Package watermark renders watermark text into a transparent image.
package watermark

import (
	"image"
	"image/draw"
	"math"

	"github.com/ZacxDev/video-watermarker/internal/fonts"
	"github.com/ZacxDev/video-watermarker/pkg/types"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Buffer is a rendered watermark. The image is owned by the caller that
// rendered it and must be treated as read-only once shared.
type Buffer struct {
	Image    *image.NRGBA
	PaddingX int
	PaddingY int
}

func (b *Buffer) Width() int  { return b.Image.Bounds().Dx() }
func (b *Buffer) Height() int { return b.Image.Bounds().Dy() }

// Padding returns the horizontal and vertical padding for a point size.
func Padding(sizePt int) (int, int) {
	px := int(float64(sizePt) * 0.1)
	if px < 5 {
		px = 5
	}
	py := int(float64(sizePt) * 0.05)
	if py < 3 {
		py = 3
	}
	return px, py
}

// Render draws text with the given font handle. It returns a nil buffer and
// no error when text is empty or sizePt is not positive.
func Render(text string, h *fonts.Handle, sizePt int, c types.RGBA) (*Buffer, error) {
	if text == "" || sizePt <= 0 {
		return nil, nil
	}
	if h == nil {
		return nil, errors.New("no font handle")
	}

	face, err := h.Face(float64(sizePt))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create font face")
	}
	defer face.Close()

	minX, minY, w, hgt := measure(face, text)
	padX, padY := Padding(sizePt)

	img := image.NewNRGBA(image.Rect(0, 0, w+2*padX, hgt+2*padY))
	draw.Draw(img, img.Bounds(), image.Transparent, image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c.NRGBA()),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(padX - minX), Y: fixed.I(padY - minY)},
	}
	d.DrawString(text)

	return &Buffer{Image: img, PaddingX: padX, PaddingY: padY}, nil
}

// measure returns the ink bounds of text relative to the origin. Text with
// no ink, such as spaces, falls back to its advance and the line height.
func measure(face font.Face, text string) (minX, minY, w, h int) {
	bounds, advance := font.BoundString(face, text)

	minX = bounds.Min.X.Floor()
	minY = bounds.Min.Y.Floor()
	w = bounds.Max.X.Ceil() - minX
	h = bounds.Max.Y.Ceil() - minY

	if w <= 0 || h <= 0 {
		m := face.Metrics()
		minX = 0
		minY = -m.Ascent.Ceil()
		w = int(math.Max(1, float64(advance.Ceil())))
		h = int(math.Max(1, float64((m.Ascent + m.Descent).Ceil())))
	}
	return minX, minY, w, h
}
