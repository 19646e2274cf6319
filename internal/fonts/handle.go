// Package fonts locates and loads a renderable font for a family name.
//
// Resolution runs an ordered chain of strategies. The last strategy in the
// standard chain always succeeds with a built-in fixed-size face, so
// resolving never dead-ends.
package fonts

import (
	"os"
	"path/filepath"

	"github.com/golang/freetype/truetype"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

const dpi = 72

// Handle is a loaded font that can produce faces at a given size.
type Handle struct {
	Name string
	// Path is empty for built-in fonts.
	Path string
	// Source names the strategy that produced the handle.
	Source string
	// Scalable is false for the built-in default, which ignores the size.
	Scalable bool

	newFace func(sizePt float64) (font.Face, error)
}

// Face returns a face at sizePt. Callers must Close it.
func (h *Handle) Face(sizePt float64) (font.Face, error) {
	if h.newFace == nil {
		return nil, errors.Errorf("font %s has no face loader", h.Name)
	}
	return h.newFace(sizePt)
}

// Default returns the built-in 7x13 bitmap face. Its size is fixed.
func Default() *Handle {
	return &Handle{
		Name:     "basicfont 7x13",
		Source:   "default",
		Scalable: false,
		newFace: func(float64) (font.Face, error) {
			return basicfont.Face7x13, nil
		},
	}
}

// LoadFile parses a TrueType or OpenType font file.
func LoadFile(path string) (*Handle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	h, err := LoadBytes(filepath.Base(path), data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load font %s", path)
	}
	h.Path = path
	return h, nil
}

// LoadBytes parses font data, trying the TrueType parser first and the
// OpenType parser (which also handles CFF outlines) second.
func LoadBytes(name string, data []byte) (*Handle, error) {
	if tt, err := truetype.Parse(data); err == nil {
		return &Handle{
			Name:     name,
			Scalable: true,
			newFace: func(sizePt float64) (font.Face, error) {
				return truetype.NewFace(tt, &truetype.Options{
					Size:    sizePt,
					DPI:     dpi,
					Hinting: font.HintingFull,
				}), nil
			},
		}, nil
	}

	otf, err := opentype.Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, "unsupported font data")
	}

	return &Handle{
		Name:     name,
		Scalable: true,
		newFace: func(sizePt float64) (font.Face, error) {
			return opentype.NewFace(otf, &opentype.FaceOptions{
				Size:    sizePt,
				DPI:     dpi,
				Hinting: font.HintingFull,
			})
		},
	}, nil
}
