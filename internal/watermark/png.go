package watermark

import (
	"image/png"
	"os"

	"github.com/pkg/errors"
)

// WritePNG saves the buffer as a PNG with alpha.
func WritePNG(b *Buffer, path string) error {
	if b == nil {
		return errors.New("nothing to write: empty watermark")
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}

	if err := png.Encode(f, b.Image); err != nil {
		f.Close()
		return errors.Wrapf(err, "failed to encode %s", path)
	}
	return errors.WithStack(f.Close())
}
