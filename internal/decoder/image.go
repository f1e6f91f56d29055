package decoder

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ErrEmpty is returned for zero-length input.
var ErrEmpty = errors.New("decoder: empty image data")

// ImageDecoder decodes any registered still-image format into *image.RGBA.
type ImageDecoder struct {
	// MaxPixels rejects images larger than this many pixels, 0 means no limit.
	MaxPixels int
}

func NewImageDecoder() *ImageDecoder {
	return &ImageDecoder{MaxPixels: 64 << 20}
}

func (d *ImageDecoder) Decode(data []byte) (*image.RGBA, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if d.MaxPixels > 0 {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
		if cfg.Width*cfg.Height > d.MaxPixels {
			return nil, fmt.Errorf("image %dx%d exceeds %d pixels", cfg.Width, cfg.Height, d.MaxPixels)
		}
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if img.Bounds().Empty() {
		return nil, ErrEmpty
	}
	return ToRGBA(img), nil
}

// ToRGBA converts img to *image.RGBA anchored at the origin.
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) {
		return rgba
	}
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}
