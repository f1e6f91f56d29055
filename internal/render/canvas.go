package render

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/junsooki/FrameFade/internal/frame"
)

// Surface is a drawing target for frames.
type Surface interface {
	Size() (w, h int)
	Clear()
	// DrawFrame draws f at p with the given opacity. The opacity applies to
	// this call only.
	DrawFrame(f *frame.Frame, p Placement, alpha float64)
}

// Canvas is a software Surface backed by an RGBA image.
type Canvas struct {
	img    *image.RGBA
	layer  *image.RGBA
	scaler draw.Scaler
}

func NewCanvas(w, h int) *Canvas {
	r := image.Rect(0, 0, w, h)
	return &Canvas{img: image.NewRGBA(r), layer: image.NewRGBA(r), scaler: draw.ApproxBiLinear}
}

func (c *Canvas) Image() *image.RGBA { return c.img }

func (c *Canvas) Size() (int, int) { return c.img.Bounds().Dx(), c.img.Bounds().Dy() }

func (c *Canvas) Clear() { clear(c.img.Pix) }

func (c *Canvas) DrawFrame(f *frame.Frame, p Placement, alpha float64) {
	if f == nil || f.Image == nil || p.Empty() || alpha <= 0 {
		return
	}
	dr := p.Rect()
	if alpha >= 1 {
		c.scaler.Scale(c.img, dr, f.Image, f.Image.Bounds(), draw.Over, nil)
		return
	}
	clear(c.layer.Pix)
	c.scaler.Scale(c.layer, dr, f.Image, f.Image.Bounds(), draw.Src, nil)
	mask := image.NewUniform(color.Alpha16{A: uint16(alpha * 0xffff)})
	draw.DrawMask(c.img, c.img.Bounds(), c.layer, image.Point{}, mask, image.Point{}, draw.Over)
}

// Flatten returns a new image with the overlay canvas composited over c.
func (c *Canvas) Flatten(overlay *Canvas) *image.RGBA {
	out := image.NewRGBA(c.img.Bounds())
	draw.Draw(out, out.Bounds(), c.img, image.Point{}, draw.Src)
	if overlay != nil {
		draw.Draw(out, out.Bounds(), overlay.img, image.Point{}, draw.Over)
	}
	return out
}
