package render

import (
	"image"
	"math"
)

// Placement is where a scaled image lands on a destination surface.
type Placement struct {
	X, Y float64
	W, H float64
}

// Empty reports whether nothing would be drawn.
func (p Placement) Empty() bool { return p.W <= 0 || p.H <= 0 }

// Scale returns the uniform scale factor for an image of width imgW.
func (p Placement) Scale(imgW float64) float64 {
	if imgW <= 0 {
		return 0
	}
	return p.W / imgW
}

// Rect returns the smallest integer rectangle containing the placement.
func (p Placement) Rect() image.Rectangle {
	return image.Rect(
		int(math.Floor(p.X)), int(math.Floor(p.Y)),
		int(math.Ceil(p.X+p.W)), int(math.Ceil(p.Y+p.H)),
	)
}

// CoverFit scales an image to fill the destination without gaps, keeping
// its aspect ratio and centering the overflow of the longer dimension.
func CoverFit(imgW, imgH, dstW, dstH float64) Placement {
	if imgW <= 0 || imgH <= 0 || dstW <= 0 || dstH <= 0 {
		return Placement{}
	}
	arImg := imgW / imgH
	arDst := dstW / dstH
	if arImg > arDst {
		w := dstH * arImg
		return Placement{X: -(w - dstW) / 2, W: w, H: dstH}
	}
	h := dstW / arImg
	return Placement{Y: -(h - dstH) / 2, W: dstW, H: h}
}
