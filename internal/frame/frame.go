package frame

import "image"

// Frame is a decoded image ready for display.
//
// SourceRef keeps the reference the frame was loaded from (a file URL, a
// remote URL or empty for inline data) so later actions such as caption
// requests can name the frame without touching the bitmap.
type Frame struct {
	Image     *image.RGBA
	Width     int
	Height    int
	SourceRef string
	Caption   string
}

// New wraps a decoded image.
func New(img *image.RGBA, sourceRef string) *Frame {
	f := &Frame{Image: img, SourceRef: sourceRef}
	if img != nil {
		f.Width = img.Bounds().Dx()
		f.Height = img.Bounds().Dy()
	}
	return f
}

// AspectRatio returns width/height, or 0 for an empty frame.
func (f *Frame) AspectRatio() float64 {
	if f == nil || f.Height == 0 {
		return 0
	}
	return float64(f.Width) / float64(f.Height)
}
