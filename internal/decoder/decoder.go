// Package decoder turns encoded still images into RGBA bitmaps.
package decoder

import "image"

// Decoder decodes encoded image bytes into an RGBA bitmap.
//
// Implementations must be safe for concurrent use: ingestion runs several
// decodes at once.
type Decoder interface {
	Decode(data []byte) (*image.RGBA, error)
}

// Func adapts a function to the Decoder interface.
type Func func(data []byte) (*image.RGBA, error)

func (f Func) Decode(data []byte) (*image.RGBA, error) { return f(data) }
