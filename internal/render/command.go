package render

import "time"

// Layer names one of the two stacked surfaces.
type Layer int

const (
	// LayerBase is the lower surface, always drawn fully opaque.
	LayerBase Layer = iota
	// LayerOverlay is the upper surface carrying the fading-in frame.
	LayerOverlay
)

func (l Layer) String() string {
	if l == LayerOverlay {
		return "overlay"
	}
	return "base"
}

// Command asks a surface to draw the frame at a ring buffer index.
type Command struct {
	Layer Layer
	Index int
	Alpha float64
}

// Alpha returns the crossfade progress for elapsed time, clamped to [0, 1].
func Alpha(elapsed, duration time.Duration) float64 {
	if duration <= 0 {
		return 1
	}
	a := float64(elapsed) / float64(duration)
	switch {
	case a < 0:
		return 0
	case a > 1:
		return 1
	}
	return a
}
