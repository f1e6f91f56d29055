package render

import "github.com/junsooki/FrameFade/internal/frame"

// Resolver maps a command index to a frame.
type Resolver func(index int) (*frame.Frame, bool)

// Compose clears both surfaces and paints the commands on them, each frame
// cover-fitted to its surface.
func Compose(base, overlay Surface, cmds []Command, resolve Resolver) {
	base.Clear()
	overlay.Clear()
	for _, cmd := range cmds {
		f, ok := resolve(cmd.Index)
		if !ok {
			continue
		}
		s := base
		if cmd.Layer == LayerOverlay {
			s = overlay
		}
		w, h := s.Size()
		s.DrawFrame(f, CoverFit(float64(f.Width), float64(f.Height), float64(w), float64(h)), cmd.Alpha)
	}
}
