package playback

import (
	"time"

	"github.com/junsooki/FrameFade/internal/render"
	"github.com/junsooki/FrameFade/internal/ring"
)

// DefaultDuration is the length of one crossfade.
const DefaultDuration = 2000 * time.Millisecond

// State is the playback record threaded through every tick.
type State struct {
	Paused bool
	// Index is the logical ring index of the fully visible frame.
	Index int
	// Start is when the current transition began. The zero value means the
	// next tick starts a new transition.
	Start    time.Time
	Duration time.Duration
}

// NewState returns a running state at index 0.
func NewState(d time.Duration) State {
	if d <= 0 {
		d = DefaultDuration
	}
	return State{Duration: d}
}

// Commit reports a finished transition.
type Commit struct {
	Done bool
	// Index is the ring index that became the visible frame.
	Index int
}

// Tick advances s to now for a buffer holding length frames.
//
// It returns the next state, the draw commands for this tick and whether a
// transition committed. A paused state or an empty buffer is returned
// unchanged with no commands.
func Tick(s State, now time.Time, length int) (State, []render.Command, Commit) {
	if s.Paused || length <= 0 {
		return s, nil, Commit{}
	}
	if s.Start.IsZero() {
		s.Start = now
	}
	alpha := render.Alpha(now.Sub(s.Start), s.Duration)
	i1 := ring.Wrap(s.Index, length)
	i2 := ring.Wrap(s.Index+1, length)
	cmds := []render.Command{
		{Layer: render.LayerBase, Index: i1, Alpha: 1},
		{Layer: render.LayerOverlay, Index: i2, Alpha: alpha},
	}
	if alpha < 1 {
		return s, cmds, Commit{}
	}
	s.Index = i2
	s.Start = now
	return s, cmds, Commit{Done: true, Index: i2}
}

// Alpha returns the transition progress of s at now without changing it.
func (s State) Alpha(now time.Time) float64 {
	if s.Start.IsZero() {
		return 0
	}
	return render.Alpha(now.Sub(s.Start), s.Duration)
}
