package playback

import (
	"time"

	"github.com/junsooki/FrameFade/internal/render"
)

// Controller owns the playback state and mediates pause and index changes.
//
// Controller is not safe for concurrent use; it belongs to the render tick.
type Controller struct {
	state State
	// compensate shifts the transition start by the paused time on resume.
	compensate bool
	pausedAt   time.Time
	now        func() time.Time

	// OnCommit runs after every committed transition with the new index.
	OnCommit func(index int)
}

type Option func(*Controller)

// WithResumeCompensation makes a resumed transition continue where it
// paused instead of jumping ahead by the paused time.
func WithResumeCompensation(on bool) Option {
	return func(c *Controller) { c.compensate = on }
}

// WithClock sets the time source used by TogglePause.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func NewController(d time.Duration, opts ...Option) *Controller {
	c := &Controller{state: NewState(d), now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Tick advances playback and returns this tick's draw commands. A commit
// is applied through AdvanceOnCommit.
func (c *Controller) Tick(now time.Time, length int) []render.Command {
	next, cmds, commit := Tick(c.state, now, length)
	if commit.Done {
		next.Index = c.state.Index
	}
	c.state = next
	if commit.Done {
		c.AdvanceOnCommit(commit.Index)
	}
	return cmds
}

// AdvanceOnCommit makes index the visible frame and notifies OnCommit. It
// is the only place the controller changes the index.
func (c *Controller) AdvanceOnCommit(index int) {
	c.state.Index = index
	if c.OnCommit != nil {
		c.OnCommit(index)
	}
}

// TogglePause flips the paused flag and returns the new value.
func (c *Controller) TogglePause() bool {
	now := c.now()
	if !c.state.Paused {
		c.state.Paused = true
		c.pausedAt = now
		return true
	}
	c.state.Paused = false
	if c.compensate && !c.state.Start.IsZero() && !c.pausedAt.IsZero() {
		c.state.Start = c.state.Start.Add(now.Sub(c.pausedAt))
	}
	c.pausedAt = time.Time{}
	return false
}

func (c *Controller) Paused() bool { return c.state.Paused }

func (c *Controller) CurrentIndex() int { return c.state.Index }

func (c *Controller) State() State { return c.state }

// Reset returns to index 0 with a fresh transition, keeping the pause flag.
func (c *Controller) Reset() {
	paused := c.state.Paused
	c.state = NewState(c.state.Duration)
	c.state.Paused = paused
}
