package caption

import (
	"time"

	"github.com/junsooki/FrameFade/internal/frame"
)

// Mode selects how captions follow frames.
type Mode int

const (
	// Live captions arrive on their own and replace whatever is shown.
	Live Mode = iota
	// Preloaded captions travel with their frame and change on commit.
	Preloaded
)

func (m Mode) String() string {
	if m == Preloaded {
		return "preloaded"
	}
	return "live"
}

// Caption is the text currently shown next to the frames.
type Caption struct {
	Text string
	// Ref names the frame the text describes when it is known.
	Ref string
	// RequestID is the id of the explain request that produced the text.
	RequestID string
	Updated   time.Time
}

// Channel holds the caption state. It is owned by the render tick.
type Channel struct {
	mode    Mode
	current Caption
	now     func() time.Time
}

func NewChannel(mode Mode) *Channel {
	return &Channel{mode: mode, now: time.Now}
}

func (c *Channel) Mode() Mode { return c.mode }

// Deliver overwrites the caption with a live result. The text may describe
// a frame that has already scrolled out of view. Preloaded channels ignore
// live results and report false.
func (c *Channel) Deliver(text, ref, requestID string) bool {
	if c.mode != Live {
		return false
	}
	c.current = Caption{Text: text, Ref: ref, RequestID: requestID, Updated: c.now()}
	return true
}

// Commit publishes the caption paired with a frame that just became the
// visible one. Live channels keep their text and report false.
func (c *Channel) Commit(f *frame.Frame) bool {
	if c.mode != Preloaded || f == nil {
		return false
	}
	c.current = Caption{Text: f.Caption, Ref: f.SourceRef, Updated: c.now()}
	return true
}

func (c *Channel) Text() string { return c.current.Text }

func (c *Channel) Snapshot() Caption { return c.current }

// Clear drops the caption.
func (c *Channel) Clear() { c.current = Caption{} }
