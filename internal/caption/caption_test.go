package caption

import (
	"testing"

	"github.com/junsooki/FrameFade/internal/frame"
)

func TestLiveOverwrite(t *testing.T) {
	c := NewChannel(Live)
	if !c.Deliver("first", "a.jpg", "1") {
		t.Fatal("live delivery rejected")
	}
	c.Deliver("second", "", "")
	if got := c.Text(); got != "second" {
		t.Errorf("text = %q, want second", got)
	}
	if c.Snapshot().Ref != "" {
		t.Errorf("ref should be overwritten too: %+v", c.Snapshot())
	}
	if c.Commit(&frame.Frame{Caption: "ignored"}) {
		t.Errorf("live channel accepted a commit")
	}
	if c.Text() != "second" {
		t.Errorf("commit changed live caption to %q", c.Text())
	}
}

func TestPreloadedCommit(t *testing.T) {
	c := NewChannel(Preloaded)
	if c.Deliver("stray", "", "") {
		t.Errorf("preloaded channel accepted a live result")
	}
	c.Commit(&frame.Frame{Caption: "beach", SourceRef: "frame_000002.jpg"})
	snap := c.Snapshot()
	if snap.Text != "beach" || snap.Ref != "frame_000002.jpg" {
		t.Errorf("snapshot = %+v", snap)
	}
	c.Commit(&frame.Frame{})
	if c.Text() != "" {
		t.Errorf("empty metadata should clear the caption, got %q", c.Text())
	}
}
