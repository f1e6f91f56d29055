package display

import (
	"fmt"
	"strings"

	"github.com/junsooki/FrameFade/internal/frame"
	"github.com/junsooki/FrameFade/internal/player"
)

// Display renders the player and forwards user actions.
type Display interface {
	Run() error
}

// Source provides what to paint on each refresh.
type Source interface {
	Scene() player.Scene
	Frame(i int) (*frame.Frame, bool)
}

// Action is a user command bound to a key.
type Action int

const (
	ActionPause Action = iota
	ActionExplain
	ActionExport
	ActionQuit
)

func (a Action) String() string {
	switch a {
	case ActionPause:
		return "pause"
	case ActionExplain:
		return "explain"
	case ActionExport:
		return "export"
	case ActionQuit:
		return "quit"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

const help = "[Space] pause/resume\n[E] explain frame\n[S] save PNG\n[Esc] quit"

// sidebarText lays out the status panel.
func sidebarText(s player.Scene, capacity, width int) string {
	var b strings.Builder
	b.WriteString("FrameFade\n\n")
	fmt.Fprintf(&b, "Buffer: %d/%d\n", s.Buffered, capacity)
	if s.Buffered > 0 {
		fmt.Fprintf(&b, "Frame: %d\n", s.Index)
	}
	if s.Paused {
		b.WriteString("PAUSED\n")
	}
	if s.Caption.Text != "" {
		b.WriteString("\nCaption:\n")
		for _, line := range wrap(s.Caption.Text, width) {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	b.WriteString("\n")
	b.WriteString(help)
	return b.String()
}

func wrap(text string, width int) []string {
	var lines []string
	line := ""
	for _, w := range strings.Fields(text) {
		if line != "" && len(line)+1+len(w) > width {
			lines = append(lines, line)
			line = ""
		}
		if line != "" {
			line += " "
		}
		line += w
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}
