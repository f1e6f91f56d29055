package ring

import (
	"errors"
	"fmt"
	"image"
	"testing"

	"github.com/junsooki/FrameFade/internal/frame"
)

func frames(n int) []*frame.Frame {
	out := make([]*frame.Frame, n)
	for i := range out {
		out[i] = frame.New(image.NewRGBA(image.Rect(0, 0, 2, 2)), fmt.Sprintf("F%d", i))
	}
	return out
}

func TestPushLength(t *testing.T) {
	tests := []struct {
		capacity int
		pushes   int
	}{
		{capacity: 4, pushes: 0},
		{capacity: 4, pushes: 3},
		{capacity: 4, pushes: 4},
		{capacity: 4, pushes: 9},
		{capacity: 1, pushes: 5},
		{capacity: 300, pushes: 301},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("cap=%d/n=%d", tt.capacity, tt.pushes), func(t *testing.T) {
			b := New(tt.capacity)
			in := frames(tt.pushes)
			for _, f := range in {
				if _, err := b.Push(f); err != nil {
					t.Fatalf("push: %v", err)
				}
			}
			want := min(tt.pushes, tt.capacity)
			if b.Len() != want {
				t.Fatalf("len = %d, want %d", b.Len(), want)
			}
			got := b.Frames()
			tail := in[len(in)-want:]
			for i := range got {
				if got[i] != tail[i] {
					t.Errorf("frame %d = %s, want %s", i, got[i].SourceRef, tail[i].SourceRef)
				}
			}
		})
	}
}

func TestEvictionScenario(t *testing.T) {
	b := New(4)
	in := frames(6)
	var evicted []*frame.Frame
	for _, f := range in {
		e, err := b.Push(f)
		if err != nil {
			t.Fatalf("push: %v", err)
		}
		if e != nil {
			evicted = append(evicted, e)
		}
	}
	if len(evicted) != 2 || evicted[0] != in[0] || evicted[1] != in[1] {
		t.Fatalf("evicted %v, want F0 and F1", evicted)
	}
	if f, ok := b.Get(0); !ok || f != in[2] {
		t.Fatalf("get(0) = %v, want F2", f)
	}
	for i, f := range b.Frames() {
		if f != in[i+2] {
			t.Errorf("slot %d = %s, want %s", i, f.SourceRef, in[i+2].SourceRef)
		}
	}
}

func TestGetWraps(t *testing.T) {
	b := New(8)
	for _, f := range frames(5) {
		_, _ = b.Push(f)
	}
	l := b.Len()
	for i := -12; i < 12; i++ {
		a, _ := b.Get(i)
		c, _ := b.Get(i + l)
		if a != c {
			t.Errorf("get(%d) != get(%d)", i, i+l)
		}
	}
}

func TestGetEmpty(t *testing.T) {
	b := New(3)
	if f, ok := b.Get(7); ok || f != nil {
		t.Fatalf("expected empty result, got %v", f)
	}
}

func TestPushNil(t *testing.T) {
	b := New(3)
	if _, err := b.Push(nil); !errors.Is(err, ErrNilFrame) {
		t.Fatalf("err = %v, want ErrNilFrame", err)
	}
	if b.Len() != 0 {
		t.Fatalf("nil push changed length to %d", b.Len())
	}
}

func TestReset(t *testing.T) {
	b := New(2)
	for _, f := range frames(3) {
		_, _ = b.Push(f)
	}
	b.Reset()
	if b.Len() != 0 || b.Cap() != 2 {
		t.Fatalf("after reset len=%d cap=%d", b.Len(), b.Cap())
	}
}
