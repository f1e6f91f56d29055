package ring

import (
	"errors"

	"github.com/junsooki/FrameFade/internal/frame"
)

// DefaultCapacity is the number of frames kept when no capacity is configured.
const DefaultCapacity = 300

// ErrNilFrame is returned when pushing a nil frame.
var ErrNilFrame = errors.New("ring: nil frame")

// Buffer is a bounded FIFO of frames that evicts the oldest frame on overflow.
//
// Buffer is not safe for concurrent use; it is owned by the render tick.
type Buffer struct {
	frames []*frame.Frame
	head   int
	size   int
}

// New creates a buffer holding at most capacity frames.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{frames: make([]*frame.Frame, capacity)}
}

// Push appends f at the tail. When the buffer is full the head is removed
// first and returned as evicted.
func (b *Buffer) Push(f *frame.Frame) (evicted *frame.Frame, err error) {
	if f == nil {
		return nil, ErrNilFrame
	}
	c := len(b.frames)
	if b.size == c {
		evicted = b.frames[b.head]
		b.frames[b.head] = f
		b.head = (b.head + 1) % c
		return evicted, nil
	}
	b.frames[(b.head+b.size)%c] = f
	b.size++
	return nil, nil
}

// Get returns the frame at logical index i mod Len. Negative indexes wrap
// as well. The second value is false when the buffer is empty.
func (b *Buffer) Get(i int) (*frame.Frame, bool) {
	if b.size == 0 {
		return nil, false
	}
	return b.frames[(b.head+Wrap(i, b.size))%len(b.frames)], true
}

// Len returns the number of frames held.
func (b *Buffer) Len() int { return b.size }

// Cap returns the maximum number of frames held.
func (b *Buffer) Cap() int { return len(b.frames) }

// Frames returns a copy of the contents, oldest first.
func (b *Buffer) Frames() []*frame.Frame {
	out := make([]*frame.Frame, b.size)
	for i := range out {
		out[i] = b.frames[(b.head+i)%len(b.frames)]
	}
	return out
}

// Reset drops every frame.
func (b *Buffer) Reset() {
	clear(b.frames)
	b.head, b.size = 0, 0
}

// Wrap returns i mod n in the range [0, n).
func Wrap(i, n int) int {
	if n <= 0 {
		return 0
	}
	m := i % n
	if m < 0 {
		m += n
	}
	return m
}
