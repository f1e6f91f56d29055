package clock

import (
	"sort"
	"sync"
	"time"
)

// Callback runs once per tick with the tick timestamp.
type Callback func(now time.Time)

// Handle identifies a scheduled callback.
type Handle uint64

// Scheduler runs callbacks repeatedly, nominally once per display refresh.
type Scheduler interface {
	Schedule(cb Callback) Handle
	Cancel(h Handle)
}

// Registry keeps scheduled callbacks for schedulers driven by an outer
// loop. Fire must be called from that loop only.
type Registry struct {
	mu    sync.Mutex
	next  Handle
	items map[Handle]Callback
}

func (r *Registry) Schedule(cb Callback) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.items == nil {
		r.items = make(map[Handle]Callback)
	}
	r.next++
	r.items[r.next] = cb
	return r.next
}

func (r *Registry) Cancel(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, h)
}

// Len returns the number of scheduled callbacks.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Fire runs every scheduled callback once, in scheduling order.
func (r *Registry) Fire(now time.Time) {
	r.mu.Lock()
	handles := make([]Handle, 0, len(r.items))
	for h := range r.items {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	cbs := make([]Callback, 0, len(handles))
	for _, h := range handles {
		cbs = append(cbs, r.items[h])
	}
	r.mu.Unlock()

	for _, cb := range cbs {
		cb(now)
	}
}

// Manual is a scheduler advanced by hand with synthetic timestamps.
type Manual struct {
	Registry
	now time.Time
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the timestamp of the last tick.
func (m *Manual) Now() time.Time { return m.now }

// Advance moves time forward by d and fires one tick.
func (m *Manual) Advance(d time.Duration) {
	m.now = m.now.Add(d)
	m.Fire(m.now)
}

// Ticks fires n ticks spaced by d.
func (m *Manual) Ticks(n int, d time.Duration) {
	for i := 0; i < n; i++ {
		m.Advance(d)
	}
}
