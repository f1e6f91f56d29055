package clock

import (
	"testing"
	"time"
)

func TestManualScheduler(t *testing.T) {
	start := time.Unix(1000, 0)
	m := NewManual(start)

	var order []string
	var last time.Time
	a := m.Schedule(func(now time.Time) { order = append(order, "a"); last = now })
	m.Schedule(func(time.Time) { order = append(order, "b") })

	m.Advance(16 * time.Millisecond)
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("order = %v", order)
	}
	if !last.Equal(start.Add(16 * time.Millisecond)) {
		t.Errorf("tick time = %v", last)
	}

	m.Cancel(a)
	m.Ticks(3, time.Millisecond)
	if len(order) != 5 {
		t.Errorf("calls after cancel = %v", order)
	}
	if m.Len() != 1 {
		t.Errorf("len = %d, want 1", m.Len())
	}
}

func TestCancelDuringFire(t *testing.T) {
	m := NewManual(time.Time{})
	var h Handle
	calls := 0
	h = m.Schedule(func(time.Time) { calls++; m.Cancel(h) })
	m.Ticks(3, time.Millisecond)
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
