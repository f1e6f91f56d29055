package ingest

import "sync/atomic"

// Generation tags asynchronous results so that work finishing after a
// teardown or reset can be recognized and ignored.
type Generation struct {
	v atomic.Uint64
}

func (g *Generation) Current() uint64 { return g.v.Load() }

// Advance invalidates every result stamped with an earlier generation.
func (g *Generation) Advance() uint64 { return g.v.Add(1) }

// Valid reports whether a result stamped with gen is still current.
func (g *Generation) Valid(gen uint64) bool { return gen == g.v.Load() }
