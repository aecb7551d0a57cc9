// Package idgen hands out record identifiers derived from the wall clock.
package idgen

import (
	"sync"
	"time"
)

// Generator produces strictly increasing ids: the current Unix time in milliseconds,
// bumped past the previous value when calls land in the same millisecond.
type Generator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// New creates a generator backed by time.Now.
func New() *Generator {
	return &Generator{now: time.Now}
}

// NewWithClock creates a generator backed by the given clock.
func NewWithClock(now func() time.Time) *Generator {
	return &Generator{now: now}
}

// Next returns a fresh id greater than every id returned before.
func (g *Generator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id

	return id
}
