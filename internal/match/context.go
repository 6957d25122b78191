// Package match tracks the match currently being played.
package match

import (
	"sync"
	"time"

	"github.com/hololab/tabletop4d/pkg/core"
)

// Context holds the current match and its end time.
type Context struct {
	mu    sync.RWMutex
	match *core.Match
	ended time.Time
}

// NewContext creates a Context with a placeholder match.
func NewContext() *Context {
	return &Context{match: &core.Match{Name: "No match loaded"}}
}

// GetMatch returns the current match.
func (mc *Context) GetMatch() *core.Match {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.match
}

// SetMatch replaces the current match and clears its end time.
func (mc *Context) SetMatch(m *core.Match) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.match = m
	mc.ended = time.Time{}
}

// End stamps the end time of the current match.
func (mc *Context) End(at time.Time) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.ended = at
}

// Running reports whether a real match is loaded and has not ended.
func (mc *Context) Running() bool {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.match != nil && !mc.match.StartTime.IsZero() && mc.ended.IsZero()
}

// Duration returns how long the match has lasted, up to its end time.
func (mc *Context) Duration(now time.Time) time.Duration {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	if mc.match == nil || mc.match.StartTime.IsZero() {
		return 0
	}
	if !mc.ended.IsZero() {
		now = mc.ended
	}
	return now.Sub(mc.match.StartTime)
}
