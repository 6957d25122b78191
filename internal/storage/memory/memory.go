// internal/storage/memory/memory.go
package memory

import (
	"sync"
	"time"

	"github.com/hololab/tabletop4d/internal/config"
	"github.com/hololab/tabletop4d/pkg/core"
)

// Backend stores match data in memory and exports to JSON
type Backend struct {
	cfg     config.MemoryConfig
	match   *core.Match
	endTime time.Time

	turns    []core.TurnEvent
	captures []core.CaptureEvent
	syncs    []core.SyncEvent

	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg: cfg,
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartMatch begins recording a new match, discarding anything recorded before
func (b *Backend) StartMatch(m *core.Match) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.match = m
	b.endTime = time.Time{}
	b.turns = nil
	b.captures = nil
	b.syncs = nil
	b.lastExportPath = ""
	return nil
}

// EndMatch finalizes and exports the match data
func (b *Backend) EndMatch() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.match == nil {
		return nil
	}
	b.endTime = time.Now()
	return b.exportJSON()
}

// RecordTurn appends a turn
func (b *Backend) RecordTurn(e *core.TurnEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.turns = append(b.turns, *e)
	return nil
}

// RecordCapture appends a capture
func (b *Backend) RecordCapture(e *core.CaptureEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.captures = append(b.captures, *e)
	return nil
}

// RecordSync appends a giant sync
func (b *Backend) RecordSync(e *core.SyncEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.syncs = append(b.syncs, *e)
	return nil
}

// Turns returns a copy of the recorded turns.
func (b *Backend) Turns() []core.TurnEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]core.TurnEvent, len(b.turns))
	copy(out, b.turns)
	return out
}

// Captures returns a copy of the recorded captures.
func (b *Backend) Captures() []core.CaptureEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]core.CaptureEvent, len(b.captures))
	copy(out, b.captures)
	return out
}

// ExportedFilePath returns the path of the last export, empty before EndMatch
func (b *Backend) ExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}
