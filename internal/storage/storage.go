// internal/storage/storage.go
package storage

import "github.com/hololab/tabletop4d/pkg/core"

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Match management
	StartMatch(match *core.Match) error
	EndMatch() error

	// Event recording
	RecordTurn(e *core.TurnEvent) error
	RecordCapture(e *core.CaptureEvent) error
	RecordSync(e *core.SyncEvent) error
}

// Exportable is an optional interface for backends that write a file
// when the match ends.
type Exportable interface {
	ExportedFilePath() string
}
