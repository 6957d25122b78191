// Package postgres implements the storage.Backend interface on PostgreSQL.
// Writes go through the shared GORM backend; this package owns the
// connection, including the fallback to a local SQLite file when the
// server cannot be reached.
package postgres

import (
	"fmt"
	"log/slog"

	"github.com/hololab/tabletop4d/internal/database"
	gormstorage "github.com/hololab/tabletop4d/internal/storage/gorm"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Dependencies holds all dependencies for the Postgres storage backend.
type Dependencies struct {
	DB           *gorm.DB // injected connection, skips dialing
	Logger       *slog.Logger
	DBLogger     zerolog.Logger
	FallbackPath string // SQLite file used when Postgres is down
}

// Backend implements storage.Backend on PostgreSQL.
type Backend struct {
	*gormstorage.Backend
	deps    Dependencies
	manager *database.Manager
}

// New creates a new Postgres storage backend.
func New(deps Dependencies) *Backend {
	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{DB: deps.DB, Logger: deps.Logger}),
		deps:    deps,
	}
}

// Init connects (unless a DB was injected), migrates and starts the writer.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		m := database.NewManager(b.deps.DBLogger)
		m.SqliteFilePath = b.deps.FallbackPath
		if err := m.Connect(); err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		b.manager = m
		b.SetDB(m.DB)
	}
	return b.Backend.Init()
}

// Local reports whether writes went to the SQLite fallback.
func (b *Backend) Local() bool {
	return b.manager != nil && b.manager.ShouldSaveLocal
}

// ExportedFilePath returns the SQLite fallback file when it is in use.
func (b *Backend) ExportedFilePath() string {
	if b.Local() {
		return b.manager.SqliteFilePath
	}
	return ""
}
