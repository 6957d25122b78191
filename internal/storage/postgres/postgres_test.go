package postgres

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/hololab/tabletop4d/internal/database"
	"github.com/hololab/tabletop4d/internal/model"
	"github.com/hololab/tabletop4d/internal/storage"
	"github.com/hololab/tabletop4d/pkg/core"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time interface checks
var (
	_ storage.Backend    = (*Backend)(nil)
	_ storage.Exportable = (*Backend)(nil)
)

func TestInit_InjectedDB(t *testing.T) {
	db, err := database.GetSqliteDBStandalone(filepath.Join(t.TempDir(), "pg.db"))
	require.NoError(t, err)

	b := New(Dependencies{DB: db, DBLogger: zerolog.Nop()})
	require.NoError(t, b.Init())
	defer b.Close()

	assert.False(t, b.Local())
	assert.Empty(t, b.ExportedFilePath())

	m := &core.Match{Name: "injected", StartTime: time.Now()}
	require.NoError(t, b.StartMatch(m))
	require.NoError(t, b.RecordCapture(&core.CaptureEvent{Turn: 1, Victim: "Blue_Bomber"}))
	require.NoError(t, b.EndMatch())

	var n int64
	require.NoError(t, db.Model(&model.Capture{}).Where("match_id = ?", m.ID).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestInit_FallsBackToSqlite(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("db.host", "127.0.0.1")
	viper.Set("db.port", "1")

	path := filepath.Join(t.TempDir(), "fallback.db")
	b := New(Dependencies{DBLogger: zerolog.Nop(), FallbackPath: path})
	require.NoError(t, b.Init())
	defer b.Close()

	assert.True(t, b.Local())
	assert.Equal(t, path, b.ExportedFilePath())
	assert.True(t, b.DB().Migrator().HasTable(&model.Match{}))
}
