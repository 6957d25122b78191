package sqlitestorage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hololab/tabletop4d/internal/database"
	"github.com/hololab/tabletop4d/internal/model"
	"github.com/hololab/tabletop4d/internal/storage"
	"github.com/hololab/tabletop4d/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time interface checks
var (
	_ storage.Backend    = (*Backend)(nil)
	_ storage.Exportable = (*Backend)(nil)
)

func TestEndMatch_DumpsToDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "match.db")
	b, err := New(Config{DumpPath: path}, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())
	defer b.Close()

	m := &core.Match{Name: "sqlite-dump", StartTime: time.Now()}
	require.NoError(t, b.StartMatch(m))
	require.NoError(t, b.RecordTurn(&core.TurnEvent{Turn: 1, Piece: "A"}))
	require.NoError(t, b.EndMatch())

	assert.Equal(t, path, b.ExportedFilePath())
	_, err = os.Stat(path)
	require.NoError(t, err)

	disk, err := database.GetSqliteDBStandalone(path)
	require.NoError(t, err)
	var turns int64
	require.NoError(t, disk.Model(&model.Turn{}).Where("match_id = ?", m.ID).Count(&turns).Error)
	assert.Equal(t, int64(1), turns)
}

func TestDumpLoop_WritesPeriodically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "periodic.db")
	b, err := New(Config{DumpPath: path, DumpInterval: 20 * time.Millisecond}, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())
	defer b.Close()

	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
}

func TestDump_NoPath(t *testing.T) {
	b, err := New(Config{}, nil)
	require.NoError(t, err)
	assert.NoError(t, b.Dump())
	assert.Empty(t, b.ExportedFilePath())
}

func TestClose_Twice(t *testing.T) {
	b, err := New(Config{}, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
}
