package database

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/hololab/tabletop4d/internal/model"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresDSN(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("db.host", "10.0.0.1")
	viper.Set("db.port", "5433")
	viper.Set("db.username", "u")
	viper.Set("db.password", "p")
	viper.Set("db.database", "tabletop")

	assert.Equal(t, "host=10.0.0.1 port=5433 user=u password=p dbname=tabletop sslmode=disable", PostgresDSN())
}

func TestGetSqliteDBStandalone_FileAndMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matches.db")
	db, err := GetSqliteDBStandalone(path)
	require.NoError(t, err)

	require.NoError(t, Migrate(db))
	for _, m := range model.DatabaseModels {
		assert.True(t, db.Migrator().HasTable(m))
	}
}

func TestDumpMemoryDBToDisk(t *testing.T) {
	db, err := GetSqliteDBStandalone("")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	require.NoError(t, db.Create(&model.Match{Name: "dump"}).Error)

	path := filepath.Join(t.TempDir(), "dump.db")
	require.NoError(t, DumpMemoryDBToDisk(db, path))
	// a second dump replaces the first
	require.NoError(t, DumpMemoryDBToDisk(db, path))

	_, err = os.Stat(path)
	require.NoError(t, err)

	disk, err := GetSqliteDBStandalone(path)
	require.NoError(t, err)
	var count int64
	require.NoError(t, disk.Model(&model.Match{}).Where("name = ?", "dump").Count(&count).Error)
	assert.GreaterOrEqual(t, count, int64(1))
}

func TestDumpMemoryDBToDisk_NoPath(t *testing.T) {
	err := DumpMemoryDBToDisk(nil, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path not set")
}

func TestManager_FallsBackToSqlite(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("db.host", "127.0.0.1")
	viper.Set("db.port", "1")

	var buf bytes.Buffer
	m := NewManager(zerolog.New(&buf))
	m.SqliteFilePath = filepath.Join(t.TempDir(), "fallback.db")

	require.NoError(t, m.Connect())
	assert.True(t, m.IsValid)
	assert.True(t, m.ShouldSaveLocal)
	require.NoError(t, m.Setup())
	assert.True(t, m.DB.Migrator().HasTable(&model.Turn{}))
	assert.Contains(t, buf.String(), "trying SQLite")
}

func TestManager_SetupWithoutConnect(t *testing.T) {
	m := NewManager(zerolog.Nop())
	assert.Error(t, m.Setup())
}
