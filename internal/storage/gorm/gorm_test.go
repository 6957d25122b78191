package gormstorage

import (
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

// newTestBackend creates a Backend with no DB (queue-only mode for unit testing).
func newTestBackend() *Backend {
	return New(Dependencies{FlushInterval: time.Hour})
}

// newDBBackend creates a Backend on a throwaway SQLite file.
func newDBBackend(t *testing.T) *Backend {
	t.Helper()
	db, err := database.GetSqliteDBStandalone(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	b := New(Dependencies{DB: db, FlushInterval: time.Hour})
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func testMatch() *core.Match {
	return &core.Match{
		Name:      "demo",
		StartTime: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Seed:      7,
		FirstSide: "Red",
		Pieces: []core.PieceInfo{
			{Board: "mini", Name: "Red_Healer", Type: "Healer", Team: "Red", Coord: core.Coord{X: 4, Y: 0}, Paired: true},
			{Board: "giant", Name: "Red_Healer", Type: "Healer", Team: "Red", Coord: core.Coord{X: 4, Y: 0}, Paired: true},
		},
	}
}

// Compile-time interface check
var _ storage.Backend = (*Backend)(nil)

func TestInitClose(t *testing.T) {
	b := newTestBackend()

	require.NoError(t, b.Init())
	require.NotNil(t, b.queues)
	require.NotNil(t, b.stopChan)

	require.NoError(t, b.Close())
	// closing twice is harmless
	require.NoError(t, b.Close())
}

func TestClose_BeforeInit(t *testing.T) {
	assert.NoError(t, newTestBackend().Close())
}

func TestRecord_QueuesToInternalQueue(t *testing.T) {
	b := newTestBackend()
	require.NoError(t, b.Init())
	defer b.Close()

	require.NoError(t, b.RecordTurn(&core.TurnEvent{Turn: 1, Piece: "A"}))
	require.NoError(t, b.RecordCapture(&core.CaptureEvent{Turn: 1, Victim: "B"}))
	require.NoError(t, b.RecordSync(&core.SyncEvent{Turn: 1, Piece: "A"}))

	assert.Equal(t, 1, b.queues.Turns.Len())
	assert.Equal(t, 1, b.queues.Captures.Len())
	assert.Equal(t, 1, b.queues.Syncs.Len())
}

func TestStartMatch_NoDB_NoError(t *testing.T) {
	b := newTestBackend()
	require.NoError(t, b.Init())
	defer b.Close()

	m := testMatch()
	require.NoError(t, b.StartMatch(m))
	assert.Equal(t, uint(0), m.ID)
	require.NoError(t, b.EndMatch())
}

func TestStartMatch_AssignsID(t *testing.T) {
	b := newDBBackend(t)

	m := testMatch()
	require.NoError(t, b.StartMatch(m))
	assert.NotZero(t, m.ID)
	assert.Equal(t, m.ID, b.MatchID())

	var pieces int64
	require.NoError(t, b.DB().Model(&model.MatchPiece{}).Where("match_id = ?", m.ID).Count(&pieces).Error)
	assert.Equal(t, int64(2), pieces)
}

func TestFlush_StampsMatchID(t *testing.T) {
	b := newDBBackend(t)
	m := testMatch()
	require.NoError(t, b.StartMatch(m))

	require.NoError(t, b.RecordTurn(&core.TurnEvent{Turn: 2, Side: "Blue", Piece: "B", Board: []string{"....."}}))
	require.NoError(t, b.RecordTurn(&core.TurnEvent{Turn: 1, Side: "Red", Piece: "A", To: core.Coord{X: 1, Y: 1}}))
	require.NoError(t, b.RecordCapture(&core.CaptureEvent{Turn: 2, Victim: "A", GiantRemoved: true}))
	require.NoError(t, b.RecordSync(&core.SyncEvent{Turn: 1, Piece: "A", Position: core.Position3D{X: 22, Y: 2}}))
	require.NoError(t, b.Flush())

	assert.True(t, b.queues.Turns.Empty())

	turns, err := b.Turns(m.ID)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, uint(1), turns[0].Turn)
	assert.Equal(t, core.Coord{X: 1, Y: 1}, turns[0].To)
	assert.Equal(t, m.ID, turns[1].MatchID)
	assert.Equal(t, []string{"....."}, turns[1].Board)

	var captures []model.Capture
	require.NoError(t, b.DB().Where("match_id = ?", m.ID).Find(&captures).Error)
	require.Len(t, captures, 1)
	assert.True(t, captures[0].GiantRemoved)

	var syncs int64
	require.NoError(t, b.DB().Model(&model.Sync{}).Where("match_id = ?", m.ID).Count(&syncs).Error)
	assert.Equal(t, int64(1), syncs)
}

func TestEndMatch_SetsEndTime(t *testing.T) {
	b := newDBBackend(t)
	m := testMatch()
	require.NoError(t, b.StartMatch(m))
	require.NoError(t, b.RecordTurn(&core.TurnEvent{Turn: 1}))

	require.NoError(t, b.EndMatch())

	var stored model.Match
	require.NoError(t, b.DB().First(&stored, m.ID).Error)
	assert.True(t, stored.EndTime.Valid)

	var turns int64
	require.NoError(t, b.DB().Model(&model.Turn{}).Where("match_id = ?", m.ID).Count(&turns).Error)
	assert.Equal(t, int64(1), turns)
}

func TestTurns_NoDB(t *testing.T) {
	b := newTestBackend()
	turns, err := b.Turns(1)
	require.NoError(t, err)
	assert.Nil(t, turns)
}
