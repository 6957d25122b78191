package recorder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hololab/tabletop4d/internal/config"
	"github.com/hololab/tabletop4d/internal/scheduler"
	"github.com/hololab/tabletop4d/internal/storage/memory"
	"github.com/hololab/tabletop4d/pkg/core"
)

type fakePoints struct {
	points []*influxdb2_write.Point
	err    error
}

func (f *fakePoints) WritePoint(_ context.Context, p *influxdb2_write.Point) error {
	f.points = append(f.points, p)
	return f.err
}

func newScheduler(t *testing.T) *scheduler.Scheduler {
	t.Helper()
	s, err := scheduler.New(scheduler.NewManualClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)), nil)
	require.NoError(t, err)
	return s
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestRecorder_FlushesOnScheduler(t *testing.T) {
	sched := newScheduler(t)
	store := memory.New(config.MemoryConfig{})
	points := &fakePoints{}
	r := New(Dependencies{Storage: store, Points: points, Scheduler: sched, Logger: quiet()})

	m := &core.Match{ID: 9, Name: "demo"}
	require.NoError(t, r.StartMatch(m))
	assert.Equal(t, uint(9), r.MatchID())

	require.NoError(t, r.RecordTurn(&core.TurnEvent{Turn: 1, Piece: "A"}))
	require.NoError(t, r.RecordCapture(&core.CaptureEvent{Turn: 1, Victim: "B"}))
	require.NoError(t, r.RecordSync(&core.SyncEvent{Turn: 1, Piece: "A"}))
	assert.Equal(t, 3, r.Pending())
	assert.Empty(t, store.Turns(), "nothing written before the flush task runs")
	assert.Equal(t, 1, sched.Pending(), "one flush task for the batch")

	_, err := sched.Advance(DefaultFlushDelay)
	require.NoError(t, err)

	assert.Zero(t, r.Pending())
	require.Len(t, store.Turns(), 1)
	assert.Equal(t, uint(9), store.Turns()[0].MatchID)
	require.Len(t, store.Captures(), 1)
	assert.Equal(t, uint(9), store.Captures()[0].MatchID)
	assert.Len(t, points.points, 3)

	// a new event after the flush schedules another one
	require.NoError(t, r.RecordTurn(&core.TurnEvent{Turn: 2}))
	assert.Equal(t, 1, sched.Pending())
}

func TestRecorder_EndMatchFlushesAndExports(t *testing.T) {
	dir := t.TempDir()
	store := memory.New(config.MemoryConfig{OutputDir: dir})
	r := New(Dependencies{Storage: store, Logger: quiet()})

	require.NoError(t, r.StartMatch(&core.Match{Name: "final", StartTime: time.Now()}))
	require.NoError(t, r.RecordTurn(&core.TurnEvent{Turn: 1}))
	require.NoError(t, r.EndMatch())

	assert.Len(t, store.Turns(), 1)
	assert.NotEmpty(t, store.ExportedFilePath())
	assert.FileExists(t, store.ExportedFilePath())

	// second end is a no-op
	require.NoError(t, r.EndMatch())
}

func TestRecorder_PointErrorsAreReported(t *testing.T) {
	store := memory.New(config.MemoryConfig{})
	points := &fakePoints{err: errors.New("influx down")}
	r := New(Dependencies{Storage: store, Points: points, Logger: quiet()})
	require.NoError(t, r.StartMatch(&core.Match{}))

	require.NoError(t, r.RecordTurn(&core.TurnEvent{Turn: 1}))
	err := r.Flush()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "influx down")
	assert.Len(t, store.Turns(), 1, "storage still receives the event")
}

func TestRecorder_FlushEmpty(t *testing.T) {
	r := New(Dependencies{Storage: memory.New(config.MemoryConfig{})})
	assert.NoError(t, r.Flush())
	assert.NoError(t, r.EndMatch(), "no match started")
}
