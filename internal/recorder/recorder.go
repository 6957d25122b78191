// Package recorder buffers match events raised by the session and hands
// them to the storage backend and, when enabled, to InfluxDB.
//
// Events are queued as they happen and written out in batches by a task on
// the scheduler, so the turn loop never waits on storage.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/hololab/tabletop4d/internal/influx"
	"github.com/hololab/tabletop4d/internal/queue"
	"github.com/hololab/tabletop4d/internal/storage"
	"github.com/hololab/tabletop4d/pkg/core"
)

// DefaultFlushDelay is how long events sit in the queue before a flush.
const DefaultFlushDelay = 250 * time.Millisecond

// PointWriter receives time-series points.
type PointWriter interface {
	WritePoint(ctx context.Context, point *influxdb2_write.Point) error
}

// Delayer schedules a callback after a delay.
type Delayer interface {
	After(d time.Duration, name string, fn func())
}

// Dependencies holds the recorder collaborators.
type Dependencies struct {
	Storage    storage.Backend
	Points     PointWriter // optional
	Scheduler  Delayer
	Logger     *slog.Logger
	FlushDelay time.Duration
}

type event struct {
	turn    *core.TurnEvent
	capture *core.CaptureEvent
	sync    *core.SyncEvent
}

// Recorder is a write-behind buffer in front of storage.
type Recorder struct {
	deps Dependencies
	log  *slog.Logger

	pending *queue.Queue[event]

	mu        sync.Mutex
	matchID   uint
	scheduled bool
	active    bool
}

// New creates a recorder.
func New(deps Dependencies) *Recorder {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.FlushDelay <= 0 {
		deps.FlushDelay = DefaultFlushDelay
	}
	return &Recorder{
		deps:    deps,
		log:     deps.Logger.With("component", "recorder"),
		pending: queue.New[event](),
	}
}

// StartMatch opens the match in storage. The ID assigned by storage is
// stamped on every later event.
func (r *Recorder) StartMatch(m *core.Match) error {
	if err := r.deps.Storage.StartMatch(m); err != nil {
		return fmt.Errorf("start match: %w", err)
	}
	r.mu.Lock()
	r.matchID = m.ID
	r.active = true
	r.mu.Unlock()
	r.log.Info("Match recording started", "match", m.Name, "id", m.ID)
	return nil
}

// EndMatch writes everything still queued and closes the match.
func (r *Recorder) EndMatch() error {
	r.mu.Lock()
	active := r.active
	r.active = false
	r.mu.Unlock()
	if !active {
		return nil
	}
	err := r.Flush()
	if endErr := r.deps.Storage.EndMatch(); endErr != nil {
		err = errors.Join(err, fmt.Errorf("end match: %w", endErr))
	}
	if exp, ok := r.deps.Storage.(storage.Exportable); ok && exp.ExportedFilePath() != "" {
		r.log.Info("Match exported", "path", exp.ExportedFilePath())
	}
	return err
}

// MatchID returns the ID of the match being recorded.
func (r *Recorder) MatchID() uint {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.matchID
}

// Pending returns the number of queued events.
func (r *Recorder) Pending() int { return r.pending.Len() }

func (r *Recorder) RecordTurn(e *core.TurnEvent) error {
	r.enqueue(event{turn: e})
	return nil
}

func (r *Recorder) RecordCapture(e *core.CaptureEvent) error {
	r.enqueue(event{capture: e})
	return nil
}

func (r *Recorder) RecordSync(e *core.SyncEvent) error {
	r.enqueue(event{sync: e})
	return nil
}

func (r *Recorder) enqueue(ev event) {
	r.pending.Push(ev)

	r.mu.Lock()
	if r.scheduled || r.deps.Scheduler == nil {
		r.mu.Unlock()
		return
	}
	r.scheduled = true
	r.mu.Unlock()

	r.deps.Scheduler.After(r.deps.FlushDelay, "recorder:flush", func() {
		r.mu.Lock()
		r.scheduled = false
		r.mu.Unlock()
		if err := r.Flush(); err != nil {
			r.log.Error("Failed to flush match events", "error", err)
		}
	})
}

// Flush writes every queued event. Events the storage rejects are dropped
// and reported in the returned error.
func (r *Recorder) Flush() error {
	events := r.pending.GetAndEmpty()
	if len(events) == 0 {
		return nil
	}
	matchID := r.MatchID()
	ctx := context.Background()

	var errs []error
	for _, ev := range events {
		var point *influxdb2_write.Point
		var err error
		switch {
		case ev.turn != nil:
			ev.turn.MatchID = matchID
			err = r.deps.Storage.RecordTurn(ev.turn)
			point = influx.TurnPoint(ev.turn)
		case ev.capture != nil:
			ev.capture.MatchID = matchID
			err = r.deps.Storage.RecordCapture(ev.capture)
			point = influx.CapturePoint(ev.capture)
		case ev.sync != nil:
			ev.sync.MatchID = matchID
			err = r.deps.Storage.RecordSync(ev.sync)
			point = influx.SyncPoint(ev.sync)
		}
		if err != nil {
			errs = append(errs, err)
		}
		if r.deps.Points != nil && point != nil {
			if err := r.deps.Points.WritePoint(ctx, point); err != nil {
				errs = append(errs, fmt.Errorf("write point: %w", err))
			}
		}
	}
	r.log.Debug("Flushed match events", "count", len(events))
	return errors.Join(errs...)
}
