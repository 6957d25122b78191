// Package gormstorage implements the storage.Backend interface on top of GORM
// with internal write queues drained by a background DB writer goroutine.
// Postgres and SQLite backends embed it and only differ in how the DB is
// opened and kept.
package gormstorage

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hololab/tabletop4d/internal/database"
	"github.com/hololab/tabletop4d/internal/model"
	"github.com/hololab/tabletop4d/internal/model/convert"
	"github.com/hololab/tabletop4d/internal/queue"
	"github.com/hololab/tabletop4d/pkg/core"

	"gorm.io/gorm"
)

// DefaultFlushInterval is how often the writer drains the queues.
const DefaultFlushInterval = time.Second

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB            *gorm.DB
	Logger        *slog.Logger
	FlushInterval time.Duration
}

// queues holds all the write queues for batch DB insertion.
type queues struct {
	Turns    *queue.Queue[model.Turn]
	Captures *queue.Queue[model.Capture]
	Syncs    *queue.Queue[model.Sync]
}

func newQueues() *queues {
	return &queues{
		Turns:    queue.New[model.Turn](),
		Captures: queue.New[model.Capture](),
		Syncs:    queue.New[model.Sync](),
	}
}

// Backend implements storage.Backend using GORM with queue-based batch writes.
type Backend struct {
	deps     Dependencies
	log      *slog.Logger
	queues   *queues
	matchID  atomic.Uint64
	writeMu  sync.Mutex
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = DefaultFlushInterval
	}
	return &Backend{
		deps: deps,
		log:  log.With("component", "storage.gorm"),
	}
}

// DB returns the underlying connection, nil in queue-only mode.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// SetDB injects the connection before Init.
func (b *Backend) SetDB(db *gorm.DB) {
	b.deps.DB = db
}

// Init creates internal queues, migrates the schema and starts the DB writer goroutine.
// With no DB the backend only queues, which is what the unit tests use.
func (b *Backend) Init() error {
	b.queues = newQueues()
	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})

	if b.deps.DB != nil {
		if err := database.Migrate(b.deps.DB); err != nil {
			return fmt.Errorf("failed to setup DB: %w", err)
		}
		b.log.Info("Database setup complete")
	}

	go b.writerLoop()
	return nil
}

// Close stops the DB writer goroutine after a final flush.
func (b *Backend) Close() error {
	if b.stopChan == nil {
		return nil
	}
	b.stopOnce.Do(func() {
		close(b.stopChan)
		<-b.done
	})
	return b.Flush()
}

// MatchID returns the ID of the match being recorded.
func (b *Backend) MatchID() uint {
	return uint(b.matchID.Load())
}

// StartMatch inserts the match and its lineup synchronously so the
// DB-assigned ID can be stamped on queued events.
func (b *Backend) StartMatch(m *core.Match) error {
	if b.deps.DB == nil {
		return nil
	}

	gormMatch := convert.CoreToMatch(*m)
	gormMatch.ID = 0
	if err := b.deps.DB.Create(&gormMatch).Error; err != nil {
		return fmt.Errorf("failed to insert new match: %w", err)
	}

	m.ID = gormMatch.ID
	b.matchID.Store(uint64(gormMatch.ID))
	b.log.Info("Match recorded", "matchId", gormMatch.ID, "pieces", len(gormMatch.Pieces))
	return nil
}

// EndMatch flushes pending writes and stamps the end time.
func (b *Backend) EndMatch() error {
	if err := b.Flush(); err != nil {
		return err
	}
	if b.deps.DB == nil || b.MatchID() == 0 {
		return nil
	}
	err := b.deps.DB.Model(&model.Match{}).
		Where("id = ?", b.MatchID()).
		Update("end_time", time.Now()).Error
	if err != nil {
		return fmt.Errorf("failed to close match: %w", err)
	}
	return nil
}

// RecordTurn converts and queues a turn.
func (b *Backend) RecordTurn(e *core.TurnEvent) error {
	b.queues.Turns.Push(convert.CoreToTurn(*e))
	return nil
}

// RecordCapture converts and queues a capture.
func (b *Backend) RecordCapture(e *core.CaptureEvent) error {
	b.queues.Captures.Push(convert.CoreToCapture(*e))
	return nil
}

// RecordSync converts and queues a giant sync.
func (b *Backend) RecordSync(e *core.SyncEvent) error {
	b.queues.Syncs.Push(convert.CoreToSync(*e))
	return nil
}

// Turns reads back the recorded turns of a match in order.
func (b *Backend) Turns(matchID uint) ([]core.TurnEvent, error) {
	if b.deps.DB == nil {
		return nil, nil
	}
	var rows []model.Turn
	if err := b.deps.DB.Where("match_id = ?", matchID).Order("turn").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to read turns: %w", err)
	}
	out := make([]core.TurnEvent, 0, len(rows))
	for _, r := range rows {
		out = append(out, convert.TurnToCore(r))
	}
	return out, nil
}

// Flush drains every queue into the DB now.
func (b *Backend) Flush() error {
	if b.queues == nil || b.deps.DB == nil {
		return nil
	}
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	matchID := b.MatchID()
	var errs []error
	if err := writeQueue(b.deps.DB, b.queues.Turns, "turns", func(items []model.Turn) {
		for i := range items {
			items[i].MatchID = matchID
		}
	}); err != nil {
		errs = append(errs, err)
	}
	if err := writeQueue(b.deps.DB, b.queues.Captures, "captures", func(items []model.Capture) {
		for i := range items {
			items[i].MatchID = matchID
		}
	}); err != nil {
		errs = append(errs, err)
	}
	if err := writeQueue(b.deps.DB, b.queues.Syncs, "syncs", func(items []model.Sync) {
		for i := range items {
			items[i].MatchID = matchID
		}
	}); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// writeQueue writes all items from a queue to the database in a transaction.
// On failure the items go back to the head of the queue for the next cycle.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string, prepare func([]T)) error {
	if q.Empty() {
		return nil
	}

	items := q.GetAndEmpty()
	if prepare != nil {
		prepare(items)
	}

	tx := db.Begin()
	if err := tx.Create(&items).Error; err != nil {
		tx.Rollback()
		q.Requeue(items...)
		return fmt.Errorf("error creating %s: %w", name, err)
	}
	if err := tx.Commit().Error; err != nil {
		q.Requeue(items...)
		return fmt.Errorf("error committing %s: %w", name, err)
	}
	return nil
}

// writerLoop periodically drains the queues into the DB.
func (b *Backend) writerLoop() {
	defer close(b.done)

	ticker := time.NewTicker(b.deps.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			if err := b.Flush(); err != nil {
				b.log.Error("DB writer failed", "error", err)
			}
		}
	}
}
