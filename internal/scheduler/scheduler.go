// Package scheduler runs game callbacks on a single logical thread.
//
// Work is either posted for immediate execution (safe from any goroutine) or
// delayed by a duration. Callbacks always run one at a time, in due-time order
// and FIFO among equal due times. There is no cancellation: once a timer is
// scheduled it runs.
package scheduler

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hololab/tabletop4d/internal/queue"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/hololab/tabletop4d/internal/scheduler"

// ErrNotManual is returned by Advance when the scheduler runs on a real clock.
var ErrNotManual = errors.New("scheduler clock is not manual")

// Task is a unit of scheduled work.
type Task struct {
	Name string
	Due  time.Time

	seq uint64
	fn  func()
}

// Scheduler is a delayed-callback task queue.
type Scheduler struct {
	clock  Clock
	manual *ManualClock
	logger *slog.Logger

	posted *queue.Queue[Task]

	mu     sync.Mutex
	timers taskHeap
	seq    uint64
	wake   chan struct{}

	executed metric.Int64Counter
	pending  metric.Int64ObservableGauge
}

// New creates a scheduler on the given clock.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(clock Clock, logger *slog.Logger) (*Scheduler, error) {
	if clock == nil {
		clock = RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		clock:  clock,
		logger: logger,
		posted: queue.New[Task](),
		wake:   make(chan struct{}, 1),
	}
	if mc, ok := clock.(*ManualClock); ok {
		s.manual = mc
	}

	m := otel.Meter(instrumentationName)

	var err error
	s.executed, err = m.Int64Counter(
		"scheduler.tasks.executed",
		metric.WithDescription("Total scheduled callbacks executed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating executed counter: %w", err)
	}

	s.pending, err = m.Int64ObservableGauge(
		"scheduler.tasks.pending",
		metric.WithDescription("Callbacks waiting to run"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pending gauge: %w", err)
	}
	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(s.pending, int64(s.Pending()))
			return nil
		},
		s.pending,
	)
	if err != nil {
		return nil, fmt.Errorf("registering pending callback: %w", err)
	}

	return s, nil
}

// Now returns the scheduler's current time.
func (s *Scheduler) Now() time.Time {
	return s.clock.Now()
}

// Post queues fn to run on the next step. Safe to call from any goroutine.
func (s *Scheduler) Post(name string, fn func()) {
	s.mu.Lock()
	s.seq++
	t := Task{Name: name, Due: s.clock.Now(), seq: s.seq, fn: fn}
	s.mu.Unlock()
	s.posted.Push(t)
	s.notify()
}

// After schedules fn to run once d has elapsed.
func (s *Scheduler) After(d time.Duration, name string, fn func()) {
	if d < 0 {
		d = 0
	}
	s.mu.Lock()
	s.seq++
	heap.Push(&s.timers, &Task{Name: name, Due: s.clock.Now().Add(d), seq: s.seq, fn: fn})
	s.mu.Unlock()
	s.notify()
}

// Pending returns the number of callbacks not yet executed.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	n := s.timers.Len()
	s.mu.Unlock()
	return n + s.posted.Len()
}

// Step runs every posted task and every timer that is due, including work
// scheduled by those callbacks as long as it is already due. Posted tasks
// and timers share one ordering: an overdue timer runs before work posted
// after its due time. Returns the number of callbacks executed.
func (s *Scheduler) Step() int {
	ran := 0
	for {
		s.mergePosted()
		t, ok := s.popDue(s.clock.Now())
		if !ok {
			return ran
		}
		s.exec(*t)
		ran++
	}
}

// Advance moves a manual clock forward by d, firing timers at their own due
// times along the way. Returns the number of callbacks executed.
func (s *Scheduler) Advance(d time.Duration) (int, error) {
	if s.manual == nil {
		return 0, ErrNotManual
	}
	target := s.manual.Now().Add(d)
	ran := s.Step()
	for {
		next, ok := s.nextDue()
		if !ok || next.After(target) {
			break
		}
		s.manual.Set(next)
		ran += s.Step()
	}
	s.manual.Set(target)
	ran += s.Step()
	return ran, nil
}

// Run executes callbacks against the wall clock until ctx is cancelled.
// All callbacks run on the calling goroutine.
func (s *Scheduler) Run(ctx context.Context) error {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		s.Step()

		wait := time.Hour
		if next, ok := s.nextDue(); ok {
			wait = next.Sub(s.clock.Now())
			if wait < 0 {
				wait = 0
			}
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.wake:
		case <-timer.C:
		}
	}
}

func (s *Scheduler) exec(t Task) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduled task panicked", "task", t.Name, "panic", r)
		}
	}()
	t.fn()
	s.executed.Add(context.Background(), 1, metric.WithAttributes(attribute.String("task", t.Name)))
}

// mergePosted moves posted tasks into the timer heap. They keep the due time
// and sequence number they were posted with.
func (s *Scheduler) mergePosted() {
	posted := s.posted.GetAndEmpty()
	if len(posted) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range posted {
		heap.Push(&s.timers, &posted[i])
	}
}

func (s *Scheduler) popDue(now time.Time) (*Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timers.Len() == 0 || s.timers[0].Due.After(now) {
		return nil, false
	}
	return heap.Pop(&s.timers).(*Task), true
}

func (s *Scheduler) nextDue() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.posted.Empty() {
		return s.clock.Now(), true
	}
	if s.timers.Len() == 0 {
		return time.Time{}, false
	}
	return s.timers[0].Due, true
}

func (s *Scheduler) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// taskHeap orders tasks by due time, then by insertion order.
type taskHeap []*Task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].Due.Equal(h[j].Due) {
		return h[i].seq < h[j].seq
	}
	return h[i].Due.Before(h[j].Due)
}

func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x any) { *h = append(*h, x.(*Task)) }

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}
