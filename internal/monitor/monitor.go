// Package monitor periodically writes the program status to a file.
package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/hololab/tabletop4d/internal/match"
	"github.com/hololab/tabletop4d/internal/session"
)

// SnapshotSource provides the session view.
type SnapshotSource interface {
	Snapshot() session.Snapshot
}

// PendingSource reports queued work.
type PendingSource interface {
	Pending() int
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Session      SnapshotSource
	Scheduler    PendingSource
	Recorder     PendingSource
	MatchContext *match.Context
	Logger       *slog.Logger
	StatusPath   string
	Interval     time.Duration
}

// Status is one status report.
type Status struct {
	Time             time.Time        `json:"time"`
	Match            string           `json:"match"`
	MatchID          uint             `json:"matchId"`
	DurationSeconds  float64          `json:"durationSeconds"`
	SchedulerPending int              `json:"schedulerPending"`
	RecorderPending  int              `json:"recorderPending"`
	Session          session.Snapshot `json:"session"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Interval <= 0 {
		deps.Interval = time.Second
	}
	return &Service{deps: deps}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetProgramStatus collects the current status.
func (s *Service) GetProgramStatus(now time.Time) Status {
	st := Status{Time: now}
	if s.deps.MatchContext != nil {
		m := s.deps.MatchContext.GetMatch()
		st.Match = m.Name
		st.MatchID = m.ID
		st.DurationSeconds = s.deps.MatchContext.Duration(now).Seconds()
	}
	if s.deps.Scheduler != nil {
		st.SchedulerPending = s.deps.Scheduler.Pending()
	}
	if s.deps.Recorder != nil {
		st.RecorderPending = s.deps.Recorder.Pending()
	}
	if s.deps.Session != nil {
		st.Session = s.deps.Session.Snapshot()
	}
	return st
}

// WriteStatus overwrites the status file with the current status.
func (s *Service) WriteStatus(now time.Time) error {
	data, err := json.MarshalIndent(s.GetProgramStatus(now), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	if err := os.WriteFile(s.deps.StatusPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write status file: %w", err)
	}
	return nil
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if s.deps.StatusPath == "" {
		s.mu.Unlock()
		return fmt.Errorf("status path not set")
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		logger := s.deps.Logger
		logger.Debug("Starting status monitor", "path", s.deps.StatusPath, "interval", s.deps.Interval)

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case now := <-ticker.C:
				if err := s.WriteStatus(now); err != nil {
					logger.Error("Error writing status file", "error", err)
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor and waits for it to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	done := s.done
	s.isRunning = false
	s.mu.Unlock()
	<-done
}
