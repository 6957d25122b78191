// Package session runs the turn loop of a match: selection, resolution of
// the player's move on the mini board, mirroring onto the giant board, and
// the cooldown before the other side plays.
//
// Every method that mutates game state must run on the scheduler goroutine.
// Snapshot and LogAttrs read only atomics and may be called from anywhere.
package session

import (
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hololab/tabletop4d/internal/board"
	"github.com/hololab/tabletop4d/internal/pairing"
	"github.com/hololab/tabletop4d/internal/scheduler"
	"github.com/hololab/tabletop4d/pkg/core"
)

var (
	// ErrNoPieces is returned when the mini board has no live piece to select.
	ErrNoPieces = errors.New("no pieces left on the board")
	// ErrTurnInProgress is returned when a turn is already being resolved.
	ErrTurnInProgress = errors.New("turn in progress")
	// ErrNoSelection is returned when a move arrives with no selected piece.
	ErrNoSelection = errors.New("no piece selected")
	// ErrNoDestination is returned when no selectable tile is open.
	ErrNoDestination = errors.New("no selectable tile")
	// ErrFinished is returned once the match has ended.
	ErrFinished = errors.New("match finished")
)

// State is the turn resolution phase.
type State int32

const (
	Idle State = iota
	PieceSelected
	Moved
	Captured
	CooldownWait
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case PieceSelected:
		return "piece_selected"
	case Moved:
		return "moved"
	case Captured:
		return "captured"
	case CooldownWait:
		return "cooldown"
	default:
		return "unknown"
	}
}

// Recorder receives match events. Storage backends satisfy it.
type Recorder interface {
	RecordTurn(*core.TurnEvent) error
	RecordCapture(*core.CaptureEvent) error
	RecordSync(*core.SyncEvent) error
}

// Config holds the turn timings.
type Config struct {
	// Cooldown is the wait between a resolved move and the next selection.
	Cooldown time.Duration
	// ClearDelay is how long into the cooldown the highlights stay visible.
	ClearDelay time.Duration
	// AnimationDuration is how long the giant piece plays after a sync. Zero
	// uses the clip's own length.
	AnimationDuration time.Duration
	// MaxSelectAttempts bounds random draws before scanning in order.
	MaxSelectAttempts int
	FirstSide         board.Team
	// AutoPlay moves the selected piece without waiting for a player.
	AutoPlay bool
	// MaxTurns ends the match after this many turns. Zero means no limit.
	MaxTurns int
}

// DefaultConfig returns the timings of the original table setup.
func DefaultConfig() Config {
	return Config{
		Cooldown:          2 * time.Second,
		ClearDelay:        500 * time.Millisecond,
		AnimationDuration: 2 * time.Second,
		MaxSelectAttempts: 32,
		FirstSide:         board.TeamRed,
	}
}

// Dependencies holds the collaborators of a session.
type Dependencies struct {
	Mini      *board.Board
	Giant     *board.Board
	Pairing   *pairing.Table
	Scheduler *scheduler.Scheduler
	Rand      *rand.Rand
	Logger    *slog.Logger
	Recorder  Recorder
	Metrics   *Metrics
}

// Session owns the turn state of one match.
type Session struct {
	deps Dependencies
	cfg  Config
	log  *slog.Logger

	selected  *board.Piece
	previous  *board.Piece
	highlight board.Highlight

	state    atomic.Int32
	side     atomic.Int32
	turn     atomic.Uint64
	finished atomic.Bool
	winner   atomic.Int32 // team + 1, zero while undecided

	// mirrors of board state for Snapshot
	view atomic.Pointer[boardView]

	done     chan struct{}
	doneOnce sync.Once
}

type boardView struct {
	selected string
	previous string
	mini     string
	giant    string
	pieces   int
	pairs    int
}

// New wires a session. Boards and the scheduler are required.
func New(deps Dependencies, cfg Config) (*Session, error) {
	if deps.Mini == nil || deps.Giant == nil {
		return nil, errors.New("session needs both boards")
	}
	if deps.Scheduler == nil {
		return nil, errors.New("session needs a scheduler")
	}
	if deps.Pairing == nil {
		deps.Pairing = pairing.NewTable()
	}
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Recorder == nil {
		deps.Recorder = nopRecorder{}
	}
	if deps.Metrics == nil {
		m, err := NewMetrics(nil)
		if err != nil {
			return nil, err
		}
		deps.Metrics = m
	}
	if cfg.MaxSelectAttempts <= 0 {
		cfg.MaxSelectAttempts = DefaultConfig().MaxSelectAttempts
	}

	s := &Session{
		deps: deps,
		cfg:  cfg,
		log:  deps.Logger.With("component", "session"),
		done: make(chan struct{}),
	}
	s.side.Store(int32(cfg.FirstSide))
	s.refreshView()
	deps.Metrics.observe(s)
	return s, nil
}

// Config returns the session timings.
func (s *Session) Config() Config { return s.cfg }

// State returns the current phase.
func (s *Session) State() State { return State(s.state.Load()) }

// Side returns the side whose turn it is.
func (s *Session) Side() board.Team { return board.Team(s.side.Load()) }

// Turn returns the current turn number, starting at 1 on the first selection.
func (s *Session) Turn() uint { return uint(s.turn.Load()) }

// Selected returns the piece picked for the current turn.
func (s *Session) Selected() *board.Piece { return s.selected }

// Done is closed when the match ends.
func (s *Session) Done() <-chan struct{} { return s.done }

// Finished reports whether the match has ended.
func (s *Session) Finished() bool { return s.finished.Load() }

// Winner returns the only side left on the mini board once one side has
// been wiped out.
func (s *Session) Winner() (board.Team, bool) {
	w := s.winner.Load()
	if w == 0 {
		return 0, false
	}
	return board.Team(w - 1), true
}

// Start posts the first selection onto the scheduler.
func (s *Session) Start() {
	s.deps.Scheduler.Post("session:start", func() {
		if err := s.Advance(); err != nil {
			s.log.Warn("Failed to start match", "error", err)
		}
	})
}

// Advance is the external "next turn" trigger. It selects a piece when the
// session is idle and reselects while a piece is waiting to be moved.
func (s *Session) Advance() error {
	if s.Finished() {
		return ErrFinished
	}
	switch s.State() {
	case Idle, PieceSelected:
		_, err := s.SelectPiece()
		return err
	default:
		s.log.Debug("Advance ignored", "state", s.State().String())
		return ErrTurnInProgress
	}
}

// Stop ends the match. Pending timers still run but start no new turn.
func (s *Session) Stop(reason string) {
	s.doneOnce.Do(func() {
		s.finished.Store(true)
		s.log.Info("Match finished", "reason", reason, "turn", s.Turn())
		close(s.done)
	})
}

// LogAttrs returns the attrs stamped on every log record.
func (s *Session) LogAttrs() []slog.Attr {
	if s.Turn() == 0 {
		return nil
	}
	return []slog.Attr{
		slog.Uint64("turn", s.turn.Load()),
		slog.String("side", s.Side().String()),
	}
}

// Snapshot is a read-only view of the session.
type Snapshot struct {
	Turn     uint   `json:"turn"`
	Side     string `json:"side"`
	State    string `json:"state"`
	Selected string `json:"selected,omitempty"`
	Previous string `json:"previous,omitempty"`
	Pieces   int    `json:"pieces"`
	Pairs    int    `json:"pairs"`
	Finished bool   `json:"finished"`
	Winner   string `json:"winner,omitempty"`
	Mini     string `json:"mini"`
	Giant    string `json:"giant"`
}

// Snapshot returns the state as of the last completed transition.
func (s *Session) Snapshot() Snapshot {
	v := s.view.Load()
	snap := Snapshot{
		Turn:     s.Turn(),
		Side:     s.Side().String(),
		State:    s.State().String(),
		Selected: v.selected,
		Previous: v.previous,
		Pieces:   v.pieces,
		Pairs:    v.pairs,
		Finished: s.Finished(),
		Mini:     v.mini,
		Giant:    v.giant,
	}
	if w, ok := s.Winner(); ok {
		snap.Winner = w.String()
	}
	return snap
}

// Lineup lists the live pieces of both boards for the match record. Call it
// before Start or from the scheduler goroutine.
func (s *Session) Lineup() []core.PieceInfo {
	paired := make(map[*board.Piece]bool)
	for _, pair := range s.deps.Pairing.Pairs() {
		paired[pair.Mini] = true
		paired[pair.Giant] = true
	}
	var out []core.PieceInfo
	for _, b := range []*board.Board{s.deps.Mini, s.deps.Giant} {
		for _, p := range b.Pieces() {
			out = append(out, core.PieceInfo{
				Board:    string(b.Kind()),
				Name:     p.Name,
				Type:     p.Type.String(),
				Team:     p.Team.String(),
				Coord:    coreCoord(p.Position),
				Position: corePosition(p.Placement),
				Paired:   paired[p],
			})
		}
	}
	return out
}

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
	s.refreshView()
}

func (s *Session) refreshView() {
	v := &boardView{
		mini:   s.deps.Mini.String(),
		giant:  s.deps.Giant.String(),
		pieces: len(s.deps.Mini.Pieces()),
		pairs:  s.deps.Pairing.Len(),
	}
	if s.selected != nil {
		v.selected = s.selected.Name
	}
	if s.previous != nil {
		v.previous = s.previous.Name
	}
	s.view.Store(v)
}

type nopRecorder struct{}

func (nopRecorder) RecordTurn(*core.TurnEvent) error       { return nil }
func (nopRecorder) RecordCapture(*core.CaptureEvent) error { return nil }
func (nopRecorder) RecordSync(*core.SyncEvent) error       { return nil }
