package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hololab/tabletop4d/internal/board"
	"github.com/hololab/tabletop4d/internal/geo"
	"github.com/hololab/tabletop4d/internal/pairing"
	"github.com/hololab/tabletop4d/internal/playback"
	"github.com/hololab/tabletop4d/pkg/core"
)

// TurnResult describes a resolved move on the mini board.
type TurnResult struct {
	Turn     uint
	Piece    *board.Piece
	From     board.Coord
	To       board.Coord
	Captured *board.Piece
	// GiantCaptured is the counterpart removed from the giant board.
	GiantCaptured *board.Piece
	Passed        bool
}

// SelectPiece picks the piece that plays this turn and highlights its tiles.
// The last selected piece and its team are skipped unless only one piece is
// left. Random draws are bounded; after that the live pieces are scanned in
// order.
func (s *Session) SelectPiece() (*board.Piece, error) {
	pieces := s.deps.Mini.Pieces()
	if len(pieces) == 0 {
		s.log.Warn("No pieces to select")
		s.Stop("no pieces left")
		return nil, ErrNoPieces
	}

	var pick *board.Piece
	for i := 0; i < s.cfg.MaxSelectAttempts; i++ {
		c := pieces[s.deps.Rand.IntN(len(pieces))]
		if s.eligible(c, len(pieces)) {
			pick = c
			break
		}
	}
	if pick == nil {
		pick = s.scanEligible(pieces)
		s.log.Debug("Selection fell back to scan", "piece", pick.Name)
	}

	s.deps.Mini.ResetTiles()
	for _, p := range pieces {
		p.Selected = p == pick
	}
	if s.selected != nil && s.selected != pick && s.selected.Handle != nil {
		s.selected.Handle.Play(false)
	}
	s.previous, s.selected = s.selected, pick
	s.highlight = s.deps.Mini.Highlight(pick)
	if pick.Handle != nil {
		pick.Handle.Play(true)
	}

	s.turn.Add(1)
	s.side.Store(int32(pick.Team))
	s.setState(PieceSelected)
	s.log.Info("Piece selected",
		"piece", pick.Name,
		"type", pick.Type.String(),
		"at", pick.Position.String(),
		"moves", len(s.highlight.Moves),
		"captures", len(s.highlight.Captures),
	)

	if s.cfg.AutoPlay {
		s.deps.Scheduler.Post("session:automove", func() {
			// a match decided by this selection stops before the move runs
			if _, err := s.AutoMove(); err != nil && !errors.Is(err, ErrFinished) {
				s.log.Warn("Auto move failed", "error", err)
			}
		})
	}
	return pick, nil
}

// eligible applies the no-immediate-repeat rule. Before any selection the
// configured first side plays.
func (s *Session) eligible(p *board.Piece, live int) bool {
	if live == 1 {
		return true
	}
	if s.selected == nil {
		return p.Team == s.Side()
	}
	return p != s.selected && p.Team != s.selected.Team
}

// scanEligible returns the first eligible piece in board order, relaxing the
// team rule and then the repeat rule when nothing qualifies.
func (s *Session) scanEligible(pieces []*board.Piece) *board.Piece {
	for _, p := range pieces {
		if s.eligible(p, len(pieces)) {
			return p
		}
	}
	for _, p := range pieces {
		if p != s.selected {
			return p
		}
	}
	return pieces[0]
}

// Resolve settles the selected piece at the selectable tile nearest to
// where the player released it. A capture tile removes the enemy standing on
// it from the mini board, and its counterpart from the giant board and the
// pairing table. The giant twin is then synced and the cooldown starts.
func (s *Session) Resolve(at geo.Placement) (TurnResult, error) {
	if s.State() != PieceSelected || s.selected == nil {
		return TurnResult{}, ErrNoSelection
	}
	piece := s.selected
	piece.Placement = at

	tile, ok := s.deps.Mini.NearestSelectable(at)
	if !ok {
		s.log.Warn("No selectable tile near piece", "piece", piece.Name, "at", at.String())
		return TurnResult{}, ErrNoDestination
	}

	res := TurnResult{Turn: s.Turn(), Piece: piece, From: piece.Position, To: tile.Coord}
	if tile.State() == board.TileCapture {
		res.Captured, res.GiantCaptured = s.capture(piece, tile.Coord)
	}

	if err := s.deps.Mini.Move(piece, tile.Coord); err != nil {
		s.log.Error("Failed to move piece", "piece", piece.Name, "error", err)
		return TurnResult{}, err
	}
	s.log.Info("Piece moved", "piece", piece.Name, "from", res.From.String(), "to", res.To.String())

	if res.Captured != nil {
		s.setState(Captured)
	} else {
		s.setState(Moved)
	}
	s.record(res)

	if err := s.Sync(res); err != nil {
		s.log.Warn("Giant board not synced", "piece", piece.Name, "error", err)
	}
	s.startCooldown()
	return res, nil
}

// capture removes the enemy of attacker found at c from both boards.
func (s *Session) capture(attacker *board.Piece, c board.Coord) (mini, giant *board.Piece) {
	mini = s.deps.Mini.EnemyAt(c, attacker.Team)
	if mini == nil {
		s.log.Warn("Capture tile holds no enemy", "at", c.String())
		return nil, nil
	}
	s.deps.Mini.Remove(mini)
	playback.Rest(mini.Handle)
	s.log.Info("Piece captured", "attacker", attacker.Name, "victim", mini.Name)

	g, ok := s.deps.Pairing.Remove(mini)
	if !ok {
		if g = pairing.Counterpart(s.deps.Giant, mini); g == nil {
			s.log.Warn("Captured piece had no giant counterpart", "piece", mini.Name)
			return mini, nil
		}
		s.log.Warn("Captured piece was unpaired, removing giant piece by identity", "piece", mini.Name)
	}
	if !s.deps.Giant.Remove(g) {
		s.log.Warn("Giant counterpart already removed", "piece", g.Name)
	}
	playback.Rest(g.Handle)
	s.deps.Metrics.captures.Add(context.Background(), 1)
	return mini, g
}

// Sync moves the giant twin of the result's piece to the same coordinate,
// places it on the giant tile's marker and plays its animation.
func (s *Session) Sync(res TurnResult) error {
	g, err := s.deps.Pairing.Lookup(res.Piece)
	if err != nil {
		return err
	}
	if err := s.deps.Giant.Move(g, res.To); err != nil {
		return fmt.Errorf("sync %s: %w", g.Name, err)
	}
	tile := s.deps.Giant.Tile(res.To)
	g.Placement = tile.Marker

	d := s.cfg.AnimationDuration
	if d <= 0 {
		d = playback.Duration(g.Handle, DefaultConfig().AnimationDuration)
	}
	playback.PlayFor(s.deps.Scheduler, g.Handle, d, nil)

	s.logRecordErr("sync", s.deps.Recorder.RecordSync(&core.SyncEvent{
		Turn:      res.Turn,
		Time:      s.deps.Scheduler.Now(),
		Piece:     g.Name,
		To:        coreCoord(res.To),
		Position:  corePosition(g.Placement),
		Animation: d.Seconds(),
	}))
	s.refreshView()
	s.log.Debug("Giant piece synced", "piece", g.Name, "to", res.To.String(), "animation", d)
	return nil
}

// AutoMove plays the selected piece without a player: a capture tile is
// preferred over a plain move. A piece with no open tile passes its turn.
func (s *Session) AutoMove() (TurnResult, error) {
	if s.Finished() {
		return TurnResult{}, ErrFinished
	}
	if s.State() != PieceSelected || s.selected == nil {
		return TurnResult{}, ErrNoSelection
	}
	var captures, moves []*board.Tile
	for _, t := range s.deps.Mini.Selectable() {
		if t.State() == board.TileCapture {
			captures = append(captures, t)
		} else {
			moves = append(moves, t)
		}
	}

	var target *board.Tile
	switch {
	case len(captures) > 0:
		target = captures[s.deps.Rand.IntN(len(captures))]
	case len(moves) > 0:
		target = moves[s.deps.Rand.IntN(len(moves))]
	default:
		return s.pass(), nil
	}
	return s.Resolve(target.Placement)
}

// pass ends a turn in which the selected piece could not move.
func (s *Session) pass() TurnResult {
	res := TurnResult{Turn: s.Turn(), Piece: s.selected, From: s.selected.Position, To: s.selected.Position, Passed: true}
	s.log.Info("Piece has no legal move, passing", "piece", s.selected.Name)
	s.setState(Moved)
	s.record(res)
	s.startCooldown()
	return res
}

// startCooldown clears highlights after ClearDelay and, once Cooldown has
// elapsed, stops every animation, flips the side and selects again.
func (s *Session) startCooldown() {
	s.setState(CooldownWait)
	s.deps.Scheduler.After(s.cfg.ClearDelay, "session:clear", func() {
		s.deps.Mini.ResetTiles()
		s.refreshView()
	})
	s.deps.Scheduler.After(s.cfg.Cooldown, "session:next", s.nextTurn)
}

func (s *Session) nextTurn() {
	for _, b := range []*board.Board{s.deps.Mini, s.deps.Giant} {
		for _, p := range b.Pieces() {
			playback.StopAll(p.Handle)
		}
	}
	s.side.Store(int32(s.Side().Opponent()))
	s.setState(Idle)

	if s.Finished() {
		return
	}
	if s.cfg.MaxTurns > 0 && s.Turn() >= uint(s.cfg.MaxTurns) {
		s.Stop("turn limit reached")
		return
	}
	if _, err := s.SelectPiece(); err != nil {
		s.log.Warn("Selection failed", "error", err)
		return
	}
	if team, ok := s.decided(); ok {
		s.winner.Store(int32(team) + 1)
		s.refreshView()
		s.Stop(team.String() + " is the last side standing")
	}
}

// decided reports whether only one team is left on the mini board.
func (s *Session) decided() (board.Team, bool) {
	pieces := s.deps.Mini.Pieces()
	if len(pieces) == 0 {
		return 0, false
	}
	team := pieces[0].Team
	for _, p := range pieces[1:] {
		if p.Team != team {
			return 0, false
		}
	}
	return team, true
}

func (s *Session) record(res TurnResult) {
	ctx := context.Background()
	s.deps.Metrics.turns.Add(ctx, 1)

	now := s.deps.Scheduler.Now()
	ev := &core.TurnEvent{
		Turn:      res.Turn,
		Time:      now,
		Side:      res.Piece.Team.String(),
		Piece:     res.Piece.Name,
		PieceType: res.Piece.Type.String(),
		From:      coreCoord(res.From),
		To:        coreCoord(res.To),
		Moves:     len(s.highlight.Moves),
		Captures:  len(s.highlight.Captures),
		Board:     strings.Split(s.deps.Mini.String(), "\n"),
	}
	if res.Captured != nil {
		ev.Captured = res.Captured.Name
	}
	s.logRecordErr("turn", s.deps.Recorder.RecordTurn(ev))

	if res.Captured != nil {
		s.logRecordErr("capture", s.deps.Recorder.RecordCapture(&core.CaptureEvent{
			Turn:         res.Turn,
			Time:         now,
			Attacker:     res.Piece.Name,
			AttackerTeam: res.Piece.Team.String(),
			Victim:       res.Captured.Name,
			VictimType:   res.Captured.Type.String(),
			VictimTeam:   res.Captured.Team.String(),
			At:           coreCoord(res.To),
			GiantRemoved: res.GiantCaptured != nil,
		}))
	}
}

func (s *Session) logRecordErr(kind string, err error) {
	if err != nil {
		s.log.Error("Failed to record event", "event", kind, "error", err)
	}
}

func coreCoord(c board.Coord) core.Coord {
	return core.Coord{X: c.X, Y: c.Y}
}

func corePosition(p geo.Placement) core.Position3D {
	return core.Position3D{X: p.X, Y: p.Y, Z: p.Z}
}
