// Package pairing keeps the fixed correspondence between mini-board pieces
// and their giant-board twins.
package pairing

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/hololab/tabletop4d/internal/board"
)

// ErrNotPaired is returned when a mini piece has no giant counterpart.
var ErrNotPaired = errors.New("piece has no giant counterpart")

// Pair is one mini→giant correspondence.
type Pair struct {
	Mini  *board.Piece
	Giant *board.Piece
}

// Table maps mini pieces to giant pieces. It is built once at startup and
// only shrinks afterwards.
type Table struct {
	pairs map[*board.Piece]*board.Piece
	order []*board.Piece
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{pairs: make(map[*board.Piece]*board.Piece)}
}

// Build matches every live mini piece with the giant piece of equal
// (name, type, team). Unmatched mini pieces are logged and left out. A giant
// piece is claimed at most once.
func Build(mini, giant *board.Board, logger *slog.Logger) *Table {
	if logger == nil {
		logger = slog.Default()
	}
	t := NewTable()
	if mini == nil || giant == nil {
		logger.Warn("Cannot pair pieces, board missing")
		return t
	}

	claimed := make(map[*board.Piece]bool, len(giant.Pieces()))
	for _, m := range mini.Pieces() {
		var match *board.Piece
		for _, g := range giant.Pieces() {
			if !claimed[g] && g.Identity() == m.Identity() {
				match = g
				break
			}
		}
		if match == nil {
			logger.Warn("No giant counterpart for piece", "piece", m.Identity().String())
			continue
		}
		claimed[match] = true
		t.Add(m, match)
	}

	for _, g := range giant.Pieces() {
		if !claimed[g] {
			logger.Debug("Giant piece left unpaired", "piece", g.Identity().String())
		}
	}
	logger.Info("Pairing complete", "pairs", t.Len())
	return t
}

// Add records a pair, replacing any previous counterpart of mini.
func (t *Table) Add(mini, giant *board.Piece) {
	if _, ok := t.pairs[mini]; !ok {
		t.order = append(t.order, mini)
	}
	t.pairs[mini] = giant
}

// Lookup returns the giant counterpart of mini.
func (t *Table) Lookup(mini *board.Piece) (*board.Piece, error) {
	if mini == nil {
		return nil, ErrNotPaired
	}
	g, ok := t.pairs[mini]
	if !ok {
		return nil, fmt.Errorf("%s: %w", mini.Name, ErrNotPaired)
	}
	return g, nil
}

// Remove drops mini's entry and returns the giant piece it pointed at.
func (t *Table) Remove(mini *board.Piece) (*board.Piece, bool) {
	g, ok := t.pairs[mini]
	if !ok {
		return nil, false
	}
	delete(t.pairs, mini)
	for i, p := range t.order {
		if p == mini {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return g, true
}

// Counterpart searches giant for the live piece sharing mini's identity,
// ignoring the table.
func Counterpart(giant *board.Board, mini *board.Piece) *board.Piece {
	if giant == nil || mini == nil {
		return nil
	}
	return giant.Find(mini.Identity())
}

// Len returns the number of pairs.
func (t *Table) Len() int { return len(t.pairs) }

// Pairs returns the pairs in build order.
func (t *Table) Pairs() []Pair {
	out := make([]Pair, 0, len(t.order))
	for _, m := range t.order {
		out = append(out, Pair{Mini: m, Giant: t.pairs[m]})
	}
	return out
}
