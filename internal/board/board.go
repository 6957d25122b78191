// Package board holds the 5×5 grid, its tiles and the pieces standing on it,
// and evaluates movement and attack masks against them.
package board

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/hololab/tabletop4d/internal/geo"
)

var (
	// ErrOccupied is returned when a coordinate already holds a live piece.
	ErrOccupied = errors.New("coordinate already occupied")
	// ErrDuplicateTile is returned when two tiles claim the same coordinate.
	ErrDuplicateTile = errors.New("duplicate tile coordinate")
	// ErrUnknownTile is returned when no tile exists at a coordinate.
	ErrUnknownTile = errors.New("no tile at coordinate")
)

// Kind identifies one of the two board representations.
type Kind string

const (
	KindMini  Kind = "mini"
	KindGiant Kind = "giant"
)

// Board is a grid of tiles plus its live pieces.
type Board struct {
	kind   Kind
	width  int
	height int

	tiles   []*Tile
	byCoord map[Coord]*Tile
	pieces  []*Piece
}

// New creates an empty board.
func New(kind Kind, width, height int) *Board {
	if width <= 0 {
		width = Width
	}
	if height <= 0 {
		height = Height
	}
	return &Board{
		kind:    kind,
		width:   width,
		height:  height,
		byCoord: make(map[Coord]*Tile, width*height),
	}
}

// Kind returns mini or giant.
func (b *Board) Kind() Kind { return b.kind }

// Size returns the board dimensions.
func (b *Board) Size() (width, height int) { return b.width, b.height }

// AddTile registers a tile at its coordinate.
func (b *Board) AddTile(t *Tile) error {
	if !t.Coord.In(b.width, b.height) {
		return fmt.Errorf("tile %s at %s: %w", t.Name, t.Coord, ErrOutOfBounds)
	}
	if _, ok := b.byCoord[t.Coord]; ok {
		return fmt.Errorf("tile %s at %s: %w", t.Name, t.Coord, ErrDuplicateTile)
	}
	b.byCoord[t.Coord] = t
	b.tiles = append(b.tiles, t)
	sort.SliceStable(b.tiles, func(i, j int) bool {
		return IndexFromCoord(b.tiles[i].Coord, b.width) < IndexFromCoord(b.tiles[j].Coord, b.width)
	})
	return nil
}

// AddPiece places a live piece on the board.
func (b *Board) AddPiece(p *Piece) error {
	if !p.Position.In(b.width, b.height) {
		return fmt.Errorf("piece %s at %s: %w", p.Name, p.Position, ErrOutOfBounds)
	}
	if other := b.PieceAt(p.Position); other != nil {
		return fmt.Errorf("piece %s at %s held by %s: %w", p.Name, p.Position, other.Name, ErrOccupied)
	}
	p.Active = true
	b.pieces = append(b.pieces, p)
	return nil
}

// Tiles returns the tiles in index order.
func (b *Board) Tiles() []*Tile { return b.tiles }

// Tile returns the tile at c, or nil.
func (b *Board) Tile(c Coord) *Tile { return b.byCoord[c] }

// Pieces returns the live pieces.
func (b *Board) Pieces() []*Piece { return b.pieces }

// PieceAt returns the live piece at c, or nil.
func (b *Board) PieceAt(c Coord) *Piece {
	for _, p := range b.pieces {
		if p.Position == c {
			return p
		}
	}
	return nil
}

// EnemyAt returns the live piece at c that is not on team, or nil.
func (b *Board) EnemyAt(c Coord, team Team) *Piece {
	for _, p := range b.pieces {
		if p.Team != team && p.Position == c {
			return p
		}
	}
	return nil
}

// Find returns the live piece with the given identity, or nil.
func (b *Board) Find(id Identity) *Piece {
	for _, p := range b.pieces {
		if p.Identity() == id {
			return p
		}
	}
	return nil
}

// Contains reports whether p is among the live pieces.
func (b *Board) Contains(p *Piece) bool {
	for _, q := range b.pieces {
		if q == p {
			return true
		}
	}
	return false
}

// Remove deactivates p and drops it from the live set. Returns false when p
// was not live on this board.
func (b *Board) Remove(p *Piece) bool {
	for i, q := range b.pieces {
		if q == p {
			b.pieces = append(b.pieces[:i], b.pieces[i+1:]...)
			p.Active = false
			p.Selected = false
			return true
		}
	}
	return false
}

// Move sets p's logical position. The destination must exist and must not
// hold another live piece.
func (b *Board) Move(p *Piece, c Coord) error {
	if b.Tile(c) == nil {
		return fmt.Errorf("move %s to %s: %w", p.Name, c, ErrUnknownTile)
	}
	if other := b.PieceAt(c); other != nil && other != p {
		return fmt.Errorf("move %s to %s held by %s: %w", p.Name, c, other.Name, ErrOccupied)
	}
	p.Position = c
	return nil
}

// ResetTiles restores every tile to its base color and disables it.
func (b *Board) ResetTiles() {
	for _, t := range b.tiles {
		t.Reset()
	}
}

// Highlight holds the outcome of marking a piece's reachable tiles.
type Highlight struct {
	Moves    []Coord
	Captures []Coord
}

// Highlight marks the tiles p may move to or attack. A tile inside the
// movement mask is a move target unless any piece stands on it. A tile inside
// the attack mask holding an enemy becomes a capture target; one holding a
// friend is blocked. Tiles are not reset first.
func (b *Board) Highlight(p *Piece) Highlight {
	var h Highlight
	for _, t := range b.tiles {
		if p.CanMoveTo(t.Coord) {
			t.markMove()
			if b.PieceAt(t.Coord) != nil {
				t.block()
			}
		}
		if p.CanAttack(t.Coord) {
			if occupant := b.PieceAt(t.Coord); occupant != nil {
				if occupant.Team != p.Team {
					t.markCapture()
				} else {
					t.block()
				}
			}
		}
		switch t.State() {
		case TileMove:
			h.Moves = append(h.Moves, t.Coord)
		case TileCapture:
			h.Captures = append(h.Captures, t.Coord)
		}
	}
	return h
}

// Selectable returns the tiles currently open for the selected piece.
func (b *Board) Selectable() []*Tile {
	var out []*Tile
	for _, t := range b.tiles {
		if t.Selectable {
			out = append(out, t)
		}
	}
	return out
}

// NearestSelectable returns the selectable tile closest to a world
// placement. Ties go to the lower tile index.
func (b *Board) NearestSelectable(at geo.Placement) (*Tile, bool) {
	best := math.MaxFloat64
	var closest *Tile
	for _, t := range b.tiles {
		if !t.Selectable {
			continue
		}
		if d := geo.Distance(at, t.Placement); d < best {
			best = d
			closest = t
		}
	}
	return closest, closest != nil
}

// CheckOccupancy verifies that no two live pieces share a coordinate.
func (b *Board) CheckOccupancy() error {
	seen := make(map[Coord]string, len(b.pieces))
	for _, p := range b.pieces {
		if name, ok := seen[p.Position]; ok {
			return fmt.Errorf("%s and %s both at %s: %w", name, p.Name, p.Position, ErrOccupied)
		}
		seen[p.Position] = p.Name
	}
	return nil
}

// String renders the board row by row, y = 0 first. Red pieces are upper
// case, blue lower case; '+' marks a move tile and 'x' a capture tile.
func (b *Board) String() string {
	var sb strings.Builder
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			c := Coord{X: x, Y: y}
			sb.WriteByte(b.cellRune(c))
		}
		if y < b.height-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func (b *Board) cellRune(c Coord) byte {
	if p := b.PieceAt(c); p != nil {
		r := byte('?')
		if p.Name != "" {
			r = p.Name[0]
		}
		if r >= 'a' && r <= 'z' && p.Team == TeamRed {
			r -= 'a' - 'A'
		}
		if r >= 'A' && r <= 'Z' && p.Team == TeamBlue {
			r += 'a' - 'A'
		}
		return r
	}
	t := b.Tile(c)
	if t == nil {
		return ' '
	}
	switch t.State() {
	case TileMove:
		return '+'
	case TileCapture:
		return 'x'
	default:
		return '.'
	}
}
