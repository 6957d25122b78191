package board

import "github.com/hololab/tabletop4d/internal/geo"

// TileState is the highlight role a tile plays in the current turn.
type TileState int

const (
	TileIdle TileState = iota
	TileMove
	TileCapture
)

func (s TileState) String() string {
	switch s {
	case TileMove:
		return "move"
	case TileCapture:
		return "capture"
	default:
		return "idle"
	}
}

// Tile is one cell of a board. Tiles are created once at setup and only
// their highlight state changes afterwards.
type Tile struct {
	Name      string
	Coord     Coord
	BaseColor Color
	Color     Color
	// Selectable tiles are legal destinations for the selected piece.
	Selectable bool
	// MarkerActive mirrors the visibility of the tile's centre marker.
	MarkerActive bool
	Placement    geo.Placement
	Marker       geo.Placement

	state TileState
}

// NewTile creates an idle tile.
func NewTile(name string, c Coord, base Color, placement, marker geo.Placement) *Tile {
	return &Tile{
		Name:      name,
		Coord:     c,
		BaseColor: base,
		Color:     base,
		Placement: placement,
		Marker:    marker,
	}
}

// Enable shows the centre marker and marks the tile selectable.
func (t *Tile) Enable() {
	t.MarkerActive = true
	t.Selectable = true
}

// Disable hides the centre marker and marks the tile unselectable.
func (t *Tile) Disable() {
	t.MarkerActive = false
	t.Selectable = false
}

// Reset restores the base color and disables the tile.
func (t *Tile) Reset() {
	t.Color = t.BaseColor
	t.state = TileIdle
	t.Disable()
}

// State returns the tile's highlight role.
func (t *Tile) State() TileState {
	if !t.Selectable {
		return TileIdle
	}
	return t.state
}

func (t *Tile) markMove() {
	t.Color = ColorYellow
	t.state = TileMove
	t.Enable()
}

func (t *Tile) markCapture() {
	t.Color = ColorRed
	t.state = TileCapture
	t.Enable()
}

func (t *Tile) block() {
	t.Reset()
}
