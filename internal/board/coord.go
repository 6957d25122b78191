package board

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Default board dimensions.
const (
	Width  = 5
	Height = 5
)

var (
	// ErrOutOfBounds is returned when a coordinate falls outside the board.
	ErrOutOfBounds = errors.New("coordinate out of bounds")
	// ErrBadTileName is returned when a tile name does not end in an index.
	ErrBadTileName = errors.New("tile name does not parse to an index")
)

// Coord is a cell identity on the board.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns c + o.
func (c Coord) Add(o Coord) Coord { return Coord{X: c.X + o.X, Y: c.Y + o.Y} }

// Sub returns c - o.
func (c Coord) Sub(o Coord) Coord { return Coord{X: c.X - o.X, Y: c.Y - o.Y} }

// In reports whether c lies inside a width×height grid.
func (c Coord) In(width, height int) bool {
	return c.X >= 0 && c.X < width && c.Y >= 0 && c.Y < height
}

func (c Coord) String() string { return fmt.Sprintf("(%d, %d)", c.X, c.Y) }

// CoordFromIndex maps a linear child index onto the grid: x = i mod width,
// y = i div width.
func CoordFromIndex(index, width int) Coord {
	return Coord{X: index % width, Y: index / width}
}

// IndexFromCoord is the inverse of CoordFromIndex.
func IndexFromCoord(c Coord, width int) int {
	return c.Y*width + c.X
}

// ParseTileIndex strips prefix from a sequential tile name ("SM_Tile12") and
// parses the remainder as an index.
func ParseTileIndex(name, prefix string) (int, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(name, prefix))
	idx, err := strconv.Atoi(raw)
	if err != nil || idx < 0 {
		return 0, fmt.Errorf("%w: %q", ErrBadTileName, name)
	}
	return idx, nil
}
