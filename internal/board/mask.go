package board

import (
	"fmt"
	"strings"
)

// Mask is a boolean grid centred on a piece. Rows are indexed by y and
// columns by x; the centre cell sits at (cols/2, rows/2).
type Mask struct {
	rows, cols int
	cells      []bool
}

// NewMask builds a mask from rectangular rows of cells.
func NewMask(rows [][]bool) (Mask, error) {
	if len(rows) == 0 {
		return Mask{}, nil
	}
	cols := len(rows[0])
	cells := make([]bool, 0, len(rows)*cols)
	for y, row := range rows {
		if len(row) != cols {
			return Mask{}, fmt.Errorf("mask row %d has %d cells, expected %d", y, len(row), cols)
		}
		cells = append(cells, row...)
	}
	return Mask{rows: len(rows), cols: cols, cells: cells}, nil
}

// ParseMask builds a mask from text rows such as ".X." where 'X', 'x', '1'
// and '#' mark allowed cells and anything else is closed.
func ParseMask(rows []string) (Mask, error) {
	grid := make([][]bool, len(rows))
	for y, row := range rows {
		runes := []rune(strings.TrimSpace(row))
		grid[y] = make([]bool, len(runes))
		for x, r := range runes {
			switch r {
			case 'X', 'x', '1', '#':
				grid[y][x] = true
			}
		}
	}
	return NewMask(grid)
}

// MustParseMask is ParseMask that panics on malformed input. Intended for
// static tables.
func MustParseMask(rows ...string) Mask {
	m, err := ParseMask(rows)
	if err != nil {
		panic(err)
	}
	return m
}

// Size returns the mask dimensions as (cols, rows).
func (m Mask) Size() (cols, rows int) { return m.cols, m.rows }

// Center is the mask-local coordinate of the piece itself.
func (m Mask) Center() Coord { return Coord{X: m.cols / 2, Y: m.rows / 2} }

// Cell reports the raw mask value at mask-local (x, y). Out of range is false.
func (m Mask) Cell(x, y int) bool {
	if x < 0 || x >= m.cols || y < 0 || y >= m.rows {
		return false
	}
	return m.cells[y*m.cols+x]
}

// Allows reports whether a board delta (target - piece) is open in the mask.
func (m Mask) Allows(delta Coord) bool {
	local := delta.Add(m.Center())
	return m.Cell(local.X, local.Y)
}

// Rows renders the mask back to its text form.
func (m Mask) Rows() []string {
	out := make([]string, m.rows)
	for y := 0; y < m.rows; y++ {
		var sb strings.Builder
		for x := 0; x < m.cols; x++ {
			if m.Cell(x, y) {
				sb.WriteByte('X')
			} else {
				sb.WriteByte('.')
			}
		}
		out[y] = sb.String()
	}
	return out
}
