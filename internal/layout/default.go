package layout

import (
	"fmt"

	"github.com/hololab/tabletop4d/internal/board"
	"github.com/hololab/tabletop4d/internal/geo"
)

// Movement and attack shapes per piece kind.
var kindMasks = map[board.PieceType][2][]string{
	board.PierreFeuilleCiseaux: {
		{"XXX", "X.X", "XXX"},
		{"XXX", "X.X", "XXX"},
	},
	board.TalkToLong: {
		{".X.", "X.X", ".X."},
		{"..X..", "..X..", "XX.XX", "..X..", "..X.."},
	},
	board.Fireblast: {
		{"XXX", "X.X", "XXX"},
		{"X...X", ".X.X.", ".....", ".X.X.", "X...X"},
	},
	board.Healer: {
		{"..X..", "..X..", "XX.XX", "..X..", "..X.."},
		{".X.", "X.X", ".X."},
	},
	board.Bomber: {
		{".X.", "X.X", ".X."},
		{"XXX", "X.X", "XXX"},
	},
	board.Pointeur: {
		{"X.X", "...", "X.X"},
		{"..X..", "..X..", "XX.XX", "..X..", "..X.."},
	},
	board.CoupDePied: {
		{".X.X.", "X...X", ".....", "X...X", ".X.X."},
		{"XXX", "X.X", "XXX"},
	},
	board.Parpaing: {
		{".X.", "X.X", ".X."},
		{".X.", "X.X", ".X."},
	},
}

type placedPiece struct {
	team board.Team
	kind board.PieceType
	at   board.Coord
}

var defaultLineup = []placedPiece{
	{board.TeamRed, board.PierreFeuilleCiseaux, board.Coord{X: 0, Y: 0}},
	{board.TeamRed, board.TalkToLong, board.Coord{X: 1, Y: 0}},
	{board.TeamRed, board.Fireblast, board.Coord{X: 3, Y: 0}},
	{board.TeamRed, board.Healer, board.Coord{X: 4, Y: 0}},
	{board.TeamBlue, board.Bomber, board.Coord{X: 0, Y: 4}},
	{board.TeamBlue, board.Pointeur, board.Coord{X: 1, Y: 4}},
	{board.TeamBlue, board.CoupDePied, board.Coord{X: 3, Y: 4}},
	{board.TeamBlue, board.Parpaing, board.Coord{X: 4, Y: 4}},
}

// Default returns the demo scene: a 10 cm-per-tile mini board and a 2 m-per-
// tile giant board set 20 m away, each with four pieces per side.
func Default() Scene {
	return Scene{
		Mini:  grid("mini", geo.Placement{}, 0.1, geo.Placement{Z: 0.01}),
		Giant: grid("giant", geo.Placement{X: 20}, 2, geo.Placement{Z: 0.2}),
	}
}

func grid(name string, origin geo.Placement, spacing float64, marker geo.Placement) Layout {
	l := Layout{
		Name:         name,
		Width:        board.Width,
		Height:       board.Height,
		TilePrefix:   DefaultTilePrefix,
		MarkerOffset: marker,
	}
	for i := 0; i < board.Width*board.Height; i++ {
		c := board.CoordFromIndex(i, board.Width)
		color := "#f0d9b5"
		if (c.X+c.Y)%2 == 1 {
			color = "#b58863"
		}
		l.Tiles = append(l.Tiles, TileSpec{
			Name:  tileName(i),
			Color: color,
			Placement: origin.Offset(geo.Placement{
				X: float64(c.X) * spacing,
				Y: float64(c.Y) * spacing,
			}),
		})
	}
	for _, p := range defaultLineup {
		masks := kindMasks[p.kind]
		l.Pieces = append(l.Pieces, PieceSpec{
			Name:      fmt.Sprintf("%s_%s", p.team, p.kind),
			Team:      p.team.String(),
			Type:      p.kind.String(),
			Tile:      tileName(board.IndexFromCoord(p.at, board.Width)),
			Movement:  masks[0],
			Attack:    masks[1],
			Frames:    60,
			FrameRate: 30,
		})
	}
	return l
}

func tileName(i int) string {
	return fmt.Sprintf("%s%d", DefaultTilePrefix, i)
}
