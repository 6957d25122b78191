package convert

import (
	"encoding/json"

	"github.com/hololab/tabletop4d/internal/model"
	"github.com/hololab/tabletop4d/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// pointToPosition3D converts a geom.Point to a core.Position3D
func pointToPosition3D(p geom.Point) core.Position3D {
	coord, ok := p.Coordinates()
	if !ok {
		return core.Position3D{}
	}
	return core.Position3D{X: coord.XY.X, Y: coord.XY.Y, Z: coord.Z}
}

// TurnToCore converts a GORM Turn back to a core.TurnEvent.
func TurnToCore(t model.Turn) core.TurnEvent {
	var rows []string
	if len(t.Board) > 0 {
		_ = json.Unmarshal(t.Board, &rows)
	}
	return core.TurnEvent{
		MatchID:   t.MatchID,
		Turn:      t.Turn,
		Time:      t.Time,
		Side:      t.Side,
		Piece:     t.Piece,
		PieceType: t.PieceType,
		From:      core.Coord{X: t.FromX, Y: t.FromY},
		To:        core.Coord{X: t.ToX, Y: t.ToY},
		Captured:  t.Captured,
		Moves:     t.Moves,
		Captures:  t.Captures,
		Board:     rows,
	}
}

// SyncToCore converts a GORM Sync back to a core.SyncEvent.
func SyncToCore(s model.Sync) core.SyncEvent {
	return core.SyncEvent{
		MatchID:   s.MatchID,
		Turn:      s.Turn,
		Time:      s.Time,
		Piece:     s.Piece,
		To:        core.Coord{X: s.X, Y: s.Y},
		Position:  pointToPosition3D(s.Position),
		Animation: s.Animation,
	}
}
