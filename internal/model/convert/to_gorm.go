// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"encoding/json"

	"github.com/hololab/tabletop4d/internal/geo"
	"github.com/hololab/tabletop4d/internal/model"
	"github.com/hololab/tabletop4d/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

// position3DToPoint converts a core.Position3D to an XYZ geom.Point
func position3DToPoint(p core.Position3D) geom.Point {
	return geo.Placement{X: p.X, Y: p.Y, Z: p.Z}.Point()
}

// rowsToJSON converts board rows to datatypes.JSON for DB storage.
func rowsToJSON(rows []string) datatypes.JSON {
	if len(rows) == 0 {
		return datatypes.JSON("[]")
	}
	data, _ := json.Marshal(rows)
	return datatypes.JSON(data)
}

// CoreToMatch converts a core.Match and its lineup to a GORM model.Match.
func CoreToMatch(m core.Match) model.Match {
	pieces := make([]model.MatchPiece, 0, len(m.Pieces))
	for _, p := range m.Pieces {
		pieces = append(pieces, model.MatchPiece{
			MatchID:  m.ID,
			Board:    p.Board,
			Name:     p.Name,
			Type:     p.Type,
			Team:     p.Team,
			X:        p.Coord.X,
			Y:        p.Coord.Y,
			Position: position3DToPoint(p.Position),
			Paired:   p.Paired,
		})
	}
	return model.Match{
		ID:        m.ID,
		Name:      m.Name,
		StartTime: m.StartTime,
		Seed:      m.Seed,
		FirstSide: m.FirstSide,
		Version:   m.Version,
		Pieces:    pieces,
	}
}

// CoreToTurn converts a core.TurnEvent to a GORM model.Turn.
func CoreToTurn(e core.TurnEvent) model.Turn {
	return model.Turn{
		MatchID:   e.MatchID,
		Turn:      e.Turn,
		Time:      e.Time,
		Side:      e.Side,
		Piece:     e.Piece,
		PieceType: e.PieceType,
		FromX:     e.From.X,
		FromY:     e.From.Y,
		ToX:       e.To.X,
		ToY:       e.To.Y,
		Captured:  e.Captured,
		Moves:     e.Moves,
		Captures:  e.Captures,
		Board:     rowsToJSON(e.Board),
	}
}

// CoreToCapture converts a core.CaptureEvent to a GORM model.Capture.
func CoreToCapture(e core.CaptureEvent) model.Capture {
	return model.Capture{
		MatchID:      e.MatchID,
		Turn:         e.Turn,
		Time:         e.Time,
		Attacker:     e.Attacker,
		AttackerTeam: e.AttackerTeam,
		Victim:       e.Victim,
		VictimType:   e.VictimType,
		VictimTeam:   e.VictimTeam,
		X:            e.At.X,
		Y:            e.At.Y,
		GiantRemoved: e.GiantRemoved,
	}
}

// CoreToSync converts a core.SyncEvent to a GORM model.Sync.
func CoreToSync(e core.SyncEvent) model.Sync {
	return model.Sync{
		MatchID:   e.MatchID,
		Turn:      e.Turn,
		Time:      e.Time,
		Piece:     e.Piece,
		X:         e.To.X,
		Y:         e.To.Y,
		Position:  position3DToPoint(e.Position),
		Animation: e.Animation,
	}
}
