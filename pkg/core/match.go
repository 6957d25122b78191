// pkg/core/match.go
package core

import "time"

// Coord is a logical board coordinate.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Position3D is a world placement in the tabletop frame.
type Position3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Match is a recorded game between the red and blue sides.
type Match struct {
	ID        uint        `json:"id"`
	Name      string      `json:"name"`
	StartTime time.Time   `json:"startTime"`
	Seed      int64       `json:"seed"`
	FirstSide string      `json:"firstSide"`
	Version   string      `json:"version"`
	Pieces    []PieceInfo `json:"pieces"`
}

// PieceInfo describes a piece as it stood when the match started.
type PieceInfo struct {
	Board    string     `json:"board"` // mini or giant
	Name     string     `json:"name"`
	Type     string     `json:"type"`
	Team     string     `json:"team"`
	Coord    Coord      `json:"coord"`
	Position Position3D `json:"position"`
	Paired   bool       `json:"paired"`
}

// UploadMetadata describes an exported match sent to the spectator server.
type UploadMetadata struct {
	MatchName string
	Duration  float64 // seconds
	Turns     uint
	Winner    string
	Seed      int64
	FirstSide string
}
