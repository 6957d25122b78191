// pkg/core/events.go
package core

import "time"

// TurnEvent is written once per resolved turn.
type TurnEvent struct {
	MatchID   uint      `json:"matchId"`
	Turn      uint      `json:"turn"`
	Time      time.Time `json:"time"`
	Side      string    `json:"side"`
	Piece     string    `json:"piece"`
	PieceType string    `json:"pieceType"`
	From      Coord     `json:"from"`
	To        Coord     `json:"to"`
	Captured  string    `json:"captured,omitempty"`
	Moves     int       `json:"moves"`    // highlighted move tiles
	Captures  int       `json:"captures"` // highlighted capture tiles
	Board     []string  `json:"board"`    // ASCII rows of the mini board after the move
}

// CaptureEvent records a piece removed from both boards.
type CaptureEvent struct {
	MatchID      uint      `json:"matchId"`
	Turn         uint      `json:"turn"`
	Time         time.Time `json:"time"`
	Attacker     string    `json:"attacker"`
	AttackerTeam string    `json:"attackerTeam"`
	Victim       string    `json:"victim"`
	VictimType   string    `json:"victimType"`
	VictimTeam   string    `json:"victimTeam"`
	At           Coord     `json:"at"`
	GiantRemoved bool      `json:"giantRemoved"`
}

// SyncEvent records the giant counterpart following a mini move.
type SyncEvent struct {
	MatchID   uint       `json:"matchId"`
	Turn      uint       `json:"turn"`
	Time      time.Time  `json:"time"`
	Piece     string     `json:"piece"`
	To        Coord      `json:"to"`
	Position  Position3D `json:"position"`
	Animation float64    `json:"animation"` // seconds
}
