package model

import (
	"database/sql"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Match{},
	&MatchPiece{},
	&Turn{},
	&Capture{},
	&Sync{},
}

// Match is one recorded game
type Match struct {
	ID        uint         `json:"id" gorm:"primarykey;autoIncrement;"`
	CreatedAt time.Time    `json:"createdAt"`
	Name      string       `json:"name" gorm:"size:127"`
	StartTime time.Time    `json:"startTime" gorm:"index:idx_match_start"`
	EndTime   sql.NullTime `json:"endTime"`
	Seed      int64        `json:"seed"`
	FirstSide string       `json:"firstSide" gorm:"size:8"`
	Version   string       `json:"version" gorm:"size:32"`
	Pieces    []MatchPiece `json:"pieces" gorm:"foreignKey:MatchID"`
}

func (*Match) TableName() string {
	return "matches"
}

// MatchPiece is a piece of the starting lineup
type MatchPiece struct {
	ID       uint       `json:"id" gorm:"primarykey;autoIncrement;"`
	MatchID  uint       `json:"matchId" gorm:"index:idx_piece_match_id"`
	Board    string     `json:"board" gorm:"size:8"`
	Name     string     `json:"name" gorm:"size:64"`
	Type     string     `json:"type" gorm:"size:32"`
	Team     string     `json:"team" gorm:"size:8"`
	X        int        `json:"x"`
	Y        int        `json:"y"`
	Position geom.Point `json:"position"`
	Paired   bool       `json:"paired"`
}

func (*MatchPiece) TableName() string {
	return "match_pieces"
}

// Turn is a resolved turn
type Turn struct {
	ID        uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	MatchID   uint           `json:"matchId" gorm:"index:idx_turn_match_id"`
	Turn      uint           `json:"turn" gorm:"index:idx_turn"`
	Time      time.Time      `json:"time"`
	Side      string         `json:"side" gorm:"size:8"`
	Piece     string         `json:"piece" gorm:"size:64"`
	PieceType string         `json:"pieceType" gorm:"size:32"`
	FromX     int            `json:"fromX"`
	FromY     int            `json:"fromY"`
	ToX       int            `json:"toX"`
	ToY       int            `json:"toY"`
	Captured  string         `json:"captured" gorm:"size:64"`
	Moves     int            `json:"moves"`
	Captures  int            `json:"captures"`
	Board     datatypes.JSON `json:"board"` // ASCII rows
}

func (*Turn) TableName() string {
	return "turns"
}

// Capture is a piece taken off both boards
type Capture struct {
	ID           uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	MatchID      uint      `json:"matchId" gorm:"index:idx_capture_match_id"`
	Turn         uint      `json:"turn"`
	Time         time.Time `json:"time"`
	Attacker     string    `json:"attacker" gorm:"size:64"`
	AttackerTeam string    `json:"attackerTeam" gorm:"size:8"`
	Victim       string    `json:"victim" gorm:"size:64"`
	VictimType   string    `json:"victimType" gorm:"size:32"`
	VictimTeam   string    `json:"victimTeam" gorm:"size:8"`
	X            int       `json:"x"`
	Y            int       `json:"y"`
	GiantRemoved bool      `json:"giantRemoved"`
}

func (*Capture) TableName() string {
	return "captures"
}

// Sync is a giant piece following its mini counterpart
type Sync struct {
	ID        uint       `json:"id" gorm:"primarykey;autoIncrement;"`
	MatchID   uint       `json:"matchId" gorm:"index:idx_sync_match_id"`
	Turn      uint       `json:"turn"`
	Time      time.Time  `json:"time"`
	Piece     string     `json:"piece" gorm:"size:64"`
	X         int        `json:"x"`
	Y         int        `json:"y"`
	Position  geom.Point `json:"position"`
	Animation float64    `json:"animation"`
}

func (*Sync) TableName() string {
	return "syncs"
}
