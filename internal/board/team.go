package board

import (
	"fmt"
	"strings"
)

// Team is a side of the match.
type Team int

const (
	TeamRed Team = iota
	TeamBlue
)

// Opponent returns the other side.
func (t Team) Opponent() Team {
	if t == TeamRed {
		return TeamBlue
	}
	return TeamRed
}

func (t Team) String() string {
	switch t {
	case TeamRed:
		return "Red"
	case TeamBlue:
		return "Blue"
	default:
		return fmt.Sprintf("Team(%d)", int(t))
	}
}

// ParseTeam parses "red" or "blue", case-insensitive.
func ParseTeam(s string) (Team, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "red":
		return TeamRed, nil
	case "blue":
		return TeamBlue, nil
	default:
		return 0, fmt.Errorf("unknown team %q", s)
	}
}

// PieceType is one of the eight character kinds.
type PieceType int

const (
	PierreFeuilleCiseaux PieceType = iota
	TalkToLong
	Fireblast
	Healer
	Bomber
	Pointeur
	CoupDePied
	Parpaing
)

var pieceTypeNames = [...]string{
	PierreFeuilleCiseaux: "PierreFeuilleCiseaux",
	TalkToLong:           "TalkToLong",
	Fireblast:            "Fireblast",
	Healer:               "Healer",
	Bomber:               "Bomber",
	Pointeur:             "Pointeur",
	CoupDePied:           "CoupDePied",
	Parpaing:             "Parpaing",
}

// PieceTypes lists every kind in declaration order.
func PieceTypes() []PieceType {
	out := make([]PieceType, len(pieceTypeNames))
	for i := range pieceTypeNames {
		out[i] = PieceType(i)
	}
	return out
}

func (p PieceType) String() string {
	if p >= 0 && int(p) < len(pieceTypeNames) {
		return pieceTypeNames[p]
	}
	return fmt.Sprintf("PieceType(%d)", int(p))
}

// ParsePieceType parses a kind name, case-insensitive.
func ParsePieceType(s string) (PieceType, error) {
	s = strings.TrimSpace(s)
	for i, name := range pieceTypeNames {
		if strings.EqualFold(name, s) {
			return PieceType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown piece type %q", s)
}
