package board

import (
	"fmt"

	"github.com/hololab/tabletop4d/internal/geo"
	"github.com/hololab/tabletop4d/internal/playback"
)

// Identity is the key used to pair a mini piece with its giant twin.
type Identity struct {
	Name string
	Type PieceType
	Team Team
}

func (id Identity) String() string {
	return fmt.Sprintf("%s/%s/%s", id.Name, id.Type, id.Team)
}

// Piece is a character standing on a board.
type Piece struct {
	Name     string
	Team     Team
	Type     PieceType
	Position Coord
	Movement Mask
	Attack   Mask
	// Placement is the piece's current world position. On the mini board it
	// follows the player's hand; on the giant board it is driven by sync.
	Placement geo.Placement
	Handle    playback.Handle

	Active   bool
	Selected bool
}

// Identity returns the piece's pairing key.
func (p *Piece) Identity() Identity {
	return Identity{Name: p.Name, Type: p.Type, Team: p.Team}
}

// CanMoveTo reports whether target is open in the movement mask.
func (p *Piece) CanMoveTo(target Coord) bool {
	return p.Movement.Allows(target.Sub(p.Position))
}

// CanAttack reports whether target is open in the attack mask.
func (p *Piece) CanAttack(target Coord) bool {
	return p.Attack.Allows(target.Sub(p.Position))
}

func (p *Piece) String() string {
	return fmt.Sprintf("%s[%s %s @ %s]", p.Name, p.Team, p.Type, p.Position)
}
