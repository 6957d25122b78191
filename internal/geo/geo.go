package geo

import (
	"errors"
	"math"
	"strconv"
	"strings"

	geom "github.com/peterstace/simplefeatures/geom"
)

// World placements are expressed in the tabletop frame: X/Y span the board
// plane and Z is height above it. Distances are measured on the plane with
// simplefeatures and then lifted by the height difference.

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// Placement is a world-space position of a tile, marker or piece.
type Placement struct {
	X float64 `json:"x" mapstructure:"x"`
	Y float64 `json:"y" mapstructure:"y"`
	Z float64 `json:"z" mapstructure:"z"`
}

// Point converts the placement into an XYZ point.
func (p Placement) Point() geom.Point {
	return geom.NewPoint(
		geom.Coordinates{
			XY:   geom.XY{X: p.X, Y: p.Y},
			Z:    p.Z,
			Type: geom.CoordinatesType(geom.DimXYZ),
		},
	)
}

// Offset returns p translated by d.
func (p Placement) Offset(d Placement) Placement {
	return Placement{X: p.X + d.X, Y: p.Y + d.Y, Z: p.Z + d.Z}
}

// String formats the placement as "x,y,z".
func (p Placement) String() string {
	return strconv.FormatFloat(p.X, 'f', -1, 64) + "," +
		strconv.FormatFloat(p.Y, 'f', -1, 64) + "," +
		strconv.FormatFloat(p.Z, 'f', -1, 64)
}

// Distance returns the euclidean distance between two placements.
func Distance(a, b Placement) float64 {
	planar, ok := geom.Distance(a.Point().AsGeometry(), b.Point().AsGeometry())
	if !ok {
		return math.Inf(1)
	}
	dz := a.Z - b.Z
	return math.Sqrt(planar*planar + dz*dz)
}

// PlacementFromString parses a "x,y" or "x,y,z" string into a Placement.
func PlacementFromString(coords string) (Placement, error) {
	coordsSplit := strings.Split(coords, ",")
	if len(coordsSplit) < 2 || len(coordsSplit) > 3 {
		return Placement{}, ErrInvalidCoordinates
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(coordsSplit[0]), 64)
	if err != nil {
		return Placement{}, ErrInvalidCoordinates
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(coordsSplit[1]), 64)
	if err != nil {
		return Placement{}, ErrInvalidCoordinates
	}
	var z float64
	if len(coordsSplit) > 2 {
		z, err = strconv.ParseFloat(strings.TrimSpace(coordsSplit[2]), 64)
		if err != nil {
			return Placement{}, ErrInvalidCoordinates
		}
	}
	return Placement{X: x, Y: y, Z: z}, nil
}
