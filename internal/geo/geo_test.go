package geo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlacementFromString_ValidWithHeight(t *testing.T) {
	p, err := PlacementFromString("1.5,2.25,0.5")

	require.NoError(t, err)
	assert.Equal(t, Placement{X: 1.5, Y: 2.25, Z: 0.5}, p)
}

func TestPlacementFromString_ValidWithoutHeight(t *testing.T) {
	p, err := PlacementFromString("-3, 4")

	require.NoError(t, err)
	assert.Equal(t, Placement{X: -3, Y: 4}, p)
}

func TestPlacementFromString_Invalid(t *testing.T) {
	tests := []string{"", "1", "a,2", "1,b", "1,2,c", "1,2,3,4"}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			_, err := PlacementFromString(in)
			if !errors.Is(err, ErrInvalidCoordinates) {
				t.Errorf("expected ErrInvalidCoordinates, got %v", err)
			}
		})
	}
}

func TestPlacement_Point(t *testing.T) {
	pt := Placement{X: 1, Y: 2, Z: 3}.Point()

	coords, ok := pt.Coordinates()
	require.True(t, ok)
	assert.Equal(t, 1.0, coords.X)
	assert.Equal(t, 2.0, coords.Y)
	assert.Equal(t, 3.0, coords.Z)
}

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b Placement
		want float64
	}{
		{"same point", Placement{X: 1, Y: 1}, Placement{X: 1, Y: 1}, 0},
		{"planar", Placement{}, Placement{X: 3, Y: 4}, 5},
		{"with height", Placement{}, Placement{X: 2, Y: 3, Z: 6}, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Distance(tt.a, tt.b), 1e-9)
		})
	}
}

func TestPlacement_OffsetAndString(t *testing.T) {
	p := Placement{X: 1, Y: 2}.Offset(Placement{X: 0.5, Z: 1})
	assert.Equal(t, Placement{X: 1.5, Y: 2, Z: 1}, p)
	assert.Equal(t, "1.5,2,1", p.String())
}
