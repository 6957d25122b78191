package layout

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hololab/tabletop4d/internal/board"
	"github.com/hololab/tabletop4d/internal/geo"
	"github.com/hololab/tabletop4d/internal/playback"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestDefault_IsValid(t *testing.T) {
	scene := Default()
	require.NoError(t, scene.Mini.Validate())
	require.NoError(t, scene.Giant.Validate())
}

func TestSetup_DefaultScene(t *testing.T) {
	scene := Default()

	mini, err := Setup(board.KindMini, scene.Mini, nil, nil)
	require.NoError(t, err)
	giant, err := Setup(board.KindGiant, scene.Giant, nil, nil)
	require.NoError(t, err)

	assert.Len(t, mini.Tiles(), 25)
	assert.Len(t, mini.Pieces(), 8)
	assert.Len(t, giant.Pieces(), 8)

	tile := mini.Tile(board.Coord{X: 3, Y: 2})
	require.NotNil(t, tile)
	assert.Equal(t, "SM_Tile13", tile.Name)
	assert.InDelta(t, 0.3, tile.Placement.X, 1e-9)
	assert.InDelta(t, 0.2, tile.Placement.Y, 1e-9)
	assert.InDelta(t, 0.01, tile.Marker.Z, 1e-9)

	gt := giant.Tile(board.Coord{X: 1, Y: 1})
	assert.InDelta(t, 22, gt.Placement.X, 1e-9)

	for _, p := range mini.Pieces() {
		assert.True(t, p.Active)
		assert.NotNil(t, p.Handle)
		assert.Equal(t, mini.Tile(p.Position).Placement, p.Placement)
	}
	assert.NoError(t, mini.CheckOccupancy())
}

func TestSetup_SkipsBadTilesAndPieces(t *testing.T) {
	var buf bytes.Buffer
	l := Layout{
		Tiles: []TileSpec{
			{Name: "SM_Tile0"},
			{Name: "SM_Tile1", Color: "not-a-color"},
			{Name: "SM_TileOops"},
			{Name: "SM_Tile0"},
		},
		Pieces: []PieceSpec{
			{Name: "ok", Team: "Red", Type: "Healer", Tile: "SM_Tile0"},
			{Name: "clash", Team: "Blue", Type: "Healer", Tile: "SM_Tile0"},
			{Name: "nowhere", Team: "Blue", Type: "Healer", Tile: "SM_Tile9"},
			{Name: "badteam", Team: "Green", Type: "Healer", Tile: "SM_Tile1"},
			{Name: "badtype", Team: "Blue", Type: "Queen", Tile: "SM_Tile1"},
			{Name: "null", Team: "Blue", Type: "Healer", Tile: "SM_Tile1"},
			{Name: "ragged", Team: "Blue", Type: "Healer", Tile: "SM_Tile1", Movement: []string{"XX", "X"}},
			{Name: "placed", Team: "Blue", Type: "Bomber", Tile: "SM_Tile1", Placement: "1,2,3"},
		},
	}

	b, err := Setup(board.KindMini, l, nil, testLogger(&buf))
	require.NoError(t, err)

	assert.Len(t, b.Tiles(), 2)
	assert.Equal(t, board.ColorWhite, b.Tile(board.Coord{X: 1}).BaseColor)

	names := make([]string, 0)
	for _, p := range b.Pieces() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"ok", "placed"}, names)
	assert.Equal(t, geo.Placement{X: 1, Y: 2, Z: 3}, b.Find(board.Identity{Name: "placed", Type: board.Bomber, Team: board.TeamBlue}).Placement)

	logs := buf.String()
	assert.Contains(t, logs, "Skipping tile")
	assert.Contains(t, logs, "SM_TileOops")
	assert.Contains(t, logs, "Skipping piece")
}

func TestSetup_EmptyLayout(t *testing.T) {
	_, err := Setup(board.KindGiant, Layout{Tiles: []TileSpec{{Name: "junk"}}}, nil, nil)
	assert.ErrorIs(t, err, ErrEmptyLayout)
}

func TestSetup_UsesHandleFactory(t *testing.T) {
	clip := playback.NewClip("custom", 10, 10, 0)
	l := Layout{
		Tiles:  []TileSpec{{Name: "SM_Tile0"}},
		Pieces: []PieceSpec{{Name: "a", Team: "Red", Type: "Bomber", Tile: "SM_Tile0"}},
	}
	b, err := Setup(board.KindMini, l, func(board.Kind, PieceSpec) playback.Handle { return clip }, nil)
	require.NoError(t, err)
	assert.Same(t, clip, b.Pieces()[0].Handle)
}

func TestValidate(t *testing.T) {
	l := Layout{
		Tiles: []TileSpec{{Name: "SM_Tile0"}, {Name: "SM_Tile0"}, {Name: "bad"}},
		Pieces: []PieceSpec{
			{Name: "a", Team: "Red", Type: "Bomber", Tile: "SM_Tile0"},
			{Name: "a", Team: "Pink", Type: "King", Tile: "SM_Tile7"},
		},
	}
	err := l.Validate()
	require.Error(t, err)
	for _, want := range []string{"duplicate tile", "bad", "duplicate piece", "undeclared tile", "unknown team", "unknown piece type"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoad_JSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.json")
	content := `{
  "mini": {
    "name": "mini",
    "tilePrefix": "T",
    "markerOffset": {"z": 0.5},
    "tiles": [
      {"name": "T0", "color": "#ffffff", "placement": {"x": 0, "y": 0}},
      {"name": "T1", "placement": {"x": 1, "y": 0}}
    ],
    "pieces": [
      {"name": "rock", "team": "Red", "type": "PierreFeuilleCiseaux", "tile": "T1",
       "movement": ["XXX", "X.X", "XXX"], "attack": ["X"], "frames": 30, "frameRate": 15}
    ]
  },
  "giant": {"name": "giant", "tiles": [{"name": "SM_Tile0"}]}
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	scene, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "T", scene.Mini.TilePrefix)
	require.Len(t, scene.Mini.Tiles, 2)
	require.Len(t, scene.Mini.Pieces, 1)
	assert.Equal(t, 15.0, scene.Mini.Pieces[0].FrameRate)
	assert.Equal(t, []string{"XXX", "X.X", "XXX"}, scene.Mini.Pieces[0].Movement)

	mini, err := Setup(board.KindMini, scene.Mini, nil, nil)
	require.NoError(t, err)
	rock := mini.PieceAt(board.Coord{X: 1})
	require.NotNil(t, rock)
	assert.Equal(t, 0.5, mini.Tile(board.Coord{X: 1}).Marker.Z)
	assert.Equal(t, 2*time.Second, playback.Duration(rock.Handle, 0))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
