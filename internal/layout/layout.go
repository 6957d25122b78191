// Package layout describes boards declaratively and builds them.
package layout

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hololab/tabletop4d/internal/board"
	"github.com/hololab/tabletop4d/internal/geo"
	"github.com/hololab/tabletop4d/internal/playback"
)

// DefaultTilePrefix is the name prefix of sequential tiles.
const DefaultTilePrefix = "SM_Tile"

// ErrEmptyLayout is returned when a layout declares no usable tiles.
var ErrEmptyLayout = errors.New("layout has no usable tiles")

// TileSpec declares one tile. Its coordinate comes from the index in Name.
type TileSpec struct {
	Name      string        `json:"name" mapstructure:"name"`
	Color     string        `json:"color" mapstructure:"color"`
	Placement geo.Placement `json:"placement" mapstructure:"placement"`
}

// PieceSpec declares one piece standing on the tile named Tile.
type PieceSpec struct {
	Name     string   `json:"name" mapstructure:"name"`
	Team     string   `json:"team" mapstructure:"team"`
	Type     string   `json:"type" mapstructure:"type"`
	Tile     string   `json:"tile" mapstructure:"tile"`
	Movement []string `json:"movement" mapstructure:"movement"`
	Attack   []string `json:"attack" mapstructure:"attack"`
	// Placement is an optional "x,y,z" world position; defaults to the tile's.
	Placement  string  `json:"placement,omitempty" mapstructure:"placement"`
	Frames     int     `json:"frames" mapstructure:"frames"`
	FrameRate  float64 `json:"frameRate" mapstructure:"frameRate"`
	FirstFrame int     `json:"firstFrame" mapstructure:"firstFrame"`
}

// Layout declares a whole board.
type Layout struct {
	Name         string        `json:"name" mapstructure:"name"`
	Width        int           `json:"width" mapstructure:"width"`
	Height       int           `json:"height" mapstructure:"height"`
	TilePrefix   string        `json:"tilePrefix" mapstructure:"tilePrefix"`
	MarkerOffset geo.Placement `json:"markerOffset" mapstructure:"markerOffset"`
	Tiles        []TileSpec    `json:"tiles" mapstructure:"tiles"`
	Pieces       []PieceSpec   `json:"pieces" mapstructure:"pieces"`
}

// Scene pairs the mini and giant board layouts.
type Scene struct {
	Mini  Layout `json:"mini" mapstructure:"mini"`
	Giant Layout `json:"giant" mapstructure:"giant"`
}

// HandleFactory supplies the playback handle for a piece.
type HandleFactory func(kind board.Kind, spec PieceSpec) playback.Handle

// ClipFactory attaches an in-process playback.Clip to every piece.
func ClipFactory(kind board.Kind, spec PieceSpec) playback.Handle {
	return playback.NewClip(string(kind)+":"+spec.Name, spec.Frames, spec.FrameRate, spec.FirstFrame)
}

func (l Layout) dims() (int, int) {
	w, h := l.Width, l.Height
	if w <= 0 {
		w = board.Width
	}
	if h <= 0 {
		h = board.Height
	}
	return w, h
}

func (l Layout) prefix() string {
	if l.TilePrefix == "" {
		return DefaultTilePrefix
	}
	return l.TilePrefix
}

// Validate reports structural problems: duplicate names, pieces pointing at
// undeclared tiles, unknown teams or types. Setup tolerates all of these by
// skipping the offending entry; Validate exists for tooling that wants to
// fail fast.
func (l Layout) Validate() error {
	var errs []error
	tiles := make(map[string]bool, len(l.Tiles))
	for _, t := range l.Tiles {
		if tiles[t.Name] {
			errs = append(errs, fmt.Errorf("duplicate tile %q", t.Name))
		}
		tiles[t.Name] = true
		if _, err := board.ParseTileIndex(t.Name, l.prefix()); err != nil {
			errs = append(errs, err)
		}
	}
	pieces := make(map[string]bool, len(l.Pieces))
	for _, p := range l.Pieces {
		if pieces[p.Name] {
			errs = append(errs, fmt.Errorf("duplicate piece %q", p.Name))
		}
		pieces[p.Name] = true
		if !tiles[p.Tile] {
			errs = append(errs, fmt.Errorf("piece %q on undeclared tile %q", p.Name, p.Tile))
		}
		if _, err := board.ParseTeam(p.Team); err != nil {
			errs = append(errs, fmt.Errorf("piece %q: %w", p.Name, err))
		}
		if _, err := board.ParsePieceType(p.Type); err != nil {
			errs = append(errs, fmt.Errorf("piece %q: %w", p.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Setup builds a board from a layout. Tiles whose name does not parse to an
// index and pieces that cannot be placed are logged and skipped. Only a
// layout with no usable tile at all is an error.
func Setup(kind board.Kind, l Layout, handles HandleFactory, logger *slog.Logger) (*board.Board, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if handles == nil {
		handles = ClipFactory
	}
	logger = logger.With("board", string(kind))

	width, height := l.dims()
	b := board.New(kind, width, height)
	byName := make(map[string]*board.Tile, len(l.Tiles))

	for _, spec := range l.Tiles {
		idx, err := board.ParseTileIndex(spec.Name, l.prefix())
		if err != nil {
			logger.Warn("Skipping tile", "tile", spec.Name, "error", err)
			continue
		}
		base := board.ColorWhite
		if spec.Color != "" {
			if base, err = board.ParseColor(spec.Color); err != nil {
				logger.Warn("Bad tile color, using white", "tile", spec.Name, "error", err)
				base = board.ColorWhite
			}
		}
		tile := board.NewTile(spec.Name, board.CoordFromIndex(idx, width), base,
			spec.Placement, spec.Placement.Offset(l.MarkerOffset))
		if err := b.AddTile(tile); err != nil {
			logger.Warn("Skipping tile", "tile", spec.Name, "error", err)
			continue
		}
		byName[spec.Name] = tile
	}
	if len(byName) == 0 {
		return nil, fmt.Errorf("%s board %q: %w", kind, l.Name, ErrEmptyLayout)
	}

	for _, spec := range l.Pieces {
		piece, err := buildPiece(spec, byName)
		if err != nil {
			logger.Warn("Skipping piece", "piece", spec.Name, "error", err)
			continue
		}
		piece.Handle = handles(kind, spec)
		if err := b.AddPiece(piece); err != nil {
			logger.Warn("Skipping piece", "piece", spec.Name, "error", err)
			continue
		}
	}
	if len(b.Pieces()) == 0 {
		logger.Warn("Board has no pieces")
	}

	logger.Info("Board ready", "tiles", len(b.Tiles()), "pieces", len(b.Pieces()))
	return b, nil
}

func buildPiece(spec PieceSpec, tiles map[string]*board.Tile) (*board.Piece, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" || name == "null" {
		return nil, errors.New("piece has no name")
	}
	team, err := board.ParseTeam(spec.Team)
	if err != nil {
		return nil, err
	}
	kind, err := board.ParsePieceType(spec.Type)
	if err != nil {
		return nil, err
	}
	tile, ok := tiles[spec.Tile]
	if !ok {
		return nil, fmt.Errorf("tile %q not on board", spec.Tile)
	}
	movement, err := board.ParseMask(spec.Movement)
	if err != nil {
		return nil, fmt.Errorf("movement mask: %w", err)
	}
	attack, err := board.ParseMask(spec.Attack)
	if err != nil {
		return nil, fmt.Errorf("attack mask: %w", err)
	}
	placement := tile.Placement
	if spec.Placement != "" {
		if placement, err = geo.PlacementFromString(spec.Placement); err != nil {
			return nil, fmt.Errorf("placement: %w", err)
		}
	}
	return &board.Piece{
		Name:      name,
		Team:      team,
		Type:      kind,
		Position:  tile.Coord,
		Movement:  movement,
		Attack:    attack,
		Placement: placement,
	}, nil
}
