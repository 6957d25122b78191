// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// MatchExport is the root JSON structure
type MatchExport struct {
	Version   string      `json:"version"`
	MatchName string      `json:"matchName"`
	Seed      int64       `json:"seed"`
	FirstSide string      `json:"firstSide"`
	StartTime string      `json:"startTime"`
	EndTime   string      `json:"endTime"`
	EndTurn   uint        `json:"endTurn"`
	Pieces    []PieceJSON `json:"pieces"`
	Events    [][]any     `json:"events"`
}

// PieceJSON is a piece with its position per turn
type PieceJSON struct {
	Board        string  `json:"board"`
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	Team         string  `json:"team"`
	Start        []int   `json:"start"`
	Positions    [][]any `json:"positions"` // [turn, x, y]
	CapturedTurn uint    `json:"capturedTurn,omitempty"`
}

// exportJSON writes the match data to a (optionally gzipped) JSON file
func (b *Backend) exportJSON() error {
	export := b.buildExport()

	matchName := strings.ReplaceAll(b.match.Name, " ", "_")
	matchName = strings.ReplaceAll(matchName, ":", "_")
	if matchName == "" {
		matchName = "match"
	}
	timestamp := b.match.StartTime.Format("20060102_150405")

	var filename string
	if b.cfg.CompressOutput {
		filename = fmt.Sprintf("%s_%s.json.gz", matchName, timestamp)
	} else {
		filename = fmt.Sprintf("%s_%s.json", matchName, timestamp)
	}

	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if b.cfg.CompressOutput {
		if err := writeGzipJSON(outputPath, export); err != nil {
			return err
		}
	} else {
		if err := writeJSON(outputPath, export); err != nil {
			return err
		}
	}

	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) buildExport() MatchExport {
	export := MatchExport{
		Version:   b.match.Version,
		MatchName: b.match.Name,
		Seed:      b.match.Seed,
		FirstSide: b.match.FirstSide,
		StartTime: b.match.StartTime.UTC().Format("2006-01-02T15:04:05Z"),
		EndTime:   b.endTime.UTC().Format("2006-01-02T15:04:05Z"),
		Pieces:    make([]PieceJSON, 0, len(b.match.Pieces)),
		Events:    make([][]any, 0, len(b.turns)+len(b.captures)+len(b.syncs)),
	}

	// mini pieces move on turns, giant pieces on syncs; a name is unique per board
	index := make(map[string]int, len(b.match.Pieces))
	for _, p := range b.match.Pieces {
		index[p.Board+"/"+p.Name] = len(export.Pieces)
		export.Pieces = append(export.Pieces, PieceJSON{
			Board:     p.Board,
			Name:      p.Name,
			Type:      p.Type,
			Team:      p.Team,
			Start:     []int{p.Coord.X, p.Coord.Y},
			Positions: [][]any{{0, p.Coord.X, p.Coord.Y}},
		})
	}

	for _, t := range b.turns {
		if i, ok := index["mini/"+t.Piece]; ok {
			export.Pieces[i].Positions = append(export.Pieces[i].Positions, []any{t.Turn, t.To.X, t.To.Y})
		}
		export.Events = append(export.Events, []any{t.Turn, "turn", t.Side, t.Piece, []int{t.From.X, t.From.Y}, []int{t.To.X, t.To.Y}})
		if t.Turn > export.EndTurn {
			export.EndTurn = t.Turn
		}
	}
	for _, s := range b.syncs {
		if i, ok := index["giant/"+s.Piece]; ok {
			export.Pieces[i].Positions = append(export.Pieces[i].Positions, []any{s.Turn, s.To.X, s.To.Y})
		}
		export.Events = append(export.Events, []any{s.Turn, "sync", s.Piece, []int{s.To.X, s.To.Y}, []float64{s.Position.X, s.Position.Y, s.Position.Z}})
	}
	for _, c := range b.captures {
		if i, ok := index["mini/"+c.Victim]; ok {
			export.Pieces[i].CapturedTurn = c.Turn
		}
		if i, ok := index["giant/"+c.Victim]; ok && c.GiantRemoved {
			export.Pieces[i].CapturedTurn = c.Turn
		}
		export.Events = append(export.Events, []any{c.Turn, "capture", c.Attacker, c.Victim, []int{c.At.X, c.At.Y}})
	}

	sort.SliceStable(export.Events, func(i, j int) bool {
		return export.Events[i][0].(uint) < export.Events[j][0].(uint)
	})
	return export
}

func writeJSON(path string, data any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func writeGzipJSON(path string, data any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gw := gzip.NewWriter(f)
	if err := json.NewEncoder(gw).Encode(data); err != nil {
		gw.Close()
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	if err := gw.Close(); err != nil {
		return fmt.Errorf("failed to close gzip writer: %w", err)
	}
	return nil
}
