package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableNames(t *testing.T) {
	tests := []struct {
		name     string
		model    interface{ TableName() string }
		expected string
	}{
		{"Match", &Match{}, "matches"},
		{"MatchPiece", &MatchPiece{}, "match_pieces"},
		{"Turn", &Turn{}, "turns"},
		{"Capture", &Capture{}, "captures"},
		{"Sync", &Sync{}, "syncs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.model.TableName())
		})
	}
}

func TestDatabaseModels_CoversAllTables(t *testing.T) {
	assert.Len(t, DatabaseModels, 5)
}
