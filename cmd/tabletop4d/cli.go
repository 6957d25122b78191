package main

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/hololab/tabletop4d/internal/api"
	"github.com/hololab/tabletop4d/internal/database"
	"github.com/hololab/tabletop4d/internal/model"
	gormstorage "github.com/hololab/tabletop4d/internal/storage/gorm"
	"github.com/hololab/tabletop4d/pkg/core"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

// matchHistory is the export document for one recorded match.
type matchHistory struct {
	ID        uint             `json:"id"`
	Name      string           `json:"name"`
	Seed      int64            `json:"seed"`
	FirstSide string           `json:"firstSide"`
	Version   string           `json:"version"`
	Turns     []core.TurnEvent `json:"turns"`
}

func newExportCmd() *cobra.Command {
	var sqlitePath, outPath string
	cmd := &cobra.Command{
		Use:   "export <match-id>...",
		Short: "Export recorded matches as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]uint, 0, len(args))
			for _, a := range args {
				id, err := strconv.ParseUint(a, 10, 64)
				if err != nil {
					return fmt.Errorf("bad match id %q: %w", a, err)
				}
				ids = append(ids, uint(id))
			}

			db, err := openHistoryDB(sqlitePath)
			if err != nil {
				return err
			}

			var out io.Writer = cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", outPath, err)
				}
				defer f.Close()
				out = f
				if strings.HasSuffix(outPath, ".gz") {
					gz := gzip.NewWriter(f)
					defer gz.Close()
					out = gz
				}
			}
			return exportMatches(db, ids, out)
		},
	}
	cmd.Flags().StringVar(&sqlitePath, "sqlite", "", "read from a SQLite dump instead of Postgres")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (.gz compresses)")
	return cmd
}

func openHistoryDB(sqlitePath string) (*gorm.DB, error) {
	if sqlitePath != "" {
		if _, err := os.Stat(sqlitePath); err != nil {
			return nil, fmt.Errorf("sqlite dump: %w", err)
		}
		Logger.Info("Reading SQLite dump", "path", sqlitePath)
		return database.GetSqliteDBStandalone(sqlitePath)
	}

	Logger.Info("Connecting to database...")
	db, err := database.GetPostgresDBStandalone()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to validate connection: %w", err)
	}
	Logger.Info("Database connection established.")
	return db, nil
}

func exportMatches(db *gorm.DB, ids []uint, out io.Writer) error {
	reader := gormstorage.New(gormstorage.Dependencies{DB: db, Logger: Logger})
	docs := make([]matchHistory, 0, len(ids))
	for _, id := range ids {
		var m model.Match
		if err := db.Where("id = ?", id).First(&m).Error; err != nil {
			return fmt.Errorf("match %d: %w", id, err)
		}
		turns, err := reader.Turns(id)
		if err != nil {
			return fmt.Errorf("match %d: %w", id, err)
		}
		docs = append(docs, matchHistory{
			ID:        m.ID,
			Name:      m.Name,
			Seed:      m.Seed,
			FirstSide: m.FirstSide,
			Version:   m.Version,
			Turns:     turns,
		})
		Logger.Info("Exported match", "id", id, "turns", len(turns))
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(docs)
}

func newHealthcheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "healthcheck",
		Short: "Check that the spectator server is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			url := viper.GetString("api.serverUrl")
			if err := api.New(url, viper.GetString("api.apiKey")).Healthcheck(cmd.Context()); err != nil {
				return fmt.Errorf("%s: %w", url, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is online\n", url)
			return nil
		},
	}
}
