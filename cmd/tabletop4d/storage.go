package main

import (
	"fmt"
	"path/filepath"

	"github.com/hololab/tabletop4d/internal/config"
	"github.com/hololab/tabletop4d/internal/storage"
	"github.com/hololab/tabletop4d/internal/storage/memory"
	pgstorage "github.com/hololab/tabletop4d/internal/storage/postgres"
	sqlitestorage "github.com/hololab/tabletop4d/internal/storage/sqlite"
	wsstorage "github.com/hololab/tabletop4d/internal/storage/websocket"
	"github.com/spf13/viper"
)

// initStorage creates and initializes the configured backend.
func initStorage() (storage.Backend, error) {
	storageCfg := config.GetStorageConfig()

	backend, err := createStorageBackend(storageCfg)
	if err != nil {
		Logger.Error("Failed to create storage backend", "error", err)
		return nil, err
	}
	if err := backend.Init(); err != nil {
		Logger.Error("Failed to initialize storage backend", "error", err, "type", storageCfg.Type)
		return nil, err
	}
	return backend, nil
}

func createStorageBackend(storageCfg config.StorageConfig) (storage.Backend, error) {
	dbFilePath := filepath.Join(
		viper.GetString("logsDir"),
		fmt.Sprintf("%s_%s.db", BinaryName, SessionStartTime.Format("20060102_150405")),
	)

	switch storageCfg.Type {
	case "postgres":
		Logger.Info("Postgres storage backend initialized")
		return pgstorage.New(pgstorage.Dependencies{
			Logger:       Logger,
			DBLogger:     SlogManager.Zerolog("database"),
			FallbackPath: dbFilePath,
		}), nil

	case "sqlite":
		backend, err := sqlitestorage.New(sqlitestorage.Config{
			DumpInterval: storageCfg.SQLite.DumpInterval,
			DumpPath:     dbFilePath,
		}, Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		Logger.Info("SQLite storage backend initialized", "dumpPath", dbFilePath)
		return backend, nil

	case "websocket":
		wsURL := wsstorage.HTTPToWS(viper.GetString("api.serverUrl")) + "/api/v1/stream"
		Logger.Info("WebSocket storage backend initialized", "url", wsURL)
		return wsstorage.New(wsstorage.Config{
			URL:    wsURL,
			Secret: viper.GetString("api.apiKey"),
			Logger: Logger,
		}), nil

	case "memory", "":
		Logger.Info("Memory storage backend initialized")
		return memory.New(storageCfg.Memory), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", storageCfg.Type)
	}
}
