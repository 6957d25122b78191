package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hololab/tabletop4d/internal/config"
	"github.com/hololab/tabletop4d/internal/logging"
	intOtel "github.com/hololab/tabletop4d/internal/otel"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/attribute"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentVersion string = "0.0.1"
	BuildDate      string = "unknown"

	BinaryName string = "tabletop4d"
)

// global variables
var (
	// ConfigDir is where tabletop4d.cfg.json is looked up.
	ConfigDir string = "."

	LogFilePath string
	LogFile     io.WriteCloser

	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	SessionStartTime time.Time = time.Now()
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          BinaryName,
		Short:        "Headless mini/giant tabletop game engine",
		Version:      fmt.Sprintf("%s (built %s)", CurrentVersion, BuildDate),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			teardown()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&ConfigDir, "config-dir", ".", "directory containing "+config.FileName)

	flags := root.Flags()
	flags.Bool("auto", false, "play turns without waiting for moves")
	flags.Int("max-turns", 0, "end the match after this many turns (0 = no limit)")
	flags.Int64("seed", 0, "selection seed (0 = random)")
	flags.String("layout", "", "scene descriptor file (JSON or YAML)")
	flags.String("name", "", "match name")

	// BindPFlag only fails on a nil flag
	_ = viper.BindPFlag("game.autoPlay", flags.Lookup("auto"))
	_ = viper.BindPFlag("game.maxTurns", flags.Lookup("max-turns"))
	_ = viper.BindPFlag("game.seed", flags.Lookup("seed"))
	_ = viper.BindPFlag("layoutFile", flags.Lookup("layout"))
	_ = viper.BindPFlag("matchName", flags.Lookup("name"))

	root.AddCommand(newExportCmd(), newHealthcheckCmd())
	return root
}

// setup loads config and brings up logging. Logs go to stdout until the
// log file is open.
func setup() error {
	// .env entries become TABLETOP4D_* overrides
	_ = godotenv.Load()

	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(nil, "info", nil)
	Logger = SlogManager.Logger()

	if err := config.Load(ConfigDir); err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config", "dir", ConfigDir)
	}

	logsDir := viper.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create logs dir: %w", err)
	}
	LogFilePath = logging.LogFilePath(logsDir, BinaryName, SessionStartTime)
	rot := config.GetLogRotationConfig()
	LogFile = logging.OpenLogFile(LogFilePath, logging.RotationConfig{
		MaxSizeMB:  rot.MaxSizeMB,
		MaxBackups: rot.MaxBackups,
		MaxAgeDays: rot.MaxAgeDays,
		Compress:   rot.Compress,
	})
	Logger.Info("Begin logging in logs directory", "path", LogFilePath)

	// Initialize OTel provider if enabled (after log file is created)
	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		var err error
		OTelProvider, err = intOtel.New(intOtel.Config{
			Enabled:        otelCfg.Enabled,
			ServiceName:    otelCfg.ServiceName,
			ServiceVersion: CurrentVersion,
			BatchTimeout:   otelCfg.BatchTimeout,
			LogWriter:      LogFile,
			Endpoint:       otelCfg.Endpoint,
			Insecure:       otelCfg.Insecure,
			Attributes: []attribute.KeyValue{
				attribute.Int64("game.seed", viper.GetInt64("game.seed")),
				attribute.String("game.firstSide", viper.GetString("game.firstSide")),
			},
		})
		if err != nil {
			Logger.Error("Failed to initialize OTel provider", "error", err)
			OTelProvider = nil
		}
	}

	level := viper.GetString("logLevel")
	graylogCfg := config.GetGraylogConfig()
	if graylogCfg.Enabled {
		w, err := logging.DialGelf(graylogCfg.Address, BinaryName)
		if err != nil {
			Logger.Error("Failed to connect to Graylog", "error", err, "address", graylogCfg.Address)
		} else {
			SlogManager.AddHandler(logging.NewGelfHandler(w, BinaryName, logging.ParseLevel(level)))
		}
	}

	// Re-setup logging with file output and optional OTel
	SlogManager.Setup(LogFile, level, OTelProvider.LoggerProvider())
	Logger = SlogManager.Logger()
	Logger.Info("Logging to file", "path", LogFilePath, "version", CurrentVersion, "build", BuildDate)
	return nil
}

func teardown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if SlogManager != nil {
		if err := SlogManager.Flush(ctx); err != nil {
			Logger.Warn("Failed to flush logs", "error", err)
		}
	}
	if err := OTelProvider.Shutdown(ctx); err != nil {
		Logger.Warn("Failed to shut down OTel provider", "error", err)
	}
	if LogFile != nil {
		_ = LogFile.Close()
	}
}

// statusPath resolves the status file relative to the logs directory.
func statusPath() string {
	p := viper.GetString("statusFile")
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(viper.GetString("logsDir"), p)
}
