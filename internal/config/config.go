package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "tabletop4d.cfg.json"

// EnvPrefix prefixes environment overrides, e.g. TABLETOP4D_GAME_AUTOPLAY.
const EnvPrefix = "TABLETOP4D"

// GameConfig holds turn timing and headless play settings
type GameConfig struct {
	Seed              int64         `json:"seed" mapstructure:"seed"`
	FirstSide         string        `json:"firstSide" mapstructure:"firstSide"`
	Cooldown          time.Duration `json:"cooldown" mapstructure:"cooldown"`
	ClearDelay        time.Duration `json:"clearDelay" mapstructure:"clearDelay"`
	AnimationDuration time.Duration `json:"animationDuration" mapstructure:"animationDuration"`
	MaxSelectAttempts int           `json:"maxSelectAttempts" mapstructure:"maxSelectAttempts"`
	AutoPlay          bool          `json:"autoPlay" mapstructure:"autoPlay"`
	MaxTurns          int           `json:"maxTurns" mapstructure:"maxTurns"`
}

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds SQLite storage backend settings
type SQLiteConfig struct {
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
}

// StorageConfig selects and configures the match recorder backend
type StorageConfig struct {
	Type   string       `json:"type" mapstructure:"type"`
	Memory MemoryConfig `json:"memory" mapstructure:"memory"`
	SQLite SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// GraylogConfig holds the GELF sink settings
type GraylogConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Address string `json:"address" mapstructure:"address"`
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	SetDefaults()

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// SetDefaults registers every default; Load calls it, and the binary calls
// it directly when running without a config file.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")
	viper.SetDefault("logRotation.maxSizeMB", 50)
	viper.SetDefault("logRotation.maxBackups", 5)
	viper.SetDefault("logRotation.maxAgeDays", 14)
	viper.SetDefault("logRotation.compress", true)
	viper.SetDefault("statusFile", "status.json")
	viper.SetDefault("statusInterval", "1s")
	viper.SetDefault("layoutFile", "")
	viper.SetDefault("matchName", "")

	viper.SetDefault("game.seed", 0)
	viper.SetDefault("game.firstSide", "Red")
	viper.SetDefault("game.cooldown", "2s")
	viper.SetDefault("game.clearDelay", "500ms")
	viper.SetDefault("game.animationDuration", "2s")
	viper.SetDefault("game.maxSelectAttempts", 32)
	viper.SetDefault("game.autoPlay", false)
	viper.SetDefault("game.maxTurns", 0)

	viper.SetDefault("api.serverUrl", "http://localhost:5000")
	viper.SetDefault("api.apiKey", "")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./recordings")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "tabletop4d")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "tabletop4d")
	viper.SetDefault("influx.bucket", "matches")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "tabletop4d")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
}

// GetGameConfig returns the game.* settings.
func GetGameConfig() GameConfig {
	return GameConfig{
		Seed:              viper.GetInt64("game.seed"),
		FirstSide:         viper.GetString("game.firstSide"),
		Cooldown:          viper.GetDuration("game.cooldown"),
		ClearDelay:        viper.GetDuration("game.clearDelay"),
		AnimationDuration: viper.GetDuration("game.animationDuration"),
		MaxSelectAttempts: viper.GetInt("game.maxSelectAttempts"),
		AutoPlay:          viper.GetBool("game.autoPlay"),
		MaxTurns:          viper.GetInt("game.maxTurns"),
	}
}

// GetStorageConfig returns the storage.* settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
	}
}

// GetOTelConfig returns the otel.* settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetGraylogConfig returns the graylog.* settings.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// LogRotationConfig bounds the log file.
type LogRotationConfig struct {
	MaxSizeMB  int  `json:"maxSizeMB" mapstructure:"maxSizeMB"`
	MaxBackups int  `json:"maxBackups" mapstructure:"maxBackups"`
	MaxAgeDays int  `json:"maxAgeDays" mapstructure:"maxAgeDays"`
	Compress   bool `json:"compress" mapstructure:"compress"`
}

// GetLogRotationConfig returns the logRotation.* settings.
func GetLogRotationConfig() LogRotationConfig {
	return LogRotationConfig{
		MaxSizeMB:  viper.GetInt("logRotation.maxSizeMB"),
		MaxBackups: viper.GetInt("logRotation.maxBackups"),
		MaxAgeDays: viper.GetInt("logRotation.maxAgeDays"),
		Compress:   viper.GetBool("logRotation.compress"),
	}
}
