// Package influx writes match time series to InfluxDB, falling back to a
// gzip'd line-protocol file when the server cannot be reached.
package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/hololab/tabletop4d/pkg/core"
)

// ErrDisabled is returned by Connect when influx.enabled is false.
var ErrDisabled = errors.New("influx.enabled is false")

// Measurement names.
const (
	MeasurementTurn    = "turn"
	MeasurementCapture = "capture"
	MeasurementSync    = "sync"
)

// Manager handles InfluxDB connections and writes.
type Manager struct {
	Client       influxdb2.Client
	Writers      map[string]influxdb2_api.WriteAPI
	BackupWriter *gzip.Writer
	IsValid      bool
	Bucket       string
	Logger       zerolog.Logger
	BackupPath   string

	backupFile *os.File
}

// NewManager creates a new InfluxDB manager.
func NewManager(log zerolog.Logger, backupPath string) *Manager {
	return &Manager{
		Writers:    make(map[string]influxdb2_api.WriteAPI),
		Bucket:     viper.GetString("influx.bucket"),
		Logger:     log,
		BackupPath: backupPath,
	}
}

// Connect establishes a connection to InfluxDB. When the server does not
// answer a ping, points go to the backup file instead.
func (m *Manager) Connect() error {
	if !viper.GetBool("influx.enabled") {
		return ErrDisabled
	}
	if m.Bucket == "" {
		m.Bucket = "matches"
	}

	m.Client = influxdb2.NewClientWithOptions(
		fmt.Sprintf(
			"%s://%s:%s",
			viper.GetString("influx.protocol"),
			viper.GetString("influx.host"),
			viper.GetString("influx.port"),
		),
		viper.GetString("influx.token"),
		influxdb2.DefaultOptions().
			SetBatchSize(500).
			SetFlushInterval(1000),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	running, err := m.Client.Ping(ctx)
	m.IsValid = err == nil && running

	if !m.IsValid {
		m.Logger.Warn().Err(err).Str("backupPath", m.BackupPath).
			Msg("InfluxDB unreachable, writing to backup file")
		return m.openBackup()
	}

	if err := m.setupOrganizationAndBucket(); err != nil {
		return err
	}
	m.CreateWriters()
	m.Logger.Info().Str("bucket", m.Bucket).Msg("InfluxDB client initialized")
	return nil
}

func (m *Manager) openBackup() error {
	if m.BackupWriter != nil {
		return nil
	}
	if m.BackupPath == "" {
		return errors.New("influx backup path not set")
	}
	file, err := os.OpenFile(m.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error creating backup file: %w", err)
	}
	m.backupFile = file
	m.BackupWriter = gzip.NewWriter(file)
	return nil
}

func (m *Manager) setupOrganizationAndBucket() error {
	ctx := context.Background()
	orgName := viper.GetString("influx.org")

	influxOrg, err := m.Client.OrganizationsAPI().FindOrganizationByName(ctx, orgName)
	if err != nil {
		m.Logger.Info().Str("org", orgName).Msg("Organization not found, creating")
		influxOrg, err = m.Client.OrganizationsAPI().CreateOrganizationWithName(ctx, orgName)
		if err != nil {
			m.Logger.Error().Err(err).Str("org", orgName).Msg("Error creating organization")
			return err
		}
	}

	if _, err = m.Client.BucketsAPI().FindBucketByName(ctx, m.Bucket); err != nil {
		m.Logger.Info().Str("bucket", m.Bucket).Msg("Bucket not found, creating")

		rule := domain.RetentionRuleTypeExpire
		_, err = m.Client.BucketsAPI().CreateBucketWithName(ctx, influxOrg, m.Bucket, domain.RetentionRule{
			Type:         &rule,
			EverySeconds: 60 * 60 * 24 * 90, // 90 days
		})
		if err != nil {
			m.Logger.Error().Err(err).Str("bucket", m.Bucket).Msg("Error creating bucket")
			return err
		}
	}
	return nil
}

// CreateWriters creates the write API for the match bucket.
func (m *Manager) CreateWriters() {
	orgName := viper.GetString("influx.org")
	w := m.Client.WriteAPI(orgName, m.Bucket)
	m.Writers[m.Bucket] = w

	go func(bucket string, errorsCh <-chan error) {
		for writeErr := range errorsCh {
			m.Logger.Error().Err(writeErr).Str("bucket", bucket).
				Msg("Error sending data to InfluxDB")
		}
	}(m.Bucket, w.Errors())
}

// WritePoint writes a point to InfluxDB or the backup file.
func (m *Manager) WritePoint(ctx context.Context, point *influxdb2_write.Point) error {
	if m.IsValid {
		w, ok := m.Writers[m.Bucket]
		if !ok {
			return fmt.Errorf("influxDB bucket '%s' not registered", m.Bucket)
		}
		w.WritePoint(point)
		return nil
	}
	if m.BackupWriter == nil {
		return errors.New("influxDB client not initialized and backup writer not available")
	}
	lineProtocol := influxdb2_write.PointToLineProtocol(point, time.Nanosecond)
	if _, err := m.BackupWriter.Write([]byte(lineProtocol + "\n")); err != nil {
		return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
	}
	return nil
}

// Close flushes pending points and releases the client and backup file.
func (m *Manager) Close() error {
	var errs []error
	for _, w := range m.Writers {
		w.Flush()
	}
	if m.Client != nil {
		m.Client.Close()
	}
	if m.BackupWriter != nil {
		errs = append(errs, m.BackupWriter.Close())
		m.BackupWriter = nil
	}
	if m.backupFile != nil {
		errs = append(errs, m.backupFile.Close())
		m.backupFile = nil
	}
	return errors.Join(errs...)
}

// TurnPoint converts a resolved turn into a point.
func TurnPoint(e *core.TurnEvent) *influxdb2_write.Point {
	p := influxdb2_write.NewPointWithMeasurement(MeasurementTurn).
		AddTag("match", strconv.FormatUint(uint64(e.MatchID), 10)).
		AddTag("side", e.Side).
		AddTag("piece", e.Piece).
		AddTag("piece_type", e.PieceType).
		AddField("turn", int64(e.Turn)).
		AddField("from_x", e.From.X).
		AddField("from_y", e.From.Y).
		AddField("to_x", e.To.X).
		AddField("to_y", e.To.Y).
		AddField("moves", e.Moves).
		AddField("captures", e.Captures).
		AddField("captured", e.Captured != "").
		SetTime(e.Time)
	return p
}

// CapturePoint converts a capture into a point.
func CapturePoint(e *core.CaptureEvent) *influxdb2_write.Point {
	return influxdb2_write.NewPointWithMeasurement(MeasurementCapture).
		AddTag("match", strconv.FormatUint(uint64(e.MatchID), 10)).
		AddTag("attacker_team", e.AttackerTeam).
		AddTag("victim_type", e.VictimType).
		AddField("turn", int64(e.Turn)).
		AddField("attacker", e.Attacker).
		AddField("victim", e.Victim).
		AddField("x", e.At.X).
		AddField("y", e.At.Y).
		AddField("giant_removed", e.GiantRemoved).
		SetTime(e.Time)
}

// SyncPoint converts a giant-board sync into a point.
func SyncPoint(e *core.SyncEvent) *influxdb2_write.Point {
	return influxdb2_write.NewPointWithMeasurement(MeasurementSync).
		AddTag("match", strconv.FormatUint(uint64(e.MatchID), 10)).
		AddTag("piece", e.Piece).
		AddField("turn", int64(e.Turn)).
		AddField("pos_x", e.Position.X).
		AddField("pos_y", e.Position.Y).
		AddField("pos_z", e.Position.Z).
		AddField("animation_s", e.Animation).
		SetTime(e.Time)
}
