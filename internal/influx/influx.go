// Package influx writes finished rounds and bridge metrics to InfluxDB, falling
// back to a gzipped line-protocol file when the server cannot be reached.
package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cwstats/recorder/internal/config"
	"github.com/cwstats/recorder/internal/util"
	"github.com/cwstats/recorder/pkg/core"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"
)

// RoundMeasurement is the measurement finished rounds are written to.
const RoundMeasurement = "round"

// retention for a bucket created on first connect
const retentionSeconds = 60 * 60 * 24 * 90

// Manager handles InfluxDB connections and writes.
type Manager struct {
	Client       influxdb2.Client
	Writer       influxdb2_api.WriteAPI
	BackupWriter *gzip.Writer
	IsValid      bool
	Config       config.InfluxConfig
	Logger       zerolog.Logger
	BackupPath   string

	mu         sync.Mutex
	backupFile *os.File
	closed     bool
}

// NewManager creates a new InfluxDB manager.
func NewManager(log zerolog.Logger, cfg config.InfluxConfig, backupPath string) *Manager {
	return &Manager{
		Config:     cfg,
		Logger:     log,
		BackupPath: backupPath,
	}
}

// Connect establishes a connection to InfluxDB.
func (m *Manager) Connect(ctx context.Context) error {
	if !m.Config.Enabled {
		return errors.New("influx.enabled is false")
	}

	m.Client = influxdb2.NewClientWithOptions(
		m.Config.URL(),
		m.Config.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(500).
			SetFlushInterval(1000),
	)

	// validate client connection health
	running, err := m.Client.Ping(ctx)

	if err != nil || !running {
		m.IsValid = false
		if m.BackupWriter == nil {
			m.Logger.Info().Str("backupPath", m.BackupPath).
				Msg("Failed to initialize InfluxDB client, writing to backup file")

			file, err := os.OpenFile(m.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
			if err != nil {
				return fmt.Errorf("error creating backup file: %w", err)
			}
			m.backupFile = file
			m.BackupWriter = gzip.NewWriter(file)
		}
		m.Logger.Warn().Msg("InfluxDB client failed to initialize, using backup writer")
		return nil
	}

	m.IsValid = true
	if err := m.setupOrganizationAndBucket(ctx); err != nil {
		return err
	}
	m.createWriter()
	m.Logger.Info().Str("bucket", m.Config.Bucket).Msg("InfluxDB client initialized")
	return nil
}

func (m *Manager) setupOrganizationAndBucket(ctx context.Context) error {
	orgName := m.Config.Org

	// ensure org exists
	org, err := m.Client.OrganizationsAPI().FindOrganizationByName(ctx, orgName)
	if err != nil {
		m.Logger.Info().Str("org", orgName).Msg("Organization not found, creating")
		org, err = m.Client.OrganizationsAPI().CreateOrganizationWithName(ctx, orgName)
		if err != nil {
			m.Logger.Error().Err(err).Str("org", orgName).Msg("Error creating organization")
			return err
		}
	}

	bucket := m.Config.Bucket
	if _, err = m.Client.BucketsAPI().FindBucketByName(ctx, bucket); err != nil {
		m.Logger.Info().Str("bucket", bucket).Msg("Bucket not found, creating")

		rule := domain.RetentionRuleTypeExpire
		_, err = m.Client.BucketsAPI().CreateBucketWithName(ctx, org, bucket, domain.RetentionRule{
			Type:         &rule,
			EverySeconds: retentionSeconds,
		})
		if err != nil {
			m.Logger.Error().Err(err).Str("bucket", bucket).Msg("Error creating bucket")
			return err
		}
	}

	return nil
}

func (m *Manager) createWriter() {
	m.Writer = m.Client.WriteAPI(m.Config.Org, m.Config.Bucket)

	errorsCh := m.Writer.Errors()
	go func() {
		for writeErr := range errorsCh {
			m.Logger.Error().Err(writeErr).Str("bucket", m.Config.Bucket).
				Msg("Error sending data to InfluxDB")
		}
	}()
}

// WritePoint writes a point to InfluxDB or the backup file.
func (m *Manager) WritePoint(point *influxdb2_write.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errors.New("influx manager closed")
	}
	if m.IsValid {
		m.Writer.WritePoint(point)
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

// StartRound is a no-op; rounds are written once they finish.
func (m *Manager) StartRound(r *core.GameRecord) error {
	return nil
}

// EndRound writes the finished round as one point.
func (m *Manager) EndRound(r *core.GameRecord, lines []string) error {
	if err := m.WritePoint(RoundPoint(r)); err != nil {
		return fmt.Errorf("failed to write round point: %w", err)
	}
	return nil
}

// WriteMetric parses a :METRIC: command and writes it.
func (m *Manager) WriteMetric(data []string) error {
	point, err := ParseMetric(data)
	if err != nil {
		return err
	}
	return m.WritePoint(point)
}

// Close flushes pending points and releases the client and backup file.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true

	if m.Writer != nil {
		m.Writer.Flush()
	}
	if m.Client != nil {
		m.Client.Close()
	}
	var err error
	if m.BackupWriter != nil {
		err = m.BackupWriter.Close()
	}
	if m.backupFile != nil {
		if cerr := m.backupFile.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// RoundPoint builds the point for a finished round, stamped with its start time.
func RoundPoint(r *core.GameRecord) *influxdb2_write.Point {
	point := influxdb2_write.NewPointWithMeasurement(RoundMeasurement).
		AddTag("world", strconv.Itoa(r.World)).
		AddTag("team", r.Team.String()).
		AddTag("teamSize", strconv.Itoa(r.TeamSize)).
		AddTag("outcome", string(r.Outcome())).
		SetTime(r.CreatedAt)

	fields := map[string]any{
		"durationTicks":     r.DurationTicks(),
		"saraScore":         r.SaraScore,
		"zamScore":          r.ZamScore,
		"cadesSet":          r.CadesSet,
		"cadesTinded":       r.CadesTinded,
		"cadesBucketed":     r.CadesBucketed,
		"cadesExploded":     r.CadesExploded,
		"totalCastAttempts": r.TotalCastAttempts,
		"splashes":          r.Splashes,
		"castRate":          r.CastRate(),
		"frozenCount":       r.FrozenCount,
		"freezesOnMe":       r.FreezesOnMe,
		"splashesOnMe":      r.SplashesOnMe,
		"splashRate":        r.SplashRate(),
		"deaths":            r.Deaths,
		"damageTaken":       r.DamageTaken,
		"highestHitTaken":   r.HighestHitTaken,
		"timesSpeared":      r.TimesSpeared,
		"damageDealt":       r.DamageDealt,
		"highestHitDealt":   r.HighestHitDealt,
		"flagsSafed":        r.FlagsSafed,
		"flagsScored":       r.FlagsScored,
	}
	for k, v := range fields {
		point.AddField(k, v)
	}
	return point
}

// ParseMetric parses metric data forwarded by the bridge.
//
//	0 = measurement name
//	"tag::<name>::<value>" adds a tag
//	"field::<string|int|float>::<name>::<value>" adds a field
func ParseMetric(data []string) (*influxdb2_write.Point, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf(":METRIC: expected at least 2 args, got %d", len(data))
	}
	for i, v := range data {
		data[i] = util.FixEscapeQuotes(util.TrimQuotes(v))
	}

	point := influxdb2_write.NewPointWithMeasurement(data[0])

	fieldCount := 0
	for _, arg := range data[1:] {
		parts := strings.Split(arg, "::")
		switch {
		case parts[0] == "tag" && len(parts) >= 3:
			point.AddTag(parts[1], parts[2])
		case parts[0] == "field" && len(parts) >= 4:
			fieldType, fieldName, fieldValue := parts[1], parts[2], parts[3]
			switch fieldType {
			case "string":
				point.AddField(fieldName, fieldValue)
			case "int":
				intVal, err := strconv.Atoi(fieldValue)
				if err != nil {
					return nil, fmt.Errorf("error converting field value '%s' to int: %w", fieldValue, err)
				}
				point.AddField(fieldName, intVal)
			case "float":
				floatVal, err := strconv.ParseFloat(fieldValue, 64)
				if err != nil {
					return nil, fmt.Errorf("error converting field value '%s' to float: %w", fieldValue, err)
				}
				point.AddField(fieldName, floatVal)
			default:
				continue
			}
			fieldCount++
		}
	}
	if fieldCount == 0 {
		return nil, fmt.Errorf("metric %q has no fields", data[0])
	}
	point.SetTime(time.Now())
	return point, nil
}
