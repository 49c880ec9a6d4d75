// Package postgres implements the storage.Backend interface on a PostgreSQL server,
// delegating round writes to the GORM backend.
package postgres

import (
	"fmt"
	"log/slog"

	"github.com/cwstats/recorder/internal/config"
	"github.com/cwstats/recorder/internal/database"
	"github.com/cwstats/recorder/internal/model"
	"github.com/cwstats/recorder/internal/storage/gormstore"
	"github.com/cwstats/recorder/pkg/core"
)

// Dependencies holds all dependencies for the postgres storage backend.
type Dependencies struct {
	Config config.DBConfig
	Info   model.RecorderInfo
	Logger *slog.Logger
}

// Backend connects lazily in Init and then behaves like the GORM backend.
type Backend struct {
	deps  Dependencies
	inner *gormstore.Backend
}

// New creates a new postgres storage backend.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Backend{deps: deps}
}

// Init connects to postgres, validates the connection and migrates the schema.
func (b *Backend) Init() error {
	db, err := database.GetPostgresDB(b.deps.Config)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err = sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to validate connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	b.deps.Logger.Info("Connected to postgres", "host", b.deps.Config.Host, "database", b.deps.Config.Database)

	b.inner = gormstore.New(gormstore.Dependencies{
		DB:     db,
		Logger: b.deps.Logger,
		Info:   b.deps.Info,
	})
	return b.inner.Init()
}

// Close flushes queued rounds and stops the writer.
func (b *Backend) Close() error {
	if b.inner == nil {
		return nil
	}
	return b.inner.Close()
}

// StartRound inserts the round row.
func (b *Backend) StartRound(r *core.GameRecord) error {
	if b.inner == nil {
		return fmt.Errorf("postgres backend not initialized")
	}
	return b.inner.StartRound(r)
}

// EndRound queues the finished round.
func (b *Backend) EndRound(r *core.GameRecord, lines []string) error {
	if b.inner == nil {
		return fmt.Errorf("postgres backend not initialized")
	}
	return b.inner.EndRound(r, lines)
}
