// Package sqlitestorage implements the storage.Backend interface using an in-memory
// SQLite database with periodic disk dumps via VACUUM INTO.
// It wraps the GORM backend; the only SQLite-specific concerns are creating the
// in-memory DB and the periodic disk dump.
package sqlitestorage

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cwstats/recorder/internal/database"
	"github.com/cwstats/recorder/internal/model"
	"github.com/cwstats/recorder/internal/storage/gormstore"

	"gorm.io/gorm"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	DSN          string // empty means the shared in-memory database
	DumpInterval time.Duration
	DumpPath     string // Path for periodic VACUUM INTO dumps
}

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstore.Backend
	db       *gorm.DB
	cfg      Config
	log      *slog.Logger
	stopChan chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

// New creates a new SQLite storage backend.
func New(cfg Config, info model.RecorderInfo, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := database.GetSqliteDB(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite DB: %w", err)
	}

	gormBackend := gormstore.New(gormstore.Dependencies{
		DB:     db,
		Logger: logger,
		Info:   info,
	})

	return &Backend{
		Backend:  gormBackend,
		db:       db,
		cfg:      cfg,
		log:      logger,
		stopChan: make(chan struct{}),
	}, nil
}

// Init initializes the embedded GORM backend and starts the dump goroutine.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}

	if b.cfg.DumpPath != "" && b.cfg.DumpInterval > 0 {
		b.wg.Add(1)
		go b.dumpLoop()
	}

	return nil
}

// Close stops the dump goroutine, closes the embedded GORM backend and writes
// a last dump so the final round reaches disk.
func (b *Backend) Close() error {
	var err error
	b.once.Do(func() {
		close(b.stopChan)
		b.wg.Wait()
		err = b.Backend.Close()
		if b.cfg.DumpPath != "" {
			if dumpErr := b.Dump(); dumpErr != nil && err == nil {
				err = dumpErr
			}
		}
	})
	return err
}

// Dump writes a point-in-time snapshot of the database to DumpPath.
func (b *Backend) Dump() error {
	return database.DumpMemoryDBToDisk(b.db, b.cfg.DumpPath)
}

// dumpLoop periodically dumps the in-memory SQLite database to disk via VACUUM INTO.
// VACUUM INTO creates a point-in-time snapshot, so no pause mechanism is needed.
func (b *Backend) dumpLoop() {
	defer b.wg.Done()
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			start := time.Now()
			b.Flush()
			if err := b.Dump(); err != nil {
				b.log.Error("Error dumping to disk", "error", err)
			} else {
				b.log.Debug("Dumped to disk", "duration", time.Since(start))
			}
		}
	}
}
