// Package gormstore implements the storage.Backend interface on top of GORM.
// Round rows are inserted synchronously at round start so the record gets its ID,
// and final saves are queued for a background writer goroutine.
package gormstore

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cwstats/recorder/internal/database"
	"github.com/cwstats/recorder/internal/model"
	"github.com/cwstats/recorder/internal/model/convert"
	"github.com/cwstats/recorder/internal/queue"
	"github.com/cwstats/recorder/pkg/core"

	"gorm.io/gorm"
)

// DefaultWriteInterval is how often queued rounds are flushed.
const DefaultWriteInterval = 2 * time.Second

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB            *gorm.DB
	Logger        *slog.Logger
	Info          model.RecorderInfo
	WriteInterval time.Duration
}

// Backend implements storage.Backend using GORM with queue-based writes.
type Backend struct {
	deps     Dependencies
	rounds   *queue.Queue[model.Round]
	stopChan chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.WriteInterval <= 0 {
		deps.WriteInterval = DefaultWriteInterval
	}
	return &Backend{
		deps:   deps,
		rounds: queue.New[model.Round](),
	}
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init runs schema migration and starts the DB writer goroutine.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return fmt.Errorf("gormstore: no database connection")
	}
	b.deps.Logger.Info("Migrating schema")
	if err := database.Setup(b.deps.DB, b.deps.Info); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}

	b.stopChan = make(chan struct{})
	b.wg.Add(1)
	go b.writeLoop()
	return nil
}

// Close stops the DB writer goroutine and writes anything still queued.
func (b *Backend) Close() error {
	b.once.Do(func() {
		if b.stopChan != nil {
			close(b.stopChan)
			b.wg.Wait()
		}
		if b.deps.DB != nil {
			b.Flush()
		}
	})
	return nil
}

// StartRound inserts the round row synchronously because the record needs its ID.
func (b *Backend) StartRound(r *core.GameRecord) error {
	if b.deps.DB == nil {
		return nil
	}
	row := convert.CoreToRound(*r, nil)
	row.ID = 0
	if err := b.deps.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert round: %w", err)
	}
	r.ID = row.ID
	return nil
}

// EndRound converts the finished record and queues it for saving.
func (b *Backend) EndRound(r *core.GameRecord, lines []string) error {
	row := convert.CoreToRound(*r, lines)
	now := time.Now()
	row.EndedAt = &now
	b.rounds.Push(row)
	return nil
}

// Pending is the number of rounds waiting for the writer.
func (b *Backend) Pending() int {
	return b.rounds.Len()
}

// Flush writes every queued round now.
func (b *Backend) Flush() {
	writeQueue(b.deps.DB, b.rounds, "rounds", b.deps.Logger)
}

// Rounds loads the most recent stored rounds, newest first.
func (b *Backend) Rounds(limit int) ([]core.GameRecord, error) {
	var rows []model.Round
	if err := b.deps.DB.Order("id desc").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load rounds: %w", err)
	}
	out := make([]core.GameRecord, 0, len(rows))
	for _, row := range rows {
		rec, _, err := convert.RoundToCore(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// writeQueue saves all items from a queue in a transaction. Rows with an ID are
// updated, new rows are inserted. Failed batches go back on the queue.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string, log *slog.Logger) {
	if q.Empty() {
		return
	}

	items := q.GetAndEmpty()
	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.Save(&items).Error
	})
	if err != nil {
		log.Error("Error saving "+name, "count", len(items), "error", err)
		q.Push(items...)
		return
	}
	log.Debug("Saved "+name, "count", len(items))
}

// writeLoop periodically drains the queue into the DB.
func (b *Backend) writeLoop() {
	defer b.wg.Done()
	ticker := time.NewTicker(b.deps.WriteInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			b.Flush()
		}
	}
}
