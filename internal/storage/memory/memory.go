// internal/storage/memory/memory.go
package memory

import (
	"fmt"
	"sync"

	"github.com/cwstats/recorder/internal/config"
	"github.com/cwstats/recorder/pkg/core"
)

// RoundRecord groups a round with the summary lines shown to the player
type RoundRecord struct {
	Record core.GameRecord
	Lines  []string
}

// Backend keeps finished rounds in memory and exports each one to JSON
type Backend struct {
	cfg config.MemoryConfig

	current *core.GameRecord
	rounds  []RoundRecord

	idCounter      uint
	lastExportPath string
	lastMetadata   core.UploadMetadata
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{cfg: cfg}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartRound assigns the round an ID and remembers it as the live round
func (b *Backend) StartRound(r *core.GameRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.idCounter++
	r.ID = b.idCounter
	b.current = r
	return nil
}

// EndRound stores a snapshot of the finished round and exports it
func (b *Backend) EndRound(r *core.GameRecord, lines []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if r.ID == 0 {
		b.idCounter++
		r.ID = b.idCounter
	}
	round := RoundRecord{Record: *r, Lines: append([]string(nil), lines...)}
	b.rounds = append(b.rounds, round)
	b.current = nil

	if err := b.exportJSON(round); err != nil {
		return fmt.Errorf("failed to export round %d: %w", r.ID, err)
	}
	return nil
}

// Current returns the live round, or nil between rounds
func (b *Backend) Current() *core.GameRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current
}

// Rounds returns copies of every finished round in completion order
func (b *Backend) Rounds() []RoundRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]RoundRecord(nil), b.rounds...)
}

// GetExportedFilePath returns the path of the last exported round file
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

// GetExportMetadata describes the last exported round
func (b *Backend) GetExportMetadata() core.UploadMetadata {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastMetadata
}
