// internal/storage/storage.go
package storage

import "github.com/cwstats/recorder/pkg/core"

// Backend is the interface all storage implementations must satisfy.
// It is also a session.RoundSink.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Round management. StartRound may assign r.ID.
	StartRound(r *core.GameRecord) error
	EndRound(r *core.GameRecord, lines []string) error
}

// Uploadable is an optional interface for storage backends that produce
// files suitable for upload to the stats web frontend.
type Uploadable interface {
	GetExportedFilePath() string
	GetExportMetadata() core.UploadMetadata
}
