// internal/storage/storage_test.go
package storage_test

import (
	"github.com/cwstats/recorder/internal/session"
	"github.com/cwstats/recorder/internal/storage"
	"github.com/cwstats/recorder/internal/storage/gormstore"
	"github.com/cwstats/recorder/internal/storage/memory"
	"github.com/cwstats/recorder/internal/storage/postgres"
	sqlitestorage "github.com/cwstats/recorder/internal/storage/sqlite"
)

// Compile-time interface checks
var (
	_ session.RoundSink  = storage.Backend(nil)
	_ storage.Backend    = (*memory.Backend)(nil)
	_ storage.Uploadable = (*memory.Backend)(nil)
	_ storage.Backend    = (*gormstore.Backend)(nil)
	_ storage.Backend    = (*sqlitestorage.Backend)(nil)
	_ storage.Backend    = (*postgres.Backend)(nil)
)
