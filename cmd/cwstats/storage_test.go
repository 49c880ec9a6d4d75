package main

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/cwstats/recorder/internal/config"
	"github.com/cwstats/recorder/internal/storage"
	"github.com/cwstats/recorder/internal/storage/memory"
	sqlitestorage "github.com/cwstats/recorder/internal/storage/sqlite"
	wsstorage "github.com/cwstats/recorder/internal/storage/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCreateStorageBackend(t *testing.T) {
	start := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	api := config.APIConfig{ServerURL: "https://stats.example.com/", APIKey: "key"}

	tests := []struct {
		name  string
		typ   string
		check func(t *testing.T, b storage.Backend)
	}{
		{"default", "", func(t *testing.T, b storage.Backend) {
			assert.IsType(t, &memory.Backend{}, b)
			_, ok := b.(storage.Uploadable)
			assert.True(t, ok)
		}},
		{"memory", "memory", func(t *testing.T, b storage.Backend) {
			assert.IsType(t, &memory.Backend{}, b)
		}},
		{"sqlite", "sqlite", func(t *testing.T, b storage.Backend) {
			assert.IsType(t, &sqlitestorage.Backend{}, b)
		}},
		{"websocket", "websocket", func(t *testing.T, b storage.Backend) {
			assert.IsType(t, &wsstorage.Backend{}, b)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.StorageConfig{Type: tt.typ}
			cfg.SQLite.Path = t.TempDir() + "/rounds.db"
			b, err := createStorageBackend(cfg, api, start, discardLogger())
			require.NoError(t, err)
			tt.check(t, b)
		})
	}
}

func TestCreateStorageBackendUnknown(t *testing.T) {
	_, err := createStorageBackend(config.StorageConfig{Type: "mongo"}, config.APIConfig{}, time.Now(), discardLogger())
	assert.ErrorContains(t, err, `unknown storage type "mongo"`)
}

func TestHTTPToWS(t *testing.T) {
	assert.Equal(t, "wss://stats.example.com", httpToWS("https://stats.example.com/"))
	assert.Equal(t, "ws://localhost:5000", httpToWS("http://localhost:5000"))
	assert.Equal(t, "", httpToWS(""))
}
