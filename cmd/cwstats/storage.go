package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/cwstats/recorder/internal/config"
	"github.com/cwstats/recorder/internal/model"
	"github.com/cwstats/recorder/internal/storage"
	"github.com/cwstats/recorder/internal/storage/memory"
	pgstorage "github.com/cwstats/recorder/internal/storage/postgres"
	sqlitestorage "github.com/cwstats/recorder/internal/storage/sqlite"
	wsstorage "github.com/cwstats/recorder/internal/storage/websocket"
)

// recorderInfo is written once into every new database.
func recorderInfo() model.RecorderInfo {
	return model.RecorderInfo{Version: Version}
}

func createStorageBackend(storageCfg config.StorageConfig, apiCfg config.APIConfig, sessionStart time.Time, logger *slog.Logger) (storage.Backend, error) {
	switch storageCfg.Type {
	case "postgres":
		logger.Info("Postgres storage backend selected", "host", config.GetDBConfig().Host)
		return pgstorage.New(pgstorage.Dependencies{
			Config: config.GetDBConfig(),
			Info:   recorderInfo(),
			Logger: logger,
		}), nil

	case "sqlite":
		dumpPath := storageCfg.SQLite.Path
		if dumpPath == "" {
			dumpPath = filepath.Join(".", fmt.Sprintf("%s_%s.db", AppName, sessionStart.Format("20060102_150405")))
		}
		backend, err := sqlitestorage.New(sqlitestorage.Config{
			DumpInterval: storageCfg.SQLite.DumpInterval,
			DumpPath:     dumpPath,
		}, recorderInfo(), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		logger.Info("SQLite storage backend selected", "dumpPath", dumpPath)
		return backend, nil

	case "websocket":
		wsURL := storageCfg.WebSocket.URL
		if wsURL == "" {
			wsURL = httpToWS(apiCfg.ServerURL) + "/ws"
		}
		secret := storageCfg.WebSocket.Secret
		if secret == "" {
			secret = apiCfg.APIKey
		}
		logger.Info("WebSocket storage backend selected", "url", wsURL)
		return wsstorage.New(wsstorage.Config{
			URL:        wsURL,
			Secret:     secret,
			AckTimeout: storageCfg.WebSocket.AckTimeout,
		}, logger), nil

	case "memory", "":
		logger.Info("Memory storage backend selected", "outputDir", storageCfg.Memory.OutputDir)
		return memory.New(storageCfg.Memory), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", storageCfg.Type)
	}
}

// httpToWS converts an HTTP(S) URL to a WebSocket URL.
func httpToWS(httpURL string) string {
	s := strings.TrimRight(httpURL, "/")
	s = strings.Replace(s, "https://", "wss://", 1)
	s = strings.Replace(s, "http://", "ws://", 1)
	return s
}
