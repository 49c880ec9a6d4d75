package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cwstats/recorder/internal/storage"
	"github.com/cwstats/recorder/pkg/core"
)

// Uploader sends an exported round file to the web service.
type Uploader interface {
	Upload(filePath string, meta core.UploadMetadata) error
}

// Flusher pushes buffered telemetry out.
type Flusher interface {
	Flush(ctx context.Context) error
}

// roundHooks runs after the storage backend has seen a round. It must be the last
// sink so that the backend has already exported the round.
type roundHooks struct {
	backend  storage.Backend
	uploader Uploader // nil disables uploads
	flusher  Flusher
	logger   *slog.Logger

	wg sync.WaitGroup
}

func (h *roundHooks) StartRound(r *core.GameRecord) error {
	h.logger.Info("Castle Wars game started",
		"team", r.Team.String(),
		"teamSize", r.TeamSize,
		"world", r.World)
	return nil
}

func (h *roundHooks) EndRound(r *core.GameRecord, lines []string) error {
	if h.flusher != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := h.flusher.Flush(ctx); err != nil {
			h.logger.Warn("Failed to flush telemetry", "error", err)
		}
		cancel()
	}

	if h.uploader == nil {
		return nil
	}
	up, ok := h.backend.(storage.Uploadable)
	if !ok {
		return nil
	}
	path := up.GetExportedFilePath()
	if path == "" {
		return nil
	}
	meta := up.GetExportMetadata()

	// uploads never hold up ingestion
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		if err := h.uploader.Upload(path, meta); err != nil {
			h.logger.Error("Failed to upload round", "path", path, "error", err)
			return
		}
		h.logger.Info("Round uploaded", "path", path, "outcome", string(meta.Outcome))
	}()
	return nil
}

// Wait blocks until in-flight uploads finish.
func (h *roundHooks) Wait() {
	h.wg.Wait()
}
