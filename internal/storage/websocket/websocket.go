package websocket

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/cwstats/recorder/pkg/core"
	"github.com/cwstats/recorder/pkg/streaming"
)

// Config holds WebSocket backend configuration.
type Config struct {
	URL        string
	Secret     string
	AckTimeout time.Duration
}

// Backend streams round data over WebSocket to the stats web server.
// It implements storage.Backend but not storage.Uploadable.
type Backend struct {
	conn *connection
	cfg  Config
}

// New creates a new WebSocket storage backend.
func New(cfg Config, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.AckTimeout <= 0 {
		cfg.AckTimeout = defaultAckTimeout
	}
	return &Backend{
		conn: newConnection(logger),
		cfg:  cfg,
	}
}

// Init connects to the WebSocket server.
func (b *Backend) Init() error {
	return b.conn.dial(b.cfg.URL, b.cfg.Secret)
}

// Close disconnects from the WebSocket server.
func (b *Backend) Close() error {
	return b.conn.close()
}

// StartRound sends the new round and waits for server ack.
func (b *Backend) StartRound(r *core.GameRecord) error {
	data, err := streaming.Marshal(streaming.TypeStartRound, streaming.StartRoundPayload{Record: r})
	if err != nil {
		return fmt.Errorf("marshal %s: %w", streaming.TypeStartRound, err)
	}

	b.conn.setReplay(data)
	return b.conn.request(data, streaming.TypeStartRound, b.cfg.AckTimeout)
}

// EndRound sends the finished round with its summary and waits for server ack.
func (b *Backend) EndRound(r *core.GameRecord, lines []string) error {
	data, err := streaming.Marshal(streaming.TypeEndRound, streaming.EndRoundPayload{
		Record:  r,
		Outcome: r.Outcome(),
		Lines:   lines,
	})
	if err != nil {
		return fmt.Errorf("marshal %s: %w", streaming.TypeEndRound, err)
	}

	// the round is over whether or not the server acks
	defer b.conn.setReplay(nil)
	return b.conn.request(data, streaming.TypeEndRound, b.cfg.AckTimeout)
}
