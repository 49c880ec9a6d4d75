// Package round holds a concurrency-safe view of the live round for readers outside
// the ingest goroutine (log context, status server).
package round

import (
	"log/slog"
	"sync"

	"github.com/cwstats/recorder/pkg/core"
)

// Status describes what the session controller currently sees.
type Status struct {
	InGame         bool      `json:"inGame"`
	Team           core.Team `json:"team"`
	TeamSize       int       `json:"teamSize"`
	World          int       `json:"world"`
	StartTick      int       `json:"startTick"`
	Tick           int       `json:"tick"`
	CountdownTicks int       `json:"countdownTicks,omitempty"`
	RoundsPlayed   int       `json:"roundsPlayed"`
}

// Context holds the current round status
type Context struct {
	mu     sync.RWMutex
	status Status
}

// NewContext creates a new Context with no round live
func NewContext() *Context {
	return &Context{}
}

// Get returns a copy of the current status
func (c *Context) Get() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// Update applies fn to the status under the write lock
func (c *Context) Update(fn func(s *Status)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.status)
}

// LogAttrs returns the attributes injected into every log record.
func (c *Context) LogAttrs() []slog.Attr {
	s := c.Get()
	if !s.InGame {
		return []slog.Attr{slog.Bool("inGame", false)}
	}
	return []slog.Attr{
		slog.Bool("inGame", true),
		slog.Int("world", s.World),
		slog.String("team", s.Team.String()),
	}
}
