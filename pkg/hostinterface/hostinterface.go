// Package hostinterface speaks the line protocol between the client bridge and the
// recorder: one JSON array of strings per line, command first.
package hostinterface

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/cwstats/recorder/internal/dispatcher"
)

// MaxLineSize bounds a single command line.
const MaxLineSize = 1 << 20

// ErrEmptyCommand is returned for a line that decodes to an empty array.
var ErrEmptyCommand = errors.New("empty command")

// Dispatcher routes decoded commands.
type Dispatcher interface {
	HasHandler(command string) bool
	Dispatch(e dispatcher.Event) (any, error)
}

// Bridge decodes command lines, dispatches them and writes replies.
type Bridge struct {
	dispatcher   Dispatcher
	out          *Writer
	logger       *slog.Logger
	errorReplies bool
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithErrorReplies writes ["error", command, message] back for failed commands.
func WithErrorReplies() Option {
	return func(b *Bridge) {
		b.errorReplies = true
	}
}

// WithLogger sets the bridge logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) {
		b.logger = logger
	}
}

// NewBridge creates a bridge dispatching to d and replying through out.
func NewBridge(d Dispatcher, out *Writer, opts ...Option) *Bridge {
	b := &Bridge{
		dispatcher: d,
		out:        out,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// DecodeLine parses `[":COMMAND:", "arg", ...]`.
func DecodeLine(line string) (dispatcher.Event, error) {
	var fields []string
	if err := json.Unmarshal([]byte(line), &fields); err != nil {
		return dispatcher.Event{}, fmt.Errorf("error decoding command line: %w", err)
	}
	if len(fields) == 0 || fields[0] == "" {
		return dispatcher.Event{}, ErrEmptyCommand
	}
	return dispatcher.Event{
		Command:   fields[0],
		Args:      fields[1:],
		Timestamp: time.Now(),
	}, nil
}

// HandleLine processes one command line. Blank lines are ignored.
func (b *Bridge) HandleLine(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	e, err := DecodeLine(line)
	if err != nil {
		return err
	}

	if !b.dispatcher.HasHandler(e.Command) {
		err := fmt.Errorf("no handler registered for %s", e.Command)
		b.replyError(e.Command, err)
		return err
	}

	result, err := b.dispatcher.Dispatch(e)
	if err != nil {
		b.replyError(e.Command, err)
		return err
	}

	if reply, ok := result.([]string); ok && b.out != nil {
		return b.out.Send(reply...)
	}
	return nil
}

func (b *Bridge) replyError(command string, err error) {
	if !b.errorReplies || b.out == nil {
		return
	}
	if werr := b.out.Send("error", command, err.Error()); werr != nil {
		b.logger.Warn("Failed to write error reply", "command", command, "error", werr)
	}
}

// Serve reads command lines from r until EOF or ctx is cancelled. Bad lines are
// logged and skipped.
func (b *Bridge) Serve(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), MaxLineSize)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		if err := b.HandleLine(scanner.Text()); err != nil {
			b.logger.Debug("Command rejected", "error", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading commands: %w", err)
	}
	return nil
}
