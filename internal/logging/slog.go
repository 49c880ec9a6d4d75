package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// swapped in tests
var (
	osStderr = os.Stderr
	osPipe   = os.Pipe
)

// Scope names the recorder in OTel log records.
const Scope = "cwstats"

// SlogManager builds the recorder's slog.Logger. Records go to the session log
// file (or stderr), and optionally to Graylog and an OTel log provider.
// Stdout is never used: it carries outbound host commands.
type SlogManager struct {
	logger      *slog.Logger
	logProvider *sdklog.LoggerProvider

	graylog MessageWriter
	context ContextProvider
}

// NewSlogManager creates a new slog-based logging manager.
func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// SetGraylog sends every record to w as well. Call before Setup.
func (m *SlogManager) SetGraylog(w MessageWriter) {
	m.graylog = w
}

// SetContextProvider adds the provider's attributes to every record. Call before Setup.
func (m *SlogManager) SetContextProvider(p ContextProvider) {
	m.context = p
}

// ParseLevel maps a level name to a slog.Level. Unknown names mean INFO.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "TRACE", "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR", "FATAL":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// utcTime renders record times as RFC3339 in UTC, so log files from different
// machines line up.
func utcTime(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.TimeKey {
		return a
	}
	if t, ok := a.Value.Any().(time.Time); ok {
		a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
	}
	return a
}

// Setup (re)builds the logger. A nil file logs to stderr; a nil provider
// disables OTel logging.
func (m *SlogManager) Setup(file io.Writer, level string, provider *sdklog.LoggerProvider) {
	lvl := ParseLevel(level)
	m.logProvider = provider

	out := file
	if out == nil {
		out = osStderr
	}
	handlers := []slog.Handler{
		slog.NewTextHandler(out, &slog.HandlerOptions{Level: lvl, ReplaceAttr: utcTime}),
	}
	if m.graylog != nil {
		handlers = append(handlers, NewGELFHandler(m.graylog, lvl))
	}
	if provider != nil {
		handlers = append(handlers, otelslog.NewHandler(Scope, otelslog.WithLoggerProvider(provider)))
	}

	m.logger = slog.New(WithContext(Tee(handlers...), m.context))
	m.logger.Info("Logging initialized", "level", lvl.String())
}

// Logger returns the configured logger, or slog.Default before Setup.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}

// Flush forces a flush of OTel logs if available.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.logProvider == nil {
		return nil
	}
	return m.logProvider.ForceFlush(ctx)
}

// WriteLog records a :LOG: line forwarded by the host bridge.
func (m *SlogManager) WriteLog(function, message, level string) {
	if m.logger == nil {
		return
	}
	m.logger.Log(context.Background(), ParseLevel(level), message,
		slog.String("source", "bridge"),
		slog.String("function", function))
}
