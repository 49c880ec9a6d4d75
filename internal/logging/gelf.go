package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Graylog2/go-gelf/gelf"
)

// MessageWriter is the part of gelf.Writer the handler needs.
type MessageWriter interface {
	WriteMessage(m *gelf.Message) error
}

// NewGraylogWriter dials a GELF UDP endpoint.
func NewGraylogWriter(address string) (*gelf.Writer, error) {
	w, err := gelf.NewWriter(address)
	if err != nil {
		return nil, fmt.Errorf("failed to create graylog writer: %w", err)
	}
	w.Facility = "cwstats"
	return w, nil
}

// GELFHandler turns slog records into GELF messages.
type GELFHandler struct {
	w      MessageWriter
	level  slog.Leveler
	host   string
	attrs  []slog.Attr
	prefix string
}

// NewGELFHandler creates a handler writing records at or above level to w.
func NewGELFHandler(w MessageWriter, level slog.Leveler) *GELFHandler {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return &GELFHandler{w: w, level: level, host: host}
}

// Enabled reports whether the level passes the handler's threshold.
func (h *GELFHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle writes the record as one GELF message.
func (h *GELFHandler) Handle(_ context.Context, r slog.Record) error {
	extra := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		addExtra(extra, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		addExtra(extra, h.prefix, a)
		return true
	})

	msg := &gelf.Message{
		Version:  "1.1",
		Host:     h.host,
		Short:    r.Message,
		TimeUnix: float64(r.Time.UnixNano()) / 1e9,
		Level:    syslogLevel(r.Level),
		Extra:    extra,
	}
	return h.w.WriteMessage(msg)
}

// WithAttrs returns a handler that adds attrs to every message.
func (h *GELFHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	clone.attrs = append(clone.attrs, h.attrs...)
	for _, a := range attrs {
		a.Key = h.prefix + a.Key
		clone.attrs = append(clone.attrs, a)
	}
	return &clone
}

// WithGroup prefixes later attribute keys with name.
func (h *GELFHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

// GELF reserves "id" and requires extra fields to start with an underscore.
func addExtra(extra map[string]any, prefix string, a slog.Attr) {
	if a.Equal(slog.Attr{}) {
		return
	}
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p = prefix + a.Key + "."
		}
		for _, ga := range v.Group() {
			addExtra(extra, p, ga)
		}
		return
	}

	key := "_" + strings.ReplaceAll(prefix+a.Key, " ", "_")
	if key == "_id" {
		key = "_id_"
	}
	switch v.Kind() {
	case slog.KindString:
		extra[key] = v.String()
	case slog.KindInt64:
		extra[key] = v.Int64()
	case slog.KindUint64:
		extra[key] = v.Uint64()
	case slog.KindFloat64:
		extra[key] = v.Float64()
	case slog.KindBool:
		extra[key] = v.Bool()
	default:
		extra[key] = v.String()
	}
}

// syslog severities
const (
	levelErr     int32 = 3
	levelWarning int32 = 4
	levelInfo    int32 = 6
	levelDebug   int32 = 7
)

func syslogLevel(level slog.Level) int32 {
	switch {
	case level >= slog.LevelError:
		return levelErr
	case level >= slog.LevelWarn:
		return levelWarning
	case level >= slog.LevelInfo:
		return levelInfo
	default:
		return levelDebug
	}
}
