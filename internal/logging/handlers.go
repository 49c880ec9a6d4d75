package logging

import (
	"context"
	"errors"
	"log/slog"
)

// ContextProvider returns attributes that describe the recorder right now, such as
// the world and whether a round is live. It is called once per record.
type ContextProvider func() []slog.Attr

// tee sends every record to each handler that accepts its level.
type tee []slog.Handler

// Tee combines handlers into one. Nil handlers are skipped.
func Tee(handlers ...slog.Handler) slog.Handler {
	t := make(tee, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			t = append(t, h)
		}
	}
	if len(t) == 1 {
		return t[0]
	}
	return t
}

func (t tee) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle reports every failing handler but never stops early.
func (t tee) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range t {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t tee) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(tee, len(t))
	for i, h := range t {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (t tee) WithGroup(name string) slog.Handler {
	if name == "" {
		return t
	}
	out := make(tee, len(t))
	for i, h := range t {
		out[i] = h.WithGroup(name)
	}
	return out
}

// contextual appends the provider's attributes to each record.
type contextual struct {
	inner    slog.Handler
	provider ContextProvider
}

// WithContext wraps inner so every record carries the provider's attributes.
func WithContext(inner slog.Handler, provider ContextProvider) slog.Handler {
	if provider == nil {
		return inner
	}
	return &contextual{inner: inner, provider: provider}
}

func (h *contextual) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *contextual) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(h.provider()...)
	return h.inner.Handle(ctx, r)
}

func (h *contextual) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextual{inner: h.inner.WithAttrs(attrs), provider: h.provider}
}

func (h *contextual) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &contextual{inner: h.inner.WithGroup(name), provider: h.provider}
}
