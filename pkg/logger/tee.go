package logger

import (
	"context"
	"errors"
	"log/slog"
)

// tee sends each record to every handler that accepts its level, so the
// terminal can stay at Info while a --log-file captures Debug.
type tee []slog.Handler

// Multi returns a logger that writes every record through all of loggers.
// A failing handler does not stop the others; their errors are joined.
func Multi(loggers ...*slog.Logger) *slog.Logger {
	t := make(tee, 0, len(loggers))
	for _, l := range loggers {
		if l != nil {
			t = append(t, l.Handler())
		}
	}
	return slog.New(t)
}

func (t tee) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

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
	return t.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (t tee) WithGroup(name string) slog.Handler {
	return t.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (t tee) each(fn func(slog.Handler) slog.Handler) tee {
	out := make(tee, len(t))
	for i, h := range t {
		out[i] = fn(h)
	}
	return out
}
