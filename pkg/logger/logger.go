// Package logger builds the *slog.Logger values used across the console.
// Library packages accept a *slog.Logger and default to Nop; only the kb
// command decides where logs go and how they look.
package logger

import (
	"io"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
)

// Format selects the handler behind a logger.
type Format int

const (
	// FormatText is slog's logfmt-style text handler.
	FormatText Format = iota

	// FormatPretty is the colorized charmbracelet/log handler for terminals.
	FormatPretty

	// FormatJSON is slog's JSON handler, used for --log-file.
	FormatJSON
)

type settings struct {
	level  slog.Level
	format Format
	source bool
	prefix string
	out    io.Writer
}

// Option adjusts a logger built by New.
type Option func(*settings)

// WithLevel sets the minimum level.
func WithLevel(level slog.Level) Option {
	return func(s *settings) { s.level = level }
}

// WithDebug lowers the level to Debug when debug is true.
func WithDebug(debug bool) Option {
	return func(s *settings) {
		if debug {
			s.level = slog.LevelDebug
		}
	}
}

// WithPretty selects FormatPretty when pretty is true.
func WithPretty(pretty bool) Option {
	return func(s *settings) {
		if pretty {
			s.format = FormatPretty
		}
	}
}

// WithJSON selects FormatJSON when json is true. It wins over WithPretty.
func WithJSON(json bool) Option {
	return func(s *settings) {
		if json {
			s.format = FormatJSON
		}
	}
}

// WithWriter sends output to w instead of os.Stderr.
func WithWriter(w io.Writer) Option {
	return func(s *settings) {
		if w != nil {
			s.out = w
		}
	}
}

// WithSource adds the calling file and line to each record.
func WithSource(source bool) Option {
	return func(s *settings) { s.source = source }
}

// WithPrefix labels pretty output, e.g. "kb".
func WithPrefix(prefix string) Option {
	return func(s *settings) { s.prefix = prefix }
}

// New returns a logger at Info level writing text to os.Stderr, adjusted by
// opts. Options apply in order, except that JSON always wins over pretty.
func New(opts ...Option) *slog.Logger {
	s := settings{level: slog.LevelInfo, out: os.Stderr}
	json := false
	for _, opt := range opts {
		opt(&s)
		json = json || s.format == FormatJSON
	}
	if json {
		s.format = FormatJSON
	}
	return slog.New(s.handler())
}

func (s settings) handler() slog.Handler {
	switch s.format {
	case FormatPretty:
		return charmlog.NewWithOptions(s.out, charmlog.Options{
			Level:           charmLevel(s.level),
			Prefix:          s.prefix,
			ReportTimestamp: true,
			TimeFormat:      "15:04:05",
			ReportCaller:    s.source,
		})
	case FormatJSON:
		return slog.NewJSONHandler(s.out, &slog.HandlerOptions{Level: s.level, AddSource: s.source})
	default:
		return slog.NewTextHandler(s.out, &slog.HandlerOptions{Level: s.level, AddSource: s.source})
	}
}

// charmLevel maps slog levels onto charmbracelet/log's, which share the
// same numeric scale.
func charmLevel(l slog.Level) charmlog.Level {
	switch {
	case l <= slog.LevelDebug:
		return charmlog.DebugLevel
	case l <= slog.LevelInfo:
		return charmlog.InfoLevel
	case l <= slog.LevelWarn:
		return charmlog.WarnLevel
	default:
		return charmlog.ErrorLevel
	}
}

// Nop returns a logger that drops every record.
func Nop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
