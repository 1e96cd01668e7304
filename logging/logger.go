// Package logging is the log sink used across gitsync.
//
// It is a thin facade over log/slog. Messages are printf-style and may carry
// color markup ({cyan}, {yellow}, ...). The console handler renders the
// markup with lipgloss when color is enabled and strips it otherwise; the
// JSON handler always strips it.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Levels understood by the sink. Success sits between info and warn.
const (
	LevelInfo    = slog.LevelInfo
	LevelSuccess = slog.Level(2)
	LevelWarn    = slog.LevelWarn
	LevelError   = slog.LevelError
)

// Format selects the output encoding.
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

// ColorMode selects whether console output is colored.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// DefaultPrefix is printed in front of every console line.
const DefaultPrefix = "[gitsync]"

// Logger is the facade every component logs through.
type Logger interface {
	Log(level slog.Level, format string, args ...any)
	Info(format string, args ...any)
	Success(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)

	// With returns a logger that adds attrs to every record.
	With(attrs ...any) Logger
}

// Options configures New.
type Options struct {
	Writer io.Writer
	Level  slog.Leveler
	Format Format
	Color  ColorMode
	Prefix string
}

// New builds a Logger from opts. Zero values select stderr, info level,
// console format, automatic color and DefaultPrefix.
func New(opts Options) Logger {
	if opts.Writer == nil {
		opts.Writer = os.Stderr
	}
	if opts.Level == nil {
		opts.Level = LevelInfo
	}
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}

	var h slog.Handler
	switch opts.Format {
	case FormatJSON:
		h = slog.NewJSONHandler(opts.Writer, &slog.HandlerOptions{
			Level:       opts.Level,
			ReplaceAttr: replaceJSONAttr,
		})
	default:
		h = newConsoleHandler(opts)
	}

	return FromSlog(slog.New(h))
}

// FromSlog adapts an existing slog logger.
func FromSlog(l *slog.Logger) Logger {
	return &slogLogger{l: l}
}

// Nop returns a logger that discards everything.
func Nop() Logger { return nopLogger{} }

// ParseLevel maps a config string onto a level. Unknown values yield info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "success":
		return LevelSuccess
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// LevelName returns the display name of level.
func LevelName(level slog.Level) string {
	if level == LevelSuccess {
		return "SUCCESS"
	}
	return level.String()
}

type slogLogger struct{ l *slog.Logger }

// Log formats args into format. Markup inside string and error args is
// escaped so only the format itself can change colors.
func (s *slogLogger) Log(level slog.Level, format string, args ...any) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, escapeArgs(args)...)
	}
	s.l.Log(context.Background(), level, msg)
}

func escapeArgs(args []any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case string:
			out[i] = Escape(v)
		case error:
			out[i] = Escape(v.Error())
		default:
			out[i] = a
		}
	}
	return out
}

func (s *slogLogger) Info(format string, args ...any)    { s.Log(LevelInfo, format, args...) }
func (s *slogLogger) Success(format string, args ...any) { s.Log(LevelSuccess, format, args...) }
func (s *slogLogger) Warn(format string, args ...any)    { s.Log(LevelWarn, format, args...) }
func (s *slogLogger) Error(format string, args ...any)   { s.Log(LevelError, format, args...) }

func (s *slogLogger) With(attrs ...any) Logger {
	return &slogLogger{l: s.l.With(attrs...)}
}

type nopLogger struct{}

func (nopLogger) Log(slog.Level, string, ...any) {}
func (nopLogger) Info(string, ...any)            {}
func (nopLogger) Success(string, ...any)         {}
func (nopLogger) Warn(string, ...any)            {}
func (nopLogger) Error(string, ...any)           {}
func (n nopLogger) With(...any) Logger           { return n }

func replaceJSONAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.MessageKey:
		return slog.String(slog.MessageKey, Strip(a.Value.String()))
	case slog.LevelKey:
		if lvl, ok := a.Value.Any().(slog.Level); ok {
			return slog.String(slog.LevelKey, LevelName(lvl))
		}
	}
	return a
}

// colorEnabled resolves ColorAuto against the writer.
func colorEnabled(mode ColorMode, w io.Writer) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func newRenderer(w io.Writer, color bool) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(w)
	if color {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return r
}
