package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var levelColors = map[slog.Level]lipgloss.Color{
	LevelInfo:    namedColors["white"],
	LevelSuccess: namedColors["green"],
	LevelWarn:    namedColors["yellow"],
	LevelError:   namedColors["red"],
}

// consoleHandler writes one line per record: prefix, rendered message, then
// any attributes as key=value pairs.
type consoleHandler struct {
	mu       *sync.Mutex
	w        io.Writer
	level    slog.Leveler
	color    bool
	renderer *lipgloss.Renderer
	prefix   string
	attrs    []slog.Attr
	group    string
}

func newConsoleHandler(opts Options) *consoleHandler {
	color := colorEnabled(opts.Color, opts.Writer)
	return &consoleHandler{
		mu:       &sync.Mutex{},
		w:        opts.Writer,
		level:    opts.Level,
		color:    color,
		renderer: newRenderer(opts.Writer, color),
		prefix:   opts.Prefix,
	}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder

	if h.color {
		b.WriteString(h.renderer.NewStyle().Foreground(lipgloss.Color("12")).Bold(true).Render(h.prefix))
		b.WriteByte(' ')
		b.WriteString(render(h.renderer, r.Message, baseColor(r.Level)))
	} else {
		b.WriteString(h.prefix)
		b.WriteByte(' ')
		b.WriteString(Strip(r.Message))
	}

	var pairs []string
	for _, a := range h.attrs {
		pairs = append(pairs, formatAttr(a))
	}
	r.Attrs(func(a slog.Attr) bool {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		pairs = append(pairs, formatAttr(a))
		return true
	})
	if len(pairs) > 0 {
		tail := strings.Join(pairs, " ")
		if h.color {
			tail = h.renderer.NewStyle().Foreground(namedColors["gray"]).Render(tail)
		}
		b.WriteByte(' ')
		b.WriteString(tail)
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	c.attrs = append(c.attrs, h.attrs...)
	for _, a := range attrs {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		c.attrs = append(c.attrs, a)
	}
	return &c
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	if c.group != "" {
		c.group += "." + name
	} else {
		c.group = name
	}
	return &c
}

func baseColor(level slog.Level) lipgloss.Color {
	if c, ok := levelColors[level]; ok {
		return c
	}
	if level > LevelError {
		return levelColors[LevelError]
	}
	return levelColors[LevelInfo]
}

func formatAttr(a slog.Attr) string {
	return fmt.Sprintf("%s=%v", a.Key, a.Value.Resolve().Any())
}
