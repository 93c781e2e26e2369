package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/fatih/color"
)

const LevelFatal slog.Level = 12

// ConsoleHandler writes one colored line per record:
// time | level | message key=value...
type ConsoleHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	level  slog.Leveler
	attrs  []slog.Attr
	prefix string
}

func NewConsoleHandler(w io.Writer, level slog.Leveler) *ConsoleHandler {
	return &ConsoleHandler{mu: &sync.Mutex{}, w: w, level: level}
}

func (h *ConsoleHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	lvl := r.Level.String()
	switch {
	case r.Level >= LevelFatal:
		lvl = color.HiRedString("FATAL")
	case r.Level >= slog.LevelError:
		lvl = color.RedString(lvl)
	case r.Level >= slog.LevelWarn:
		lvl = color.YellowString(lvl)
	case r.Level >= slog.LevelInfo:
		lvl = color.BlueString(lvl)
	default:
		lvl = color.MagentaString(lvl)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s | %-5s | %s",
		color.GreenString(r.Time.Format("2006-01-02T15:04:05")),
		lvl,
		r.Message,
	)
	for _, a := range h.attrs {
		writeAttr(&b, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, h.prefix, a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			writeAttr(b, prefix+a.Key+".", ga)
		}
		return
	}
	b.WriteString(color.CyanString(" %s%s=", prefix, a.Key))
	fmt.Fprintf(b, "%v", a.Value)
}

func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	c.attrs = append(c.attrs, h.attrs...)
	for _, a := range attrs {
		if h.prefix != "" {
			a.Key = h.prefix + a.Key
		}
		c.attrs = append(c.attrs, a)
	}
	return &c
}

func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.prefix = h.prefix + name + "."
	return &c
}
