package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// plainHandler is a minimal slog.Handler for console output: one line per record with the
// level, the component in brackets when bound, the message, then key=value pairs. No timestamp.
// Keys under an open group are written as group.key.
type plainHandler struct {
	w         io.Writer
	bound     string // attrs from WithAttrs, already rendered with their group prefix
	group     string // open group prefix, "" or "a.b."
	component string
	mu        *sync.Mutex
	leveler   slog.Leveler
}

func newPlainHandler(w io.Writer, leveler slog.Leveler) slog.Handler {
	return &plainHandler{w: w, leveler: leveler, mu: &sync.Mutex{}}
}

// Enabled implements slog.Handler by checking level
func (h *plainHandler) Enabled(_ context.Context, lvl slog.Level) bool {
	if h.leveler == nil {
		return true
	}
	return lvl >= h.leveler.Level()
}

// Handle writes the record as a single line
func (h *plainHandler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder
	sb.WriteString(levelName(r.Level))
	if h.component != "" {
		sb.WriteString(" [")
		sb.WriteString(h.component)
		sb.WriteString("]")
	}
	sb.WriteString(" ")
	sb.WriteString(r.Message)

	sb.WriteString(h.bound)
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&sb, h.group, a)
		return true
	})
	sb.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, sb.String())
	return err
}

func writeAttr(sb *strings.Builder, prefix string, a slog.Attr) {
	if a.Value.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p = prefix + a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			writeAttr(sb, p, ga)
		}
		return
	}
	if a.Key == "" {
		return
	}
	fmt.Fprintf(sb, " %s%s=%v", prefix, a.Key, a.Value.Resolve())
}

// WithAttrs returns a new handler with additional attributes bound. The component attribute
// is lifted into the line prefix unless a group is open.
func (h *plainHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	nh := *h
	var sb strings.Builder
	sb.WriteString(h.bound)
	for _, a := range attrs {
		if a.Key == "component" && h.group == "" {
			nh.component = a.Value.String()
			continue
		}
		writeAttr(&sb, h.group, a)
	}
	nh.bound = sb.String()
	return &nh
}

// WithGroup prefixes the keys of every later attribute with name.
func (h *plainHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := *h
	nh.group = h.group + name + "."
	return &nh
}
