// Package clog wires ambient, per-job context into the shell's
// structured log output: a context carries a mutable attribute bag
// (job id, pgid, pid) that an slog.Handler wrapper pulls in on every
// Handle call, so call sites don't have to thread slog.Attr through
// every job-control function by hand.
package clog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/fatih/color"
)

type ctxAttrs struct {
	mu    sync.RWMutex
	attrs map[string]any
}

type ctxKey struct{}

// WithAttributes returns a context carrying a fresh, empty attribute bag.
func WithAttributes(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, &ctxAttrs{attrs: make(map[string]any)})
}

// AddAttribute records key=value on ctx's attribute bag; a ctx without
// one (not built via WithAttributes) silently does nothing.
func AddAttribute(ctx context.Context, key string, value any) {
	a, ok := ctx.Value(ctxKey{}).(*ctxAttrs)
	if !ok {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.attrs[key] = value
}

// AddJob is the shell-specific shorthand used around job-control
// transitions: every log line emitted while handling a job carries its
// id and process group.
func AddJob(ctx context.Context, jobID, pgid int) {
	AddAttribute(ctx, "job_id", jobID)
	AddAttribute(ctx, "pgid", pgid)
}

func getAttributes(ctx context.Context) map[string]any {
	a, ok := ctx.Value(ctxKey{}).(*ctxAttrs)
	if !ok {
		return nil
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[string]any, len(a.attrs))
	for k, v := range a.attrs {
		out[k] = v
	}
	return out
}

// AttributesHandler wraps an slog.Handler and injects the calling
// context's attribute bag (job id, pgid, ...) into every record.
type AttributesHandler struct {
	handler slog.Handler
}

func NewAttributesHandler(handler slog.Handler) *AttributesHandler {
	return &AttributesHandler{handler: handler}
}

func (h *AttributesHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *AttributesHandler) Handle(ctx context.Context, record slog.Record) error {
	if attrs := getAttributes(ctx); len(attrs) > 0 {
		extra := make([]slog.Attr, 0, len(attrs))
		for k, v := range attrs {
			extra = append(extra, slog.Any(k, v))
		}
		record.AddAttrs(extra...)
	}
	return h.handler.Handle(ctx, record)
}

func (h *AttributesHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AttributesHandler{handler: h.handler.WithAttrs(attrs)}
}

func (h *AttributesHandler) WithGroup(name string) slog.Handler {
	return &AttributesHandler{handler: h.handler.WithGroup(name)}
}

// ColorHandler renders each record as "LEVEL msg key=value ..." with
// the level word colored the way an interactive shell colors its own
// diagnostics; attrs are appended in encounter order via fmt, not
// reflection-matched against slog's internal buffer format, since this
// handler only ever serves the shell's own small, fixed set of log
// sites.
type ColorHandler struct {
	w     io.Writer
	level slog.Level
	attrs []slog.Attr
	mu    *sync.Mutex
}

// NewColorHandler builds a ColorHandler writing to w, filtering below level.
func NewColorHandler(w io.Writer, level slog.Level) *ColorHandler {
	return &ColorHandler{w: w, level: level, mu: &sync.Mutex{}}
}

func (h *ColorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *ColorHandler) Handle(_ context.Context, record slog.Record) error {
	var b strings.Builder
	colorForLevel(record.Level).Fprint(&b, record.Level.String())
	b.WriteByte(' ')
	b.WriteString(record.Message)

	for _, a := range h.attrs {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
	}
	record.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *ColorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &next
}

func (h *ColorHandler) WithGroup(_ string) slog.Handler {
	// Groups would need a prefix on every subsequent attr key; the
	// shell's own log sites don't nest groups, so this is a no-op
	// rather than unused machinery.
	return h
}

func colorForLevel(level slog.Level) *color.Color {
	switch {
	case level >= slog.LevelError:
		return color.New(color.FgRed, color.Bold)
	case level >= slog.LevelWarn:
		return color.New(color.FgYellow)
	case level >= slog.LevelInfo:
		return color.New(color.FgCyan)
	default:
		return color.New(color.FgHiBlack)
	}
}
