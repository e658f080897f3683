// Package logging provides slog plumbing for the mdconf tools: a capture
// handler that retains recent records so loader diagnostics can be
// inspected after the fact.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Capture is an slog.Handler that records every handled message in
// addition to forwarding to a wrapped base handler. The base may be nil,
// in which case records are only retained.
type Capture struct {
	base    slog.Handler
	mu      sync.Mutex
	records []string
	attrs   []slog.Attr
	groups  []string
	parent  *Capture // records are stored on the root handler
}

// NewCapture wraps a base slog.Handler with record retention.
func NewCapture(base slog.Handler) *Capture {
	return &Capture{base: base}
}

// Enabled implements slog.Handler.
func (h *Capture) Enabled(ctx context.Context, level slog.Level) bool {
	if h.base == nil {
		return true
	}
	return h.base.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *Capture) Handle(ctx context.Context, r slog.Record) error {
	root := h.root()
	root.mu.Lock()
	root.records = append(root.records, formatRecord(r, h.attrs, h.groups))
	root.mu.Unlock()

	if h.base == nil {
		return nil
	}
	return h.base.Handle(ctx, r)
}

// WithAttrs implements slog.Handler.
func (h *Capture) WithAttrs(attrs []slog.Attr) slog.Handler {
	child := &Capture{
		attrs:  append(append([]slog.Attr{}, h.attrs...), attrs...),
		groups: h.groups,
		parent: h.root(),
	}
	if h.base != nil {
		child.base = h.base.WithAttrs(attrs)
	}
	return child
}

// WithGroup implements slog.Handler.
func (h *Capture) WithGroup(name string) slog.Handler {
	child := &Capture{
		attrs:  h.attrs,
		groups: append(append([]string{}, h.groups...), name),
		parent: h.root(),
	}
	if h.base != nil {
		child.base = h.base.WithGroup(name)
	}
	return child
}

// Records returns a copy of everything handled so far.
func (h *Capture) Records() []string {
	root := h.root()
	root.mu.Lock()
	defer root.mu.Unlock()
	return append([]string(nil), root.records...)
}

// Reset discards retained records.
func (h *Capture) Reset() {
	root := h.root()
	root.mu.Lock()
	root.records = nil
	root.mu.Unlock()
}

func (h *Capture) root() *Capture {
	if h.parent != nil {
		return h.parent
	}
	return h
}

// formatRecord produces a compact text representation of a log record.
func formatRecord(r slog.Record, preAttrs []slog.Attr, groups []string) string {
	var b strings.Builder
	b.WriteString(r.Message)

	for _, a := range preAttrs {
		fmt.Fprintf(&b, " %s=%s", a.Key, a.Value.String())
	}

	r.Attrs(func(a slog.Attr) bool {
		key := a.Key
		if len(groups) > 0 {
			key = strings.Join(groups, ".") + "." + key
		}
		fmt.Fprintf(&b, " %s=%s", key, a.Value.String())
		return true
	})

	return b.String()
}
