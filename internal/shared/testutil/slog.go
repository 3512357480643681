// Package testutil holds shared test helpers, currently a slog handler
// that captures records so tests can assert on structured log output.
package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

// LogRecord is one captured log record
type LogRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// CaptureHandler is a slog.Handler that records everything it handles
type CaptureHandler struct {
	mu      sync.Mutex
	attrs   []slog.Attr
	records *[]LogRecord
}

// NewCaptureLogger returns a logger whose records can be inspected
// through the returned handler.
func NewCaptureLogger() (*slog.Logger, *CaptureHandler) {
	h := &CaptureHandler{records: &[]LogRecord{}}
	return slog.New(h), h
}

// Handle implements slog.Handler
func (h *CaptureHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, r.NumAttrs()+len(h.attrs))
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	*h.records = append(*h.records, LogRecord{
		Level:   r.Level,
		Message: r.Message,
		Attrs:   attrs,
	})
	return nil
}

// Enabled implements slog.Handler. Tests capture all levels.
func (h *CaptureHandler) Enabled(context.Context, slog.Level) bool { return true }

// WithAttrs implements slog.Handler
func (h *CaptureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CaptureHandler{attrs: append(append([]slog.Attr{}, h.attrs...), attrs...), records: h.records}
}

// WithGroup implements slog.Handler. Groups are flattened for tests.
func (h *CaptureHandler) WithGroup(string) slog.Handler { return h }

// Records returns a copy of the captured records
func (h *CaptureHandler) Records() []LogRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]LogRecord, len(*h.records))
	copy(out, *h.records)
	return out
}

// ContainsMessage reports whether any record contains the message
func (h *CaptureHandler) ContainsMessage(message string) bool {
	for _, r := range h.Records() {
		if strings.Contains(r.Message, message) {
			return true
		}
	}
	return false
}

// AttrsFor returns the attributes of the first record with the message,
// or nil when no such record was captured.
func (h *CaptureHandler) AttrsFor(message string) map[string]any {
	for _, r := range h.Records() {
		if r.Message == message {
			return r.Attrs
		}
	}
	return nil
}
