// Package testutil captures slog output so tests can assert on what a
// component logged.
package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// LogRecord is one captured record. Attributes from Logger.With and the
// call site are flattened into Attrs; groups prefix keys with "group.".
// Integers are captured as int64.
type LogRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// LogCapture is a slog.Handler that keeps every record, at every level.
// Handlers derived with WithAttrs or WithGroup append to the same buffer.
type LogCapture struct {
	buf    *recordBuffer
	attrs  []slog.Attr
	prefix string
	t      testing.TB
}

type recordBuffer struct {
	mu      sync.Mutex
	records []LogRecord
}

// NewTestLogger returns a logger backed by a fresh LogCapture. Records are
// echoed to t.Log so failing tests show what was logged.
func NewTestLogger(t testing.TB) (*slog.Logger, *LogCapture) {
	c := &LogCapture{buf: &recordBuffer{}, t: t}
	return slog.New(c), c
}

func (c *LogCapture) Enabled(context.Context, slog.Level) bool { return true }

func (c *LogCapture) Handle(_ context.Context, r slog.Record) error {
	rec := LogRecord{Level: r.Level, Message: r.Message, Attrs: make(map[string]any, len(c.attrs)+r.NumAttrs())}
	for _, a := range c.attrs {
		rec.Attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		rec.Attrs[c.prefix+a.Key] = a.Value.Any()
		return true
	})

	c.buf.mu.Lock()
	c.buf.records = append(c.buf.records, rec)
	c.buf.mu.Unlock()

	if c.t != nil {
		c.t.Logf("[%s] %s %v", rec.Level, rec.Message, rec.Attrs)
	}
	return nil
}

func (c *LogCapture) WithAttrs(attrs []slog.Attr) slog.Handler {
	derived := *c
	derived.attrs = append([]slog.Attr(nil), c.attrs...)
	for _, a := range attrs {
		derived.attrs = append(derived.attrs, slog.Attr{Key: c.prefix + a.Key, Value: a.Value})
	}
	return &derived
}

func (c *LogCapture) WithGroup(name string) slog.Handler {
	if name == "" {
		return c
	}
	derived := *c
	derived.prefix += name + "."
	return &derived
}

// Records returns a snapshot of everything captured so far
func (c *LogCapture) Records() []LogRecord {
	c.buf.mu.Lock()
	defer c.buf.mu.Unlock()
	return append([]LogRecord(nil), c.buf.records...)
}

// AtLevel returns the captured records logged at exactly level
func (c *LogCapture) AtLevel(level slog.Level) []LogRecord {
	var out []LogRecord
	for _, r := range c.Records() {
		if r.Level == level {
			out = append(out, r)
		}
	}
	return out
}

// ContainsMessage reports whether any record's message contains substr
func (c *LogCapture) ContainsMessage(substr string) bool {
	return c.find(func(r LogRecord) bool { return strings.Contains(r.Message, substr) })
}

// ContainsAttr reports whether any record has key set to exactly value
func (c *LogCapture) ContainsAttr(key string, value any) bool {
	return c.find(func(r LogRecord) bool {
		v, ok := r.Attrs[key]
		return ok && v == value
	})
}

func (c *LogCapture) find(match func(LogRecord) bool) bool {
	for _, r := range c.Records() {
		if match(r) {
			return true
		}
	}
	return false
}

// Count is the number of captured records
func (c *LogCapture) Count() int {
	c.buf.mu.Lock()
	defer c.buf.mu.Unlock()
	return len(c.buf.records)
}

// Reset drops everything captured so far
func (c *LogCapture) Reset() {
	c.buf.mu.Lock()
	defer c.buf.mu.Unlock()
	c.buf.records = nil
}
