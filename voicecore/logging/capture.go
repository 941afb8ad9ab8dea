package logging

import "sync"

// Entry is one captured log record.
type Entry struct {
	Level   string
	Message string
	Fields  map[string]any
}

// Capture implements Logger and records entries in memory for tests.
type Capture struct {
	mu      sync.Mutex
	entries []Entry
	bound   []any
}

// NewCapture creates an empty Capture logger.
func NewCapture() *Capture {
	return &Capture{}
}

func (c *Capture) Debug(msg string, fields ...any) { c.log("debug", msg, fields...) }
func (c *Capture) Info(msg string, fields ...any)  { c.log("info", msg, fields...) }
func (c *Capture) Warn(msg string, fields ...any)  { c.log("warn", msg, fields...) }
func (c *Capture) Error(msg string, fields ...any) { c.log("error", msg, fields...) }

// Bind shares the entry buffer so bound loggers stay observable in tests.
func (c *Capture) Bind(fields ...any) Logger {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &boundCapture{parent: c, fields: append(append([]any{}, c.bound...), fields...)}
}

func (c *Capture) log(level, msg string, fields ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, Entry{Level: level, Message: msg, Fields: pairs(fields)})
}

// Entries returns a copy of the captured log records.
func (c *Capture) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Has reports whether an entry with the level and message was captured.
func (c *Capture) Has(level, message string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if e.Level == level && e.Message == message {
			return true
		}
	}
	return false
}

type boundCapture struct {
	parent *Capture
	fields []any
}

func (b *boundCapture) Debug(msg string, fields ...any) {
	b.parent.log("debug", msg, append(b.fields, fields...)...)
}
func (b *boundCapture) Info(msg string, fields ...any) {
	b.parent.log("info", msg, append(b.fields, fields...)...)
}
func (b *boundCapture) Warn(msg string, fields ...any) {
	b.parent.log("warn", msg, append(b.fields, fields...)...)
}
func (b *boundCapture) Error(msg string, fields ...any) {
	b.parent.log("error", msg, append(b.fields, fields...)...)
}
func (b *boundCapture) Bind(fields ...any) Logger {
	return &boundCapture{parent: b.parent, fields: append(append([]any{}, b.fields...), fields...)}
}

func pairs(fields []any) map[string]any {
	out := make(map[string]any)
	for i := 0; i+1 < len(fields); i += 2 {
		if key, ok := fields[i].(string); ok {
			out[key] = fields[i+1]
		}
	}
	return out
}
