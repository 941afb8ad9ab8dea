package adapters

import (
	"context"
	"sync"
)

// LogSink persists audit log entries. Persistence is best-effort: callers
// buffer locally when SaveLogs fails rather than retrying synchronously.
type LogSink interface {
	SaveLogs(ctx context.Context, entries []map[string]any) error
}

// MemorySink is an in-process LogSink that keeps everything it is given.
// Useful for tests and for the CLI, where no log database is configured.
type MemorySink struct {
	mu      sync.Mutex
	entries []map[string]any

	// FailNext makes the next SaveLogs call return ErrUnavailable, then
	// resets. Used to exercise buffer-on-failure behavior in tests.
	FailNext bool
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{entries: []map[string]any{}}
}

// SaveLogs appends entries to the in-memory store.
func (s *MemorySink) SaveLogs(_ context.Context, entries []map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailNext {
		s.FailNext = false
		return ErrUnavailable
	}
	s.entries = append(s.entries, entries...)
	return nil
}

// Entries returns a copy of everything saved so far.
func (s *MemorySink) Entries() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]map[string]any, len(s.entries))
	copy(out, s.entries)
	return out
}
