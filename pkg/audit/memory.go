package audit

import (
	"context"
	"sync"
)

// MemorySink accumulates events in memory. Used in tests and by the
// orchestrator's dry-run mode.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
	seq    uint64
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Append(_ context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	stamp(&e, s.seq)
	s.events = append(s.events, e)
	return nil
}

// Events returns a copy of everything appended so far, in sequence order.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

func (s *MemorySink) Close() error {
	return nil
}
