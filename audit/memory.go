package audit

import (
	"context"
	"sync"
)

// MemoryRecorder keeps events in memory. It is both a synchronous Sink and a
// Store, and is used by tests and the offline CLI mode.
type MemoryRecorder struct {
	mu     sync.Mutex
	events []Event
}

// NewMemoryRecorder returns an empty recorder.
func NewMemoryRecorder() *MemoryRecorder { return &MemoryRecorder{} }

// Emit implements Sink.
func (m *MemoryRecorder) Emit(ev Event) {
	m.mu.Lock()
	m.events = append(m.events, ev)
	m.mu.Unlock()
}

// Save implements Store.
func (m *MemoryRecorder) Save(_ context.Context, ev Event) error {
	m.Emit(ev)
	return nil
}

// Events returns a copy of every recorded event in order.
func (m *MemoryRecorder) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

// ByAction returns the recorded events with the given action.
func (m *MemoryRecorder) ByAction(action string) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Event
	for _, ev := range m.events {
		if ev.Action == action {
			out = append(out, ev)
		}
	}
	return out
}

// Recent implements Reader.
func (m *MemoryRecorder) Recent(_ context.Context, limit int) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, 0, len(m.events))
	for i := len(m.events) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, m.events[i])
	}
	return out, nil
}
