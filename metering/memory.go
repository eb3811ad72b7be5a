package metering

import (
	"context"
	"sync"

	"github.com/linolazarous/cursorcode-ai/logging"
)

// MemoryRecorder keeps records in memory; it is both Reporter and Store.
type MemoryRecorder struct {
	mu      sync.Mutex
	records []Record
}

// NewMemoryRecorder returns an empty recorder.
func NewMemoryRecorder() *MemoryRecorder { return &MemoryRecorder{} }

// Report implements Reporter.
func (m *MemoryRecorder) Report(r Record) {
	m.mu.Lock()
	m.records = append(m.records, r)
	m.mu.Unlock()
}

// Put implements Store.
func (m *MemoryRecorder) Put(_ context.Context, r Record) error {
	m.Report(r)
	return nil
}

// Records returns a copy of the recorded usage.
func (m *MemoryRecorder) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Record(nil), m.records...)
}

// TotalTokens sums TokensUsed over all records.
func (m *MemoryRecorder) TotalTokens() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, r := range m.records {
		total += r.TokensUsed
	}
	return total
}

// LogStore writes usage records to a logger.
type LogStore struct {
	Logger logging.Logger
}

// Put implements Store.
func (s LogStore) Put(_ context.Context, r Record) error {
	s.Logger.Info("usage",
		"request_id", r.RequestID,
		"user_id", r.UserID,
		"project_id", r.ProjectID,
		"agent_type", string(r.AgentType),
		"tokens_used", r.TokensUsed,
		"model", r.Model,
	)
	return nil
}
