// Package metering reports per-invocation token usage.
package metering

import (
	"context"
	"time"

	"github.com/linolazarous/cursorcode-ai/core"
)

// Record is one agent invocation's usage.
type Record struct {
	RequestID  string         `json:"request_id"`
	UserID     string         `json:"user_id,omitempty"`
	ProjectID  string         `json:"project_id,omitempty"`
	AgentType  core.AgentType `json:"agent_type"`
	TokensUsed int            `json:"tokens_used"`
	Model      string         `json:"model"`
	Timestamp  time.Time      `json:"timestamp"`
}

// NewRecord stamps a record with a fresh request id and the current UTC time.
func NewRecord(userID, projectID string, agent core.AgentType, tokens int, model string) Record {
	return Record{
		RequestID:  core.NewID(),
		UserID:     userID,
		ProjectID:  projectID,
		AgentType:  agent,
		TokensUsed: tokens,
		Model:      model,
		Timestamp:  time.Now().UTC(),
	}
}

// Reporter accepts usage records without blocking.
type Reporter interface {
	Report(r Record)
}

// Store persists usage records.
type Store interface {
	Put(ctx context.Context, r Record) error
}

// NopReporter discards records.
type NopReporter struct{}

// Report implements Reporter.
func (NopReporter) Report(Record) {}
