// Package audit records significant platform actions: routing decisions,
// agent executions, tool invocations and rate-limit trips.
//
// Producers call Sink.Emit, which never blocks and never fails from the
// caller's point of view. Durable delivery is handled by a Store behind an
// asynchronous queue.
package audit

import (
	"context"
	"time"

	"github.com/linolazarous/cursorcode-ai/core"
)

// Well-known actions.
const (
	ActionModelRouted            = "model_routed"
	ActionRateLimitExceeded      = "rate_limit_exceeded"
	ActionOrchestrationStarted   = "orchestration_started"
	ActionOrchestrationCompleted = "orchestration_completed"
	ActionOrchestrationCancelled = "orchestration_cancelled"
	ActionOrchestrationFailed    = "orchestration_failed"
)

// AgentExecuted returns the action recorded after a successful agent node.
func AgentExecuted(t core.AgentType) string { return "agent_" + string(t) + "_executed" }

// AgentFailed returns the action recorded when an agent node degraded.
func AgentFailed(t core.AgentType) string { return "agent_" + string(t) + "_failed" }

// ToolUsed returns the action recorded for a tool invocation.
func ToolUsed(name string) string { return "tool_used:" + name }

// Event is one audit record.
type Event struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id,omitempty"`
	Action    string         `json:"action"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewEvent builds an event with a fresh id and the current UTC time.
func NewEvent(userID, action string, metadata map[string]any) Event {
	return Event{
		ID:        core.NewID(),
		UserID:    userID,
		Action:    action,
		Metadata:  metadata,
		Timestamp: time.Now().UTC(),
	}
}

// Sink accepts events without blocking the caller.
type Sink interface {
	Emit(ev Event)
}

// Store persists events. Implementations may be slow or fail; they sit
// behind an AsyncSink.
type Store interface {
	Save(ctx context.Context, ev Event) error
}

// Reader lists stored events, newest first.
type Reader interface {
	Recent(ctx context.Context, limit int) ([]Event, error)
}

// NopSink discards events.
type NopSink struct{}

// Emit implements Sink.
func (NopSink) Emit(Event) {}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Emit implements Sink.
func (f SinkFunc) Emit(ev Event) { f(ev) }

// StoreFunc adapts a function to Store.
type StoreFunc func(ctx context.Context, ev Event) error

// Save implements Store.
func (f StoreFunc) Save(ctx context.Context, ev Event) error { return f(ctx, ev) }
