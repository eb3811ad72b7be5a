package orchestrator

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/linolazarous/cursorcode-ai/core"
)

// EventKind tags an Event for the transport.
type EventKind string

const (
	KindStart     EventKind = "start"
	KindStage     EventKind = "stage"
	KindComplete  EventKind = "complete"
	KindCancelled EventKind = "cancelled"
	KindFailed    EventKind = "failed"
)

// Event is one progress notification of a run.
type Event struct {
	Kind      EventKind `json:"kind"`
	RunID     string    `json:"run_id"`
	ProjectID string    `json:"project_id"`
	Message   string    `json:"message"`

	// Start only.
	PromptPreview string `json:"prompt_preview,omitempty"`

	// Stage only. Index is 1-based.
	Stage  core.AgentType `json:"stage,omitempty"`
	Index  int            `json:"index,omitempty"`
	Result any            `json:"result,omitempty"`
	Raw    string         `json:"raw,omitempty"`
	Error  string         `json:"error,omitempty"` // also set on failed events

	TotalTokens int `json:"total_tokens"`

	// Complete and cancelled only.
	State *core.State `json:"state,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// SSE frames e for a server-sent events stream.
func (e Event) SSE() []byte {
	data, err := json.Marshal(e)
	if err != nil {
		data, _ = json.Marshal(map[string]any{
			"kind":    e.Kind,
			"run_id":  e.RunID,
			"message": e.Message,
			"error":   fmt.Sprintf("encode event: %v", err),
		})
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", e.Kind, data))
}

// PreviewLen is the number of prompt characters shown in the start event.
const PreviewLen = 100

// Preview returns at most PreviewLen characters of prompt followed by "...".
func Preview(prompt string) string {
	r := []rune(prompt)
	if len(r) > PreviewLen {
		r = r[:PreviewLen]
	}
	return string(r) + "..."
}
