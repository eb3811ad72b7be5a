package testutil

import (
	"github.com/linolazarous/cursorcode-ai/core"
)

// StateBuilder helps construct states with fluent chaining for tests.
// Example:
//
//	st := NewStateBuilder("proj-1", "todo app").Tier(core.TierPro).User("hi").Build()
type StateBuilder struct {
	state *core.State
}

// NewStateBuilder creates a builder for a state owned by user "user-1".
func NewStateBuilder(projectID, prompt string) *StateBuilder {
	return &StateBuilder{state: core.NewState(projectID, prompt, "user-1")}
}

// UserID sets the owning user (chainable).
func (b *StateBuilder) UserID(id string) *StateBuilder {
	b.state.UserID = id
	return b
}

// Tier sets the user tier (chainable).
func (b *StateBuilder) Tier(t core.Tier) *StateBuilder {
	b.state.UserTier = t
	return b
}

// Complexity sets the task complexity (chainable).
func (b *StateBuilder) Complexity(c core.Complexity) *StateBuilder {
	b.state.TaskComplexity = c
	return b
}

// Tokens sets the running token total (chainable).
func (b *StateBuilder) Tokens(n int) *StateBuilder {
	b.state.TotalTokensUsed = n
	return b
}

// User appends a user message (chainable).
func (b *StateBuilder) User(text string) *StateBuilder {
	b.state.AppendMessage(core.NewTextContent(core.RoleUser, text))
	return b
}

// Assistant appends an assistant message (chainable).
func (b *StateBuilder) Assistant(text string) *StateBuilder {
	b.state.AppendMessage(core.NewTextContent(core.RoleAssistant, text))
	return b
}

// ToolCall appends an assistant message requesting one tool call (chainable).
func (b *StateBuilder) ToolCall(id, name, args string) *StateBuilder {
	b.state.AppendMessage(core.Content{Role: core.RoleAssistant, Parts: []core.Part{
		core.FunctionCallPart{FunctionCall: FunctionCall(id, name, args)},
	}})
	return b
}

// Build returns the state.
func (b *StateBuilder) Build() *core.State { return b.state }

// FunctionCall builds a FunctionCall value.
func FunctionCall(id, name, args string) core.FunctionCall {
	return core.FunctionCall{ID: id, Name: name, Arguments: args}
}
