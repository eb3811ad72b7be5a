package agent

import (
	"context"

	"github.com/linolazarous/cursorcode-ai/core"
)

// Node is a pipeline stage: it takes a state and returns the next one.
type Node func(ctx context.Context, state *core.State) *core.State

// Node returns the stage function for agentType.
func (e *Executor) Node(agentType core.AgentType) Node {
	return func(ctx context.Context, state *core.State) *core.State {
		return e.RunAgent(ctx, state, agentType)
	}
}

// Architect runs the architect agent.
func (e *Executor) Architect(ctx context.Context, state *core.State) *core.State {
	return e.RunAgent(ctx, state, core.AgentArchitect)
}

// Frontend runs the frontend agent.
func (e *Executor) Frontend(ctx context.Context, state *core.State) *core.State {
	return e.RunAgent(ctx, state, core.AgentFrontend)
}

// Backend runs the backend agent.
func (e *Executor) Backend(ctx context.Context, state *core.State) *core.State {
	return e.RunAgent(ctx, state, core.AgentBackend)
}

// Security runs the security agent.
func (e *Executor) Security(ctx context.Context, state *core.State) *core.State {
	return e.RunAgent(ctx, state, core.AgentSecurity)
}

// QA runs the qa agent.
func (e *Executor) QA(ctx context.Context, state *core.State) *core.State {
	return e.RunAgent(ctx, state, core.AgentQA)
}

// DevOps runs the devops agent.
func (e *Executor) DevOps(ctx context.Context, state *core.State) *core.State {
	return e.RunAgent(ctx, state, core.AgentDevOps)
}
