package core

import (
	"context"

	"github.com/linolazarous/cursorcode-ai/logging"
)

// ToolContext is the surface a tool implementation sees: the invoking
// request's context, the call id assigned by the model, the calling agent
// and tenant, and a logger scoped to the call.
type ToolContext struct {
	ctx            context.Context
	functionCallID string
	agentType      AgentType
	userID         string
	projectID      string
	logger         logging.Logger
}

// ToolContextOption customises a ToolContext.
type ToolContextOption func(tc *ToolContext)

// WithToolCaller sets the agent and tenant on whose behalf the tool runs.
func WithToolCaller(agent AgentType, userID, projectID string) ToolContextOption {
	return func(tc *ToolContext) {
		tc.agentType = agent
		tc.userID = userID
		tc.projectID = projectID
	}
}

// WithToolLogger sets the logger.
func WithToolLogger(l logging.Logger) ToolContextOption {
	return func(tc *ToolContext) {
		if l != nil {
			tc.logger = l
		}
	}
}

// NewToolContext builds a context for one function call.
func NewToolContext(ctx context.Context, functionCallID string, opts ...ToolContextOption) *ToolContext {
	if ctx == nil {
		ctx = context.Background()
	}
	tc := &ToolContext{
		ctx:            ctx,
		functionCallID: functionCallID,
		logger:         logging.NoOpLogger{},
	}
	for _, o := range opts {
		o(tc)
	}
	return tc
}

// Context returns the context of the invoking request.
func (tc *ToolContext) Context() context.Context { return tc.ctx }

// FunctionCallID returns the model-assigned call id.
func (tc *ToolContext) FunctionCallID() string { return tc.functionCallID }

// AgentType returns the calling agent.
func (tc *ToolContext) AgentType() AgentType { return tc.agentType }

// UserID returns the tenant user.
func (tc *ToolContext) UserID() string { return tc.userID }

// ProjectID returns the project the run belongs to.
func (tc *ToolContext) ProjectID() string { return tc.projectID }

// Logger returns the call-scoped logger.
func (tc *ToolContext) Logger() logging.Logger { return tc.logger }
