package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/linolazarous/cursorcode-ai/audit"
	"github.com/linolazarous/cursorcode-ai/config"
	"github.com/linolazarous/cursorcode-ai/core"
	"github.com/linolazarous/cursorcode-ai/logging"
	"github.com/linolazarous/cursorcode-ai/metrics"
)

// ErrUnknownTool is wrapped by the ToolError returned for unregistered or
// unbound tool names.
var ErrUnknownTool = errors.New("unknown tool")

// ErrDuplicateTool is returned by Register for a name already taken.
var ErrDuplicateTool = errors.New("duplicate tool")

// Invocation is one tool call requested by a model.
type Invocation struct {
	Call      core.FunctionCall
	AgentType core.AgentType
	UserID    string
	ProjectID string
}

// Result is the structured outcome of an invocation. Failures are data:
// Output then holds {"success": false, "error": ..., "code": ...}.
type Result struct {
	CallID  string `json:"call_id,omitempty"`
	Name    string `json:"name"`
	Output  any    `json:"output"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Response converts r into a function response part for the history.
func (r Result) Response() core.FunctionResponsePart {
	return core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{
		ID:       r.CallID,
		Name:     r.Name,
		Response: r.Output,
		Error:    r.Error,
	}}
}

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	Sink    audit.Sink
	Logger  logging.Logger
	Metrics metrics.Recorder
}

// Registry binds tools to agent types according to the agent descriptors.
// It is safe for concurrent use.
type Registry struct {
	cfg     *config.Config
	sink    audit.Sink
	logger  logging.Logger
	metrics metrics.Recorder

	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg *config.Config, optFns ...func(o *RegistryOptions)) *Registry {
	opts := RegistryOptions{
		Sink:    audit.NopSink{},
		Logger:  logging.NoOpLogger{},
		Metrics: metrics.Nop(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Registry{
		cfg:     cfg,
		sink:    opts.Sink,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		tools:   map[string]Tool{},
	}
}

// NewDefaultRegistry creates a registry holding the built-in tools.
func NewDefaultRegistry(cfg *config.Config, optFns ...func(o *RegistryOptions)) *Registry {
	r := NewRegistry(cfg, optFns...)
	for _, t := range Builtins() {
		// Built-in names are unique.
		_ = r.Register(t)
	}
	return r
}

// Register adds tools. Names must be unique.
func (r *Registry) Register(tools ...Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range tools {
		if _, exists := r.tools[t.Name()]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateTool, t.Name())
		}
		r.tools[t.Name()] = t
		r.order = append(r.order, t.Name())
	}
	return nil
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// All returns every registered tool in registration order.
func (r *Registry) All() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// ToolsFor returns the tools bound to agentType in descriptor order. Agent
// types without a descriptor receive every registered tool; this is not an
// isolation boundary.
func (r *Registry) ToolsFor(agentType core.AgentType) []Tool {
	d, ok := r.cfg.Agent(agentType)
	if !ok {
		return r.All()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(d.Tools))
	for _, name := range d.Tools {
		t, found := r.tools[name]
		if !found {
			r.logger.Warn("agent bound to unregistered tool", "agent_type", string(agentType), "tool", name)
			continue
		}
		out = append(out, t)
	}
	return out
}

func (r *Registry) bound(agentType core.AgentType, name string) (Tool, bool) {
	for _, t := range r.ToolsFor(agentType) {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

// Invoke runs one tool call and returns its structured result. It never
// returns a Go error: unknown tools, malformed arguments and tool failures
// all become a Result with Success=false. Every invocation is audited as
// tool_used:<name> before Invoke returns.
func (r *Registry) Invoke(ctx context.Context, inv Invocation) Result {
	start := time.Now()
	name := inv.Call.Name
	res := Result{CallID: inv.Call.ID, Name: name}

	args, err := decodeArgs(inv.Call.Arguments)
	var out any
	switch {
	case err != nil:
		err = &ToolError{Tool: name, Message: err.Error(), Code: CodeValidation}
	default:
		t, ok := r.bound(inv.AgentType, name)
		if !ok {
			err = &ToolError{
				Tool:    name,
				Message: fmt.Sprintf("%v: %q is not available to agent %s", ErrUnknownTool, name, inv.AgentType),
				Code:    CodeUnknownTool,
			}
			break
		}
		tc := core.NewToolContext(ctx, inv.Call.ID,
			core.WithToolCaller(inv.AgentType, inv.UserID, inv.ProjectID),
			core.WithToolLogger(r.logger),
		)
		out, err = r.call(t, tc, args)
	}

	if err != nil {
		res.Error = err.Error()
		code := CodeExecution
		msg := err.Error()
		var te *ToolError
		if errors.As(err, &te) {
			code, msg = te.Code, te.Message
		}
		res.Output = map[string]any{"success": false, "error": msg, "code": code}
	} else {
		res.Output = out
		res.Success = reportsSuccess(out)
	}

	dur := time.Since(start)
	r.metrics.ObserveTool(name, res.Success, dur)
	r.sink.Emit(audit.NewEvent(inv.UserID, audit.ToolUsed(name), map[string]any{
		"args":           args,
		"result_summary": SummarizeResult(res.Output),
		"timestamp":      time.Now().UTC().Format(time.RFC3339Nano),
		"agent_type":     string(inv.AgentType),
		"project_id":     inv.ProjectID,
		"success":        res.Success,
	}))
	if sl, ok := r.logger.(*logging.StructuredLogger); ok {
		sl.WithComponent("tools").LogToolCall(name, dur, res.Success, err)
	} else {
		r.logger.Debug("tool invoked", "tool", name, "success", res.Success, "duration_ms", dur.Milliseconds())
	}
	return res
}

// call runs t, converting a panic into an EXECUTION_ERROR so one broken
// tool degrades a single call instead of the whole run.
func (r *Registry) call(t Tool, tc *core.ToolContext, args map[string]any) (out any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("tool panicked", "tool", t.Name(), "recover", fmt.Sprint(rec), "stack", string(debug.Stack()))
			out, err = nil, &ToolError{Tool: t.Name(), Message: fmt.Sprintf("panic: %v", rec), Code: CodeExecution}
		}
	}()
	return t.Call(tc, args)
}

func decodeArgs(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("arguments are not a JSON object: %w", err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// reportsSuccess honours a "success" field in tool output, which tools use
// to reject unsafe input without raising.
func reportsSuccess(out any) bool {
	switch v := out.(type) {
	case CodeExecResult:
		return v.Success
	case map[string]any:
		if s, ok := v["success"].(bool); ok {
			return s
		}
	}
	return true
}
