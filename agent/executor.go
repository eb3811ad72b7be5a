package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/linolazarous/cursorcode-ai/audit"
	"github.com/linolazarous/cursorcode-ai/config"
	"github.com/linolazarous/cursorcode-ai/core"
	"github.com/linolazarous/cursorcode-ai/internal/tokenizer"
	"github.com/linolazarous/cursorcode-ai/logging"
	"github.com/linolazarous/cursorcode-ai/metering"
	"github.com/linolazarous/cursorcode-ai/metrics"
	"github.com/linolazarous/cursorcode-ai/model"
	"github.com/linolazarous/cursorcode-ai/retry"
	"github.com/linolazarous/cursorcode-ai/router"
	"github.com/linolazarous/cursorcode-ai/tool"
)

// SystemSuffix is appended to every agent system prompt.
const SystemSuffix = "\nUse tools only when necessary. Be concise and production-ready."

// genericPrompt is used for agent types without a descriptor.
const genericPrompt = "You are the %s agent of an AI software engineering platform. Complete your part of the user's project."

// Outcome labels reported to metrics.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

// Options configures an Executor.
type Options struct {
	Sink      audit.Sink
	Reporter  metering.Reporter
	Metrics   metrics.Recorder
	Logger    logging.Logger
	Estimator tokenizer.Estimator
	// Retry wraps routing, the model call and the merge. Defaults to the
	// configured retry settings.
	Retry retry.Policy
	// CallTimeout bounds one model call. Defaults to the provider timeout.
	CallTimeout time.Duration
	// Instructions overrides the descriptor prompt per agent type.
	Instructions map[core.AgentType]Instruction
}

// Executor runs one agent node against a Conversation State. It is safe for
// concurrent use on distinct states.
type Executor struct {
	cfg      *config.Config
	router   *router.Router
	registry *tool.Registry
	llm      model.Model
	opts     Options
}

// NewExecutor wires an executor from its collaborators.
func NewExecutor(cfg *config.Config, r *router.Router, reg *tool.Registry, llm model.Model, optFns ...func(o *Options)) *Executor {
	rs := cfg.Retry()
	opts := Options{
		Sink:      audit.NopSink{},
		Reporter:  metering.NopReporter{},
		Metrics:   metrics.Nop(),
		Logger:    logging.NoOpLogger{},
		Estimator: tokenizer.Chars{},
		Retry: retry.Policy{
			MaxAttempts: rs.MaxAttempts,
			Backoff:     retry.Exponential{Multiplier: rs.Multiplier, Min: rs.MinWait, Max: rs.MaxWait},
		},
		CallTimeout: cfg.Timeout(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Executor{cfg: cfg, router: r, registry: reg, llm: llm, opts: opts}
}

// RunAgent executes agentType against state and returns the next state.
//
// It never returns an error and never panics on model failure: once the
// retry policy is exhausted the returned state carries a synthetic failure
// message and an entry in Errors, with the token total unchanged. The input
// state is not modified.
func (e *Executor) RunAgent(ctx context.Context, state *core.State, agentType core.AgentType) *core.State {
	start := time.Now()

	var (
		next      *core.State
		lastModel string
	)
	err := e.opts.Retry.Do(ctx, func(ctx context.Context, attempt int) error {
		work := state.Clone()
		modelID, err := e.attempt(ctx, work, agentType)
		lastModel = modelID
		if err != nil {
			e.opts.Logger.Warn("Agent attempt failed",
				"agent_type", string(agentType),
				"project_id", state.ProjectID,
				"attempt", attempt,
				"error", err.Error(),
			)
			return err
		}
		next = work
		return nil
	})
	if err != nil {
		return e.fail(state, agentType, lastModel, err, time.Since(start))
	}

	e.opts.Metrics.ObserveAgent(string(agentType), lastModel, OutcomeSuccess, next.TotalTokensUsed-state.TotalTokensUsed, time.Since(start))
	return next
}

// attempt wraps execute so a panicking model adapter or tool surfaces as a
// retryable error and, once retries are exhausted, as a degraded state.
func (e *Executor) attempt(ctx context.Context, work *core.State, agentType core.AgentType) (modelID string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("agent %s panicked: %v", agentType, rec)
		}
	}()
	return e.execute(ctx, work, agentType)
}

// execute performs one attempt on work, which the caller owns. It returns
// the routed model id.
func (e *Executor) execute(ctx context.Context, work *core.State, agentType core.AgentType) (string, error) {
	desc, known := e.cfg.Agent(agentType)
	if !known {
		desc = config.AgentDescriptor{
			Type:        agentType,
			Prompt:      fmt.Sprintf(genericPrompt, agentType),
			ModelClass:  e.cfg.ClassFor(agentType),
			Temperature: config.GeneralTemperature,
			MaxTokens:   config.GeneralMaxTokens,
		}
	}
	tools := e.registry.ToolsFor(agentType)

	system, err := e.instruction(agentType, desc).Resolve(work)
	if err != nil {
		return "", fmt.Errorf("render %s prompt: %w", agentType, err)
	}
	system += SystemSuffix

	decision := e.router.SelectModel(ctx, router.Request{
		AgentType:      agentType,
		UserTier:       work.Tier(),
		TaskComplexity: work.Complexity(),
		UserID:         work.UserID,
		ProjectID:      work.ProjectID,
	})

	if len(work.Messages) == 0 {
		work.AppendMessage(core.NewTextContent(core.RoleUser, work.Prompt))
	}

	temperature := desc.Temperature
	req := model.Request{
		Model:        decision.Model,
		Instructions: system,
		Contents:     append([]core.Content(nil), work.Messages...),
		Tools:        Definitions(tools),
		Temperature:  &temperature,
		MaxTokens:    desc.MaxTokens,
	}

	callCtx := ctx
	if e.opts.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.opts.CallTimeout)
		defer cancel()
	}

	callStart := time.Now()
	resp, err := model.Complete(callCtx, e.llm, req)
	if err != nil {
		e.opts.Metrics.ObserveLLMCall(decision.Model, false, 0, time.Since(callStart))
		e.logLLMCall(decision.Model, 0, time.Since(callStart), err)
		return decision.Model, fmt.Errorf("model call: %w", err)
	}

	content := resp.Content
	content.Role = core.RoleAssistant
	tokens := resp.Usage.Total()
	if tokens <= 0 {
		tokens = e.opts.Estimator.Count(outputText(content)) + e.opts.Estimator.Count(inputText(system, req.Contents))
	}
	e.opts.Metrics.ObserveLLMCall(decision.Model, true, tokens, time.Since(callStart))
	e.logLLMCall(decision.Model, tokens, time.Since(callStart), nil)
	e.opts.Logger.Info("Agent executed",
		"agent_type", string(agentType),
		"project_id", work.ProjectID,
		"model", decision.Model,
		"tokens", tokens,
		"has_tool_calls", content.HasFunctionCalls(),
	)

	e.opts.Reporter.Report(metering.NewRecord(work.UserID, work.ProjectID, agentType, tokens, decision.Model))
	e.opts.Sink.Emit(audit.NewEvent(work.UserID, audit.AgentExecuted(agentType), map[string]any{
		"project_id":     work.ProjectID,
		"tokens":         tokens,
		"model":          decision.Model,
		"has_tool_calls": content.HasFunctionCalls(),
	}))

	e.merge(ctx, work, agentType, content, tokens)
	return decision.Model, nil
}

// merge folds a successful reply into work.
func (e *Executor) merge(ctx context.Context, work *core.State, agentType core.AgentType, content core.Content, tokens int) {
	work.AppendMessage(content)
	work.AddTokens(tokens)

	calls := content.FunctionCalls()
	if len(calls) == 0 {
		work.SetResult(agentType, ParseResult(content.Text()))
		return
	}

	for _, call := range calls {
		res := e.registry.Invoke(ctx, tool.Invocation{
			Call:      call,
			AgentType: agentType,
			UserID:    work.UserID,
			ProjectID: work.ProjectID,
		})
		work.AppendMessage(core.Content{Role: core.RoleTool, Parts: []core.Part{res.Response()}})
	}
}

// fail builds the degraded state returned after the retry policy gave up.
func (e *Executor) fail(state *core.State, agentType core.AgentType, modelID string, err error, dur time.Duration) *core.State {
	out := state.Clone()
	out.AppendMessage(core.NewTextContent(core.RoleAssistant, fmt.Sprintf("Agent %s failed: %v", agentType, err)))
	out.AppendError(agentType, err)

	e.opts.Logger.Error("Agent failed",
		"agent_type", string(agentType),
		"project_id", state.ProjectID,
		"error", err.Error(),
	)
	e.opts.Sink.Emit(audit.NewEvent(state.UserID, audit.AgentFailed(agentType), map[string]any{
		"project_id": state.ProjectID,
		"model":      modelID,
		"error":      err.Error(),
	}))
	e.opts.Metrics.ObserveAgent(string(agentType), modelID, OutcomeFailed, 0, dur)
	return out
}

// logLLMCall uses the structured call record when the logger supports it.
func (e *Executor) logLLMCall(modelID string, tokens int, dur time.Duration, err error) {
	if sl, ok := e.opts.Logger.(*logging.StructuredLogger); ok {
		sl.LogLLMCall(modelID, tokens, dur, err == nil, err)
		return
	}
	if err != nil {
		e.opts.Logger.Debug("LLM call failed", "model", modelID, "duration_ms", dur.Milliseconds(), "error", err.Error())
	}
}

func (e *Executor) instruction(agentType core.AgentType, desc config.AgentDescriptor) Instruction {
	if inst, ok := e.opts.Instructions[agentType]; ok {
		return inst
	}
	return NewInstructionFromText(desc.Prompt)
}

// ParseResult stores text as Structured when it is valid JSON, Raw otherwise.
func ParseResult(text string) *core.AgentResult {
	trimmed := strings.TrimSpace(text)
	var v any
	if trimmed != "" && json.Unmarshal([]byte(trimmed), &v) == nil {
		return &core.AgentResult{Structured: v, Parsed: true}
	}
	return &core.AgentResult{Raw: trimmed}
}

// Definitions converts tools into model tool definitions.
func Definitions(tools []tool.Tool) []model.ToolDefinition {
	if len(tools) == 0 {
		return nil
	}
	defs := make([]model.ToolDefinition, len(tools))
	for i, t := range tools {
		defs[i] = model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		}
	}
	return defs
}

func outputText(c core.Content) string {
	var b strings.Builder
	b.WriteString(c.Text())
	for _, fc := range c.FunctionCalls() {
		b.WriteString(fc.Name)
		b.WriteString(fc.Arguments)
	}
	return b.String()
}

func inputText(system string, contents []core.Content) string {
	var b strings.Builder
	b.WriteString(system)
	for _, c := range contents {
		b.WriteString(c.Text())
		for _, fc := range c.FunctionCalls() {
			b.WriteString(fc.Arguments)
		}
		for _, fr := range c.FunctionResponses() {
			b.WriteString(model.ToolResponseText(fr))
		}
	}
	return b.String()
}
