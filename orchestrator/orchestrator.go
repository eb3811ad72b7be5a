// Package orchestrator drives the fixed agent pipeline for one project prompt
// and streams progress events to the caller.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/linolazarous/cursorcode-ai/audit"
	"github.com/linolazarous/cursorcode-ai/config"
	"github.com/linolazarous/cursorcode-ai/core"
	"github.com/linolazarous/cursorcode-ai/logging"
)

// ErrRunNotFound is returned by Cancel for unknown or finished runs.
var ErrRunNotFound = errors.New("run not found")

// ErrInvalidRequest is returned by Request.Validate.
var ErrInvalidRequest = errors.New("invalid orchestration request")

// Runner executes one agent node. *agent.Executor implements it.
type Runner interface {
	RunAgent(ctx context.Context, state *core.State, agentType core.AgentType) *core.State
}

// Request starts a run.
type Request struct {
	ProjectID      string          `json:"project_id"`
	Prompt         string          `json:"prompt"`
	UserID         string          `json:"user_id"`
	OrgID          string          `json:"org_id,omitempty"`
	UserTier       core.Tier       `json:"user_tier,omitempty"`
	TaskComplexity core.Complexity `json:"task_complexity,omitempty"`
}

// Validate checks the fields a run cannot do without.
func (r Request) Validate() error {
	switch {
	case r.ProjectID == "":
		return fmt.Errorf("%w: project_id is required", ErrInvalidRequest)
	case r.Prompt == "":
		return fmt.Errorf("%w: prompt is required", ErrInvalidRequest)
	case r.UserTier != "" && !r.UserTier.Valid():
		return fmt.Errorf("%w: unknown user_tier %q", ErrInvalidRequest, r.UserTier)
	case r.TaskComplexity != "" && !r.TaskComplexity.Valid():
		return fmt.Errorf("%w: unknown task_complexity %q", ErrInvalidRequest, r.TaskComplexity)
	}
	return nil
}

// Options configures an Orchestrator.
type Options struct {
	// Stages defaults to core.Pipeline.
	Stages []core.AgentType
	// Store receives the final state of every run when set.
	Store  core.StateStore
	Sink   audit.Sink
	Logger logging.Logger
}

// Orchestrator runs pipelines. It is safe for concurrent use; runs share no
// mutable state besides the registry of active runs.
type Orchestrator struct {
	cfg    *config.Config
	runner Runner
	opts   Options

	mu     sync.Mutex
	active map[string]context.CancelFunc
}

// New creates an Orchestrator.
func New(cfg *config.Config, runner Runner, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		Stages: core.Pipeline,
		Sink:   audit.NopSink{},
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Orchestrator{
		cfg:    cfg,
		runner: runner,
		opts:   opts,
		active: map[string]context.CancelFunc{},
	}
}

// Orchestrate starts a fresh run and returns its event stream: one start
// event, one stage event per pipeline stage in order, then a complete event.
// The channel is closed when the run ends. A cancelled ctx (or Cancel with
// the run id) stops the run between stages and ends the stream with a
// cancelled event.
//
// An invalid req yields a single failed event and no stages.
//
// The channel is buffered for the whole run, so an abandoned consumer never
// blocks the pipeline.
func (o *Orchestrator) Orchestrate(ctx context.Context, req Request) <-chan Event {
	runID := core.NewID()
	events := make(chan Event, len(o.opts.Stages)+2)

	if err := req.Validate(); err != nil {
		o.rejected(runID, req, err, events)
		close(events)
		return events
	}

	runCtx, cancel := context.WithCancel(ctx)
	o.track(runID, cancel)

	go func() {
		defer close(events)
		defer o.untrack(runID)
		defer cancel()
		o.run(runCtx, runID, req, events)
	}()
	return events
}

// Run starts a run and blocks until it finishes, returning the final state.
// The returned error is non-nil only when req is invalid or the run was
// cancelled.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*core.State, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var last Event
	for ev := range o.Orchestrate(ctx, req) {
		last = ev
	}
	if last.Kind == KindCancelled {
		return last.State, context.Canceled
	}
	return last.State, nil
}

func (o *Orchestrator) run(ctx context.Context, runID string, req Request, events chan<- Event) {
	state := core.NewState(req.ProjectID, req.Prompt, req.UserID)
	state.OrgID = req.OrgID
	state.UserTier = req.UserTier
	state.TaskComplexity = req.TaskComplexity

	logger := o.opts.Logger
	if sl, ok := logger.(*logging.StructuredLogger); ok {
		logger = sl.WithRun(req.ProjectID, runID)
	}

	start := time.Now()
	logger.Info("Orchestration started", "project_id", req.ProjectID, "run_id", runID, "stages", len(o.opts.Stages))
	o.opts.Sink.Emit(audit.NewEvent(req.UserID, audit.ActionOrchestrationStarted, map[string]any{
		"project_id": req.ProjectID,
		"run_id":     runID,
		"user_tier":  string(state.Tier()),
	}))
	events <- o.event(KindStart, runID, state, func(e *Event) {
		e.Message = fmt.Sprintf("[START] Orchestration started for project %s", req.ProjectID)
		e.PromptPreview = Preview(req.Prompt)
	})

	for i, stage := range o.opts.Stages {
		if ctx.Err() != nil {
			o.cancelled(runID, state, logger, events)
			return
		}

		errsBefore, msgsBefore := len(state.Errors), len(state.Messages)
		state = o.runner.RunAgent(ctx, state, stage)

		events <- o.event(KindStage, runID, state, func(e *Event) {
			e.Stage = stage
			e.Index = i + 1
			e.Message = o.status(stage)
			if len(state.Errors) > errsBefore {
				e.Error = state.Errors[len(state.Errors)-1]
			}
			switch res := state.Result(stage); {
			case res != nil && res.Parsed:
				e.Result = res.Structured
			case res != nil:
				e.Raw = res.Raw
			case e.Error == "":
				e.Raw = toolTurnSummary(state.Messages[min(msgsBefore, len(state.Messages)):])
			}
		})
	}

	// A cancellation during the last stage degrades that stage; the run
	// still finished every stage, so it completes.
	o.save(state, logger)
	o.opts.Sink.Emit(audit.NewEvent(req.UserID, audit.ActionOrchestrationCompleted, map[string]any{
		"project_id":   req.ProjectID,
		"run_id":       runID,
		"total_tokens": state.TotalTokensUsed,
		"errors":       len(state.Errors),
	}))
	logger.Info("Orchestration completed",
		"project_id", req.ProjectID,
		"run_id", runID,
		"total_tokens", state.TotalTokensUsed,
		"errors", len(state.Errors),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	events <- o.event(KindComplete, runID, state, func(e *Event) {
		e.Message = "[COMPLETE] Orchestration finished successfully"
		e.State = state
	})
}

func (o *Orchestrator) rejected(runID string, req Request, err error, events chan<- Event) {
	o.opts.Sink.Emit(audit.NewEvent(req.UserID, audit.ActionOrchestrationFailed, map[string]any{
		"project_id": req.ProjectID,
		"run_id":     runID,
		"error":      err.Error(),
	}))
	o.opts.Logger.Warn("Orchestration rejected", "project_id", req.ProjectID, "run_id", runID, "error", err.Error())
	events <- Event{
		Kind:      KindFailed,
		RunID:     runID,
		ProjectID: req.ProjectID,
		Message:   "[FAILED] " + err.Error(),
		Error:     err.Error(),
		Timestamp: time.Now().UTC(),
	}
}

// toolTurnSummary describes a stage that produced no result slot: the last
// assistant text, or the tools it called when the reply was a tool turn.
func toolTurnSummary(added []core.Content) string {
	var names []string
	for i := len(added) - 1; i >= 0; i-- {
		c := added[i]
		if c.Role != core.RoleAssistant {
			continue
		}
		if text := c.Text(); text != "" {
			return text
		}
		if names == nil {
			for _, fc := range c.FunctionCalls() {
				names = append(names, fc.Name)
			}
		}
	}
	if len(names) == 0 {
		return ""
	}
	return "called tools: " + strings.Join(names, ", ")
}

func (o *Orchestrator) cancelled(runID string, state *core.State, logger logging.Logger, events chan<- Event) {
	o.save(state, logger)
	o.opts.Sink.Emit(audit.NewEvent(state.UserID, audit.ActionOrchestrationCancelled, map[string]any{
		"project_id":   state.ProjectID,
		"run_id":       runID,
		"total_tokens": state.TotalTokensUsed,
	}))
	logger.Warn("Orchestration cancelled", "project_id", state.ProjectID, "run_id", runID)
	events <- o.event(KindCancelled, runID, state, func(e *Event) {
		e.Message = fmt.Sprintf("[CANCELLED] Orchestration cancelled for project %s", state.ProjectID)
		e.State = state
	})
}

func (o *Orchestrator) event(kind EventKind, runID string, state *core.State, fill func(e *Event)) Event {
	e := Event{
		Kind:        kind,
		RunID:       runID,
		ProjectID:   state.ProjectID,
		TotalTokens: state.TotalTokensUsed,
		Timestamp:   time.Now().UTC(),
	}
	fill(&e)
	return e
}

func (o *Orchestrator) status(stage core.AgentType) string {
	if d, ok := o.cfg.Agent(stage); ok && d.Status != "" {
		return d.Status
	}
	return fmt.Sprintf("%s agent: Working...", stage)
}

func (o *Orchestrator) save(state *core.State, logger logging.Logger) {
	if o.opts.Store == nil {
		return
	}
	if err := o.opts.Store.Save(state); err != nil {
		logger.Error("Saving state failed", "project_id", state.ProjectID, "error", err.Error())
	}
}

// Cancel stops an active run before its next stage.
func (o *Orchestrator) Cancel(runID string) error {
	o.mu.Lock()
	cancel, ok := o.active[runID]
	o.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	cancel()
	return nil
}

// Active lists the ids of runs still in progress, sorted.
func (o *Orchestrator) Active() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	ids := make([]string, 0, len(o.active))
	for id := range o.active {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (o *Orchestrator) track(runID string, cancel context.CancelFunc) {
	o.mu.Lock()
	o.active[runID] = cancel
	o.mu.Unlock()
}

func (o *Orchestrator) untrack(runID string) {
	o.mu.Lock()
	delete(o.active, runID)
	o.mu.Unlock()
}
