// Package cursorcode wires the orchestration core into one value: the model
// router, the tool registry, the agent executor, the pipeline orchestrator
// and the HTTP server. Most applications interact with this package by:
//  1. Loading a config.Config (config.Load or config.MustDefault)
//  2. Creating a Platform via New() with a model.Model and optional sinks
//  3. Streaming a pipeline run (Orchestrate), running it to completion (Run)
//     or serving the HTTP API (Server)
//
// All defaults are safe for local development and testing: audit events and
// usage records are discarded and final states are kept in memory.
// Production deployments supply durable sinks and a structured logger.
package cursorcode

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/linolazarous/cursorcode-ai/agent"
	"github.com/linolazarous/cursorcode-ai/audit"
	"github.com/linolazarous/cursorcode-ai/config"
	"github.com/linolazarous/cursorcode-ai/core"
	"github.com/linolazarous/cursorcode-ai/internal/tokenizer"
	"github.com/linolazarous/cursorcode-ai/logging"
	"github.com/linolazarous/cursorcode-ai/metering"
	"github.com/linolazarous/cursorcode-ai/metrics"
	"github.com/linolazarous/cursorcode-ai/model"
	"github.com/linolazarous/cursorcode-ai/orchestrator"
	"github.com/linolazarous/cursorcode-ai/retry"
	"github.com/linolazarous/cursorcode-ai/router"
	"github.com/linolazarous/cursorcode-ai/server"
	"github.com/linolazarous/cursorcode-ai/session"
	"github.com/linolazarous/cursorcode-ai/tool"
)

// Options configures the Platform.
type Options struct {
	// Sink receives audit events (defaults to discarding them).
	Sink audit.Sink
	// AuditReader backs GET /v1/audit when set.
	AuditReader audit.Reader
	// Reporter receives usage records (defaults to discarding them).
	Reporter metering.Reporter
	// Metrics and Gatherer enable Prometheus instrumentation and /metrics.
	Metrics  metrics.Recorder
	Gatherer prometheus.Gatherer
	// Store keeps final run states (defaults to an in-memory store).
	Store core.StateStore
	// Logger defaults to a NoOp logger.
	Logger    logging.Logger
	Estimator tokenizer.Estimator
	// Tools are registered alongside the built-in tools.
	Tools []tool.Tool
	// Instructions override agent prompts per agent type.
	Instructions map[core.AgentType]agent.Instruction
	// Retry overrides the configured retry policy when MaxAttempts > 0.
	Retry retry.Policy
}

// Platform aggregates the wired components.
type Platform struct {
	cfg      *config.Config
	opts     Options
	router   *router.Router
	registry *tool.Registry
	executor *agent.Executor
	orch     *orchestrator.Orchestrator
}

// New wires a Platform over cfg and llm. Any unset collaborator gets a
// development default.
func New(cfg *config.Config, llm model.Model, optFns ...func(o *Options)) (*Platform, error) {
	opts := Options{
		Sink:      audit.NopSink{},
		Reporter:  metering.NopReporter{},
		Metrics:   metrics.Nop(),
		Store:     session.NewInMemoryStore(),
		Logger:    logging.NoOpLogger{},
		Estimator: tokenizer.Chars{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	r := router.New(cfg, func(o *router.Options) {
		o.Sink = opts.Sink
		o.Logger = opts.Logger
		o.Metrics = opts.Metrics
	})

	reg := tool.NewDefaultRegistry(cfg, func(o *tool.RegistryOptions) {
		o.Sink = opts.Sink
		o.Logger = opts.Logger
		o.Metrics = opts.Metrics
	})
	if err := reg.Register(opts.Tools...); err != nil {
		return nil, fmt.Errorf("register tools: %w", err)
	}

	exec := agent.NewExecutor(cfg, r, reg, llm, func(o *agent.Options) {
		o.Sink = opts.Sink
		o.Reporter = opts.Reporter
		o.Metrics = opts.Metrics
		o.Logger = opts.Logger
		o.Estimator = opts.Estimator
		o.Instructions = opts.Instructions
		if opts.Retry.MaxAttempts > 0 {
			o.Retry = opts.Retry
		}
	})

	orch := orchestrator.New(cfg, exec, func(o *orchestrator.Options) {
		o.Store = opts.Store
		o.Sink = opts.Sink
		o.Logger = opts.Logger
	})

	return &Platform{
		cfg:      cfg,
		opts:     opts,
		router:   r,
		registry: reg,
		executor: exec,
		orch:     orch,
	}, nil
}

// Config returns the frozen configuration.
func (p *Platform) Config() *config.Config { return p.cfg }

// Router returns the model router.
func (p *Platform) Router() *router.Router { return p.router }

// Tools returns the tool registry.
func (p *Platform) Tools() *tool.Registry { return p.registry }

// Executor returns the agent executor.
func (p *Platform) Executor() *agent.Executor { return p.executor }

// Orchestrator returns the pipeline orchestrator.
func (p *Platform) Orchestrator() *orchestrator.Orchestrator { return p.orch }

// Store returns the state store.
func (p *Platform) Store() core.StateStore { return p.opts.Store }

// SelectModel routes one agent invocation.
func (p *Platform) SelectModel(ctx context.Context, req router.Request) router.Decision {
	return p.router.SelectModel(ctx, req)
}

// RunAgent executes a single agent node.
func (p *Platform) RunAgent(ctx context.Context, state *core.State, agentType core.AgentType) *core.State {
	return p.executor.RunAgent(ctx, state, agentType)
}

// Orchestrate streams a pipeline run.
func (p *Platform) Orchestrate(ctx context.Context, req orchestrator.Request) (<-chan orchestrator.Event, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return p.orch.Orchestrate(ctx, req), nil
}

// Run executes a pipeline run to completion and returns the final state.
func (p *Platform) Run(ctx context.Context, req orchestrator.Request) (*core.State, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return p.orch.Run(ctx, req)
}

// Server builds the HTTP server over the platform's components.
func (p *Platform) Server(optFns ...func(o *server.Options)) *server.Server {
	base := func(o *server.Options) {
		o.Store = p.opts.Store
		o.Audit = p.opts.AuditReader
		o.Sink = p.opts.Sink
		o.Logger = p.opts.Logger
		o.Metrics = p.opts.Metrics
		o.Gatherer = p.opts.Gatherer
	}
	return server.New(p.cfg, p.router, p.orch, append([]func(o *server.Options){base}, optFns...)...)
}
