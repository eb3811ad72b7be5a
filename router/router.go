// Package router selects a concrete model id for an agent invocation from
// the agent type, the caller's plan tier and the task complexity.
package router

import (
	"context"
	"strings"

	"github.com/linolazarous/cursorcode-ai/audit"
	"github.com/linolazarous/cursorcode-ai/config"
	"github.com/linolazarous/cursorcode-ai/core"
	"github.com/linolazarous/cursorcode-ai/logging"
	"github.com/linolazarous/cursorcode-ai/metrics"
)

// Request is the routing input. Empty tier and complexity use the defaults.
type Request struct {
	AgentType      core.AgentType  `json:"agent_type"`
	UserTier       core.Tier       `json:"user_tier,omitempty"`
	TaskComplexity core.Complexity `json:"task_complexity,omitempty"`
	ForceModel     string          `json:"force_model,omitempty"`
	UserID         string          `json:"user_id,omitempty"`
	ProjectID      string          `json:"project_id,omitempty"`
}

// Decision is the routing outcome.
type Decision struct {
	Model  string          `json:"model"`
	Class  core.ModelClass `json:"class,omitempty"`
	Reason string          `json:"reason"`
	Forced bool            `json:"forced"`
}

// Options configures a Router.
type Options struct {
	Sink    audit.Sink
	Logger  logging.Logger
	Metrics metrics.Recorder
}

// Router is safe for concurrent use; it holds no mutable state.
type Router struct {
	cfg     *config.Config
	sink    audit.Sink
	logger  logging.Logger
	metrics metrics.Recorder
}

// New creates a Router over cfg.
func New(cfg *config.Config, optFns ...func(o *Options)) *Router {
	opts := Options{
		Sink:    audit.NopSink{},
		Logger:  logging.NoOpLogger{},
		Metrics: metrics.Nop(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Router{cfg: cfg, sink: opts.Sink, logger: opts.Logger, metrics: opts.Metrics}
}

// Decide applies the routing rules without side effects.
//
// Rules in order:
//  1. A force model that is configured wins.
//  2. Top tiers with medium or high complexity prefer deep reasoning.
//  3. Otherwise the agent's class applies (unknown agents: fast non-reasoning).
//  4. High complexity escalates to deep reasoning.
//  5. The lowest tier downgrades deep reasoning to fast non-reasoning.
//  6. An unregistered class resolves to the fallback model.
func (r *Router) Decide(req Request) Decision {
	tier := req.UserTier
	if tier == "" {
		tier = core.DefaultTier
	}
	complexity := req.TaskComplexity
	if complexity == "" {
		complexity = core.DefaultComplexity
	}

	if req.ForceModel != "" && r.cfg.IsConfiguredModel(req.ForceModel) {
		return Decision{Model: req.ForceModel, Reason: "forced model override", Forced: true}
	}

	var reasons []string
	var class core.ModelClass
	if tier.IsTopTier() && (complexity == core.ComplexityMedium || complexity == core.ComplexityHigh) {
		class = core.ClassDeepReasoning
		reasons = append(reasons, "top tier "+string(tier)+" with "+string(complexity)+" complexity")
	} else {
		class = r.cfg.ClassFor(req.AgentType)
		reasons = append(reasons, "agent "+string(req.AgentType)+" prefers "+string(class))
	}

	if complexity == core.ComplexityHigh && class != core.ClassDeepReasoning {
		class = core.ClassDeepReasoning
		reasons = append(reasons, "escalated for high complexity")
	}

	if tier.IsLowest() && class == core.ClassDeepReasoning {
		class = core.ClassFastNonReasoning
		reasons = append(reasons, "downgraded for "+string(tier)+" tier")
	}

	model, ok := r.cfg.Model(class)
	if !ok {
		model = r.cfg.FallbackModel()
		reasons = append(reasons, "class "+string(class)+" not registered, using fallback")
	}

	return Decision{Model: model, Class: class, Reason: strings.Join(reasons, "; ")}
}

// SelectModel routes req and records the decision. The audit event is
// emitted without waiting for delivery.
func (r *Router) SelectModel(_ context.Context, req Request) Decision {
	d := r.Decide(req)

	tier := req.UserTier
	if tier == "" {
		tier = core.DefaultTier
	}
	complexity := req.TaskComplexity
	if complexity == "" {
		complexity = core.DefaultComplexity
	}

	r.sink.Emit(audit.NewEvent(req.UserID, audit.ActionModelRouted, map[string]any{
		"agent_type":      string(req.AgentType),
		"user_tier":       string(tier),
		"task_complexity": string(complexity),
		"selected_model":  d.Model,
		"reason":          d.Reason,
		"project_id":      req.ProjectID,
	}))
	r.metrics.ObserveRouting(string(req.AgentType), string(tier), string(complexity), string(d.Class), d.Model, d.Forced)
	if sl, ok := r.logger.(*logging.StructuredLogger); ok {
		sl.WithContext("reason", d.Reason).LogRouting(string(req.AgentType), string(tier), string(complexity), d.Model, string(d.Class))
	} else {
		r.logger.Info("Model routed",
			"agent_type", string(req.AgentType),
			"user_tier", string(tier),
			"task_complexity", string(complexity),
			"model", d.Model,
			"class", string(d.Class),
			"reason", d.Reason,
		)
	}
	return d
}
