// Package metrics records routing, agent, LLM, tool and HTTP metrics.
package metrics

import "time"

// Recorder receives metric observations from the core.
type Recorder interface {
	// ObserveRouting counts one routing decision.
	ObserveRouting(agentType, tier, complexity, class, model string, forced bool)
	// ObserveAgent records one agent node outcome ("success" or "degraded").
	ObserveAgent(agentType, model, outcome string, tokens int, duration time.Duration)
	// ObserveLLMCall records one provider call.
	ObserveLLMCall(model string, success bool, tokens int, duration time.Duration)
	// ObserveTool counts one tool invocation.
	ObserveTool(name string, success bool, duration time.Duration)
	// ObserveHTTP records one served request.
	ObserveHTTP(method, route string, status int, duration time.Duration)
	// IncRateLimited counts a rejected request.
	IncRateLimited(route string)
}

// NoopRecorder discards everything.
type NoopRecorder struct{}

// Nop returns a recorder that discards all metrics.
func Nop() Recorder { return NoopRecorder{} }

func (NoopRecorder) ObserveRouting(_, _, _, _, _ string, _ bool) {}
func (NoopRecorder) ObserveAgent(_, _, _ string, _ int, _ time.Duration) {}
func (NoopRecorder) ObserveLLMCall(_ string, _ bool, _ int, _ time.Duration) {}
func (NoopRecorder) ObserveTool(_ string, _ bool, _ time.Duration) {}
func (NoopRecorder) ObserveHTTP(_, _ string, _ int, _ time.Duration) {}
func (NoopRecorder) IncRateLimited(_ string) {}
