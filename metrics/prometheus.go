package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cursorcode"

// PrometheusRecorder implements Recorder with Prometheus collectors.
type PrometheusRecorder struct {
	routingTotal   *prometheus.CounterVec
	agentRuns      *prometheus.CounterVec
	agentTokens    *prometheus.CounterVec
	agentDuration  *prometheus.HistogramVec
	llmRequests    *prometheus.CounterVec
	llmDuration    *prometheus.HistogramVec
	toolCalls      *prometheus.CounterVec
	toolDuration   *prometheus.HistogramVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	rateLimitTotal *prometheus.CounterVec
}

// NewPrometheusRecorder registers collectors with reg. A nil reg uses the
// default registerer.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &PrometheusRecorder{
		routingTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_routing_total",
				Help:      "Routing decisions by agent, tier, complexity and selected model",
			},
			[]string{"agent_type", "user_tier", "task_complexity", "class", "model", "forced"},
		),
		agentRuns: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "agent_runs_total",
				Help:      "Agent node executions by outcome",
			},
			[]string{"agent_type", "model", "outcome"},
		),
		agentTokens: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "agent_tokens_total",
				Help:      "Tokens consumed by agent nodes",
			},
			[]string{"agent_type", "model"},
		),
		agentDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "agent_duration_seconds",
				Help:      "Agent node wall time including retries",
				Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
			},
			[]string{"agent_type"},
		),
		llmRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "llm_requests_total",
				Help:      "LLM provider calls by model and status",
			},
			[]string{"model", "status"},
		),
		llmDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "llm_request_duration_seconds",
				Help:      "Duration of LLM requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"model"},
		),
		toolCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tool_calls_total",
				Help:      "Tool invocations by name and status",
			},
			[]string{"tool", "status"},
		),
		toolDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "tool_duration_seconds",
				Help:      "Tool execution time",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
		httpRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method, route and status code",
			},
			[]string{"method", "route", "code"},
		),
		httpDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		rateLimitTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limited_total",
				Help:      "Requests rejected by the rate limiter",
			},
			[]string{"route"},
		),
	}
}

func status(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}

// ObserveRouting implements Recorder.
func (p *PrometheusRecorder) ObserveRouting(agentType, tier, complexity, class, model string, forced bool) {
	p.routingTotal.WithLabelValues(agentType, tier, complexity, class, model, strconv.FormatBool(forced)).Inc()
}

// ObserveAgent implements Recorder.
func (p *PrometheusRecorder) ObserveAgent(agentType, model, outcome string, tokens int, duration time.Duration) {
	p.agentRuns.WithLabelValues(agentType, model, outcome).Inc()
	if tokens > 0 {
		p.agentTokens.WithLabelValues(agentType, model).Add(float64(tokens))
	}
	p.agentDuration.WithLabelValues(agentType).Observe(duration.Seconds())
}

// ObserveLLMCall implements Recorder.
func (p *PrometheusRecorder) ObserveLLMCall(model string, success bool, _ int, duration time.Duration) {
	p.llmRequests.WithLabelValues(model, status(success)).Inc()
	p.llmDuration.WithLabelValues(model).Observe(duration.Seconds())
}

// ObserveTool implements Recorder.
func (p *PrometheusRecorder) ObserveTool(name string, success bool, duration time.Duration) {
	p.toolCalls.WithLabelValues(name, status(success)).Inc()
	p.toolDuration.WithLabelValues(name).Observe(duration.Seconds())
}

// ObserveHTTP implements Recorder.
func (p *PrometheusRecorder) ObserveHTTP(method, route string, code int, duration time.Duration) {
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	p.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// IncRateLimited implements Recorder.
func (p *PrometheusRecorder) IncRateLimited(route string) {
	p.rateLimitTotal.WithLabelValues(route).Inc()
}
