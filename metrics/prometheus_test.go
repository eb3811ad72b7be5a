package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewPrometheusRecorder(reg)

	r.ObserveRouting("qa", "starter", "high", "fast_non_reasoning", "grok-beta-fast", false)
	r.ObserveRouting("qa", "starter", "high", "fast_non_reasoning", "grok-beta-fast", false)
	r.ObserveAgent("architect", "grok-beta", "success", 120, time.Second)
	r.ObserveLLMCall("grok-beta", false, 0, time.Millisecond)
	r.ObserveTool("execute_code_snippet", true, time.Millisecond)
	r.ObserveHTTP("GET", "/healthz", 200, time.Millisecond)
	r.IncRateLimited("/v1/orchestrate")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.routingTotal.WithLabelValues("qa", "starter", "high", "fast_non_reasoning", "grok-beta-fast", "false")))
	assert.Equal(t, 120.0, testutil.ToFloat64(r.agentTokens.WithLabelValues("architect", "grok-beta")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.llmRequests.WithLabelValues("grok-beta", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.toolCalls.WithLabelValues("execute_code_snippet", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.httpRequests.WithLabelValues("GET", "/healthz", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.rateLimitTotal.WithLabelValues("/v1/orchestrate")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNopRecorder(t *testing.T) {
	r := Nop()
	assert.NotPanics(t, func() {
		r.ObserveRouting("a", "b", "c", "d", "e", true)
		r.ObserveAgent("a", "m", "degraded", 0, 0)
		r.IncRateLimited("/")
	})
}
