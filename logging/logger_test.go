package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level LogLevel) (*StructuredLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	l := NewLogger(&LoggerConfig{Level: level, Format: "json", Output: buf})
	return l, buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestStructuredLogger_KeyValuesAndContext(t *testing.T) {
	l, buf := newBufferLogger(LogLevelInfo)
	l.WithComponent("router").WithRun("p1", "r1").Info("routed", "agent_type", "qa")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "routed", lines[0]["msg"])
	assert.Equal(t, "router", lines[0]["component"])
	assert.Equal(t, "p1", lines[0]["project_id"])
	assert.Equal(t, "r1", lines[0]["run_id"])
	assert.Equal(t, "qa", lines[0]["agent_type"])
}

func TestStructuredLogger_LevelFiltering(t *testing.T) {
	l, buf := newBufferLogger(LogLevelWarn)
	l.Debug("d")
	l.Info("i")
	l.Warn("w")
	l.Error("e")
	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "w", lines[0]["msg"])
	assert.Equal(t, "e", lines[1]["msg"])
}

func TestStructuredLogger_DomainHelpers(t *testing.T) {
	l, buf := newBufferLogger(LogLevelDebug)
	l.LogLLMCall("grok-beta", 42, time.Second, true, nil)
	l.LogToolCall("scan", time.Millisecond, false, errors.New("blocked"))
	l.LogRouting("qa", "starter", "high", "grok-beta-fast", "fast_non_reasoning")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 3)
	assert.Equal(t, "LLM call completed", lines[0]["msg"])
	assert.EqualValues(t, 42, lines[0]["token_count"])
	assert.Equal(t, "Tool execution failed", lines[1]["msg"])
	assert.Equal(t, "blocked", lines[1]["error"])
	assert.Equal(t, "fast_non_reasoning", lines[2]["model_class"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LogLevelWarn, ParseLevel("warning"))
	assert.Equal(t, LogLevelError, ParseLevel("error"))
	assert.Equal(t, LogLevelInfo, ParseLevel("nonsense"))
}

func TestStructuredLogger_WithContextDoesNotLeak(t *testing.T) {
	l, buf := newBufferLogger(LogLevelInfo)
	scoped := l.WithContext("reason", "forced model override")
	scoped.Info("scoped")
	l.Info("plain")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "forced model override", lines[0]["reason"])
	assert.NotContains(t, lines[1], "reason")
}

func TestStructuredLogger_ErrorWithStack(t *testing.T) {
	l, buf := newBufferLogger(LogLevelInfo)
	l.ErrorWithStack(errors.New("drain failed"), "Draining sinks failed")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "drain failed", lines[0]["error"])
	assert.Equal(t, "*errors.errorString", lines[0]["error_type"])
	assert.Contains(t, lines[0]["stack_trace"], "goroutine")
}
