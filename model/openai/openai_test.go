package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linolazarous/cursorcode-ai/core"
	"github.com/linolazarous/cursorcode-ai/model"
)

func TestBuildMessagesPairsToolResponses(t *testing.T) {
	req := model.Request{
		Instructions: "You are the architect.",
		Contents: []core.Content{
			core.NewTextContent(core.RoleUser, "build a todo app"),
			{Role: core.RoleAssistant, Parts: []core.Part{
				core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: "c1", Name: "search_stack_trends", Arguments: `{"query":"go"}`}},
			}},
			{Role: core.RoleTool, Parts: []core.Part{
				core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{ID: "c1", Name: "search_stack_trends", Response: map[string]any{"n": 1}}},
			}},
		},
	}
	responses, order := collectToolResponses(req)
	assert.Equal(t, map[string]string{"c1": `{"n":1}`}, responses)
	assert.Equal(t, []string{"c1"}, order)

	msgs := buildMessages(req, responses, order)
	require.Len(t, msgs, 4)
	assert.NotNil(t, msgs[0].OfSystem)
	assert.NotNil(t, msgs[1].OfUser)
	require.NotNil(t, msgs[2].OfAssistant)
	assert.Len(t, msgs[2].OfAssistant.ToolCalls, 1)
	require.NotNil(t, msgs[3].OfTool)
	assert.Equal(t, "c1", msgs[3].OfTool.ToolCallID)
}

func TestBuildParamsRequestOverrides(t *testing.T) {
	m := NewModelFromClient(nil, func(o *Options) {
		o.Model = "grok-beta"
		o.Provider = "xai"
	})
	temp := 0.2
	params := m.buildParams(model.Request{
		Model:       "grok-beta-fast",
		Temperature: &temp,
		MaxTokens:   12288,
		Tools: []model.ToolDefinition{{
			Type:     "function",
			Function: model.FunctionDefinition{Name: "scan_code_for_vulnerabilities"},
		}},
	}, nil)

	assert.Equal(t, "grok-beta-fast", params.Model)
	assert.Equal(t, 0.2, params.Temperature.Value)
	assert.Equal(t, int64(12288), params.MaxCompletionTokens.Value)
	require.Len(t, params.Tools, 1)
	assert.Equal(t, "scan_code_for_vulnerabilities", params.Tools[0].Function.Name)

	assert.Equal(t, "xai", m.Info().Provider)
	assert.Equal(t, "grok-beta", m.Info().Name)
}

func TestBuildParamsDefaults(t *testing.T) {
	m := NewModelFromClient(nil)
	params := m.buildParams(model.Request{}, nil)
	assert.Equal(t, 0.7, params.Temperature.Value)
	assert.Equal(t, int64(4096), params.MaxCompletionTokens.Value)
	assert.Nil(t, params.Tools)
}

func TestGenerateMapsCompletion(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "cmpl-1", "object": "chat.completion", "created": 1, "model": "grok-beta",
			"choices": [{"index": 0, "finish_reason": "tool_calls", "message": {
				"role": "assistant", "content": "checking trends",
				"tool_calls": [{"id": "call-1", "type": "function",
					"function": {"name": "search_latest_stack_trends", "arguments": "{\"technology\":\"Go\"}"}}]
			}}],
			"usage": {"prompt_tokens": 11, "completion_tokens": 7, "total_tokens": 18}
		}`))
	}))
	defer srv.Close()

	m := NewModel(func(o *Options) {
		o.BaseURL = srv.URL
		o.APIKey = "test-key"
		o.Provider = "xai"
	})
	resp, err := model.Complete(context.Background(), m, model.Request{
		Model:    "grok-beta",
		Contents: []core.Content{core.NewTextContent(core.RoleUser, "build a todo app")},
	})
	require.NoError(t, err)

	assert.Equal(t, "grok-beta", got["model"])
	assert.Equal(t, "cmpl-1", resp.ID)
	assert.Equal(t, "checking trends", resp.Content.Text())
	assert.Equal(t, "tool_calls", resp.FinishReason)
	calls := resp.Content.FunctionCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "call-1", calls[0].ID)
	assert.Equal(t, "search_latest_stack_trends", calls[0].Name)
	assert.JSONEq(t, `{"technology":"Go"}`, calls[0].Arguments)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 11, resp.Usage.PromptTokens)
	assert.Equal(t, 18, resp.Usage.Total())
}

func TestGenerateNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cmpl-2","object":"chat.completion","created":1,"model":"grok-beta","choices":[]}`))
	}))
	defer srv.Close()

	m := NewModel(func(o *Options) {
		o.BaseURL = srv.URL
		o.APIKey = "test-key"
	})
	_, err := model.Complete(context.Background(), m, model.Request{
		Contents: []core.Content{core.NewTextContent(core.RoleUser, "hi")},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errNoChoices)
}

func TestToUsageEmpty(t *testing.T) {
	assert.Nil(t, toUsage(openai.CompletionUsage{}))
}
