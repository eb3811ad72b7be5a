package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linolazarous/cursorcode-ai/core"
	"github.com/linolazarous/cursorcode-ai/model"
)

func TestBuildMessagesPlacesToolResultsInUserTurn(t *testing.T) {
	contents := []core.Content{
		core.NewTextContent(core.RoleUser, "scan this"),
		{Role: core.RoleAssistant, Parts: []core.Part{
			core.TextPart{Text: "scanning"},
			core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: "t1", Name: "scan_code_for_vulnerabilities", Arguments: `{"code":"x"}`}},
		}},
		{Role: core.RoleTool, Parts: []core.Part{
			core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{ID: "t1", Name: "scan_code_for_vulnerabilities", Response: "clean"}},
		}},
	}

	msgs := buildMessages(contents)
	require.Len(t, msgs, 3)
	assert.Equal(t, "user", string(msgs[0].Role))
	assert.Equal(t, "assistant", string(msgs[1].Role))
	assert.Len(t, msgs[1].Content, 2)
	assert.Equal(t, "user", string(msgs[2].Role))
	require.Len(t, msgs[2].Content, 1)
	assert.NotNil(t, msgs[2].Content[0].OfToolResult)
}

func TestBuildParamsOverridesAndSystem(t *testing.T) {
	m := NewModelFromClient(nil)
	temp := 0.5
	params := m.buildParams(model.Request{
		Model:        "claude-sonnet-4",
		Instructions: "be concise",
		Temperature:  &temp,
		MaxTokens:    8192,
		Contents:     []core.Content{core.NewTextContent(core.RoleUser, "hi")},
		Tools: []model.ToolDefinition{{Function: model.FunctionDefinition{
			Name:       "execute_code_snippet",
			Parameters: map[string]any{"properties": map[string]any{}, "required": []any{"code"}},
		}}},
	})

	assert.Equal(t, "claude-sonnet-4", string(params.Model))
	assert.Equal(t, int64(8192), params.MaxTokens)
	assert.Equal(t, 0.5, params.Temperature.Value)
	require.Len(t, params.System, 1)
	assert.Equal(t, "be concise", params.System[0].Text)
	require.Len(t, params.Tools, 1)
	assert.Equal(t, []string{"code"}, params.Tools[0].OfTool.InputSchema.Required)
}

func TestBuildMessagesMergesAdjacentUserTurns(t *testing.T) {
	contents := []core.Content{
		core.NewTextContent(core.RoleUser, "build a todo app"),
		{Role: core.RoleAssistant, Parts: []core.Part{
			core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: "t1", Name: "search_latest_stack_trends", Arguments: `{"technology":"Go"}`}},
		}},
		{Role: core.RoleTool, Parts: []core.Part{
			core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{ID: "t1", Name: "search_latest_stack_trends", Response: "trending"}},
		}},
		core.NewTextContent(core.RoleUser, "continue"),
		core.NewTextContent(core.RoleSystem, "ignored here"),
	}

	msgs := buildMessages(contents)
	require.Len(t, msgs, 3)
	assert.Equal(t, "user", string(msgs[2].Role))
	require.Len(t, msgs[2].Content, 2)
	assert.NotNil(t, msgs[2].Content[0].OfToolResult)
	assert.NotNil(t, msgs[2].Content[1].OfText)
}

func TestInfo(t *testing.T) {
	m := NewModelFromClient(nil, func(o *Options) { o.Model = "claude-sonnet-4" })
	assert.Equal(t, model.Info{Name: "claude-sonnet-4", Provider: "anthropic", SupportsTools: true}, m.Info())
}

func TestGenerateMapsMessage(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1", "type": "message", "role": "assistant", "model": "claude-sonnet-4",
			"content": [
				{"type": "text", "text": "scanning"},
				{"type": "tool_use", "id": "toolu_1", "name": "scan_code_for_vulnerabilities", "input": {"code": "x"}}
			],
			"stop_reason": "tool_use", "stop_sequence": null,
			"usage": {"input_tokens": 20, "output_tokens": 5}
		}`))
	}))
	defer srv.Close()

	m := NewModel(func(o *Options) {
		o.BaseURL = srv.URL
		o.APIKey = "test-key"
	})
	resp, err := model.Complete(context.Background(), m, model.Request{
		Model:     "claude-sonnet-4",
		MaxTokens: 8192,
		Contents:  []core.Content{core.NewTextContent(core.RoleUser, "scan this")},
	})
	require.NoError(t, err)

	assert.Equal(t, "claude-sonnet-4", got["model"])
	assert.EqualValues(t, 8192, got["max_tokens"])
	assert.Equal(t, "msg_1", resp.ID)
	assert.Equal(t, "scanning", resp.Content.Text())
	assert.Equal(t, "tool_use", resp.FinishReason)
	calls := resp.Content.FunctionCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "toolu_1", calls[0].ID)
	assert.Equal(t, "scan_code_for_vulnerabilities", calls[0].Name)
	assert.JSONEq(t, `{"code":"x"}`, calls[0].Arguments)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 25, resp.Usage.Total())
}
