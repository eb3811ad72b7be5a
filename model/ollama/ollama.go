// Package ollama adapts a local Ollama runtime to model.Model.
//
// Tool definitions are not forwarded; earlier tool traffic in the history is
// flattened to text so any locally served model can follow the conversation.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/linolazarous/cursorcode-ai/core"
	"github.com/linolazarous/cursorcode-ai/model"
)

// DefaultHost is the address of a locally running Ollama server.
const DefaultHost = "http://localhost:11434"

// Options configures the Ollama adapter.
type Options struct {
	Host        string
	Model       string
	Temperature float64
	MaxTokens   int
	HTTPClient  *http.Client
}

// Model talks to the Ollama chat endpoint.
type Model struct {
	client *api.Client
	opts   Options
}

// NewModel creates an adapter. An unparsable Host falls back to DefaultHost.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := Options{
		Host:        DefaultHost,
		Model:       "llama3.1",
		Temperature: 0.7,
		MaxTokens:   4096,
		HTTPClient:  http.DefaultClient,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	u, err := url.Parse(opts.Host)
	if err != nil || u.Host == "" {
		u, _ = url.Parse(DefaultHost)
	}
	return &Model{client: api.NewClient(u, opts.HTTPClient), opts: opts}
}

// Generate implements model.Model.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		chatReq := m.buildRequest(req)
		var (
			text  strings.Builder
			final api.ChatResponse
		)
		err := m.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
			if resp.Message.Content != "" {
				text.WriteString(resp.Message.Content)
				if req.Stream && !resp.Done {
					partial := model.Response{
						Partial: true,
						Content: core.NewTextContent(core.RoleAssistant, resp.Message.Content),
					}
					select {
					case out <- partial:
					case <-ctx.Done():
						return ctx.Err()
					}
				}
			}
			if resp.Done {
				final = resp
			}
			return nil
		})
		if err != nil {
			errCh <- fmt.Errorf("ollama api error: %w", err)
			return
		}

		finishReason := final.DoneReason
		if finishReason == "" {
			finishReason = "stop"
		}
		prompt, completion := final.PromptEvalCount, final.EvalCount
		out <- model.Response{
			Content:      core.NewTextContent(core.RoleAssistant, text.String()),
			FinishReason: finishReason,
			Usage: &model.TokenUsage{
				PromptTokens:     prompt,
				CompletionTokens: completion,
				TotalTokens:      prompt + completion,
			},
		}
	}()
	return out, errCh
}

func (m *Model) buildRequest(req model.Request) *api.ChatRequest {
	modelID := m.opts.Model
	if req.Model != "" {
		modelID = req.Model
	}
	temperature := m.opts.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	maxTokens := m.opts.MaxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}
	stream := req.Stream
	return &api.ChatRequest{
		Model:    modelID,
		Messages: toMessages(req),
		Stream:   &stream,
		Options: map[string]any{
			"temperature": temperature,
			"num_predict": maxTokens,
		},
	}
}

// toMessages flattens contents into role/text messages.
func toMessages(req model.Request) []api.Message {
	var msgs []api.Message
	if req.Instructions != "" {
		msgs = append(msgs, api.Message{Role: core.RoleSystem, Content: req.Instructions})
	}
	for _, c := range req.Contents {
		var b strings.Builder
		b.WriteString(c.Text())
		for _, fc := range c.FunctionCalls() {
			fmt.Fprintf(&b, "\n[tool call %s(%s)]", fc.Name, fc.Arguments)
		}
		for _, fr := range c.FunctionResponses() {
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "[%s result] %s", fr.Name, model.ToolResponseText(fr))
		}
		content := strings.TrimSpace(b.String())
		if content == "" {
			continue
		}
		role := c.Role
		if role != core.RoleSystem && role != core.RoleAssistant && role != core.RoleTool {
			role = core.RoleUser
		}
		msgs = append(msgs, api.Message{Role: role, Content: content})
	}
	return msgs
}

// Info implements model.Model.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.opts.Model, Provider: "ollama"}
}
