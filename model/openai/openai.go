// Package openai adapts the OpenAI Chat Completions API to model.Model.
// Any OpenAI compatible endpoint works; xAI Grok is reached by pointing
// BaseURL at XAIBaseURL.
package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/linolazarous/cursorcode-ai/model"
)

// XAIBaseURL is the OpenAI compatible endpoint of xAI.
const XAIBaseURL = "https://api.x.ai/v1"

var errNoChoices = errors.New("no choices returned")

// Options holds adapter defaults. Model, Temperature and MaxCompletionTokens
// apply only when the model.Request leaves them unset.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	BaseURL             string
	APIKey              string
	// Provider is reported by Info, e.g. "xai".
	Provider string
}

// Model implements model.Model over an openai.Client.
type Model struct {
	client *openai.Client
	opts   Options
}

// NewModel builds its own client. Without BaseURL or APIKey the SDK falls
// back to the OPENAI_* environment variables.
func NewModel(optFns ...func(o *Options)) *Model {
	m := NewModelFromClient(nil, optFns...)

	var reqOpts []option.RequestOption
	if m.opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(m.opts.BaseURL))
	}
	if m.opts.APIKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(m.opts.APIKey))
	}
	client := openai.NewClient(reqOpts...)
	m.client = &client
	return m
}

// NewModelFromClient wraps an existing client.
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
		Provider:            "openai",
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Generate sends one chat completion. Nodes are single-shot, so req.Stream
// is ignored and the reply always arrives as one final response.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		pending, order := collectToolResponses(req)
		resp, err := m.complete(ctx, m.buildParams(req, buildMessages(req, pending, order)))
		if err != nil {
			errCh <- fmt.Errorf("%s: %w", m.opts.Provider, err)
			return
		}
		out <- resp
	}()
	return out, errCh
}

func (m *Model) buildParams(req model.Request, msgs []openai.ChatCompletionMessageParamUnion) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages:            msgs,
		Model:               m.opts.Model,
		Temperature:         openai.Float(m.opts.Temperature),
		MaxCompletionTokens: openai.Int(m.opts.MaxCompletionTokens),
		Tools:               toolParams(req.Tools),
	}
	if req.Model != "" {
		params.Model = req.Model
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}
	return params
}

func (m *Model) complete(ctx context.Context, params openai.ChatCompletionNewParams) (model.Response, error) {
	cc, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return model.Response{}, err
	}
	resp, ok := fromCompletion(*cc)
	if !ok {
		return model.Response{}, errNoChoices
	}
	return resp, nil
}

// Info describes the adapter.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.opts.Model, Provider: m.opts.Provider, SupportsTools: true}
}
