// Package anthropic adapts the Anthropic Messages API to model.Model.
package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/linolazarous/cursorcode-ai/model"
)

// Options holds adapter defaults. Model, Temperature and MaxTokens apply
// only when the model.Request leaves them unset.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
	BaseURL     string
}

// Model implements model.Model over an anthropic.Client.
type Model struct {
	client *anthropic.Client
	opts   Options
}

// NewModel builds its own client. Without APIKey the SDK reads
// ANTHROPIC_API_KEY.
func NewModel(optFns ...func(o *Options)) *Model {
	m := NewModelFromClient(nil, optFns...)

	var reqOpts []option.RequestOption
	if m.opts.APIKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(m.opts.APIKey))
	}
	if m.opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(m.opts.BaseURL))
	}
	client := anthropic.NewClient(reqOpts...)
	m.client = &client
	return m
}

// NewModelFromClient wraps an existing client.
func NewModelFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Generate sends one Messages request. Nodes are single-shot, so
// req.Stream is ignored and the reply always arrives as one final response.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		msg, err := m.client.Messages.New(ctx, m.buildParams(req))
		if err != nil {
			errCh <- fmt.Errorf("anthropic: %w", err)
			return
		}
		out <- fromMessage(*msg)
	}()
	return out, errCh
}

func (m *Model) buildParams(req model.Request) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:       m.opts.Model,
		Messages:    buildMessages(req.Contents),
		MaxTokens:   m.opts.MaxTokens,
		Temperature: anthropic.Float(m.opts.Temperature),
		System:      systemPrompt(req),
		Tools:       toolParams(req.Tools),
	}
	if req.Model != "" {
		params.Model = anthropic.Model(req.Model)
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = int64(req.MaxTokens)
	}
	return params
}

// Info describes the adapter.
func (m *Model) Info() model.Info {
	return model.Info{Name: string(m.opts.Model), Provider: "anthropic", SupportsTools: true}
}
