package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/linolazarous/cursorcode-ai/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset expected).
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures the normalized model input.
//
// Model, Temperature and MaxTokens override the adapter defaults when set.
type Request struct {
	Model        string           `json:"model,omitempty"`
	Instructions string           `json:"instructions,omitempty"` // System prompt
	Contents     []core.Content   `json:"contents"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
	Temperature  *float64         `json:"temperature,omitempty"`
	MaxTokens    int              `json:"max_tokens,omitempty"`
	Stream       bool             `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Total returns TotalTokens, or the sum of the parts when the provider left
// the total empty.
func (u *TokenUsage) Total() int {
	if u == nil {
		return 0
	}
	if u.TotalTokens > 0 {
		return u.TotalTokens
	}
	return u.PromptTokens + u.CompletionTokens
}

// Response is a (partial or final) chunk emitted by a model.
type Response struct {
	ID           string       `json:"id,omitempty"`
	Partial      bool         `json:"partial"`
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"`
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required to drive generation.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// ErrNoResponse is returned by Complete when the model closed its stream
// without a final response.
var ErrNoResponse = errors.New("model: no final response")

// Complete drives m to completion and returns the final (non-partial)
// response. Partial chunks are discarded.
func Complete(ctx context.Context, m Model, req Request) (Response, error) {
	respCh, errCh := m.Generate(ctx, req)

	var (
		final Response
		found bool
	)
	for respCh != nil || errCh != nil {
		select {
		case r, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if !r.Partial {
				final, found = r, true
			}
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return Response{}, err
			}
		case <-ctx.Done():
			return Response{}, ctx.Err()
		}
	}
	if !found {
		return Response{}, ErrNoResponse
	}
	return final, nil
}

// Step is one scripted outcome: a response or an error.
type Step struct {
	Response Response
	Err      error
}

// Text scripts a plain assistant reply.
func Text(text string) Step {
	return Step{Response: Response{
		Content:      core.NewTextContent(core.RoleAssistant, text),
		FinishReason: "stop",
	}}
}

// TextWithUsage scripts a reply that reports token usage.
func TextWithUsage(text string, prompt, completion int) Step {
	s := Text(text)
	s.Response.Usage = &TokenUsage{PromptTokens: prompt, CompletionTokens: completion, TotalTokens: prompt + completion}
	return s
}

// ToolCalls scripts a reply that requests tool calls.
func ToolCalls(calls ...core.FunctionCall) Step {
	parts := make([]core.Part, len(calls))
	for i, c := range calls {
		parts[i] = core.FunctionCallPart{FunctionCall: c}
	}
	return Step{Response: Response{
		Content:      core.Content{Role: core.RoleAssistant, Parts: parts},
		FinishReason: "tool_calls",
	}}
}

// Fail scripts an error.
func Fail(err error) Step { return Step{Err: err} }

// ScriptedModel replays a fixed sequence of steps and records every request.
// When the script is exhausted it repeats the step set with Always, or
// echoes the last user message. Safe for concurrent use.
type ScriptedModel struct {
	mu       sync.Mutex
	info     Info
	steps    []Step
	always   *Step
	requests []Request
}

// NewScriptedModel constructs a ScriptedModel.
func NewScriptedModel(steps ...Step) *ScriptedModel {
	return &ScriptedModel{
		info:  Info{Name: "scripted", Provider: "scripted", SupportsTools: true},
		steps: steps,
	}
}

// Then appends steps to the script.
func (s *ScriptedModel) Then(steps ...Step) *ScriptedModel {
	s.mu.Lock()
	s.steps = append(s.steps, steps...)
	s.mu.Unlock()
	return s
}

// Always sets the step used once the script is exhausted.
func (s *ScriptedModel) Always(step Step) *ScriptedModel {
	s.mu.Lock()
	s.always = &step
	s.mu.Unlock()
	return s
}

// Requests returns the requests received so far.
func (s *ScriptedModel) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Calls returns the number of Generate calls.
func (s *ScriptedModel) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *ScriptedModel) next(req Request) Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if len(s.steps) > 0 {
		step := s.steps[0]
		s.steps = s.steps[1:]
		return step
	}
	if s.always != nil {
		return *s.always
	}
	var input string
	for i := len(req.Contents) - 1; i >= 0; i-- {
		if req.Contents[i].Role == core.RoleUser {
			input = req.Contents[i].Text()
			break
		}
	}
	return Text(fmt.Sprintf("Mock response to: %s", input))
}

// Generate implements Model; when req.Stream is set text replies are also
// emitted as per-rune partial chunks.
func (s *ScriptedModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)
	step := s.next(req)

	go func() {
		defer close(respCh)
		defer close(errCh)
		if step.Err != nil {
			errCh <- step.Err
			return
		}
		if req.Stream {
			for _, r := range step.Response.Content.Text() {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{
					Partial: true,
					Content: core.NewTextContent(core.RoleAssistant, string(r)),
				}:
				}
			}
		}
		final := step.Response
		final.Partial = false
		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
		case respCh <- final:
		}
	}()
	return respCh, errCh
}

// Info implements Model.
func (s *ScriptedModel) Info() Info { return s.info }

// ToolResponseText renders a function response for providers that accept
// tool results as text: strings pass through, anything else is JSON encoded.
func ToolResponseText(fr core.FunctionResponse) string {
	if fr.Error != "" && fr.Response == nil {
		return fr.Error
	}
	if s, ok := fr.Response.(string); ok {
		return s
	}
	b, err := json.Marshal(fr.Response)
	if err != nil {
		return fmt.Sprintf("%v", fr.Response)
	}
	return string(b)
}
