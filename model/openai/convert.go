package openai

import (
	"github.com/openai/openai-go"

	"github.com/linolazarous/cursorcode-ai/core"
	"github.com/linolazarous/cursorcode-ai/model"
)

// collectToolResponses indexes tool results by call id, keeping the first
// result per id and the order ids were first seen.
func collectToolResponses(req model.Request) (map[string]string, []string) {
	byID := map[string]string{}
	var order []string
	for _, c := range req.Contents {
		if c.Role != core.RoleTool {
			continue
		}
		for _, fr := range c.FunctionResponses() {
			if _, seen := byID[fr.ID]; fr.ID == "" || seen {
				continue
			}
			byID[fr.ID] = model.ToolResponseText(fr)
			order = append(order, fr.ID)
		}
	}
	return byID, order
}

// buildMessages renders the conversation as chat messages. The API requires
// every tool message to follow the assistant message that issued the call,
// so results are placed right after their call; results whose call is not
// in the history go last.
func buildMessages(req model.Request, pending map[string]string, order []string) []openai.ChatCompletionMessageParamUnion {
	var msgs []openai.ChatCompletionMessageParamUnion
	if req.Instructions != "" {
		msgs = append(msgs, openai.SystemMessage(req.Instructions))
	}

	for _, c := range req.Contents {
		text := c.Text()
		switch c.Role {
		case core.RoleTool:
		case core.RoleSystem:
			msgs = append(msgs, openai.SystemMessage(text))
		case core.RoleAssistant:
			calls := c.FunctionCalls()
			if len(calls) == 0 {
				msgs = append(msgs, openai.AssistantMessage(text))
				continue
			}
			msgs = append(msgs, assistantWithCalls(text, calls))
			for _, fc := range calls {
				if res, ok := pending[fc.ID]; ok {
					msgs = append(msgs, openai.ToolMessage(res, fc.ID))
					delete(pending, fc.ID)
				}
			}
		case core.RoleUser:
			msgs = append(msgs, openai.UserMessage(text))
		default:
			if text != "" {
				msgs = append(msgs, openai.UserMessage(text))
			}
		}
	}

	for _, id := range order {
		if res, ok := pending[id]; ok {
			msgs = append(msgs, openai.ToolMessage(res, id))
		}
	}
	return msgs
}

func assistantWithCalls(text string, calls []core.FunctionCall) openai.ChatCompletionMessageParamUnion {
	msg := &openai.ChatCompletionAssistantMessageParam{
		ToolCalls: make([]openai.ChatCompletionMessageToolCallParam, len(calls)),
	}
	for i, fc := range calls {
		msg.ToolCalls[i] = openai.ChatCompletionMessageToolCallParam{
			ID:       fc.ID,
			Function: openai.ChatCompletionMessageToolCallFunctionParam{Name: fc.Name, Arguments: fc.Arguments},
		}
	}
	if text != "" {
		msg.Content.OfString = openai.String(text)
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: msg}
}

func toolParams(defs []model.ToolDefinition) []openai.ChatCompletionToolParam {
	if len(defs) == 0 {
		return nil
	}
	out := make([]openai.ChatCompletionToolParam, len(defs))
	for i, d := range defs {
		out[i] = openai.ChatCompletionToolParam{Function: openai.FunctionDefinitionParam{
			Name:        d.Function.Name,
			Description: openai.String(d.Function.Description),
			Parameters:  d.Function.Parameters,
		}}
	}
	return out
}

// fromCompletion maps the first choice of a completion onto a final
// model.Response.
func fromCompletion(cc openai.ChatCompletion) (model.Response, bool) {
	if len(cc.Choices) == 0 {
		return model.Response{}, false
	}
	choice := cc.Choices[0]
	content := core.Content{Role: core.RoleAssistant}
	if choice.Message.Content != "" {
		content.Parts = append(content.Parts, core.TextPart{Text: choice.Message.Content})
	}
	for _, tc := range choice.Message.ToolCalls {
		content.Parts = append(content.Parts, core.FunctionCallPart{FunctionCall: core.FunctionCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		}})
	}
	return model.Response{
		ID:           cc.ID,
		Content:      content,
		FinishReason: choice.FinishReason,
		Usage:        toUsage(cc.Usage),
	}, true
}

func toUsage(u openai.CompletionUsage) *model.TokenUsage {
	if u.PromptTokens == 0 && u.CompletionTokens == 0 && u.TotalTokens == 0 {
		return nil
	}
	return &model.TokenUsage{
		PromptTokens:     int(u.PromptTokens),
		CompletionTokens: int(u.CompletionTokens),
		TotalTokens:      int(u.TotalTokens),
	}
}
