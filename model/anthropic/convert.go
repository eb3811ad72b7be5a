package anthropic

import (
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/linolazarous/cursorcode-ai/core"
	"github.com/linolazarous/cursorcode-ai/model"
)

// buildMessages converts contents into Messages API turns. Tool results
// become a user turn of tool_result blocks right after the assistant turn
// that requested them. Adjacent turns with the same role are merged since
// the API requires user and assistant turns to alternate.
func buildMessages(contents []core.Content) []anthropic.MessageParam {
	results := map[string]core.FunctionResponse{}
	for _, c := range contents {
		if c.Role != core.RoleTool {
			continue
		}
		for _, fr := range c.FunctionResponses() {
			if fr.ID != "" {
				results[fr.ID] = fr
			}
		}
	}

	var msgs []anthropic.MessageParam
	push := func(role anthropic.MessageParamRole, blocks []anthropic.ContentBlockParamUnion) {
		if len(blocks) == 0 {
			return
		}
		if n := len(msgs); n > 0 && msgs[n-1].Role == role {
			msgs[n-1].Content = append(msgs[n-1].Content, blocks...)
			return
		}
		msgs = append(msgs, anthropic.MessageParam{Role: role, Content: blocks})
	}

	for _, c := range contents {
		switch c.Role {
		case core.RoleSystem, core.RoleTool:
		case core.RoleAssistant:
			blocks, ids := assistantBlocks(c.Parts)
			push(anthropic.MessageParamRoleAssistant, blocks)

			var answered []anthropic.ContentBlockParamUnion
			for _, id := range ids {
				fr, ok := results[id]
				if !ok {
					continue
				}
				answered = append(answered, anthropic.NewToolResultBlock(id, model.ToolResponseText(fr), fr.Error != ""))
				delete(results, id)
			}
			push(anthropic.MessageParamRoleUser, answered)
		default:
			if text := c.Text(); text != "" {
				push(anthropic.MessageParamRoleUser, []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(text)})
			}
		}
	}
	return msgs
}

func assistantBlocks(parts []core.Part) (blocks []anthropic.ContentBlockParamUnion, callIDs []string) {
	for _, p := range parts {
		switch part := p.(type) {
		case core.TextPart:
			if part.Text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(part.Text))
			}
		case core.FunctionCallPart:
			fc := part.FunctionCall
			var input any = map[string]any{}
			if fc.Arguments != "" && json.Unmarshal([]byte(fc.Arguments), &input) != nil {
				input = fc.Arguments
			}
			blocks = append(blocks, anthropic.NewToolUseBlock(fc.ID, input, fc.Name))
			callIDs = append(callIDs, fc.ID)
		}
	}
	return blocks, callIDs
}

// systemPrompt collects Instructions and system-role contents.
func systemPrompt(req model.Request) []anthropic.TextBlockParam {
	var out []anthropic.TextBlockParam
	if req.Instructions != "" {
		out = append(out, anthropic.TextBlockParam{Text: req.Instructions})
	}
	for _, c := range req.Contents {
		if text := c.Text(); c.Role == core.RoleSystem && text != "" {
			out = append(out, anthropic.TextBlockParam{Text: text})
		}
	}
	return out
}

func toolParams(defs []model.ToolDefinition) []anthropic.ToolUnionParam {
	if len(defs) == 0 {
		return nil
	}
	out := make([]anthropic.ToolUnionParam, 0, len(defs))
	for _, d := range defs {
		schema := anthropic.ToolInputSchemaParam{}
		if props, ok := d.Function.Parameters["properties"]; ok {
			schema.Properties = props
		}
		schema.Required = requiredNames(d.Function.Parameters["required"])

		u := anthropic.ToolUnionParamOfTool(schema, d.Function.Name)
		if u.OfTool != nil && d.Function.Description != "" {
			u.OfTool.Description = anthropic.String(d.Function.Description)
		}
		out = append(out, u)
	}
	return out
}

func requiredNames(v any) []string {
	switch req := v.(type) {
	case []string:
		return req
	case []any:
		var names []string
		for _, r := range req {
			if s, ok := r.(string); ok {
				names = append(names, s)
			}
		}
		return names
	}
	return nil
}

// fromMessage maps a complete message onto a final
// model.Response.
func fromMessage(msg anthropic.Message) model.Response {
	content := core.Content{Role: core.RoleAssistant}
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			if text := block.AsText().Text; text != "" {
				content.Parts = append(content.Parts, core.TextPart{Text: text})
			}
		case "tool_use":
			tu := block.AsToolUse()
			content.Parts = append(content.Parts, core.FunctionCallPart{FunctionCall: core.FunctionCall{
				ID:        tu.ID,
				Name:      tu.Name,
				Arguments: string(tu.Input),
			}})
		}
	}

	reason := string(msg.StopReason)
	if reason == "" {
		reason = "stop"
	}
	in, out := int(msg.Usage.InputTokens), int(msg.Usage.OutputTokens)
	return model.Response{
		ID:           msg.ID,
		Content:      content,
		FinishReason: reason,
		Usage:        &model.TokenUsage{PromptTokens: in, CompletionTokens: out, TotalTokens: in + out},
	}
}
