package agent

import (
	"github.com/linolazarous/cursorcode-ai/core"
	"github.com/linolazarous/cursorcode-ai/internal/util"
)

// Provider supplies dynamic instruction text at runtime, derived from the
// Conversation State of the run.
type Provider interface {
	Instruction(*core.State) (string, error)
}

// Func is a functional adapter to allow ordinary functions to be used as Providers.
type Func func(*core.State) (string, error)

// Instruction implements Provider.
func (f Func) Instruction(s *core.State) (string, error) { return f(s) }

// Instruction is either a static prompt template or a dynamic provider.
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText creates an Instruction from a static template.
// Template actions see the fields returned by TemplateData.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(*core.State) (string, error)) Instruction {
	return Instruction{provider: Func(f)}
}

// IsStatic returns true if the instruction is backed by a static string.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// Resolve returns the instruction text, invoking the provider or rendering
// the template as needed.
func (i Instruction) Resolve(s *core.State) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(s)
	}
	return util.RenderTemplate(i.text, TemplateData(s))
}

// TemplateData exposes the scalar state fields to prompt templates.
func TemplateData(s *core.State) map[string]any {
	if s == nil {
		return map[string]any{}
	}
	return map[string]any{
		"prompt":            s.Prompt,
		"project_id":        s.ProjectID,
		"user_id":           s.UserID,
		"org_id":            s.OrgID,
		"user_tier":         string(s.Tier()),
		"task_complexity":   string(s.Complexity()),
		"total_tokens_used": s.TotalTokensUsed,
	}
}
