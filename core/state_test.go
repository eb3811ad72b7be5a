package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestState_Defaults(t *testing.T) {
	s := NewState("p1", "build a todo app", "u1")
	if s.Tier() != TierStarter {
		t.Fatalf("expected default tier starter, got %q", s.Tier())
	}
	if s.Complexity() != ComplexityMedium {
		t.Fatalf("expected default complexity medium, got %q", s.Complexity())
	}

	s.UserTier = TierUltra
	s.TaskComplexity = ComplexityHigh
	if s.Tier() != TierUltra || s.Complexity() != ComplexityHigh {
		t.Fatalf("explicit tier/complexity not honoured: %q/%q", s.Tier(), s.Complexity())
	}
}

func TestState_ResultSlots(t *testing.T) {
	s := NewState("p1", "x", "u1")
	for _, a := range Pipeline {
		if s.Result(a) != nil {
			t.Fatalf("expected empty result for %s", a)
		}
		s.SetResult(a, &AgentResult{Raw: string(a)})
		if got := s.Result(a); got == nil || got.Raw != string(a) {
			t.Fatalf("result for %s not stored: %+v", a, got)
		}
	}
	if s.Extra != nil {
		t.Fatalf("pipeline agents must not use Extra: %+v", s.Extra)
	}

	s.SetResult(AgentProduct, &AgentResult{Raw: "roadmap"})
	if s.Extra[AgentProduct] == nil || s.Result(AgentProduct).Raw != "roadmap" {
		t.Fatalf("non-pipeline agent result not stored in Extra")
	}
}

func TestState_CloneIsolation(t *testing.T) {
	s := NewState("p1", "x", "u1")
	s.AppendMessage(NewTextContent(RoleUser, "hi"))
	s.AppendError(AgentQA, errors.New("boom"))

	c := s.Clone()
	c.AppendMessage(NewTextContent(RoleAssistant, "hello"))
	c.AppendError(AgentDevOps, errors.New("bang"))
	c.AddTokens(10)
	c.SetResult(AgentProduct, &AgentResult{Raw: "r"})

	if len(s.Messages) != 1 || len(s.Errors) != 1 || s.TotalTokensUsed != 0 || s.Extra != nil {
		t.Fatalf("clone mutations leaked into original: %+v", s)
	}
}

func TestState_TokensMonotonic(t *testing.T) {
	s := NewState("p1", "x", "u1")
	s.AddTokens(5)
	s.AddTokens(-3)
	s.AddTokens(0)
	if s.TotalTokensUsed != 5 {
		t.Fatalf("expected 5 tokens, got %d", s.TotalTokensUsed)
	}
}

func TestState_Failed(t *testing.T) {
	s := NewState("p1", "x", "u1")
	s.AppendError(AgentQA, errors.New("timeout"))
	if !s.Failed(AgentQA) {
		t.Fatal("expected qa to be marked failed")
	}
	if s.Failed(AgentArchitect) {
		t.Fatal("architect should not be marked failed")
	}
	if s.Errors[0] != "qa: timeout" {
		t.Fatalf("unexpected error entry %q", s.Errors[0])
	}
}

func TestContent_MarshalJSONTagsParts(t *testing.T) {
	c := Content{Role: RoleAssistant, Parts: []Part{
		TextPart{Text: "plan"},
		FunctionCallPart{FunctionCall: FunctionCall{ID: "c1", Name: "search", Arguments: `{"q":1}`}},
	}}
	b, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := string(b)
	for _, want := range []string{`"type":"text"`, `"type":"function_call"`, `"name":"search"`, `"role":"assistant"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in %s", want, out)
		}
	}
	if c.Text() != "plan" || !c.HasFunctionCalls() {
		t.Fatalf("helpers returned unexpected values")
	}
}
