package core

import (
	"fmt"
	"strings"
)

// AgentResult holds one agent's parsed output. Exactly one of Structured or
// Raw is meaningful: Structured when the reply was valid JSON, Raw otherwise.
type AgentResult struct {
	Structured any    `json:"structured,omitempty"`
	Raw        string `json:"raw,omitempty"`
	Parsed     bool   `json:"parsed"`
}

// State is the Conversation State threaded through a pipeline run.
//
// Contract:
//   - Messages is append-only within a run
//   - TotalTokensUsed never decreases
//   - Per-agent results live in named fields; agent types outside the
//     pipeline land in Extra
//
// A State is owned by a single run and is not safe for concurrent mutation.
type State struct {
	Messages        []Content  `json:"messages"`
	Prompt          string     `json:"prompt"`
	UserID          string     `json:"user_id,omitempty"`
	ProjectID       string     `json:"project_id,omitempty"`
	OrgID           string     `json:"org_id,omitempty"`
	UserTier        Tier       `json:"user_tier,omitempty"`
	TaskComplexity  Complexity `json:"task_complexity,omitempty"`
	TotalTokensUsed int        `json:"total_tokens_used"`

	Architect *AgentResult `json:"architect,omitempty"`
	Frontend  *AgentResult `json:"frontend,omitempty"`
	Backend   *AgentResult `json:"backend,omitempty"`
	Security  *AgentResult `json:"security,omitempty"`
	QA        *AgentResult `json:"qa,omitempty"`
	DevOps    *AgentResult `json:"devops,omitempty"`

	Extra map[AgentType]*AgentResult `json:"extra,omitempty"`

	Errors []string `json:"errors,omitempty"`
}

// NewState creates the initial state for a run.
func NewState(projectID, prompt, userID string) *State {
	return &State{
		Messages:  []Content{},
		Prompt:    prompt,
		UserID:    userID,
		ProjectID: projectID,
	}
}

// Tier returns the user tier or DefaultTier when unset.
func (s *State) Tier() Tier {
	if s.UserTier == "" {
		return DefaultTier
	}
	return s.UserTier
}

// Complexity returns the task complexity or DefaultComplexity when unset.
func (s *State) Complexity() Complexity {
	if s.TaskComplexity == "" {
		return DefaultComplexity
	}
	return s.TaskComplexity
}

// Result returns the stored result for an agent type, or nil.
func (s *State) Result(agent AgentType) *AgentResult {
	if slot := s.slot(agent); slot != nil {
		return *slot
	}
	return s.Extra[agent]
}

// SetResult stores r as the result for agent.
func (s *State) SetResult(agent AgentType, r *AgentResult) {
	if slot := s.slot(agent); slot != nil {
		*slot = r
		return
	}
	if s.Extra == nil {
		s.Extra = map[AgentType]*AgentResult{}
	}
	s.Extra[agent] = r
}

func (s *State) slot(agent AgentType) **AgentResult {
	switch agent {
	case AgentArchitect:
		return &s.Architect
	case AgentFrontend:
		return &s.Frontend
	case AgentBackend:
		return &s.Backend
	case AgentSecurity:
		return &s.Security
	case AgentQA:
		return &s.QA
	case AgentDevOps:
		return &s.DevOps
	}
	return nil
}

// AppendMessage appends c to the history.
func (s *State) AppendMessage(c Content) { s.Messages = append(s.Messages, c) }

// AddTokens increases the running token total; negative values are ignored.
func (s *State) AddTokens(n int) {
	if n > 0 {
		s.TotalTokensUsed += n
	}
}

// AppendError records a degraded-stage description.
func (s *State) AppendError(agent AgentType, err error) {
	s.Errors = append(s.Errors, fmt.Sprintf("%s: %v", agent, err))
}

// Failed reports whether an error entry was recorded for agent.
func (s *State) Failed(agent AgentType) bool {
	prefix := string(agent) + ": "
	for _, e := range s.Errors {
		if strings.HasPrefix(e, prefix) {
			return true
		}
	}
	return false
}

// Clone returns a copy whose slices and maps can be appended to without
// touching the original. Results and parts are shared since they are never
// mutated in place.
func (s *State) Clone() *State {
	c := *s
	c.Messages = make([]Content, len(s.Messages))
	for i, m := range s.Messages {
		c.Messages[i] = m.Clone()
	}
	c.Errors = append([]string(nil), s.Errors...)
	if s.Extra != nil {
		c.Extra = make(map[AgentType]*AgentResult, len(s.Extra))
		for k, v := range s.Extra {
			c.Extra[k] = v
		}
	}
	return &c
}
