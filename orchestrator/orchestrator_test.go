package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linolazarous/cursorcode-ai/agent"
	"github.com/linolazarous/cursorcode-ai/audit"
	"github.com/linolazarous/cursorcode-ai/config"
	"github.com/linolazarous/cursorcode-ai/core"
	"github.com/linolazarous/cursorcode-ai/metering"
	"github.com/linolazarous/cursorcode-ai/model"
	"github.com/linolazarous/cursorcode-ai/retry"
	"github.com/linolazarous/cursorcode-ai/router"
	"github.com/linolazarous/cursorcode-ai/session"
	"github.com/linolazarous/cursorcode-ai/tool"
)

// stubRunner closes entered when the first stage starts, then waits for gate.
type stubRunner struct {
	mu      sync.Mutex
	calls   []core.AgentType
	fail    map[core.AgentType]bool
	entered chan struct{}
	gate    chan struct{}
	once    sync.Once
}

func (s *stubRunner) RunAgent(_ context.Context, st *core.State, at core.AgentType) *core.State {
	s.mu.Lock()
	s.calls = append(s.calls, at)
	s.mu.Unlock()
	if s.gate != nil {
		s.once.Do(func() { close(s.entered) })
		<-s.gate
	}

	out := st.Clone()
	out.AppendMessage(core.NewTextContent(core.RoleAssistant, string(at)))
	if s.fail[at] {
		out.AppendError(at, errors.New("boom"))
		return out
	}
	out.AddTokens(10)
	if at == core.AgentArchitect {
		out.SetResult(at, &core.AgentResult{Structured: map[string]any{"stack": "go"}, Parsed: true})
	} else {
		out.SetResult(at, &core.AgentResult{Raw: "done " + string(at)})
	}
	return out
}

func collect(ch <-chan Event) []Event {
	var out []Event
	for ev := range ch {
		out = append(out, ev)
	}
	return out
}

func request() Request {
	return Request{ProjectID: "proj-1", Prompt: "Build a todo app", UserID: "user-1", OrgID: "org-1"}
}

func TestOrchestrateEmitsStagesInOrder(t *testing.T) {
	store := session.NewInMemoryStore()
	rec := audit.NewMemoryRecorder()
	o := New(config.MustDefault(), &stubRunner{}, func(o *Options) {
		o.Store = store
		o.Sink = rec
	})

	events := collect(o.Orchestrate(context.Background(), request()))
	require.Len(t, events, len(core.Pipeline)+2)

	start := events[0]
	assert.Equal(t, KindStart, start.Kind)
	assert.Equal(t, "[START] Orchestration started for project proj-1", start.Message)
	assert.Equal(t, "Build a todo app...", start.PromptPreview)
	assert.NotEmpty(t, start.RunID)

	for i, stage := range core.Pipeline {
		ev := events[i+1]
		assert.Equal(t, KindStage, ev.Kind)
		assert.Equal(t, stage, ev.Stage)
		assert.Equal(t, i+1, ev.Index)
		assert.Equal(t, start.RunID, ev.RunID)
		assert.Equal(t, (i+1)*10, ev.TotalTokens)
		assert.Empty(t, ev.Error)
	}
	assert.Equal(t, "Architect agent: Planning application structure...", events[1].Message)
	assert.Equal(t, map[string]any{"stack": "go"}, events[1].Result)
	assert.Equal(t, "done frontend", events[2].Raw)

	done := events[len(events)-1]
	assert.Equal(t, KindComplete, done.Kind)
	assert.Equal(t, "[COMPLETE] Orchestration finished successfully", done.Message)
	require.NotNil(t, done.State)
	assert.Equal(t, 60, done.State.TotalTokensUsed)
	assert.Equal(t, "org-1", done.State.OrgID)

	saved, err := store.Get("proj-1")
	require.NoError(t, err)
	assert.Len(t, saved.Messages, len(core.Pipeline))

	assert.Len(t, rec.ByAction(audit.ActionOrchestrationStarted), 1)
	assert.Len(t, rec.ByAction(audit.ActionOrchestrationCompleted), 1)
	assert.Empty(t, o.Active())
}

func TestOrchestrateContinuesAfterDegradedStage(t *testing.T) {
	runner := &stubRunner{fail: map[core.AgentType]bool{core.AgentSecurity: true}}
	o := New(config.MustDefault(), runner)

	events := collect(o.Orchestrate(context.Background(), request()))
	require.Len(t, events, len(core.Pipeline)+2)

	security := events[4]
	assert.Equal(t, core.AgentSecurity, security.Stage)
	assert.Equal(t, "security: boom", security.Error)
	assert.Nil(t, security.Result)

	assert.Empty(t, events[5].Error)
	assert.Equal(t, KindComplete, events[len(events)-1].Kind)
	assert.Equal(t, core.Pipeline, runner.calls)
}

func TestCancelStopsBetweenStages(t *testing.T) {
	runner := &stubRunner{entered: make(chan struct{}), gate: make(chan struct{})}
	rec := audit.NewMemoryRecorder()
	o := New(config.MustDefault(), runner, func(o *Options) { o.Sink = rec })

	ch := o.Orchestrate(context.Background(), request())
	start := <-ch
	require.Equal(t, KindStart, start.Kind)
	assert.Equal(t, []string{start.RunID}, o.Active())

	<-runner.entered
	require.NoError(t, o.Cancel(start.RunID))
	close(runner.gate)

	rest := collect(ch)
	require.Len(t, rest, 2)
	assert.Equal(t, KindStage, rest[0].Kind)
	assert.Equal(t, core.AgentArchitect, rest[0].Stage)
	assert.Equal(t, KindCancelled, rest[1].Kind)
	assert.True(t, strings.HasPrefix(rest[1].Message, "[CANCELLED]"))
	require.NotNil(t, rest[1].State)
	assert.Equal(t, 10, rest[1].State.TotalTokensUsed)

	assert.ErrorIs(t, o.Cancel(start.RunID), ErrRunNotFound)
	assert.Len(t, rec.ByAction(audit.ActionOrchestrationCancelled), 1)
}

func TestCancelledParentContext(t *testing.T) {
	runner := &stubRunner{}
	o := New(config.MustDefault(), runner)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	state, err := o.Run(ctx, request())
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, state)
	assert.Empty(t, runner.calls)
}

func TestCancelUnknownRun(t *testing.T) {
	o := New(config.MustDefault(), &stubRunner{})
	assert.ErrorIs(t, o.Cancel("missing"), ErrRunNotFound)
}

func TestCustomStages(t *testing.T) {
	runner := &stubRunner{}
	o := New(config.MustDefault(), runner, func(o *Options) {
		o.Stages = []core.AgentType{core.AgentProduct, core.AgentArchitect}
	})
	events := collect(o.Orchestrate(context.Background(), request()))
	require.Len(t, events, 4)
	assert.Equal(t, "Product agent: Drafting feature list...", events[1].Message)
}

func TestPreview(t *testing.T) {
	long := strings.Repeat("a", 150)
	assert.Equal(t, strings.Repeat("a", 100)+"...", Preview(long))
	assert.Equal(t, "short...", Preview("short"))
	assert.Equal(t, strings.Repeat("é", 100)+"...", Preview(strings.Repeat("é", 120)))
}

func TestEventSSE(t *testing.T) {
	ev := Event{Kind: KindStage, RunID: "r1", ProjectID: "p1", Stage: core.AgentQA, Message: "QA agent: Running tests..."}
	out := string(ev.SSE())
	assert.True(t, strings.HasPrefix(out, "event: stage\ndata: {"))
	assert.True(t, strings.HasSuffix(out, "}\n\n"))
	assert.Contains(t, out, `"stage":"qa"`)
	assert.Contains(t, out, `"message":"QA agent: Running tests..."`)
}

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Request)
		ok     bool
	}{
		{"valid", func(*Request) {}, true},
		{"no project", func(r *Request) { r.ProjectID = "" }, false},
		{"no prompt", func(r *Request) { r.Prompt = "" }, false},
		{"bad tier", func(r *Request) { r.UserTier = "gold" }, false},
		{"bad complexity", func(r *Request) { r.TaskComplexity = "extreme" }, false},
		{"known tier", func(r *Request) { r.UserTier = core.TierUltra }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := request()
			tt.mutate(&r)
			err := r.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidRequest)
			}
		})
	}
}

func TestOrchestrateWithExecutor(t *testing.T) {
	cfg := config.MustDefault()
	rec := audit.NewMemoryRecorder()
	usage := metering.NewMemoryRecorder()
	llm := model.NewScriptedModel().Always(model.TextWithUsage(`{"ok":true}`, 50, 25))
	exec := agent.NewExecutor(cfg, router.New(cfg), tool.NewDefaultRegistry(cfg), llm, func(o *agent.Options) {
		o.Sink = rec
		o.Reporter = usage
		o.Retry.Sleep = retry.NoSleep
	})
	o := New(cfg, exec)

	state, err := o.Run(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, 6*75, state.TotalTokensUsed)
	assert.Empty(t, state.Errors)
	for _, stage := range core.Pipeline {
		res := state.Result(stage)
		require.NotNil(t, res, stage)
		assert.True(t, res.Parsed)
		assert.Len(t, rec.ByAction(audit.AgentExecuted(stage)), 1)
	}
	assert.Equal(t, 6*75, usage.TotalTokens())
	// Bootstrap user message plus one reply per stage.
	assert.Len(t, state.Messages, 7)
}

func TestOrchestrateRejectsInvalidRequest(t *testing.T) {
	runner := &stubRunner{}
	rec := audit.NewMemoryRecorder()
	o := New(config.MustDefault(), runner, func(o *Options) { o.Sink = rec })

	req := request()
	req.Prompt = ""
	events := collect(o.Orchestrate(context.Background(), req))
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, KindFailed, ev.Kind)
	assert.Equal(t, "proj-1", ev.ProjectID)
	assert.NotEmpty(t, ev.RunID)
	assert.Contains(t, ev.Error, "prompt is required")
	assert.True(t, strings.HasPrefix(ev.Message, "[FAILED] "))
	assert.Nil(t, ev.State)

	assert.Empty(t, runner.calls)
	assert.Len(t, rec.ByAction(audit.ActionOrchestrationFailed), 1)
	assert.Empty(t, rec.ByAction(audit.ActionOrchestrationStarted))
	assert.Empty(t, o.Active())

	state, err := o.Run(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Nil(t, state)
}

func TestStageEventSummarizesToolTurn(t *testing.T) {
	cfg := config.MustDefault()
	llm := model.NewScriptedModel().
		Then(model.ToolCalls(core.FunctionCall{ID: "c1", Name: "search_latest_stack_trends", Arguments: `{"query":"go"}`})).
		Always(model.TextWithUsage(`{"ok":true}`, 1, 1))
	exec := agent.NewExecutor(cfg, router.New(cfg), tool.NewDefaultRegistry(cfg), llm, func(o *agent.Options) {
		o.Retry.Sleep = retry.NoSleep
	})
	o := New(cfg, exec)

	events := collect(o.Orchestrate(context.Background(), request()))
	require.Len(t, events, len(core.Pipeline)+2)

	architect := events[1]
	assert.Equal(t, core.AgentArchitect, architect.Stage)
	assert.Empty(t, architect.Error)
	assert.Nil(t, architect.Result)
	assert.Equal(t, "called tools: search_latest_stack_trends", architect.Raw)

	assert.Equal(t, map[string]any{"ok": true}, events[2].Result)
}

func TestToolTurnSummary(t *testing.T) {
	call := core.Content{Role: core.RoleAssistant, Parts: []core.Part{
		core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: "1", Name: "a"}},
		core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: "2", Name: "b"}},
	}}
	toolMsg := core.Content{Role: core.RoleTool}

	assert.Equal(t, "called tools: a, b", toolTurnSummary([]core.Content{call, toolMsg}))
	withText := call
	withText.Parts = append([]core.Part{core.TextPart{Text: "looking it up"}}, call.Parts...)
	assert.Equal(t, "looking it up", toolTurnSummary([]core.Content{withText, toolMsg}))
	assert.Empty(t, toolTurnSummary(nil))
}
