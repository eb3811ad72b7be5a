package router

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linolazarous/cursorcode-ai/audit"
	"github.com/linolazarous/cursorcode-ai/config"
	"github.com/linolazarous/cursorcode-ai/core"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	s := config.Default()
	s.Models = map[string]string{
		string(core.ClassDeepReasoning):    "grok-deep",
		string(core.ClassFastReasoning):    "grok-fast-reasoning",
		string(core.ClassFastNonReasoning): "grok-fast",
	}
	c, err := config.New(s)
	require.NoError(t, err)
	return c
}

func TestScenarioStarterHighQA(t *testing.T) {
	r := New(testConfig(t))
	d := r.Decide(Request{AgentType: core.AgentQA, UserTier: core.TierStarter, TaskComplexity: core.ComplexityHigh})
	assert.Equal(t, "grok-fast", d.Model)
	assert.Equal(t, core.ClassFastNonReasoning, d.Class)
	assert.Contains(t, d.Reason, "escalated")
	assert.Contains(t, d.Reason, "downgraded")
}

func TestScenarioUltraMediumArchitect(t *testing.T) {
	r := New(testConfig(t))
	d := r.Decide(Request{AgentType: core.AgentArchitect, UserTier: core.TierUltra, TaskComplexity: core.ComplexityMedium})
	assert.Equal(t, "grok-deep", d.Model)
	assert.Equal(t, core.ClassDeepReasoning, d.Class)
}

func TestDecideTable(t *testing.T) {
	r := New(testConfig(t))
	tests := []struct {
		agent      core.AgentType
		tier       core.Tier
		complexity core.Complexity
		want       string
	}{
		{core.AgentArchitect, core.TierPro, core.ComplexityLow, "grok-deep"},
		{core.AgentArchitect, core.TierStarter, core.ComplexityLow, "grok-fast"},
		{core.AgentProduct, core.TierStandard, core.ComplexityMedium, "grok-deep"},
		{core.AgentFrontend, core.TierPro, core.ComplexityMedium, "grok-fast-reasoning"},
		{core.AgentBackend, core.TierPro, core.ComplexityHigh, "grok-deep"},
		{core.AgentSecurity, core.TierPremier, core.ComplexityLow, "grok-fast-reasoning"},
		{core.AgentSecurity, core.TierPremier, core.ComplexityHigh, "grok-deep"},
		{core.AgentQA, core.TierStandard, core.ComplexityLow, "grok-fast"},
		{core.AgentDevOps, core.TierUltra, core.ComplexityHigh, "grok-deep"},
		{"marketing", core.TierPro, core.ComplexityMedium, "grok-fast"},
		{"marketing", core.TierPro, core.ComplexityHigh, "grok-deep"},
		{core.AgentFrontend, "", "", "grok-fast-reasoning"},
		{core.AgentArchitect, "", "", "grok-fast"},
	}
	for _, tt := range tests {
		t.Run(string(tt.agent)+"/"+string(tt.tier)+"/"+string(tt.complexity), func(t *testing.T) {
			d := r.Decide(Request{AgentType: tt.agent, UserTier: tt.tier, TaskComplexity: tt.complexity})
			assert.Equal(t, tt.want, d.Model)
		})
	}
}

func TestStarterHighAlwaysFastNonReasoning(t *testing.T) {
	r := New(testConfig(t))
	agents := append([]core.AgentType{core.AgentProduct, "unknown"}, core.Pipeline...)
	for _, a := range agents {
		d := r.Decide(Request{AgentType: a, UserTier: core.TierStarter, TaskComplexity: core.ComplexityHigh})
		assert.Equal(t, core.ClassFastNonReasoning, d.Class, a)
	}
}

func TestDecideIsDeterministic(t *testing.T) {
	r := New(testConfig(t))
	tiers := []core.Tier{core.TierStarter, core.TierStandard, core.TierPro, core.TierPremier, core.TierUltra}
	complexities := []core.Complexity{core.ComplexityLow, core.ComplexityMedium, core.ComplexityHigh}
	for _, a := range append([]core.AgentType{core.AgentProduct}, core.Pipeline...) {
		for _, tier := range tiers {
			for _, c := range complexities {
				req := Request{AgentType: a, UserTier: tier, TaskComplexity: c}
				assert.Equal(t, r.Decide(req), r.Decide(req))
			}
		}
	}
}

func TestForceModel(t *testing.T) {
	r := New(testConfig(t))

	d := r.Decide(Request{AgentType: core.AgentQA, UserTier: core.TierStarter, TaskComplexity: core.ComplexityHigh, ForceModel: "grok-deep"})
	assert.Equal(t, "grok-deep", d.Model)
	assert.True(t, d.Forced)

	d = r.Decide(Request{AgentType: core.AgentQA, ForceModel: "gpt-unknown"})
	assert.Equal(t, "grok-fast", d.Model)
	assert.False(t, d.Forced)
}

func TestUnregisteredClassFallsBack(t *testing.T) {
	s := config.Default()
	s.Models = map[string]string{string(core.ClassDeepReasoning): "grok-deep"}
	c, err := config.New(s)
	require.NoError(t, err)

	d := New(c).Decide(Request{AgentType: core.AgentQA, UserTier: core.TierPro, TaskComplexity: core.ComplexityLow})
	assert.Equal(t, config.DefaultFallbackModel, d.Model)
	assert.Contains(t, d.Reason, "fallback")
}

func TestSelectModelEmitsAudit(t *testing.T) {
	rec := audit.NewMemoryRecorder()
	r := New(testConfig(t), func(o *Options) { o.Sink = rec })

	d := r.SelectModel(context.Background(), Request{AgentType: core.AgentArchitect, UserTier: core.TierUltra, UserID: "u1"})
	assert.Equal(t, "grok-deep", d.Model)

	events := rec.ByAction(audit.ActionModelRouted)
	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, "u1", ev.UserID)
	assert.Equal(t, "architect", ev.Metadata["agent_type"])
	assert.Equal(t, "ultra", ev.Metadata["user_tier"])
	assert.Equal(t, "medium", ev.Metadata["task_complexity"])
	assert.Equal(t, "grok-deep", ev.Metadata["selected_model"])
	assert.NotEmpty(t, ev.Metadata["reason"])
}

func TestSelectModelDoesNotWaitOnSink(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	sink := audit.NewAsyncSink(audit.StoreFunc(func(ctx context.Context, _ audit.Event) error {
		<-block
		return nil
	}))
	r := New(testConfig(t), func(o *Options) { o.Sink = sink })

	for i := 0; i < 3; i++ {
		_ = r.SelectModel(context.Background(), Request{AgentType: core.AgentQA})
	}
}
