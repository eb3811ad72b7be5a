package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linolazarous/cursorcode-ai/config"
	"github.com/linolazarous/cursorcode-ai/model"
	"github.com/linolazarous/cursorcode-ai/model/anthropic"
	"github.com/linolazarous/cursorcode-ai/model/ollama"
	"github.com/linolazarous/cursorcode-ai/model/openai"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRouteCommand(t *testing.T) {
	out, err := execute(t, "route", "--agent", "architect", "--tier", "starter")
	require.NoError(t, err)
	assert.Contains(t, out, "model: grok-beta-fast")
	assert.Contains(t, out, "class: fast_non_reasoning")
	assert.Contains(t, out, "downgraded for starter tier")

	out, err = execute(t, "route", "--agent", "qa", "--force", "grok-beta")
	require.NoError(t, err)
	assert.Contains(t, out, "forced model override")

	_, err = execute(t, "route", "--agent", "qa", "--tier", "gold")
	assert.Error(t, err)
}

func TestRunCommandWithScriptedProvider(t *testing.T) {
	out, err := execute(t, "run", "--provider", "scripted", "--project", "cli-proj", "Build", "a", "blog")
	require.NoError(t, err)
	assert.Contains(t, out, "[START] Orchestration started for project cli-proj")
	assert.Contains(t, out, "Architect agent: Planning application structure...")
	assert.Contains(t, out, "[COMPLETE] Orchestration finished successfully")
	assert.Contains(t, out, "Project cli-proj:")
}

func TestRunCommandRejectsBadTier(t *testing.T) {
	_, err := execute(t, "run", "--provider", "scripted", "--tier", "gold", "x")
	assert.Error(t, err)
}

func TestConfigCommands(t *testing.T) {
	out, err := execute(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "fallback_model: grok-beta")

	out, err = execute(t, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid")
	assert.Contains(t, out, "architect: default_reasoning")

	_, err = execute(t, "config", "show", "--provider", "carrier-pigeon")
	assert.Error(t, err)
}

func TestNewModel(t *testing.T) {
	tests := []struct {
		name  string
		check func(t *testing.T, m model.Model)
	}{
		{"xai", func(t *testing.T, m model.Model) {
			require.IsType(t, &openai.Model{}, m)
			assert.Equal(t, "xai", m.Info().Provider)
		}},
		{"openai", func(t *testing.T, m model.Model) {
			require.IsType(t, &openai.Model{}, m)
			assert.Equal(t, "openai", m.Info().Provider)
		}},
		{"anthropic", func(t *testing.T, m model.Model) { assert.IsType(t, &anthropic.Model{}, m) }},
		{"ollama", func(t *testing.T, m model.Model) { assert.IsType(t, &ollama.Model{}, m) }},
		{"scripted", func(t *testing.T, m model.Model) { assert.IsType(t, &model.ScriptedModel{}, m) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := config.Default().Provider
			p.Name = tt.name
			m, err := newModel(p, "test-key")
			require.NoError(t, err)
			tt.check(t, m)
		})
	}

	_, err := newModel(config.ProviderSettings{Name: "nope"}, "")
	assert.Error(t, err)
}

func TestResolveModelSkipsAWSWithoutParam(t *testing.T) {
	loader := &awsLoader{}
	m, err := resolveModel(context.Background(), config.ProviderSettings{Name: "scripted"}, loader)
	require.NoError(t, err)
	assert.NotNil(t, m)
	assert.Nil(t, loader.cfg)
}
