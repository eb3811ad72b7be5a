// Package config holds the platform configuration: the model registry, the
// per-agent descriptors (prompt, tools, model class, sampling), retry policy
// and the sinks that receive audit events and usage records.
//
// Settings is the mutable loading shape (defaults, YAML file, environment).
// New validates Settings and freezes it into a Config, which is the immutable
// object handed to the router, tool registry and executor.
package config

import (
	"time"

	"github.com/linolazarous/cursorcode-ai/core"
)

// Settings is the loadable configuration document.
type Settings struct {
	Environment   string                   `mapstructure:"environment" yaml:"environment"`
	Log           LogSettings              `mapstructure:"log" yaml:"log"`
	Provider      ProviderSettings         `mapstructure:"provider" yaml:"provider"`
	Models        map[string]string        `mapstructure:"models" yaml:"models"`
	FallbackModel string                   `mapstructure:"fallback_model" yaml:"fallback_model"`
	Agents        map[string]AgentSettings `mapstructure:"agents" yaml:"agents"`
	Retry         RetrySettings            `mapstructure:"retry" yaml:"retry"`
	Audit         AuditSettings            `mapstructure:"audit" yaml:"audit"`
	Metering      MeteringSettings         `mapstructure:"metering" yaml:"metering"`
	Server        ServerSettings           `mapstructure:"server" yaml:"server"`
	Tokens        TokenSettings            `mapstructure:"tokens" yaml:"tokens"`
}

// LogSettings selects level and handler format.
type LogSettings struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// ProviderSettings configures the chat-completion transport.
type ProviderSettings struct {
	// Name is one of xai, openai, anthropic, ollama.
	Name    string `mapstructure:"name" yaml:"name"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
	// APIKeyParam names an SSM parameter holding the key. Used when APIKey is empty.
	APIKeyParam string        `mapstructure:"api_key_param" yaml:"api_key_param"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// AgentSettings overrides one agent descriptor. Zero fields keep the default.
type AgentSettings struct {
	Prompt      string   `mapstructure:"prompt" yaml:"prompt"`
	Tools       []string `mapstructure:"tools" yaml:"tools"`
	ModelClass  string   `mapstructure:"model_class" yaml:"model_class"`
	Temperature float64  `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int      `mapstructure:"max_tokens" yaml:"max_tokens"`
	Status      string   `mapstructure:"status" yaml:"status"`
}

// RetrySettings shapes the node execution retry policy.
type RetrySettings struct {
	MaxAttempts int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	Multiplier  time.Duration `mapstructure:"multiplier" yaml:"multiplier"`
	MinWait     time.Duration `mapstructure:"min_wait" yaml:"min_wait"`
	MaxWait     time.Duration `mapstructure:"max_wait" yaml:"max_wait"`
}

// AuditSettings selects the durable audit backend and its delivery queue.
type AuditSettings struct {
	// Driver is one of log, sqlite, memory.
	Driver     string        `mapstructure:"driver" yaml:"driver"`
	SQLitePath string        `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	QueueSize  int           `mapstructure:"queue_size" yaml:"queue_size"`
	MaxRetries int           `mapstructure:"max_retries" yaml:"max_retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
}

// MeteringSettings selects where usage records go.
type MeteringSettings struct {
	// Driver is one of log, dynamodb, memory.
	Driver     string        `mapstructure:"driver" yaml:"driver"`
	Table      string        `mapstructure:"table" yaml:"table"`
	QueueSize  int           `mapstructure:"queue_size" yaml:"queue_size"`
	MaxRetries int           `mapstructure:"max_retries" yaml:"max_retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
}

// ServerSettings configures the HTTP surface.
type ServerSettings struct {
	Addr               string `mapstructure:"addr" yaml:"addr"`
	RateLimitPerMinute int    `mapstructure:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`
	AuditAllRateLimits bool   `mapstructure:"audit_all_rate_limits" yaml:"audit_all_rate_limits"`
}

// TokenSettings selects the fallback token estimator.
type TokenSettings struct {
	// Estimator is chars (4 characters per token) or tiktoken.
	Estimator string `mapstructure:"estimator" yaml:"estimator"`
}

// DefaultFallbackModel is used when a routed class has no registered model.
const DefaultFallbackModel = "grok-beta"

// Default returns the built-in settings.
func Default() Settings {
	agents := make(map[string]AgentSettings, len(defaultAgents))
	for t, a := range defaultAgents {
		a.Tools = append([]string(nil), a.Tools...)
		agents[string(t)] = a
	}
	return Settings{
		Environment: "development",
		Log:         LogSettings{Level: "info", Format: "json"},
		Provider: ProviderSettings{
			Name:    "xai",
			BaseURL: "https://api.x.ai/v1",
			Timeout: 120 * time.Second,
		},
		Models: map[string]string{
			string(core.ClassDeepReasoning):    "grok-beta",
			string(core.ClassFastReasoning):    "grok-beta-fast",
			string(core.ClassFastNonReasoning): "grok-beta-fast",
		},
		FallbackModel: DefaultFallbackModel,
		Agents:        agents,
		Retry: RetrySettings{
			MaxAttempts: 4,
			Multiplier:  time.Second,
			MinWait:     4 * time.Second,
			MaxWait:     30 * time.Second,
		},
		Audit: AuditSettings{
			Driver:     "log",
			SQLitePath: "cursorcode-audit.db",
			QueueSize:  1024,
			MaxRetries: 5,
			RetryDelay: 30 * time.Second,
		},
		Metering: MeteringSettings{
			Driver:     "log",
			QueueSize:  1024,
			MaxRetries: 5,
			RetryDelay: 30 * time.Second,
		},
		Server: ServerSettings{
			Addr:               ":8080",
			RateLimitPerMinute: 100,
		},
		Tokens: TokenSettings{Estimator: "chars"},
	}
}
