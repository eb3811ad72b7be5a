package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/linolazarous/cursorcode-ai/core"
)

// Validation errors returned by New and Validate.
var (
	ErrInvalidModelClass = errors.New("config: invalid model class")
	ErrEmptyModelID      = errors.New("config: empty model id")
	ErrInvalidRetry      = errors.New("config: invalid retry policy")
	ErrInvalidSampling   = errors.New("config: invalid sampling parameters")
	ErrInvalidDriver     = errors.New("config: invalid driver")
)

// AgentDescriptor is the immutable per-agent configuration.
type AgentDescriptor struct {
	Type        core.AgentType
	Prompt      string
	Tools       []string
	ModelClass  core.ModelClass
	Temperature float64
	MaxTokens   int
	Status      string
}

// Label returns a display name such as "Architect".
func (d AgentDescriptor) Label() string {
	switch d.Type {
	case "":
		return ""
	case core.AgentQA:
		return "QA"
	case core.AgentDevOps:
		return "DevOps"
	}
	s := string(d.Type)
	return strings.ToUpper(s[:1]) + s[1:]
}

// Config is the validated, read-only configuration shared by the router, the
// tool registry and the executor. All accessors return copies.
type Config struct {
	settings Settings
	models   map[core.ModelClass]string
	modelIDs map[string]struct{}
	agents   map[core.AgentType]AgentDescriptor
}

// New validates s and freezes it. Agent entries that leave fields at their
// zero value inherit the built-in defaults for that agent type.
func New(s Settings) (*Config, error) {
	s = mergeAgentDefaults(s)
	if s.FallbackModel == "" {
		s.FallbackModel = DefaultFallbackModel
	}
	if err := Validate(s); err != nil {
		return nil, err
	}

	c := &Config{
		settings: cloneSettings(s),
		models:   make(map[core.ModelClass]string, len(s.Models)),
		modelIDs: make(map[string]struct{}, len(s.Models)),
		agents:   make(map[core.AgentType]AgentDescriptor, len(s.Agents)),
	}
	for class, id := range s.Models {
		c.models[core.ModelClass(class)] = id
		c.modelIDs[id] = struct{}{}
	}
	for name, a := range s.Agents {
		t := core.AgentType(name)
		c.agents[t] = AgentDescriptor{
			Type:        t,
			Prompt:      a.Prompt,
			Tools:       append([]string(nil), a.Tools...),
			ModelClass:  core.ModelClass(a.ModelClass),
			Temperature: a.Temperature,
			MaxTokens:   a.MaxTokens,
			Status:      a.Status,
		}
	}
	return c, nil
}

// MustDefault returns the built-in configuration. It panics only if the
// built-in defaults are themselves invalid.
func MustDefault() *Config {
	c, err := New(Default())
	if err != nil {
		panic(err)
	}
	return c
}

// Validate checks s without freezing it.
func Validate(s Settings) error {
	for class, id := range s.Models {
		if !validClass(core.ModelClass(class)) {
			return fmt.Errorf("%w: %q", ErrInvalidModelClass, class)
		}
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w for class %q", ErrEmptyModelID, class)
		}
	}
	for name, a := range s.Agents {
		if a.ModelClass != "" && !validClass(core.ModelClass(a.ModelClass)) {
			return fmt.Errorf("%w: agent %s uses %q", ErrInvalidModelClass, name, a.ModelClass)
		}
		if a.Temperature < 0 || a.Temperature > 2 {
			return fmt.Errorf("%w: agent %s temperature %v", ErrInvalidSampling, name, a.Temperature)
		}
		if a.MaxTokens < 0 {
			return fmt.Errorf("%w: agent %s max_tokens %d", ErrInvalidSampling, name, a.MaxTokens)
		}
	}
	r := s.Retry
	if r.MaxAttempts < 1 || r.MinWait < 0 || r.MaxWait < r.MinWait || r.Multiplier < 0 {
		return fmt.Errorf("%w: %+v", ErrInvalidRetry, r)
	}
	switch s.Audit.Driver {
	case "", "log", "sqlite", "memory":
	default:
		return fmt.Errorf("%w: audit driver %q", ErrInvalidDriver, s.Audit.Driver)
	}
	switch s.Metering.Driver {
	case "", "log", "dynamodb", "memory":
	default:
		return fmt.Errorf("%w: metering driver %q", ErrInvalidDriver, s.Metering.Driver)
	}
	if s.Metering.Driver == "dynamodb" && s.Metering.Table == "" {
		return fmt.Errorf("%w: metering driver dynamodb requires a table", ErrInvalidDriver)
	}
	switch s.Provider.Name {
	case "", "xai", "openai", "anthropic", "ollama", "scripted":
	default:
		return fmt.Errorf("%w: provider %q", ErrInvalidDriver, s.Provider.Name)
	}
	switch s.Tokens.Estimator {
	case "", "chars", "tiktoken":
	default:
		return fmt.Errorf("%w: token estimator %q", ErrInvalidDriver, s.Tokens.Estimator)
	}
	return nil
}

func validClass(c core.ModelClass) bool {
	switch c {
	case core.ClassDeepReasoning, core.ClassFastReasoning, core.ClassFastNonReasoning:
		return true
	}
	return false
}

func mergeAgentDefaults(s Settings) Settings {
	merged := make(map[string]AgentSettings, len(defaultAgents)+len(s.Agents))
	for t, a := range defaultAgents {
		merged[string(t)] = a
	}
	for name, a := range s.Agents {
		d, ok := merged[name]
		if !ok {
			merged[name] = a
			continue
		}
		if a.Prompt != "" {
			d.Prompt = a.Prompt
		}
		if a.Tools != nil {
			d.Tools = a.Tools
		}
		if a.ModelClass != "" {
			d.ModelClass = a.ModelClass
		}
		if a.Temperature != 0 {
			d.Temperature = a.Temperature
		}
		if a.MaxTokens != 0 {
			d.MaxTokens = a.MaxTokens
		}
		if a.Status != "" {
			d.Status = a.Status
		}
		merged[name] = d
	}
	s.Agents = merged
	return s
}

func cloneSettings(s Settings) Settings {
	c := s
	c.Models = make(map[string]string, len(s.Models))
	for k, v := range s.Models {
		c.Models[k] = v
	}
	c.Agents = make(map[string]AgentSettings, len(s.Agents))
	for k, v := range s.Agents {
		v.Tools = append([]string(nil), v.Tools...)
		c.Agents[k] = v
	}
	return c
}

// Settings returns a copy of the frozen settings.
func (c *Config) Settings() Settings { return cloneSettings(c.settings) }

// Model returns the model id registered for class.
func (c *Config) Model(class core.ModelClass) (string, bool) {
	id, ok := c.models[class]
	return id, ok
}

// IsConfiguredModel reports whether id is registered under any class.
func (c *Config) IsConfiguredModel(id string) bool {
	_, ok := c.modelIDs[id]
	return ok
}

// FallbackModel is the id used when a class has no registered model.
func (c *Config) FallbackModel() string { return c.settings.FallbackModel }

// Agent returns the descriptor for t.
func (c *Config) Agent(t core.AgentType) (AgentDescriptor, bool) {
	d, ok := c.agents[t]
	if !ok {
		return AgentDescriptor{}, false
	}
	d.Tools = append([]string(nil), d.Tools...)
	return d, true
}

// AgentTypes lists configured agent types in sorted order.
func (c *Config) AgentTypes() []core.AgentType {
	out := make([]core.AgentType, 0, len(c.agents))
	for t := range c.agents {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ClassFor returns the preferred model class of t. Unknown agents prefer
// the fast non-reasoning class.
func (c *Config) ClassFor(t core.AgentType) core.ModelClass {
	if d, ok := c.agents[t]; ok && d.ModelClass != "" {
		return d.ModelClass
	}
	return core.ClassFastNonReasoning
}

// Retry returns the node retry settings.
func (c *Config) Retry() RetrySettings { return c.settings.Retry }

// Provider returns the LLM provider settings.
func (c *Config) Provider() ProviderSettings { return c.settings.Provider }

// Audit returns the audit sink settings.
func (c *Config) Audit() AuditSettings { return c.settings.Audit }

// Metering returns the usage sink settings.
func (c *Config) Metering() MeteringSettings { return c.settings.Metering }

// Server returns the HTTP settings.
func (c *Config) Server() ServerSettings { return c.settings.Server }

// Log returns the logging settings.
func (c *Config) Log() LogSettings { return c.settings.Log }

// Tokens returns the token estimator settings.
func (c *Config) Tokens() TokenSettings { return c.settings.Tokens }

// Timeout returns the provider call timeout, or zero for none.
func (c *Config) Timeout() time.Duration { return c.settings.Provider.Timeout }
