package core

import "github.com/google/uuid"

// AgentType names a role in the generation pipeline.
type AgentType string

// Agent types known to the platform. Product is routable but not part of the
// default pipeline.
const (
	AgentArchitect AgentType = "architect"
	AgentFrontend  AgentType = "frontend"
	AgentBackend   AgentType = "backend"
	AgentSecurity  AgentType = "security"
	AgentQA        AgentType = "qa"
	AgentDevOps    AgentType = "devops"
	AgentProduct   AgentType = "product"
)

// Pipeline is the fixed stage order used by the orchestrator.
var Pipeline = []AgentType{
	AgentArchitect,
	AgentFrontend,
	AgentBackend,
	AgentSecurity,
	AgentQA,
	AgentDevOps,
}

func (a AgentType) String() string { return string(a) }

// Tier is a subscription plan, ordered from cheapest to most capable.
type Tier string

const (
	TierStarter  Tier = "starter"
	TierStandard Tier = "standard"
	TierPro      Tier = "pro"
	TierPremier  Tier = "premier"
	TierUltra    Tier = "ultra"
)

// DefaultTier applies when a request carries no tier.
const DefaultTier = TierStarter

// IsTopTier reports whether t is one of the two highest plans.
func (t Tier) IsTopTier() bool { return t == TierPremier || t == TierUltra }

// IsLowest reports whether t is the entry plan.
func (t Tier) IsLowest() bool { return t == TierStarter }

// Valid reports whether t is a known plan.
func (t Tier) Valid() bool {
	switch t {
	case TierStarter, TierStandard, TierPro, TierPremier, TierUltra:
		return true
	}
	return false
}

// Complexity is the caller's estimate of how demanding a task is.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// DefaultComplexity applies when a request carries no complexity.
const DefaultComplexity = ComplexityMedium

// Valid reports whether c is a known complexity.
func (c Complexity) Valid() bool {
	return c == ComplexityLow || c == ComplexityMedium || c == ComplexityHigh
}

// ModelClass is a routing tier resolved to a concrete model id by configuration.
type ModelClass string

const (
	ClassDeepReasoning    ModelClass = "default_reasoning"
	ClassFastReasoning    ModelClass = "fast_reasoning"
	ClassFastNonReasoning ModelClass = "fast_non_reasoning"
)

// NewID returns a random UUID string used for events, runs and requests.
func NewID() string { return uuid.NewString() }
