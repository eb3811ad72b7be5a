// Package model defines the provider-agnostic LLM client abstraction used by
// the agent executor.
//
// Core goals:
//   - Unify streaming and single-shot generation behind one interface
//   - Normalize tool / function call representation (ToolDefinition)
//   - Surface provider token usage when reported
//   - Facilitate deterministic tests (ScriptedModel)
//
// Providers (OpenAI-compatible including xAI Grok, Anthropic, Ollama) live in
// sub-packages so higher layers stay decoupled from vendor SDKs.
package model
