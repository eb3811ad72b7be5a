// Package core provides the foundational domain types shared by every layer of
// the CursorCode orchestration core:
//
//   - AgentType, Tier, Complexity and ModelClass enumerations
//   - Content / Part (role-tagged conversation entries with tool call parts)
//   - State (the Conversation State threaded through a pipeline run)
//
// The package intentionally holds no behaviour beyond small helpers so that
// routing, tooling, model transport and orchestration can evolve independently
// while agreeing on one vocabulary.
package core
