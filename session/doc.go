// Package session houses concrete implementations of core.StateStore. The
// interface itself lives in the core package; keeping only implementations
// here prevents higher level packages (orchestrator, server) from depending on
// concrete storage.
//
// Add additional backends (Redis, Postgres, etc.) in sub-packages without
// changing any calling code; only the wiring layer decides which
// implementation to instantiate.
package session
