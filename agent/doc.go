// Package agent executes one pipeline stage (an agent node) against a
// Conversation State.
//
// The Executor resolves the agent descriptor and its tool subset, routes to a
// model, calls it once per attempt under an explicit retry policy, reports
// usage and audit events without blocking, and merges the reply into a new
// state. Tool calls requested by the model are executed through the tool
// registry so the shared history stays well formed for the next stage.
//
// Failures never escape as errors: after the last attempt the returned state
// records the failure and the pipeline moves on.
package agent
