package core

import "errors"

// ErrStateNotFound is returned when no state is stored for a project.
var ErrStateNotFound = errors.New("state not found")

// StateStore persists the latest Conversation State per project. The
// interface lives here so the orchestrator and server depend on the contract
// rather than a concrete backend.
type StateStore interface {
	// Save stores a snapshot of s under s.ProjectID.
	Save(s *State) error
	// Get returns a copy of the stored state or ErrStateNotFound.
	Get(projectID string) (*State, error)
}
