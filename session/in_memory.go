package session

import (
	"fmt"
	"sort"
	"sync"

	"github.com/linolazarous/cursorcode-ai/core"
)

// InMemoryStore is a volatile StateStore keeping the latest state per project
// in a process local map. It is safe for concurrent access and best suited
// for tests or single-instance servers. Stored and returned states are cloned
// to prevent external mutation of internal state.
type InMemoryStore struct {
	mu     sync.RWMutex
	states map[string]*core.State
}

// NewInMemoryStore constructs an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{states: make(map[string]*core.State)}
}

// Save stores a clone of s, replacing any earlier state of the project.
func (s *InMemoryStore) Save(st *core.State) error {
	if st == nil || st.ProjectID == "" {
		return fmt.Errorf("session: save: state without project id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[st.ProjectID] = st.Clone()
	return nil
}

// Get returns a clone of the project's state.
func (s *InMemoryStore) Get(projectID string) (*core.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[projectID]
	if !ok {
		return nil, fmt.Errorf("session: project %q: %w", projectID, core.ErrStateNotFound)
	}
	return st.Clone(), nil
}

// Delete removes the project's state. Unknown ids are ignored.
func (s *InMemoryStore) Delete(projectID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, projectID)
}

// Projects lists stored project ids in sorted order.
func (s *InMemoryStore) Projects() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.states))
	for id := range s.states {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
