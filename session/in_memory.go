package session

import (
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/hupe1980/quillmesh/core"
)

// ErrNotFound is returned when no record exists for a run id.
var ErrNotFound = errors.New("session not found")

// Store persists run state snapshots.
type Store interface {
	Save(st *core.State) error
	Get(runID string) (*core.State, error)
	List() ([]Summary, error)
	Delete(runID string) error
}

// Summary is the listing view of a stored run.
type Summary struct {
	RunID      string
	Topic      string
	Version    int
	Errors     int
	Iterations int
}

// InMemoryStore is a volatile Store implementation storing snapshots in a
// process local map. It is safe for concurrent access and best suited for
// tests or the CLI. Each returned state is cloned to prevent external
// mutation of internal state.
type InMemoryStore struct {
	mu     sync.RWMutex
	states map[string]*core.State
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{states: make(map[string]*core.State)}
}

// Save stores a clone of the provided snapshot, replacing any previous
// snapshot of the same run.
func (s *InMemoryStore) Save(st *core.State) error {
	if st == nil || st.RunID == "" {
		return errors.New("session: state without run id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[st.RunID] = st.Clone()
	return nil
}

// Get returns a clone of the stored snapshot or ErrNotFound.
func (s *InMemoryStore) Get(runID string) (*core.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[runID]
	if !ok {
		return nil, ErrNotFound
	}
	return st.Clone(), nil
}

// List returns a summary per stored run ordered by run id.
func (s *InMemoryStore) List() ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Summary, 0, len(s.states))
	for _, st := range s.states {
		out = append(out, Summary{
			RunID:      st.RunID,
			Topic:      st.Topic,
			Version:    st.Version,
			Errors:     len(st.ErrorLog),
			Iterations: st.DraftIterations,
		})
	}
	slices.SortFunc(out, func(a, b Summary) int { return strings.Compare(a.RunID, b.RunID) })
	return out, nil
}

// Delete removes the run record or returns ErrNotFound.
func (s *InMemoryStore) Delete(runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.states[runID]; !ok {
		return ErrNotFound
	}
	delete(s.states, runID)
	return nil
}
