package session

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for tests and single-node development.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]*State
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]*State)}
}

func key(quizID string, participantID int) string {
	return fmt.Sprintf("%d/%s", participantID, quizID)
}

func (s *MemoryStore) state(quizID string, participantID int) *State {
	k := key(quizID, participantID)
	st, ok := s.states[k]
	if !ok {
		st = &State{WarningBudget: InitialWarningBudget}
		s.states[k] = st
	}
	return st
}

// GetOrCreateAnchor implements Store.
func (s *MemoryStore) GetOrCreateAnchor(_ context.Context, quizID string, participantID int, now time.Time) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(quizID, participantID)
	if st.Anchor.IsZero() {
		st.Anchor = now
	}
	return st.Anchor, nil
}

// State implements Store.
func (s *MemoryStore) State(_ context.Context, quizID string, participantID int) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.state(quizID, participantID), nil
}

// SetWarningBudget implements Store.
func (s *MemoryStore) SetWarningBudget(_ context.Context, quizID string, participantID int, budget float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state(quizID, participantID).WarningBudget = budget
	return nil
}

// IncrementReload implements Store.
func (s *MemoryStore) IncrementReload(_ context.Context, quizID string, participantID int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(quizID, participantID)
	st.ReloadCount++
	return st.ReloadCount, nil
}

// Reset implements Store.
func (s *MemoryStore) Reset(_ context.Context, quizID string, participantID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, key(quizID, participantID))
	return nil
}
