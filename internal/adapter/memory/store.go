package memory

import (
	"sync"

	"sixhats/internal/domain"
)

// Store keeps session state in process memory. Nothing survives a restart.
type Store struct {
	mu       sync.Mutex
	sessions map[string]domain.SessionState
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]domain.SessionState),
	}
}

func (s *Store) Load(key string) domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneState(s.sessions[key])
}

func (s *Store) Save(key string, state domain.SessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[key] = cloneState(state)
}

func (s *Store) Clear(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key)
}

func cloneState(state domain.SessionState) domain.SessionState {
	out := domain.SessionState{
		Transcript: domain.CloneTranscript(state.Transcript),
	}
	if state.Synthesis != nil {
		synthesis := *state.Synthesis
		out.Synthesis = &synthesis
	}
	return out
}
