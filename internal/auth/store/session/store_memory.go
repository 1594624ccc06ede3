package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"grace/internal/auth/models"
	id "grace/pkg/domain"
	"grace/pkg/platform/sentinel"
)

// Error Contract:
// - FindByToken returns sentinel.ErrNotFound when no session holds the token
// - DeleteByToken reports false, not an error, when there was nothing to delete
// - Infrastructure failures come back wrapped with context
//
// InMemorySessionStore keeps sessions keyed by token for tests and local runs.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
}

// New constructs an empty in-memory session store.
func New() *InMemorySessionStore {
	return &InMemorySessionStore{sessions: make(map[string]*models.Session)}
}

func (s *InMemorySessionStore) Create(_ context.Context, session *models.Session) error {
	if session == nil || session.Token == "" {
		return fmt.Errorf("session token is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.Token]; ok {
		return fmt.Errorf("session token in use: %w", sentinel.ErrAlreadyUsed)
	}
	stored := *session
	s.sessions[session.Token] = &stored
	return nil
}

func (s *InMemorySessionStore) FindByToken(_ context.Context, token string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if session, ok := s.sessions[token]; ok {
		found := *session
		return &found, nil
	}
	return nil, fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
}

func (s *InMemorySessionStore) DeleteByToken(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[token]; !ok {
		return false, nil
	}
	delete(s.sessions, token)
	return true, nil
}

// DeleteCreatedBefore removes sessions created strictly before cutoff.
func (s *InMemorySessionStore) DeleteCreatedBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for token, session := range s.sessions {
		if session.CreatedAt.Before(cutoff) {
			delete(s.sessions, token)
			deleted++
		}
	}
	return deleted, nil
}

// CountByUser returns how many live sessions belong to userID.
func (s *InMemorySessionStore) CountByUser(_ context.Context, userID id.PrincipalID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, session := range s.sessions {
		if session.UserID == userID {
			n++
		}
	}
	return n
}
