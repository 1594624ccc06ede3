package user

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"grace/internal/auth/models"
	id "grace/pkg/domain"
	"grace/pkg/platform/sentinel"
)

// Error Contract:
// All store methods follow this error pattern:
// - Return ErrNotFound when the requested principal does not exist
// - Return ErrAlreadyUsed when an email or external id is already held by another principal
// - Return wrapped errors with context for infrastructure failures

// InMemoryPrincipalStore keeps principals in memory for tests and local runs.
// Principals are copied on the way in and out so callers never share state
// with the store.
type InMemoryPrincipalStore struct {
	mu         sync.RWMutex
	principals map[id.PrincipalID]*models.Principal
}

// New constructs an empty in-memory principal store.
func New() *InMemoryPrincipalStore {
	return &InMemoryPrincipalStore{principals: make(map[id.PrincipalID]*models.Principal)}
}

func (s *InMemoryPrincipalStore) Create(_ context.Context, principal *models.Principal) error {
	if principal == nil || principal.ID.IsNil() {
		return fmt.Errorf("principal id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.principals[principal.ID]; ok {
		return fmt.Errorf("principal already exists: %w", sentinel.ErrAlreadyUsed)
	}
	if err := s.checkUniqueLocked(principal.ID, principal.Email, principal.ExternalID); err != nil {
		return err
	}
	s.principals[principal.ID] = clone(principal)
	return nil
}

func (s *InMemoryPrincipalStore) FindByID(_ context.Context, principalID id.PrincipalID) (*models.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.principals[principalID]; ok {
		return clone(p), nil
	}
	return nil, fmt.Errorf("principal not found: %w", sentinel.ErrNotFound)
}

func (s *InMemoryPrincipalStore) FindByEmail(_ context.Context, email string) (*models.Principal, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("principal not found: %w", sentinel.ErrNotFound)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.principals {
		if p.Email == email {
			return clone(p), nil
		}
	}
	return nil, fmt.Errorf("principal not found: %w", sentinel.ErrNotFound)
}

func (s *InMemoryPrincipalStore) FindByExternalID(_ context.Context, externalID string) (*models.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p := s.findByExternalIDLocked(externalID); p != nil {
		return clone(p), nil
	}
	return nil, fmt.Errorf("principal not found: %w", sentinel.ErrNotFound)
}

// FindOrCreateByExternalID returns the principal holding principal.ExternalID,
// creating it from principal when none does. The lookup and insert happen under
// one lock so concurrent federated sign-ins converge on a single record.
func (s *InMemoryPrincipalStore) FindOrCreateByExternalID(_ context.Context, principal *models.Principal) (*models.Principal, error) {
	if principal == nil || principal.ExternalID == "" {
		return nil, fmt.Errorf("external id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing := s.findByExternalIDLocked(principal.ExternalID); existing != nil {
		return clone(existing), nil
	}
	if err := s.checkUniqueLocked(principal.ID, principal.Email, ""); err != nil {
		return nil, err
	}
	s.principals[principal.ID] = clone(principal)
	return clone(principal), nil
}

// Update merges patch into the stored principal and returns the result.
func (s *InMemoryPrincipalStore) Update(_ context.Context, principalID id.PrincipalID, patch models.Patch) (*models.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.principals[principalID]
	if !ok {
		return nil, fmt.Errorf("principal not found: %w", sentinel.ErrNotFound)
	}
	updated := patch.Apply(*current)
	if patch.Email != nil {
		if err := s.checkUniqueLocked(principalID, updated.Email, ""); err != nil {
			return nil, err
		}
	}
	s.principals[principalID] = &updated
	return clone(&updated), nil
}

// ListAll returns every principal ordered by creation time.
func (s *InMemoryPrincipalStore) ListAll(_ context.Context) ([]*models.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Principal, 0, len(s.principals))
	for _, p := range s.principals {
		out = append(out, clone(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemoryPrincipalStore) findByExternalIDLocked(externalID string) *models.Principal {
	if externalID == "" {
		return nil
	}
	for _, p := range s.principals {
		if p.ExternalID == externalID {
			return p
		}
	}
	return nil
}

// checkUniqueLocked mirrors the database unique indexes; empty values never collide.
func (s *InMemoryPrincipalStore) checkUniqueLocked(self id.PrincipalID, email, externalID string) error {
	for pid, p := range s.principals {
		if pid == self {
			continue
		}
		if email != "" && p.Email == email {
			return fmt.Errorf("email in use: %w", sentinel.ErrAlreadyUsed)
		}
		if externalID != "" && p.ExternalID == externalID {
			return fmt.Errorf("external id in use: %w", sentinel.ErrAlreadyUsed)
		}
	}
	return nil
}

func clone(p *models.Principal) *models.Principal {
	c := *p
	return &c
}
