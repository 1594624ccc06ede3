package testutil

import (
	"time"

	"grace/internal/auth/models"
	id "grace/pkg/domain"
)

// Fixed identifiers for deterministic test data.
var TestIDs = struct {
	PrincipalID1 id.PrincipalID
	PrincipalID2 id.PrincipalID
	AdminID      id.PrincipalID
}{
	PrincipalID1: "11111111-1111-1111-1111-111111111111",
	PrincipalID2: "22222222-2222-2222-2222-222222222222",
	AdminID:      "aaaa0000-0000-0000-0000-000000000001",
}

// FixedTime is the clock every fixture is stamped with.
var FixedTime = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

// PrincipalOption mutates a fixture principal.
type PrincipalOption func(*models.Principal)

func WithEmail(email string) PrincipalOption {
	return func(p *models.Principal) { p.Email = email }
}

func WithPasswordHash(hash string) PrincipalOption {
	return func(p *models.Principal) { p.PasswordHash = hash }
}

func WithRole(role models.Role) PrincipalOption {
	return func(p *models.Principal) { p.Role = role }
}

func WithStatus(status models.Status) PrincipalOption {
	return func(p *models.Principal) { p.Status = status }
}

func WithExternalID(externalID string) PrincipalOption {
	return func(p *models.Principal) { p.ExternalID = externalID }
}

// NewPrincipal returns an active user "Test User" with the given id.
func NewPrincipal(principalID id.PrincipalID, opts ...PrincipalOption) *models.Principal {
	p := &models.Principal{
		ID:        principalID,
		Email:     "test-" + principalID.String() + "@example.com",
		FirstName: "Test",
		LastName:  "User",
		Role:      models.RoleUser,
		Status:    models.StatusActive,
		CreatedAt: FixedTime,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewAdministrator returns an active administrator.
func NewAdministrator(opts ...PrincipalOption) *models.Principal {
	return NewPrincipal(TestIDs.AdminID, append([]PrincipalOption{WithRole(models.RoleAdministrator)}, opts...)...)
}

// NewSession binds token to principalID at FixedTime.
func NewSession(principalID id.PrincipalID, token string) *models.Session {
	sid, err := id.NewSessionID(FixedTime)
	if err != nil {
		panic(err)
	}
	return &models.Session{
		ID:        sid,
		Token:     token,
		UserID:    principalID,
		CreatedAt: FixedTime,
	}
}
