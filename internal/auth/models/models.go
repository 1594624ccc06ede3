package models

import (
	"strings"
	"time"

	id "grace/pkg/domain"
)

// Role gates access to privileged operations.
type Role string

const (
	RoleUser          Role = "user"
	RoleAdministrator Role = "administrator"
)

// ParseRole accepts role names case-insensitively.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, true
	case RoleAdministrator:
		return RoleAdministrator, true
	default:
		return "", false
	}
}

// Status marks whether a principal may use privileged operations.
type Status string

const (
	StatusActive     Status = "active"
	StatusRestricted Status = "restricted"
)

// ParseStatus accepts status names case-insensitively.
func ParseStatus(s string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusActive:
		return StatusActive, true
	case StatusRestricted:
		return StatusRestricted, true
	default:
		return "", false
	}
}

// Principal is an authenticated identity. PasswordHash never leaves the process.
type Principal struct {
	ID           id.PrincipalID
	ExternalID   string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         Role
	Status       Status
	CreatedAt    time.Time
}

// NewPrincipal builds a User/Active principal with a fresh id.
func NewPrincipal(email, passwordHash, firstName, lastName string, now time.Time) *Principal {
	return &Principal{
		ID:           id.NewPrincipalID(),
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    firstName,
		LastName:     lastName,
		Role:         RoleUser,
		Status:       StatusActive,
		CreatedAt:    now,
	}
}

// IsAdministrator reports whether p may use administrator operations.
func (p *Principal) IsAdministrator() bool {
	return p.Role == RoleAdministrator && p.Status == StatusActive
}

// Session binds a live token to a principal.
type Session struct {
	ID        id.SessionID
	Token     string
	UserID    id.PrincipalID
	CreatedAt time.Time
}

// Profile is the externally visible projection of a Principal.
type Profile struct {
	ID         id.PrincipalID `json:"id"`
	ExternalID string         `json:"externalId,omitempty"`
	Email      string         `json:"email"`
	FirstName  string         `json:"firstName"`
	LastName   string         `json:"lastName"`
	Role       Role           `json:"role"`
	Status     Status         `json:"status"`
}
