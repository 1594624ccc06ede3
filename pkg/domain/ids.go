// Package domain provides typed identifiers so ids of different entities cannot be mixed.
package domain

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	dErrors "grace/pkg/domain-errors"
)

type (
	// PrincipalID is assigned by the principal store. New principals get a UUID.
	PrincipalID string
	// SessionID identifies a persisted session record. Values are ULIDs.
	SessionID string
)

// NewPrincipalID returns a fresh random principal id.
func NewPrincipalID() PrincipalID {
	return PrincipalID(uuid.NewString())
}

// NewSessionID returns a ULID stamped with now.
func NewSessionID(now time.Time) (SessionID, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return "", err
	}
	return SessionID(id.String()), nil
}

// ParsePrincipalID accepts any non-blank identifier at a trust boundary.
func ParsePrincipalID(s string) (PrincipalID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "principal ID cannot be empty")
	}
	return PrincipalID(s), nil
}

func (id PrincipalID) String() string { return string(id) }
func (id SessionID) String() string   { return string(id) }

func (id PrincipalID) IsNil() bool { return id == "" }
func (id SessionID) IsNil() bool   { return id == "" }
