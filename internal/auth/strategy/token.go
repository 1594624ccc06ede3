package strategy

import (
	"context"
	"errors"
	"net/http"

	"grace/internal/auth/models"
	jwttoken "grace/internal/jwt_token"
	id "grace/pkg/domain"
	"grace/pkg/platform/sentinel"
)

// TokenExtractor reads the token from the configured carrier.
type TokenExtractor interface {
	Extract(r *http.Request) string
}

// TokenValidator verifies signature and expiry.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*jwttoken.Claims, error)
}

// TokenSessions looks up live sessions.
type TokenSessions interface {
	FindByToken(ctx context.Context, token string) (*models.Session, error)
}

// TokenPrincipals loads principals by id.
type TokenPrincipals interface {
	FindByID(ctx context.Context, principalID id.PrincipalID) (*models.Principal, error)
}

// Token authenticates the session token carried by the request. It always
// verifies the signature and requires a stored session for the token.
type Token struct {
	carrier    TokenExtractor
	tokens     TokenValidator
	sessions   TokenSessions
	principals TokenPrincipals
	rejector
}

func NewToken(carrier TokenExtractor, tokens TokenValidator, sessions TokenSessions, principals TokenPrincipals, opts ...Option) *Token {
	return &Token{
		carrier:    carrier,
		tokens:     tokens,
		sessions:   sessions,
		principals: principals,
		rejector:   newRejector("token", opts),
	}
}

func (t *Token) Authenticate(ctx context.Context, r *http.Request) (*models.Principal, error) {
	token := t.carrier.Extract(r)
	if token == "" {
		return nil, t.reject(ctx, "missing_token")
	}

	claims, err := t.tokens.Validate(ctx, token)
	if err != nil {
		return nil, t.reject(ctx, "invalid_token", "error", err)
	}

	session, err := t.sessions.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, t.reject(ctx, "no_session", "principal_id", claims.ID)
		}
		return nil, t.internal(ctx, "failed to look up session", err)
	}
	if session.UserID != claims.PrincipalID() {
		return nil, t.reject(ctx, "session_owner_mismatch",
			"principal_id", claims.ID,
			"session_id", session.ID.String(),
		)
	}

	principal, err := t.principals.FindByID(ctx, claims.PrincipalID())
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, t.reject(ctx, "unknown_account", "principal_id", claims.ID)
		}
		return nil, t.internal(ctx, "failed to load principal", err)
	}
	return principal, nil
}
