package jwttoken

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "grace/pkg/domain"
	dErrors "grace/pkg/domain-errors"
	"grace/pkg/platform/middleware/requesttime"
)

// DefaultTTL is the fixed session token lifetime.
const DefaultTTL = 30 * 24 * time.Hour

// Claims is the session token payload: {id, iat, exp, jti}. The jti keeps
// tokens issued for one principal within the same second distinct.
type Claims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

// PrincipalID returns the principal the token was issued for.
func (c *Claims) PrincipalID() id.PrincipalID {
	return id.PrincipalID(c.ID)
}

// JWTService issues and verifies HS256 session tokens.
// The signing key is fixed at construction and never mutated, so a single
// instance is safe to share across requests.
type JWTService struct {
	signingKey []byte
	tokenTTL   time.Duration
}

// NewJWTService builds a service signing with signingKey. A non-positive ttl
// falls back to DefaultTTL.
func NewJWTService(signingKey string, tokenTTL time.Duration) *JWTService {
	if tokenTTL <= 0 {
		tokenTTL = DefaultTTL
	}
	return &JWTService{
		signingKey: []byte(signingKey),
		tokenTTL:   tokenTTL,
	}
}

// TTL returns the lifetime stamped into every issued token.
func (s *JWTService) TTL() time.Duration {
	return s.tokenTTL
}

// Issue signs a token for principalID valid from the request time for TTL.
func (s *JWTService) Issue(ctx context.Context, principalID id.PrincipalID) (string, error) {
	if principalID.IsNil() {
		return "", dErrors.New(dErrors.CodeInternal, "principal id is required to issue a token")
	}
	now := requesttime.Now(ctx)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		ID: principalID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	return signed, nil
}

// Validate verifies signature, algorithm and expiry. This is the only parse
// path allowed to resolve an identity.
func (s *JWTService) Validate(ctx context.Context, tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "empty token")
	}
	now := requesttime.Now(ctx)

	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	if claims.ID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token has no principal")
	}
	return claims, nil
}

// DecodeUnsafe reads the claims WITHOUT verifying the signature.
//
// SECURITY WARNING: a forged token with a future exp decodes fine here. Use it
// only to classify a token as expired before discarding it. Never resolve an
// identity from the result; use Validate for that.
func DecodeUnsafe(tokenString string) (*Claims, bool) {
	if tokenString == "" {
		return nil, false
	}
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, false
	}
	return claims, true
}

// IsExpired reports whether the token is past its exp at the request time.
// Undecodable tokens count as expired. A token without exp never expires;
// every token issued here carries one.
func IsExpired(ctx context.Context, tokenString string) bool {
	claims, ok := DecodeUnsafe(tokenString)
	if !ok {
		return true
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !claims.ExpiresAt.After(requesttime.Now(ctx))
}

// IsExpired is IsExpired bound to the service so callers can depend on an interface.
func (s *JWTService) IsExpired(ctx context.Context, tokenString string) bool {
	return IsExpired(ctx, tokenString)
}
