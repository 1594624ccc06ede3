package strategy

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"grace/internal/auth/models"
	"grace/internal/auth/password"
	"grace/internal/platform/privacy"
	"grace/pkg/platform/sentinel"
	strutil "grace/pkg/string"
	"grace/pkg/validation"
)

// maxCredentialBody bounds the sign-in body.
const maxCredentialBody = 1 << 16

// PasswordPrincipals looks principals up by email.
type PasswordPrincipals interface {
	FindByEmail(ctx context.Context, email string) (*models.Principal, error)
}

// PasswordVerifier compares a stored hash with a plaintext password.
type PasswordVerifier interface {
	Compare(hash, plain string) error
}

// Password authenticates a JSON {email, password} body.
type Password struct {
	principals PasswordPrincipals
	verifier   PasswordVerifier
	rejector
}

func NewPassword(principals PasswordPrincipals, verifier PasswordVerifier, opts ...Option) *Password {
	return &Password{
		principals: principals,
		verifier:   verifier,
		rejector:   newRejector("password", opts),
	}
}

func (p *Password) Authenticate(ctx context.Context, r *http.Request) (*models.Principal, error) {
	var req models.SigninRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxCredentialBody)).Decode(&req); err != nil {
		return nil, p.reject(ctx, "malformed_body")
	}

	email := strutil.NormalizeEmail(req.Email)
	if !validation.IsEmail(email) || req.Password == "" {
		return nil, p.reject(ctx, "malformed_credentials")
	}

	principal, err := p.principals.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, p.reject(ctx, "unknown_account", "email", privacy.MaskEmail(email))
		}
		return nil, p.internal(ctx, "failed to look up principal", err)
	}

	if err := p.verifier.Compare(principal.PasswordHash, req.Password); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return nil, p.reject(ctx, "password_mismatch", "principal_id", principal.ID.String())
		}
		return nil, p.internal(ctx, "failed to verify password", err)
	}
	return principal, nil
}
