package service

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/attribute"

	"grace/internal/auth/models"
	id "grace/pkg/domain"
	dErrors "grace/pkg/domain-errors"
	"grace/pkg/platform/middleware/requesttime"
)

const MsgAlreadySignedIn = "You are already signed in."

// PreventExistingAuthentication runs before every login attempt. A session
// named by the request's token is deleted and cleared from the carrier no
// matter what; the attempt is then rejected if that token had not expired.
func (s *Service) PreventExistingAuthentication(ctx context.Context, w http.ResponseWriter, r *http.Request) (err error) {
	token := s.carrier.Extract(r)
	if token == "" {
		return nil
	}

	ctx, span := s.startSpan(ctx, "prevent_existing")
	defer func() { endSpan(span, err) }()

	if _, err := s.sessions.DeleteByToken(ctx, token); err != nil {
		s.logInconsistency(ctx, "failed to delete existing session", err)
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete existing session")
	}
	s.carrier.Clear(w)

	if !s.tokens.IsExpired(ctx, token) {
		span.SetAttributes(attribute.Bool("auth.live_session", true))
		s.logEvent(ctx, "duplicate_login_rejected")
		s.incrementDuplicateLogins()
		return dErrors.New(dErrors.CodeForbidden, MsgAlreadySignedIn)
	}

	s.incrementStaleSessions()
	return nil
}

// CommitAuthentication issues a token for a verified principal, stores the
// session and attaches the token to the response. Any session already named
// by the request is deleted first.
func (s *Service) CommitAuthentication(ctx context.Context, w http.ResponseWriter, r *http.Request, principal *models.Principal) (token string, err error) {
	if principal == nil || principal.ID.IsNil() {
		s.logInconsistency(ctx, "commit without a resolved principal", nil)
		return "", dErrors.New(dErrors.CodeInternal, "principal id is required to commit a session")
	}

	ctx, span := s.startSpan(ctx, "commit", attribute.String("principal.id", principal.ID.String()))
	defer func() { endSpan(span, err) }()

	if existing := s.carrier.Extract(r); existing != "" {
		if _, err := s.sessions.DeleteByToken(ctx, existing); err != nil {
			s.logInconsistency(ctx, "failed to delete prior session", err, "principal_id", principal.ID.String())
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete prior session")
		}
	}

	token, err = s.tokens.Issue(ctx, principal.ID)
	if err != nil {
		s.logInconsistency(ctx, "failed to issue token", err, "principal_id", principal.ID.String())
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	now := requesttime.Now(ctx)
	sessionID, err := id.NewSessionID(now)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate session id")
	}
	if err := s.sessions.Create(ctx, &models.Session{
		ID:        sessionID,
		Token:     token,
		UserID:    principal.ID,
		CreatedAt: now,
	}); err != nil {
		s.logInconsistency(ctx, "failed to store session", err, "principal_id", principal.ID.String())
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to store session")
	}

	s.carrier.Attach(w, principal.ID, token)
	s.logEvent(ctx, "session_committed",
		"principal_id", principal.ID.String(),
		"session_id", sessionID.String(),
	)
	s.incrementSessionsCommitted()
	return token, nil
}

// RevokeAuthentication deletes the caller's session and clears the carrier.
// A token with no stored session is not an error.
func (s *Service) RevokeAuthentication(ctx context.Context, w http.ResponseWriter, r *http.Request, principal *models.Principal) (err error) {
	if principal == nil || principal.ID.IsNil() {
		s.logInconsistency(ctx, "revoke without a resolved principal", nil)
		return dErrors.New(dErrors.CodeInternal, "principal id is required to revoke a session")
	}

	ctx, span := s.startSpan(ctx, "revoke", attribute.String("principal.id", principal.ID.String()))
	defer func() { endSpan(span, err) }()

	if token := s.carrier.Extract(r); token != "" {
		deleted, err := s.sessions.DeleteByToken(ctx, token)
		if err != nil {
			s.logInconsistency(ctx, "failed to delete session", err, "principal_id", principal.ID.String())
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete session")
		}
		if deleted {
			s.incrementSessionsRevoked()
		}
	}
	s.carrier.Clear(w)

	s.logEvent(ctx, "session_revoked", "principal_id", principal.ID.String())
	return nil
}
