// Package middleware gates routes on the authentication state machine.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"grace/internal/auth/models"
	"grace/internal/auth/strategy"
	"grace/pkg/platform/httputil"
	"grace/pkg/requestcontext"
)

type contextKeyPrincipal struct{}

// WithPrincipal returns a copy of ctx carrying the resolved principal.
func WithPrincipal(ctx context.Context, principal *models.Principal) context.Context {
	return context.WithValue(ctx, contextKeyPrincipal{}, principal)
}

// PrincipalFrom returns the principal resolved for the request, or nil.
func PrincipalFrom(ctx context.Context) *models.Principal {
	principal, _ := ctx.Value(contextKeyPrincipal{}).(*models.Principal)
	return principal
}

// Preventer rejects login attempts from callers holding a live session.
type Preventer interface {
	PreventExistingAuthentication(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

// AdminGuard decides whether a principal may use administrator routes.
type AdminGuard interface {
	RequireAdministrator(ctx context.Context, principal *models.Principal) error
}

// PreventAuth runs before every login route.
func PreventAuth(preventer Preventer, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if err := preventer.PreventExistingAuthentication(ctx, w, r); err != nil {
				logger.InfoContext(ctx, "login attempt blocked",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Authenticate resolves the principal with authenticator and stores it in the
// request context. Rejections are written directly.
func Authenticate(authenticator strategy.Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			principal, err := authenticator.Authenticate(ctx, r)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, principal)))
		})
	}
}

// RequireAdministrator must run after Authenticate.
func RequireAdministrator(guard AdminGuard, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			principal := PrincipalFrom(ctx)
			if err := guard.RequireAdministrator(ctx, principal); err != nil {
				attrs := []any{"error", err, "request_id", requestcontext.RequestID(ctx)}
				if principal != nil {
					attrs = append(attrs, "principal_id", principal.ID.String())
				}
				logger.WarnContext(ctx, "administrator route denied", attrs...)
				httputil.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
