package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks PrincipalStore,SessionStore,TokenService,Carrier,PasswordHasher

import (
	"context"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"grace/internal/auth/metrics"
	"grace/internal/auth/models"
	"grace/internal/auth/patch"
	id "grace/pkg/domain"
)

// PrincipalStore defines the persistence interface for principals.
// Error Contract: Find methods and Update return sentinel.ErrNotFound when the
// principal doesn't exist; Create and Update return sentinel.ErrAlreadyUsed on
// an email collision.
type PrincipalStore interface {
	Create(ctx context.Context, principal *models.Principal) error
	FindByID(ctx context.Context, principalID id.PrincipalID) (*models.Principal, error)
	FindByEmail(ctx context.Context, email string) (*models.Principal, error)
	Update(ctx context.Context, principalID id.PrincipalID, patch models.Patch) (*models.Principal, error)
	ListAll(ctx context.Context) ([]*models.Principal, error)
}

// SessionStore is the single source of truth for live sessions.
// Deleting an unknown token reports false and no error.
type SessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	DeleteByToken(ctx context.Context, token string) (bool, error)
}

// TokenService issues session tokens and classifies them by expiry.
type TokenService interface {
	Issue(ctx context.Context, principalID id.PrincipalID) (string, error)
	IsExpired(ctx context.Context, token string) bool
}

// Carrier moves tokens between requests and responses.
type Carrier interface {
	Extract(r *http.Request) string
	Attach(w http.ResponseWriter, principalID id.PrincipalID, token string)
	Clear(w http.ResponseWriter)
}

// PasswordHasher hashes new passwords.
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// Service owns the authentication state machine and the account operations.
// It holds no per-request state: every transition goes through the stores.
type Service struct {
	principals PrincipalStore
	sessions   SessionStore
	tokens     TokenService
	carrier    Carrier
	hasher     PasswordHasher
	projector  *patch.Projector
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTracer overrides the global otel tracer.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func New(
	principals PrincipalStore,
	sessions SessionStore,
	tokens TokenService,
	carrier Carrier,
	hasher PasswordHasher,
	opts ...Option,
) *Service {
	svc := &Service{
		principals: principals,
		sessions:   sessions,
		tokens:     tokens,
		carrier:    carrier,
		hasher:     hasher,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	if svc.tracer == nil {
		svc.tracer = otel.Tracer("grace/auth")
	}

	projectorOpts := []patch.Option{patch.WithLogger(svc.logger)}
	if svc.metrics != nil {
		projectorOpts = append(projectorOpts, patch.WithMetrics(svc.metrics))
	}
	svc.projector = patch.NewProjector(hasher, projectorOpts...)
	return svc
}
