// Package strategy resolves the principal behind a request. Each variant
// verifies one kind of credential and either returns a principal or a
// generic unauthorized error.
package strategy

import (
	"context"
	"log/slog"
	"net/http"

	"grace/internal/auth/models"
	dErrors "grace/pkg/domain-errors"
	"grace/pkg/requestcontext"
)

const MsgInvalidCredentials = "Invalid credentials."

// Authenticator is the capability every strategy provides.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) (*models.Principal, error)
}

// FailureRecorder counts rejected attempts per strategy.
type FailureRecorder interface {
	IncrementAuthFailures(strategy string)
}

// rejector logs and counts a rejection, then returns the generic error so
// callers cannot tell unknown accounts from bad secrets.
type rejector struct {
	name    string
	logger  *slog.Logger
	metrics FailureRecorder
}

func (rj rejector) reject(ctx context.Context, reason string, attributes ...any) error {
	attributes = append(attributes,
		"strategy", rj.name,
		"reason", reason,
		"request_id", requestcontext.RequestID(ctx),
	)
	rj.logger.WarnContext(ctx, "authentication rejected", attributes...)
	if rj.metrics != nil {
		rj.metrics.IncrementAuthFailures(rj.name)
	}
	return dErrors.New(dErrors.CodeUnauthorized, MsgInvalidCredentials)
}

// internal logs a store failure and hides it behind an internal error.
func (rj rejector) internal(ctx context.Context, msg string, err error) error {
	rj.logger.ErrorContext(ctx, msg,
		"strategy", rj.name,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

// Option configures any strategy.
type Option func(*rejector)

func WithLogger(logger *slog.Logger) Option {
	return func(rj *rejector) {
		rj.logger = logger
	}
}

func WithMetrics(m FailureRecorder) Option {
	return func(rj *rejector) {
		rj.metrics = m
	}
}

func newRejector(name string, opts []Option) rejector {
	rj := rejector{name: name}
	for _, opt := range opts {
		opt(&rj)
	}
	if rj.logger == nil {
		rj.logger = slog.Default()
	}
	return rj
}
