package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"grace/pkg/platform/middleware/requesttime"
)

// SessionStore exposes cleanup for sessions older than the token lifetime.
type SessionStore interface {
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// PurgeRecorder counts purged sessions.
type PurgeRecorder interface {
	AddSessionsPurged(n int)
}

// CleanupService periodically removes sessions whose token can no longer be
// valid. Such sessions are unreachable by the token strategy, so the sweep is
// housekeeping only.
type CleanupService struct {
	sessionStore SessionStore
	tokenTTL     time.Duration
	interval     time.Duration
	logger       *slog.Logger
	metrics      PurgeRecorder
}

// CleanupOption configures CleanupService.
type CleanupOption func(*CleanupService)

// WithCleanupInterval overrides the cleanup interval when greater than zero.
func WithCleanupInterval(interval time.Duration) CleanupOption {
	return func(s *CleanupService) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithCleanupLogger overrides the logger used for cleanup errors.
func WithCleanupLogger(logger *slog.Logger) CleanupOption {
	return func(s *CleanupService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCleanupMetrics records purge counts.
func WithCleanupMetrics(m PurgeRecorder) CleanupOption {
	return func(s *CleanupService) {
		s.metrics = m
	}
}

// New constructs a CleanupService deleting sessions created more than tokenTTL ago.
func New(sessionStore SessionStore, tokenTTL time.Duration, opts ...CleanupOption) (*CleanupService, error) {
	if sessionStore == nil {
		return nil, fmt.Errorf("sessionStore is required")
	}
	if tokenTTL <= 0 {
		return nil, fmt.Errorf("tokenTTL must be positive, got %s", tokenTTL)
	}
	svc := &CleanupService{
		sessionStore: sessionStore,
		tokenTTL:     tokenTTL,
		interval:     time.Hour,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc, nil
}

// Start runs cleanup periodically until ctx is cancelled.
func (s *CleanupService) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.ErrorContext(ctx, "session cleanup failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunOnce deletes every session created before now minus the token lifetime
// and returns how many were removed.
func (s *CleanupService) RunOnce(ctx context.Context) (int, error) {
	cutoff := requesttime.Now(ctx).Add(-s.tokenTTL)

	deleted, err := s.sessionStore.DeleteCreatedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	if deleted > 0 {
		s.logger.InfoContext(ctx, "expired sessions purged", "count", deleted, "cutoff", cutoff)
		if s.metrics != nil {
			s.metrics.AddSessionsPurged(deleted)
		}
	}
	return deleted, nil
}
