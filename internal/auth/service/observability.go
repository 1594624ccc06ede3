package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"grace/pkg/requestcontext"
)

// startSpan opens a span for a state transition.
func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "auth."+name, trace.WithAttributes(attrs...))
}

// endSpan records err on span and closes it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *Service) logEvent(ctx context.Context, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	s.logger.InfoContext(ctx, event, append(attributes, "event", event)...)
}

// logInconsistency records a broken identity or store failure with full
// context. The caller only ever sees the generic internal message.
func (s *Service) logInconsistency(ctx context.Context, msg string, err error, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	if err != nil {
		attributes = append(attributes, "error", err)
	}
	s.logger.ErrorContext(ctx, msg, attributes...)
}

func (s *Service) incrementPrincipalsCreated() {
	if s.metrics != nil {
		s.metrics.IncrementPrincipalsCreated()
	}
}

func (s *Service) incrementSessionsCommitted() {
	if s.metrics != nil {
		s.metrics.IncrementSessionsCommitted()
	}
}

func (s *Service) incrementSessionsRevoked() {
	if s.metrics != nil {
		s.metrics.IncrementSessionsRevoked()
	}
}

func (s *Service) incrementDuplicateLogins() {
	if s.metrics != nil {
		s.metrics.IncrementDuplicateLogins()
	}
}

func (s *Service) incrementStaleSessions() {
	if s.metrics != nil {
		s.metrics.IncrementStaleSessions()
	}
}
