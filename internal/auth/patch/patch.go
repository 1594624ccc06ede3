// Package patch turns update request bodies into sparse principal patches.
package patch

import (
	"context"
	"log/slog"

	"grace/internal/auth/models"
	dErrors "grace/pkg/domain-errors"
	s "grace/pkg/string"
)

const MsgSameEmail = "You are already using this email address."

// Builder accumulates optional field updates. Every method returns a new
// Builder; the receiver is never modified.
type Builder struct {
	patch models.Patch
}

func (b Builder) PasswordHash(hash string) Builder {
	b.patch.PasswordHash = &hash
	return b
}

func (b Builder) Email(email string) Builder {
	b.patch.Email = &email
	return b
}

func (b Builder) FirstName(name string) Builder {
	b.patch.FirstName = &name
	return b
}

func (b Builder) LastName(name string) Builder {
	b.patch.LastName = &name
	return b
}

func (b Builder) Role(role models.Role) Builder {
	b.patch.Role = &role
	return b
}

func (b Builder) Status(status models.Status) Builder {
	b.patch.Status = &status
	return b
}

// Build returns the accumulated patch.
func (b Builder) Build() models.Patch {
	return b.patch
}

// Hasher re-hashes a new password before it is stored.
type Hasher interface {
	Hash(plain string) (string, error)
}

// DropRecorder counts fields dropped from administrator updates.
type DropRecorder interface {
	IncrementDroppedField(field string)
}

// Projector maps update requests onto patches.
type Projector struct {
	hasher  Hasher
	logger  *slog.Logger
	metrics DropRecorder
}

type Option func(*Projector)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Projector) {
		p.logger = logger
	}
}

func WithMetrics(m DropRecorder) Option {
	return func(p *Projector) {
		p.metrics = m
	}
}

func NewProjector(hasher Hasher, opts ...Option) *Projector {
	p := &Projector{hasher: hasher}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Self projects a profile update by the principal itself. Role and status
// are ignored. An email equal to the current one is rejected as a no-op.
func (p *Projector) Self(_ context.Context, current *models.Principal, req *models.UpdateRequest) (models.Patch, error) {
	b, err := p.common(req)
	if err != nil {
		return models.Patch{}, err
	}
	out := b.Build()
	if out.Email != nil && current != nil && *out.Email == s.NormalizeEmail(current.Email) {
		return models.Patch{}, dErrors.New(dErrors.CodeBadRequest, MsgSameEmail)
	}
	return out, nil
}

// Admin projects an administrator update. Role and status are copied when
// they parse; anything else is logged and left out of the patch.
func (p *Projector) Admin(ctx context.Context, req *models.UpdateRequest) (models.Patch, error) {
	b, err := p.common(req)
	if err != nil {
		return models.Patch{}, err
	}

	if req.Role != "" {
		if role, ok := models.ParseRole(req.Role); ok {
			b = b.Role(role)
		} else {
			p.dropped(ctx, req.ID, "role", req.Role)
		}
	}
	if req.Status != "" {
		if status, ok := models.ParseStatus(req.Status); ok {
			b = b.Status(status)
		} else {
			p.dropped(ctx, req.ID, "status", req.Status)
		}
	}
	return b.Build(), nil
}

func (p *Projector) common(req *models.UpdateRequest) (Builder, error) {
	var b Builder
	if req == nil {
		return b, nil
	}
	if req.Password != "" {
		hash, err := p.hasher.Hash(req.Password)
		if err != nil {
			return b, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
		}
		b = b.PasswordHash(hash)
	}
	if req.Email != "" {
		b = b.Email(s.NormalizeEmail(req.Email))
	}
	if req.FirstName != "" {
		b = b.FirstName(req.FirstName)
	}
	if req.LastName != "" {
		b = b.LastName(req.LastName)
	}
	return b, nil
}

func (p *Projector) dropped(ctx context.Context, target, field, value string) {
	p.logger.WarnContext(ctx, "dropping unparseable update field",
		"principal_id", target,
		"field", field,
		"value", value,
	)
	if p.metrics != nil {
		p.metrics.IncrementDroppedField(field)
	}
}
