package service

import (
	"context"
	"errors"

	"grace/internal/auth/models"
	id "grace/pkg/domain"
	dErrors "grace/pkg/domain-errors"
	"grace/pkg/platform/middleware/requesttime"
	"grace/pkg/platform/sentinel"
	strutil "grace/pkg/string"
)

const (
	MsgAccountExists = "A user account already exists with this email address."
	MsgEmailTaken    = "A user already exists with this email address."
	MsgUnknownTarget = "Unable to find a user matching the provided identifier."
)

// CreatePrincipal registers a user/active principal with a hashed password.
func (s *Service) CreatePrincipal(ctx context.Context, req *models.SignupRequest) (*models.Principal, error) {
	email := strutil.NormalizeEmail(req.Email)

	_, err := s.principals.FindByEmail(ctx, email)
	if err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, MsgAccountExists)
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		s.logInconsistency(ctx, "failed to look up principal by email", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up principal")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	principal := models.NewPrincipal(email, hash, req.FirstName, req.LastName, requesttime.Now(ctx))
	if err := s.principals.Create(ctx, principal); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, MsgAccountExists)
		}
		s.logInconsistency(ctx, "failed to create principal", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create principal")
	}

	s.logEvent(ctx, "principal_created", "principal_id", principal.ID.String())
	s.incrementPrincipalsCreated()
	return principal, nil
}

// ListPrincipals returns every principal without its password hash. At least
// the caller exists, so an empty result means the store is broken.
func (s *Service) ListPrincipals(ctx context.Context) ([]models.PrincipalView, error) {
	principals, err := s.principals.ListAll(ctx)
	if err != nil {
		s.logInconsistency(ctx, "failed to list principals", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list principals")
	}
	if len(principals) == 0 {
		s.logInconsistency(ctx, "principal listing returned nothing", nil)
		return nil, dErrors.New(dErrors.CodeInternal, "no principals found")
	}

	views := make([]models.PrincipalView, 0, len(principals))
	for _, p := range principals {
		views = append(views, models.NewPrincipalView(p))
	}
	return views, nil
}

// UpdateOwn applies a self-service profile update for current.
func (s *Service) UpdateOwn(ctx context.Context, current *models.Principal, req *models.UpdateRequest) (*models.Principal, error) {
	if current == nil || current.ID.IsNil() {
		s.logInconsistency(ctx, "update without a resolved principal", nil)
		return nil, dErrors.New(dErrors.CodeInternal, "principal is not resolved")
	}

	patch, err := s.projector.Self(ctx, current, req)
	if err != nil {
		return nil, err
	}

	if patch.Email != nil {
		owner, err := s.principals.FindByEmail(ctx, *patch.Email)
		switch {
		case err == nil && owner.ID != current.ID:
			return nil, dErrors.New(dErrors.CodeConflict, MsgEmailTaken)
		case err != nil && !errors.Is(err, sentinel.ErrNotFound):
			s.logInconsistency(ctx, "failed to look up principal by email", err)
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up principal")
		}
	}

	return s.apply(ctx, current.ID, patch)
}

// AdminUpdate applies an administrator update to the principal named by req.ID.
func (s *Service) AdminUpdate(ctx context.Context, req *models.UpdateRequest) (*models.Principal, error) {
	targetID, err := id.ParsePrincipalID(req.ID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, models.MsgMissingIdentifier)
	}

	if _, err := s.principals.FindByID(ctx, targetID); err != nil {
		s.logInconsistency(ctx, "administrator update target missing", err, "principal_id", targetID.String())
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, MsgUnknownTarget)
	}

	patch, err := s.projector.Admin(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, targetID, patch)
}

func (s *Service) apply(ctx context.Context, principalID id.PrincipalID, patch models.Patch) (*models.Principal, error) {
	if patch.IsEmpty() {
		current, err := s.principals.FindByID(ctx, principalID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, MsgUnknownTarget)
		}
		return current, nil
	}

	updated, err := s.principals.Update(ctx, principalID, patch)
	if err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, MsgEmailTaken)
		}
		s.logInconsistency(ctx, "failed to update principal", err, "principal_id", principalID.String())
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update principal")
	}

	s.logEvent(ctx, "principal_updated", "principal_id", principalID.String())
	return updated, nil
}

// EnsureAdministrator creates an active administrator for email unless a
// principal already holds it. It reports whether one was created.
func (s *Service) EnsureAdministrator(ctx context.Context, email, password string) (bool, error) {
	email = strutil.NormalizeEmail(email)
	if email == "" || password == "" {
		return false, dErrors.New(dErrors.CodeBadRequest, "administrator email and password are required")
	}

	_, err := s.principals.FindByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up administrator")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash administrator password")
	}
	admin := models.NewPrincipal(email, hash, "Grace", "Administrator", requesttime.Now(ctx))
	admin.Role = models.RoleAdministrator

	if err := s.principals.Create(ctx, admin); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create administrator")
	}
	s.logEvent(ctx, "administrator_bootstrapped", "principal_id", admin.ID.String())
	s.incrementPrincipalsCreated()
	return true, nil
}
