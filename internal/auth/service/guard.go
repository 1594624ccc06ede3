package service

import (
	"context"

	"grace/internal/auth/models"
	dErrors "grace/pkg/domain-errors"
)

const MsgAccessDenied = "Oops! You don't have access to this resource. Contact an administrator if this seems incorrect."

// RequireAdministrator allows only active administrators. A principal
// without an email never resolved, which is an internal error rather than a
// denial.
func (s *Service) RequireAdministrator(ctx context.Context, principal *models.Principal) error {
	if principal == nil || principal.Email == "" {
		s.logInconsistency(ctx, "authorization check without a resolved principal", nil)
		return dErrors.New(dErrors.CodeInternal, "principal is not resolved")
	}
	if !principal.IsAdministrator() {
		s.logger.InfoContext(ctx, "administrator access denied",
			"principal_id", principal.ID.String(),
			"role", string(principal.Role),
			"status", string(principal.Status),
		)
		return dErrors.New(dErrors.CodeForbidden, MsgAccessDenied)
	}
	return nil
}
