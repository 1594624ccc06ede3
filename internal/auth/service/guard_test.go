package service

import (
	"grace/internal/auth/models"
	dErrors "grace/pkg/domain-errors"
	"grace/pkg/testutil"
)

func (s *ServiceSuite) TestRequireAdministrator() {
	tests := []struct {
		name      string
		principal *models.Principal
		wantCode  dErrors.Code
	}{
		{
			name:      "active administrator",
			principal: testutil.NewAdministrator(),
		},
		{
			name:      "restricted administrator",
			principal: testutil.NewAdministrator(testutil.WithStatus(models.StatusRestricted)),
			wantCode:  dErrors.CodeForbidden,
		},
		{
			name:      "active user",
			principal: testutil.NewPrincipal(testutil.TestIDs.PrincipalID1),
			wantCode:  dErrors.CodeForbidden,
		},
		{
			name:      "unknown role",
			principal: testutil.NewPrincipal(testutil.TestIDs.PrincipalID1, testutil.WithRole("owner")),
			wantCode:  dErrors.CodeForbidden,
		},
		{
			name:      "unresolved principal without email",
			principal: testutil.NewAdministrator(testutil.WithEmail("")),
			wantCode:  dErrors.CodeInternal,
		},
		{
			name:     "nil principal",
			wantCode: dErrors.CodeInternal,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			err := s.service.RequireAdministrator(s.ctx, tt.principal)
			if tt.wantCode == "" {
				s.NoError(err)
				return
			}
			s.Require().Error(err)
			s.Equal(tt.wantCode, dErrors.CodeOf(err))
			if tt.wantCode == dErrors.CodeForbidden {
				s.Equal(MsgAccessDenied, err.Error())
			}
		})
	}
}
