package service

import (
	"errors"
	"fmt"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/mock/gomock"

	"grace/internal/auth/models"
	dErrors "grace/pkg/domain-errors"
	"grace/pkg/platform/sentinel"
	"grace/pkg/testutil"
)

var errNotFound = fmt.Errorf("principal not found: %w", sentinel.ErrNotFound)

func (s *ServiceSuite) TestCreatePrincipal() {
	req := &models.SignupRequest{
		Email:     "Jane.Doe@Example.com",
		Password:  "correct horse",
		FirstName: "Jane",
		LastName:  "Doe",
	}

	s.Run("creates an active user with a hashed password", func() {
		s.mockPrincipals.EXPECT().FindByEmail(gomock.Any(), "jane.doe@example.com").Return(nil, errNotFound)
		s.mockHasher.EXPECT().Hash("correct horse").Return("bcrypt-hash", nil)
		s.mockPrincipals.EXPECT().Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, p *models.Principal) error {
				s.Equal("jane.doe@example.com", p.Email)
				s.Equal("bcrypt-hash", p.PasswordHash)
				s.Equal(models.RoleUser, p.Role)
				s.Equal(models.StatusActive, p.Status)
				s.Equal(testutil.FixedTime, p.CreatedAt)
				return nil
			})

		p, err := s.service.CreatePrincipal(s.ctx, req)
		s.Require().NoError(err)
		s.False(p.ID.IsNil())
		s.Equal(1.0, promtestutil.ToFloat64(s.metrics.PrincipalsCreated))
	})

	s.Run("existing email is a conflict", func() {
		s.mockPrincipals.EXPECT().FindByEmail(gomock.Any(), "jane.doe@example.com").
			Return(testutil.NewPrincipal(testutil.TestIDs.PrincipalID1), nil)

		_, err := s.service.CreatePrincipal(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Equal(MsgAccountExists, err.Error())
	})

	s.Run("racing insert is a conflict", func() {
		s.mockPrincipals.EXPECT().FindByEmail(gomock.Any(), gomock.Any()).Return(nil, errNotFound)
		s.mockHasher.EXPECT().Hash(gomock.Any()).Return("bcrypt-hash", nil)
		s.mockPrincipals.EXPECT().Create(gomock.Any(), gomock.Any()).Return(sentinel.ErrAlreadyUsed)

		_, err := s.service.CreatePrincipal(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("lookup failure is internal", func() {
		s.mockPrincipals.EXPECT().FindByEmail(gomock.Any(), gomock.Any()).Return(nil, errors.New("timeout"))

		_, err := s.service.CreatePrincipal(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestListPrincipals() {
	s.Run("projects every principal without password", func() {
		s.mockPrincipals.EXPECT().ListAll(gomock.Any()).Return([]*models.Principal{
			testutil.NewPrincipal(testutil.TestIDs.PrincipalID1, testutil.WithPasswordHash("secret")),
			testutil.NewAdministrator(),
		}, nil)

		views, err := s.service.ListPrincipals(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(views, 2)
		s.Equal(testutil.TestIDs.PrincipalID1, views[0].ID)
		s.Equal(models.RoleAdministrator, views[1].Role)
	})

	s.Run("empty listing is internal", func() {
		s.mockPrincipals.EXPECT().ListAll(gomock.Any()).Return(nil, nil)

		_, err := s.service.ListPrincipals(s.ctx)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("store failure is internal", func() {
		s.mockPrincipals.EXPECT().ListAll(gomock.Any()).Return(nil, errors.New("timeout"))

		_, err := s.service.ListPrincipals(s.ctx)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestUpdateOwn() {
	current := testutil.NewPrincipal(testutil.TestIDs.PrincipalID1, testutil.WithEmail("jane@example.com"))

	s.Run("same email is rejected without touching the store", func() {
		_, err := s.service.UpdateOwn(s.ctx, current, &models.UpdateRequest{Email: "JANE@example.com"})
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
		s.Equal("You are already using this email address.", err.Error())
	})

	s.Run("email owned by another principal is a conflict", func() {
		s.mockPrincipals.EXPECT().FindByEmail(gomock.Any(), "taken@example.com").
			Return(testutil.NewPrincipal(testutil.TestIDs.PrincipalID2), nil)

		_, err := s.service.UpdateOwn(s.ctx, current, &models.UpdateRequest{Email: "taken@example.com"})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Equal(MsgEmailTaken, err.Error())
	})

	s.Run("applies a sparse patch", func() {
		s.mockHasher.EXPECT().Hash("new password").Return("new-hash", nil)
		s.mockPrincipals.EXPECT().FindByEmail(gomock.Any(), "new@example.com").Return(nil, errNotFound)
		s.mockPrincipals.EXPECT().Update(gomock.Any(), current.ID, gomock.Any()).
			DoAndReturn(func(_ any, _ any, patch models.Patch) (*models.Principal, error) {
				s.Equal("new@example.com", *patch.Email)
				s.Equal("new-hash", *patch.PasswordHash)
				s.Nil(patch.FirstName)
				s.Nil(patch.Role)
				updated := patch.Apply(*current)
				return &updated, nil
			})

		updated, err := s.service.UpdateOwn(s.ctx, current, &models.UpdateRequest{
			Email:    "new@example.com",
			Password: "new password",
			Role:     "administrator",
		})
		s.Require().NoError(err)
		s.Equal("new@example.com", updated.Email)
		s.Equal(models.RoleUser, updated.Role)
	})

	s.Run("empty patch reads back the principal", func() {
		s.mockPrincipals.EXPECT().FindByID(gomock.Any(), current.ID).Return(current, nil)

		updated, err := s.service.UpdateOwn(s.ctx, current, &models.UpdateRequest{})
		s.Require().NoError(err)
		s.Equal(current, updated)
	})

	s.Run("unresolved principal is internal", func() {
		_, err := s.service.UpdateOwn(s.ctx, nil, &models.UpdateRequest{FirstName: "X"})
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestAdminUpdate() {
	target := testutil.NewPrincipal(testutil.TestIDs.PrincipalID2)

	s.Run("missing id", func() {
		_, err := s.service.AdminUpdate(s.ctx, &models.UpdateRequest{FirstName: "X"})
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
		s.Equal(models.MsgMissingIdentifier, err.Error())
	})

	s.Run("unknown target is internal", func() {
		s.mockPrincipals.EXPECT().FindByID(gomock.Any(), target.ID).Return(nil, errNotFound)

		_, err := s.service.AdminUpdate(s.ctx, &models.UpdateRequest{ID: target.ID.String(), FirstName: "X"})
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("unparseable role is dropped and the rest applied", func() {
		s.mockPrincipals.EXPECT().FindByID(gomock.Any(), target.ID).Return(target, nil)
		s.mockPrincipals.EXPECT().Update(gomock.Any(), target.ID, gomock.Any()).
			DoAndReturn(func(_ any, _ any, patch models.Patch) (*models.Principal, error) {
				s.Nil(patch.Role)
				s.Equal(models.StatusRestricted, *patch.Status)
				updated := patch.Apply(*target)
				return &updated, nil
			})

		updated, err := s.service.AdminUpdate(s.ctx, &models.UpdateRequest{
			ID:     target.ID.String(),
			Role:   "emperor",
			Status: "restricted",
		})
		s.Require().NoError(err)
		s.Equal(models.StatusRestricted, updated.Status)
		s.Equal(1.0, promtestutil.ToFloat64(s.metrics.DroppedFields.WithLabelValues("role")))
	})

	s.Run("store email collision is a conflict", func() {
		s.mockPrincipals.EXPECT().FindByID(gomock.Any(), target.ID).Return(target, nil)
		s.mockPrincipals.EXPECT().Update(gomock.Any(), target.ID, gomock.Any()).
			Return(nil, fmt.Errorf("email in use: %w", sentinel.ErrAlreadyUsed))

		_, err := s.service.AdminUpdate(s.ctx, &models.UpdateRequest{ID: target.ID.String(), Email: "taken@example.com"})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Equal(MsgEmailTaken, err.Error())
	})
}

func (s *ServiceSuite) TestEnsureAdministrator() {
	s.Run("creates the administrator when absent", func() {
		s.mockPrincipals.EXPECT().FindByEmail(gomock.Any(), "root@example.com").Return(nil, errNotFound)
		s.mockHasher.EXPECT().Hash("hunter22").Return("hash", nil)
		s.mockPrincipals.EXPECT().Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, p *models.Principal) error {
				s.True(p.IsAdministrator())
				return nil
			})

		created, err := s.service.EnsureAdministrator(s.ctx, " Root@Example.com ", "hunter22")
		s.Require().NoError(err)
		s.True(created)
	})

	s.Run("existing principal is left alone", func() {
		s.mockPrincipals.EXPECT().FindByEmail(gomock.Any(), "root@example.com").Return(testutil.NewAdministrator(), nil)

		created, err := s.service.EnsureAdministrator(s.ctx, "root@example.com", "hunter22")
		s.Require().NoError(err)
		s.False(created)
	})

	s.Run("missing credentials", func() {
		_, err := s.service.EnsureAdministrator(s.ctx, "", "")
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}
