package service

import (
	"errors"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/mock/gomock"

	"grace/internal/auth/models"
	id "grace/pkg/domain"
	dErrors "grace/pkg/domain-errors"
	"grace/pkg/testutil"
)

func (s *ServiceSuite) TestPreventExistingAuthentication() {
	s.Run("no carrier token leaves the store untouched", func() {
		s.mockCarrier.EXPECT().Extract(s.r).Return("")

		err := s.service.PreventExistingAuthentication(s.ctx, s.w, s.r)
		s.NoError(err)
	})

	s.Run("expired token is deleted and the attempt proceeds", func() {
		gomock.InOrder(
			s.mockCarrier.EXPECT().Extract(s.r).Return("expired-token"),
			s.mockSessions.EXPECT().DeleteByToken(gomock.Any(), "expired-token").Return(true, nil),
			s.mockCarrier.EXPECT().Clear(s.w),
			s.mockTokens.EXPECT().IsExpired(gomock.Any(), "expired-token").Return(true),
		)

		err := s.service.PreventExistingAuthentication(s.ctx, s.w, s.r)
		s.NoError(err)
	})

	s.Run("live token is deleted even though the attempt is rejected", func() {
		before := promtestutil.ToFloat64(s.metrics.DuplicateLogins)
		gomock.InOrder(
			s.mockCarrier.EXPECT().Extract(s.r).Return("live-token"),
			s.mockSessions.EXPECT().DeleteByToken(gomock.Any(), "live-token").Return(true, nil),
			s.mockCarrier.EXPECT().Clear(s.w),
			s.mockTokens.EXPECT().IsExpired(gomock.Any(), "live-token").Return(false),
		)

		err := s.service.PreventExistingAuthentication(s.ctx, s.w, s.r)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		s.Equal(MsgAlreadySignedIn, err.Error())
		s.Equal(before+1, promtestutil.ToFloat64(s.metrics.DuplicateLogins))
	})

	s.Run("token without a stored session is still classified", func() {
		gomock.InOrder(
			s.mockCarrier.EXPECT().Extract(s.r).Return("orphan-token"),
			s.mockSessions.EXPECT().DeleteByToken(gomock.Any(), "orphan-token").Return(false, nil),
			s.mockCarrier.EXPECT().Clear(s.w),
			s.mockTokens.EXPECT().IsExpired(gomock.Any(), "orphan-token").Return(false),
		)

		err := s.service.PreventExistingAuthentication(s.ctx, s.w, s.r)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("store failure is internal", func() {
		s.mockCarrier.EXPECT().Extract(s.r).Return("live-token")
		s.mockSessions.EXPECT().DeleteByToken(gomock.Any(), "live-token").Return(false, errors.New("connection reset"))

		err := s.service.PreventExistingAuthentication(s.ctx, s.w, s.r)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestCommitAuthentication() {
	principal := testutil.NewPrincipal(testutil.TestIDs.PrincipalID1)

	s.Run("missing principal id is internal", func() {
		for _, p := range []*models.Principal{nil, {Email: "x@example.com"}} {
			_, err := s.service.CommitAuthentication(s.ctx, s.w, s.r, p)
			s.True(dErrors.HasCode(err, dErrors.CodeInternal))
		}
	})

	s.Run("deletes the prior session before storing the new one", func() {
		var stored *models.Session
		gomock.InOrder(
			s.mockCarrier.EXPECT().Extract(s.r).Return("prior-token"),
			s.mockSessions.EXPECT().DeleteByToken(gomock.Any(), "prior-token").Return(true, nil),
			s.mockTokens.EXPECT().Issue(gomock.Any(), principal.ID).Return("new-token", nil),
			s.mockSessions.EXPECT().Create(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ any, session *models.Session) error {
					stored = session
					return nil
				}),
			s.mockCarrier.EXPECT().Attach(s.w, principal.ID, "new-token"),
		)

		token, err := s.service.CommitAuthentication(s.ctx, s.w, s.r, principal)
		s.Require().NoError(err)
		s.Equal("new-token", token)

		s.Require().NotNil(stored)
		s.Equal("new-token", stored.Token)
		s.Equal(principal.ID, stored.UserID)
		s.Equal(testutil.FixedTime, stored.CreatedAt)
		s.False(stored.ID.IsNil())
	})

	s.Run("no prior token skips the delete", func() {
		gomock.InOrder(
			s.mockCarrier.EXPECT().Extract(s.r).Return(""),
			s.mockTokens.EXPECT().Issue(gomock.Any(), principal.ID).Return("new-token", nil),
			s.mockSessions.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil),
			s.mockCarrier.EXPECT().Attach(s.w, principal.ID, "new-token"),
		)

		_, err := s.service.CommitAuthentication(s.ctx, s.w, s.r, principal)
		s.NoError(err)
	})

	s.Run("store failure never attaches the token", func() {
		s.mockCarrier.EXPECT().Extract(s.r).Return("")
		s.mockTokens.EXPECT().Issue(gomock.Any(), principal.ID).Return("new-token", nil)
		s.mockSessions.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

		_, err := s.service.CommitAuthentication(s.ctx, s.w, s.r, principal)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("issue failure is internal", func() {
		s.mockCarrier.EXPECT().Extract(s.r).Return("")
		s.mockTokens.EXPECT().Issue(gomock.Any(), principal.ID).Return("", errors.New("bad key"))

		_, err := s.service.CommitAuthentication(s.ctx, s.w, s.r, principal)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestRevokeAuthentication() {
	principal := testutil.NewPrincipal(testutil.TestIDs.PrincipalID1)

	s.Run("missing principal is internal", func() {
		err := s.service.RevokeAuthentication(s.ctx, s.w, s.r, &models.Principal{ID: id.PrincipalID("")})
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("deletes the session then clears the carrier", func() {
		gomock.InOrder(
			s.mockCarrier.EXPECT().Extract(s.r).Return("live-token"),
			s.mockSessions.EXPECT().DeleteByToken(gomock.Any(), "live-token").Return(true, nil),
			s.mockCarrier.EXPECT().Clear(s.w),
		)

		s.NoError(s.service.RevokeAuthentication(s.ctx, s.w, s.r, principal))
	})

	s.Run("missing session is not an error", func() {
		gomock.InOrder(
			s.mockCarrier.EXPECT().Extract(s.r).Return("gone-token"),
			s.mockSessions.EXPECT().DeleteByToken(gomock.Any(), "gone-token").Return(false, nil),
			s.mockCarrier.EXPECT().Clear(s.w),
		)

		s.NoError(s.service.RevokeAuthentication(s.ctx, s.w, s.r, principal))
	})

	s.Run("no token still clears the carrier", func() {
		s.mockCarrier.EXPECT().Extract(s.r).Return("")
		s.mockCarrier.EXPECT().Clear(s.w)

		s.NoError(s.service.RevokeAuthentication(s.ctx, s.w, s.r, principal))
	})
}
