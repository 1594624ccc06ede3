package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"grace/internal/auth/models"
	id "grace/pkg/domain"
	"grace/pkg/platform/sentinel"
	"grace/pkg/testutil"
)

type InMemoryPrincipalStoreSuite struct {
	suite.Suite
	store *InMemoryPrincipalStore
	ctx   context.Context
}

func TestInMemoryPrincipalStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryPrincipalStoreSuite))
}

func (s *InMemoryPrincipalStoreSuite) SetupTest() {
	s.store = New()
	s.ctx = context.Background()
}

func (s *InMemoryPrincipalStoreSuite) TestCreateAndFind() {
	p := testutil.NewPrincipal(testutil.TestIDs.PrincipalID1, testutil.WithEmail("jane.doe@example.com"))
	s.Require().NoError(s.store.Create(s.ctx, p))

	byID, err := s.store.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(p, byID)

	byEmail, err := s.store.FindByEmail(s.ctx, "Jane.Doe@Example.com")
	s.Require().NoError(err)
	s.Equal(p.ID, byEmail.ID)
}

func (s *InMemoryPrincipalStoreSuite) TestReturnedValuesAreCopies() {
	p := testutil.NewPrincipal(testutil.TestIDs.PrincipalID1)
	s.Require().NoError(s.store.Create(s.ctx, p))
	p.FirstName = "Mutated"

	found, err := s.store.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.NotEqual("Mutated", found.FirstName)
}

func (s *InMemoryPrincipalStoreSuite) TestCreateRejectsDuplicates() {
	s.Require().NoError(s.store.Create(s.ctx, testutil.NewPrincipal(testutil.TestIDs.PrincipalID1,
		testutil.WithEmail("a@example.com"), testutil.WithExternalID("google-1"))))

	s.Run("same id", func() {
		err := s.store.Create(s.ctx, testutil.NewPrincipal(testutil.TestIDs.PrincipalID1, testutil.WithEmail("b@example.com")))
		s.ErrorIs(err, sentinel.ErrAlreadyUsed)
	})
	s.Run("same email", func() {
		err := s.store.Create(s.ctx, testutil.NewPrincipal(testutil.TestIDs.PrincipalID2, testutil.WithEmail("a@example.com")))
		s.ErrorIs(err, sentinel.ErrAlreadyUsed)
	})
	s.Run("same external id", func() {
		err := s.store.Create(s.ctx, testutil.NewPrincipal(testutil.TestIDs.PrincipalID2,
			testutil.WithEmail("c@example.com"), testutil.WithExternalID("google-1")))
		s.ErrorIs(err, sentinel.ErrAlreadyUsed)
	})
}

func (s *InMemoryPrincipalStoreSuite) TestFindNotFound() {
	_, err := s.store.FindByID(s.ctx, "missing")
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.FindByEmail(s.ctx, "missing@example.com")
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.FindByEmail(s.ctx, "")
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.FindByExternalID(s.ctx, "")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryPrincipalStoreSuite) TestFindOrCreateByExternalID() {
	first := testutil.NewPrincipal(testutil.TestIDs.PrincipalID1,
		testutil.WithEmail(""), testutil.WithExternalID("google-1"))

	created, err := s.store.FindOrCreateByExternalID(s.ctx, first)
	s.Require().NoError(err)
	s.Equal(first.ID, created.ID)

	second := testutil.NewPrincipal(testutil.TestIDs.PrincipalID2,
		testutil.WithEmail(""), testutil.WithExternalID("google-1"))
	found, err := s.store.FindOrCreateByExternalID(s.ctx, second)
	s.Require().NoError(err)
	s.Equal(first.ID, found.ID, "existing principal is returned")

	all, err := s.store.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *InMemoryPrincipalStoreSuite) TestFindOrCreateByExternalID_Concurrent() {
	result := testutil.RunConcurrent(20, func(int) error {
		p := testutil.NewPrincipal(id.NewPrincipalID(), testutil.WithEmail(""), testutil.WithExternalID("google-1"))
		_, err := s.store.FindOrCreateByExternalID(s.ctx, p)
		return err
	})
	s.Equal(int32(20), result.Successes)

	all, err := s.store.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *InMemoryPrincipalStoreSuite) TestUpdate() {
	s.Require().NoError(s.store.Create(s.ctx, testutil.NewPrincipal(testutil.TestIDs.PrincipalID1, testutil.WithEmail("a@example.com"))))
	s.Require().NoError(s.store.Create(s.ctx, testutil.NewPrincipal(testutil.TestIDs.PrincipalID2, testutil.WithEmail("b@example.com"))))

	s.Run("applies sparse patch", func() {
		first := "Janet"
		role := models.RoleAdministrator
		updated, err := s.store.Update(s.ctx, testutil.TestIDs.PrincipalID1, models.Patch{FirstName: &first, Role: &role})
		s.Require().NoError(err)
		s.Equal("Janet", updated.FirstName)
		s.Equal(models.RoleAdministrator, updated.Role)
		s.Equal("a@example.com", updated.Email)
	})

	s.Run("email owned by another principal", func() {
		email := "b@example.com"
		_, err := s.store.Update(s.ctx, testutil.TestIDs.PrincipalID1, models.Patch{Email: &email})
		s.ErrorIs(err, sentinel.ErrAlreadyUsed)

		found, err := s.store.FindByID(s.ctx, testutil.TestIDs.PrincipalID1)
		s.Require().NoError(err)
		s.Equal("a@example.com", found.Email)
	})

	s.Run("unknown principal", func() {
		_, err := s.store.Update(s.ctx, "missing", models.Patch{})
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryPrincipalStoreSuite) TestListAllOrdersByCreation() {
	later := testutil.NewPrincipal(testutil.TestIDs.PrincipalID1, testutil.WithEmail("later@example.com"))
	later.CreatedAt = testutil.FixedTime.Add(time.Hour)
	earlier := testutil.NewPrincipal(testutil.TestIDs.PrincipalID2, testutil.WithEmail("earlier@example.com"))
	s.Require().NoError(s.store.Create(s.ctx, later))
	s.Require().NoError(s.store.Create(s.ctx, earlier))

	all, err := s.store.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(earlier.ID, all[0].ID)
	s.Equal(later.ID, all[1].ID)
}
