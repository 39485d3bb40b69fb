//go:build integration

package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"coopreg/internal/member/models"
	"coopreg/internal/member/store"
	id "coopreg/pkg/domain"
	"coopreg/pkg/platform/sentinel"
	"coopreg/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	ctx      context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.ctx = context.Background()
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "members"))
}

func (s *PostgresStoreSuite) newMember(email string) *models.Member {
	m, err := models.NewMember(id.NewMemberID(), models.Fields{
		Name:            "Abuja Civil Servants Union",
		Established:     "1999-10",
		Email:           email,
		PhoneNumber:     "+2348098765432",
		Address:         "Plot 7 Central Area, Abuja",
		NumberOfMembers: 640,
		Status:          true,
	}, time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(err)
	return m
}

func (s *PostgresStoreSuite) TestRoundTripAndEmailLookup() {
	m := s.newMember("abuja@union.ng")
	s.Require().NoError(s.store.Create(s.ctx, m))

	found, err := s.store.FindByID(s.ctx, m.ID)
	s.Require().NoError(err)
	s.Equal(m.NumberOfMembers, found.NumberOfMembers)
	s.True(found.Status)

	byEmail, err := s.store.FindByEmail(s.ctx, "ABUJA@union.ng")
	s.Require().NoError(err)
	s.Require().Len(byEmail, 1)
	s.Equal(m.ID, byEmail[0].ID)
}

func (s *PostgresStoreSuite) TestDuplicateEmailMapsToField() {
	s.Require().NoError(s.store.Create(s.ctx, s.newMember("a@b.com")))
	err := s.store.Create(s.ctx, s.newMember("A@B.com"))
	var uv *sentinel.UniqueViolation
	s.Require().True(errors.As(err, &uv))
	s.Equal("email", uv.Field)
}

func (s *PostgresStoreSuite) TestExecuteAndDelete() {
	m := s.newMember("execute@union.ng")
	s.Require().NoError(s.store.Create(s.ctx, m))

	updated, err := s.store.Execute(s.ctx, m.ID,
		func(*models.Member) error { return nil },
		func(m *models.Member) { m.Status = false },
	)
	s.Require().NoError(err)
	s.False(updated.Status)

	s.Require().NoError(s.store.Delete(s.ctx, m.ID))
	_, err = s.store.FindByID(s.ctx, m.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
