//go:build integration

package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"coopreg/internal/registration/models"
	"coopreg/internal/registration/store"
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
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "registrations"))
}

func (s *PostgresStoreSuite) newRegistration(email string) *models.Registration {
	r, err := models.NewRegistration(id.NewRegistrationID(), models.Fields{
		Name:                    "Enugu Coal Workers Union",
		RegistrationCertificate: "blob/enugu-cert",
		PaymentReceipt:          "blob/enugu-receipt",
		Email:                   email,
		PhoneNumber:             "+2348051234567",
		Address:                 "3 Okpara Avenue, Enugu",
	}, time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(err)
	return r
}

func (s *PostgresStoreSuite) TestSubmitTwiceWithSameEmail() {
	s.Require().NoError(s.store.Create(s.ctx, s.newRegistration("enugu@union.ng")))

	err := s.store.Create(s.ctx, s.newRegistration("Enugu@Union.ng"))
	var uv *sentinel.UniqueViolation
	s.Require().True(errors.As(err, &uv))
	s.Equal("email", uv.Field)

	list, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Len(list, 1)
}

func (s *PostgresStoreSuite) TestExecuteAndDelete() {
	r := s.newRegistration("flip@union.ng")
	s.Require().NoError(s.store.Create(s.ctx, r))

	updated, err := s.store.Execute(s.ctx, r.ID,
		func(*models.Registration) error { return nil },
		func(r *models.Registration) { r.Status = true },
	)
	s.Require().NoError(err)
	s.True(updated.Status)

	found, err := s.store.FindByID(s.ctx, r.ID)
	s.Require().NoError(err)
	s.True(found.Status)
	s.Equal("blob/enugu-cert", found.RegistrationCertificate)

	var released []string
	s.Require().NoError(s.store.Delete(s.ctx, r.ID, func(current *models.Registration) error {
		released = current.EvidenceRefs()
		return nil
	}))
	s.Contains(released, "blob/enugu-cert")
	s.ErrorIs(s.store.Delete(s.ctx, r.ID, nil), sentinel.ErrNotFound)
}
