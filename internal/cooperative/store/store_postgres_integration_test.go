//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"coopreg/internal/cooperative/models"
	"coopreg/internal/cooperative/store"
	"coopreg/internal/platform/postgres"
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
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "cooperatives"))
}

func (s *PostgresStoreSuite) newCooperative(name string) *models.Cooperative {
	c, err := models.NewCooperative(id.NewCooperativeID(), name, time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(err)
	return c
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	c := s.newCooperative("Lagos Teachers Cooperative")
	s.Require().NoError(s.store.Create(s.ctx, c))

	found, err := s.store.FindByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(c.ID, found.ID)
	s.Equal(models.StatusInactive, found.Status)
	s.True(c.CreatedAt.Equal(found.CreatedAt))

	_, err = s.store.FindByID(s.ctx, id.NewCooperativeID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUniqueIndexesMapToFields() {
	a := s.newCooperative("Kano Leather Cooperative")
	s.Require().NoError(s.store.Create(s.ctx, a))

	err := s.store.Create(s.ctx, s.newCooperative("kano leather cooperative"))
	var uv *sentinel.UniqueViolation
	s.Require().True(errors.As(err, &uv))
	s.Equal("name", uv.Field)

	b := s.newCooperative("Benin Bronze Cooperative")
	s.Require().NoError(s.store.Create(s.ctx, b))
	_, err = s.store.Execute(s.ctx, a.ID, func(*models.Cooperative) error { return nil },
		func(c *models.Cooperative) { c.Email = "shared@coop.org" })
	s.Require().NoError(err)

	_, err = s.store.Execute(s.ctx, b.ID, func(*models.Cooperative) error { return nil },
		func(c *models.Cooperative) { c.Email = "Shared@Coop.org" })
	s.Require().True(errors.As(err, &uv))
	s.Equal("email", uv.Field)

	found, err := s.store.FindByID(s.ctx, b.ID)
	s.Require().NoError(err)
	s.Empty(found.Email, "failed write leaves the row untouched")
}

func (s *PostgresStoreSuite) TestConcurrentExecuteSerializes() {
	c := s.newCooperative("Concurrent Cooperative")
	s.Require().NoError(s.store.Create(s.ctx, c))

	// Each writer only succeeds while the cooperative is still inactive.
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Execute(s.ctx, c.ID,
				func(c *models.Cooperative) error { return c.CanActivate() },
				func(c *models.Cooperative) { c.Status = models.StatusProcessing },
			)
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	s.Equal(1, succeeded)
}

func (s *PostgresStoreSuite) TestListAndDelete() {
	z := s.newCooperative("Zaria Weavers Cooperative")
	a := s.newCooperative("aba Traders Cooperative")
	s.Require().NoError(s.store.Create(s.ctx, z))
	s.Require().NoError(s.store.Create(s.ctx, a))

	all, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(a.ID, all[0].ID)

	inactive, err := s.store.ListByStatus(s.ctx, models.StatusInactive)
	s.Require().NoError(err)
	s.Len(inactive, 2)

	err = s.store.Delete(s.ctx, z.ID, func(*models.Cooperative) error { return errors.New("release failed") })
	s.Require().Error(err)
	_, err = s.store.FindByID(s.ctx, z.ID)
	s.Require().NoError(err, "a failed callback rolls the delete back")

	s.Require().NoError(s.store.Delete(s.ctx, z.ID, nil))
	s.ErrorIs(s.store.Delete(s.ctx, z.ID, nil), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestJoinsAmbientTransaction() {
	runner := postgres.NewTxRunner(s.postgres.DB)
	c := s.newCooperative("Rolled Back Cooperative")

	err := runner.RunInTx(s.ctx, func(ctx context.Context) error {
		if err := s.store.Create(ctx, c); err != nil {
			return err
		}
		return errors.New("abort")
	})
	s.Require().Error(err)

	_, err = s.store.FindByID(s.ctx, c.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
