//go:build integration

package user_test

import (
	"context"
	"testing"
	"time"

	"caregate/internal/user"
	"caregate/pkg/platform/sentinel"
	"caregate/pkg/testutil/containers"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *user.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = user.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "users"))
}

func (s *PostgresStoreSuite) newUser(email string) *user.User {
	return &user.User{
		ID:             uuid.New(),
		Email:          email,
		HashedPassword: "$2a$10$hash",
		Role:           "user",
		IsActive:       true,
	}
}

func (s *PostgresStoreSuite) TestSaveAndFind() {
	ctx := context.Background()
	u := s.newUser("alice@example.com")
	s.Require().NoError(s.store.Save(ctx, u))

	byID, err := s.store.FindByID(ctx, u.ID)
	s.Require().NoError(err)
	s.Equal(u.Email, byID.Email)
	s.True(byID.IsActive)
	s.Nil(byID.LastLogin)

	byEmail, err := s.store.FindByEmail(ctx, "alice@example.com")
	s.Require().NoError(err)
	s.Equal(u.ID, byEmail.ID)
}

func (s *PostgresStoreSuite) TestSaveUpdatesExisting() {
	ctx := context.Background()
	u := s.newUser("bob@example.com")
	s.Require().NoError(s.store.Save(ctx, u))

	now := time.Now().UTC().Truncate(time.Second)
	u.LastLogin = &now
	u.FailedLogins = 2
	s.Require().NoError(s.store.Save(ctx, u))

	got, err := s.store.FindByID(ctx, u.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got.LastLogin)
	s.WithinDuration(now, *got.LastLogin, time.Second)
	s.Equal(2, got.FailedLogins)
}

func (s *PostgresStoreSuite) TestDuplicateEmailConflicts() {
	ctx := context.Background()
	s.Require().NoError(s.store.Save(ctx, s.newUser("carol@example.com")))

	err := s.store.Save(ctx, s.newUser("carol@example.com"))
	s.Require().Error(err)
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestFindMissingUser() {
	_, err := s.store.FindByID(context.Background(), uuid.New())
	s.Require().Error(err)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestDelete() {
	ctx := context.Background()
	u := s.newUser("dave@example.com")
	s.Require().NoError(s.store.Save(ctx, u))
	s.Require().NoError(s.store.Delete(ctx, u.ID))

	_, err := s.store.FindByID(ctx, u.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.ErrorIs(s.store.Delete(ctx, u.ID), sentinel.ErrNotFound)
}
