//go:build integration

package identity_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"caregate/internal/identity"
	dErrors "caregate/pkg/domain-errors"
	"caregate/pkg/testutil/containers"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

// countingResolver records how many times the backing store was consulted.
type countingResolver struct {
	identities map[uuid.UUID]*identity.Identity
	calls      int
}

func (r *countingResolver) Resolve(_ context.Context, subject uuid.UUID) (*identity.Identity, error) {
	r.calls++
	ident, ok := r.identities[subject]
	if !ok {
		return nil, dErrors.New(dErrors.CodeIdentityNotFound, "identity not found")
	}
	return ident, nil
}

type CachingResolverSuite struct {
	suite.Suite
	redis *containers.RedisContainer
}

func TestCachingResolverSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CachingResolverSuite))
}

func (s *CachingResolverSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *CachingResolverSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *CachingResolverSuite) newResolver(inner identity.Resolver, ttl time.Duration) *identity.CachingResolver {
	return identity.NewCachingResolver(inner, s.redis.Client, ttl, slog.Default())
}

func (s *CachingResolverSuite) TestReadThrough() {
	ctx := context.Background()
	subject := uuid.New()
	inner := &countingResolver{identities: map[uuid.UUID]*identity.Identity{
		subject: {ID: subject, Email: "alice@example.com", Role: "user"},
	}}
	resolver := s.newResolver(inner, time.Minute)

	first, err := resolver.Resolve(ctx, subject)
	s.Require().NoError(err)
	s.Equal("alice@example.com", first.Email)
	s.Equal(1, inner.calls)

	second, err := resolver.Resolve(ctx, subject)
	s.Require().NoError(err)
	s.Equal(first, second)
	s.Equal(1, inner.calls, "second resolve should be served from cache")
}

func (s *CachingResolverSuite) TestNegativeResultsNotCached() {
	ctx := context.Background()
	subject := uuid.New()
	inner := &countingResolver{identities: map[uuid.UUID]*identity.Identity{}}
	resolver := s.newResolver(inner, time.Minute)

	_, err := resolver.Resolve(ctx, subject)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeIdentityNotFound))

	// The user is activated between the two calls; the second resolve must
	// hit the store, not a cached miss.
	inner.identities[subject] = &identity.Identity{ID: subject, Email: "bob@example.com", Role: "user"}

	ident, err := resolver.Resolve(ctx, subject)
	s.Require().NoError(err)
	s.Equal("bob@example.com", ident.Email)
	s.Equal(2, inner.calls)
}

func (s *CachingResolverSuite) TestInvalidateForcesRefresh() {
	ctx := context.Background()
	subject := uuid.New()
	inner := &countingResolver{identities: map[uuid.UUID]*identity.Identity{
		subject: {ID: subject, Email: "carol@example.com", Role: "user"},
	}}
	resolver := s.newResolver(inner, time.Minute)

	_, err := resolver.Resolve(ctx, subject)
	s.Require().NoError(err)

	inner.identities[subject].Role = "admin"
	s.Require().NoError(resolver.Invalidate(ctx, subject))

	ident, err := resolver.Resolve(ctx, subject)
	s.Require().NoError(err)
	s.Equal("admin", ident.Role)
	s.Equal(2, inner.calls)
}

func (s *CachingResolverSuite) TestExpiredEntryRefetches() {
	ctx := context.Background()
	subject := uuid.New()
	inner := &countingResolver{identities: map[uuid.UUID]*identity.Identity{
		subject: {ID: subject, Email: "dave@example.com", Role: "user"},
	}}
	resolver := s.newResolver(inner, 100*time.Millisecond)

	_, err := resolver.Resolve(ctx, subject)
	s.Require().NoError(err)

	time.Sleep(200 * time.Millisecond)

	_, err = resolver.Resolve(ctx, subject)
	s.Require().NoError(err)
	s.Equal(2, inner.calls)
}

func (s *CachingResolverSuite) TestCorruptCacheEntryDropped() {
	ctx := context.Background()
	subject := uuid.New()
	inner := &countingResolver{identities: map[uuid.UUID]*identity.Identity{
		subject: {ID: subject, Email: "eve@example.com", Role: "user"},
	}}
	resolver := s.newResolver(inner, time.Minute)

	key := "caregate:identity:" + subject.String()
	s.Require().NoError(s.redis.Client.Set(ctx, key, "{not json", time.Minute).Err())

	ident, err := resolver.Resolve(ctx, subject)
	s.Require().NoError(err)
	s.Equal("eve@example.com", ident.Email)
	s.Equal(1, inner.calls)
}
