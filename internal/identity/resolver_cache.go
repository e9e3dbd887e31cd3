package identity

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	dErrors "caregate/pkg/domain-errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CachingResolver is a Redis read-through decorator over another resolver.
// Cache failures degrade to the inner resolver; negative results are not
// cached so deactivations take effect immediately on the next request.
type CachingResolver struct {
	inner  Resolver
	client redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachingResolver(inner Resolver, client redis.Cmdable, ttl time.Duration, logger *slog.Logger) *CachingResolver {
	return &CachingResolver{inner: inner, client: client, ttl: ttl, logger: logger}
}

func cacheKey(subject uuid.UUID) string {
	return "caregate:identity:" + subject.String()
}

func (r *CachingResolver) Resolve(ctx context.Context, subject uuid.UUID) (*Identity, error) {
	key := cacheKey(subject)

	cached, err := r.client.Get(ctx, key).Result()
	if err == nil {
		var ident Identity
		if unmarshalErr := json.Unmarshal([]byte(cached), &ident); unmarshalErr == nil {
			return &ident, nil
		}
		// Corrupt entry; drop it and fall through to the store.
		r.client.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		r.logger.WarnContext(ctx, "identity cache read failed", "error", err)
	}

	ident, err := r.inner.Resolve(ctx, subject)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(ident)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "marshal identity")
	}
	if err := r.client.Set(ctx, key, payload, r.ttl).Err(); err != nil {
		r.logger.WarnContext(ctx, "identity cache write failed", "error", err)
	}
	return ident, nil
}

// Invalidate removes a cached identity, e.g. after a user record changes.
func (r *CachingResolver) Invalidate(ctx context.Context, subject uuid.UUID) error {
	return r.client.Del(ctx, cacheKey(subject)).Err()
}
