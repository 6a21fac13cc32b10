// Package cache holds the Redis-backed read-through user cache and the
// single-use token ledger.
package cache

import (
	"context"
	"expvar"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-contacts-api/internal/domain/entity"
	"github.com/oksasatya/go-contacts-api/pkg/helpers"
)

var (
	hits   = expvar.NewInt("usercache_hits")
	misses = expvar.NewInt("usercache_misses")
)

func userKey(email string) string {
	return "user:" + email
}

// UserCache maps email to a UserSnapshot with a fixed TTL. Entries are never
// invalidated on writes; a stale snapshot is served until it expires.
type UserCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewUserCache(rdb redis.Cmdable, ttl time.Duration) *UserCache {
	return &UserCache{rdb: rdb, ttl: ttl}
}

func (c *UserCache) TTL() time.Duration { return c.ttl }

func (c *UserCache) Get(ctx context.Context, email string) (*entity.UserSnapshot, bool, error) {
	var snap entity.UserSnapshot
	found, err := helpers.RedisGetJSON(ctx, c.rdb, userKey(email), &snap)
	if err != nil {
		return nil, false, err
	}
	if !found {
		misses.Add(1)
		return nil, false, nil
	}
	hits.Add(1)
	return &snap, true, nil
}

// Put stores snap under email. A non-positive ttl falls back to the cache TTL.
func (c *UserCache) Put(ctx context.Context, email string, snap entity.UserSnapshot, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	return helpers.RedisSetJSON(ctx, c.rdb, userKey(email), snap, ttl)
}
