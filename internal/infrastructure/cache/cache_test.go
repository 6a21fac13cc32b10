package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-contacts-api/internal/domain/entity"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestUserCache_PutGetExpire(t *testing.T) {
	mr, rdb := newRedis(t)
	c := NewUserCache(rdb, time.Hour)
	ctx := context.Background()

	_, found, err := c.Get(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.False(t, found)

	snap := entity.UserSnapshot{ID: 1, Username: "ann", Email: "ann@example.com"}
	require.NoError(t, c.Put(ctx, "ann@example.com", snap, 0))
	assert.Equal(t, time.Hour, mr.TTL("user:ann@example.com"))

	mr.FastForward(59 * time.Minute)
	got, found, err := c.Get(ctx, "ann@example.com")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, snap, *got)

	mr.FastForward(2 * time.Minute)
	_, found, err = c.Get(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestUserCache_SnapshotHasNoPasswordHash(t *testing.T) {
	mr, rdb := newRedis(t)
	c := NewUserCache(rdb, time.Hour)

	u := &entity.User{ID: 1, Username: "ann", Email: "ann@example.com", PasswordHash: "$2a$10$secret"}
	require.NoError(t, c.Put(context.Background(), u.Email, u.Snapshot(), 0))

	raw, err := mr.Get("user:ann@example.com")
	require.NoError(t, err)
	assert.NotContains(t, raw, "secret")

	var fields map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &fields))
	assert.NotContains(t, fields, "hashed_password")
	assert.NotContains(t, fields, "password")
}

func TestUserCache_ExplicitTTL(t *testing.T) {
	mr, rdb := newRedis(t)
	c := NewUserCache(rdb, time.Hour)
	require.NoError(t, c.Put(context.Background(), "x@y.z", entity.UserSnapshot{ID: 2}, 5*time.Second))
	assert.Equal(t, 5*time.Second, mr.TTL("user:x@y.z"))
}

func TestTokenLedger_SingleUse(t *testing.T) {
	mr, rdb := newRedis(t)
	l := NewTokenLedger(rdb)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	ok, err := l.Consume(ctx, "jti-1", now.Add(30*time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 30*time.Minute, mr.TTL("token:used:jti-1"))

	ok, err = l.Consume(ctx, "jti-1", now.Add(30*time.Minute))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = l.Consume(ctx, "jti-2", now.Add(-time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTokenLedger_Release(t *testing.T) {
	mr, rdb := newRedis(t)
	l := NewTokenLedger(rdb)
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	ok, err := l.Consume(ctx, "jti-1", exp)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, l.Release(ctx, "jti-1"))
	assert.False(t, mr.Exists("token:used:jti-1"))

	ok, err = l.Consume(ctx, "jti-1", exp)
	require.NoError(t, err)
	assert.True(t, ok)
}
