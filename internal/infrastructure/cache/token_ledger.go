package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

func usedTokenKey(jti string) string {
	return "token:used:" + jti
}

// TokenLedger remembers consumed token ids until the token would have expired
// anyway, which makes a token single-use without a revocation list.
type TokenLedger struct {
	rdb redis.Cmdable
	now func() time.Time
}

func NewTokenLedger(rdb redis.Cmdable) *TokenLedger {
	return &TokenLedger{rdb: rdb, now: time.Now}
}

// Consume marks jti as used. It returns false if jti was already consumed.
func (l *TokenLedger) Consume(ctx context.Context, jti string, expiresAt time.Time) (bool, error) {
	ttl := expiresAt.Sub(l.now())
	if ttl < time.Second {
		ttl = time.Second
	}
	return l.rdb.SetNX(ctx, usedTokenKey(jti), "1", ttl).Result()
}

// Release forgets jti so the token can be presented again.
func (l *TokenLedger) Release(ctx context.Context, jti string) error {
	return l.rdb.Del(ctx, usedTokenKey(jti)).Err()
}
