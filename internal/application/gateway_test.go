package application

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-contacts-api/internal/domain/apperror"
	"github.com/oksasatya/go-contacts-api/pkg/helpers"
)

func TestGateway_ResolveByID(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := h.register(t, "ann", "ann@example.com", "password123")

	token, _, err := h.tokens.IssueSession(u.ID, u.Email)
	require.NoError(t, err)

	got, err := h.gw.ResolveByID(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = h.gw.ResolveByID(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, 2, h.users.reads, "id path must not use the cache")
	assert.False(t, h.redis.Exists("user:ann@example.com"))
}

func TestGateway_ExpiredSession(t *testing.T) {
	h := newHarness(t)
	u := h.register(t, "ann", "ann@example.com", "password123")
	token, _, err := h.tokens.IssueSession(u.ID, u.Email)
	require.NoError(t, err)

	h.clock.Advance(31 * time.Minute)

	_, err = h.gw.ResolveByID(context.Background(), token)
	require.ErrorIs(t, err, helpers.ErrExpiredToken)
	_, err = h.gw.ResolveByEmail(context.Background(), token)
	require.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestGateway_RejectsNonSessionTokens(t *testing.T) {
	h := newHarness(t)
	h.register(t, "ann", "ann@example.com", "password123")
	token, _, err := h.tokens.IssueEmailVerification("ann@example.com")
	require.NoError(t, err)

	_, err = h.gw.ResolveByEmail(context.Background(), token)
	require.ErrorIs(t, err, helpers.ErrInvalidToken)
}

func TestGateway_VanishedUserIsUnauthorized(t *testing.T) {
	h := newHarness(t)
	u := h.register(t, "ann", "ann@example.com", "password123")
	token, _, err := h.tokens.IssueSession(u.ID, u.Email)
	require.NoError(t, err)
	h.users.remove(u.ID)

	_, err = h.gw.ResolveByID(context.Background(), token)
	require.ErrorIs(t, err, apperror.ErrUnauthorized)
	assert.NotErrorIs(t, err, apperror.ErrNotFound)

	_, err = h.gw.ResolveByEmail(context.Background(), token)
	require.ErrorIs(t, err, ErrIdentityGone)
}

func TestGateway_ResolveByEmail_ReadThrough(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := h.register(t, "ann", "ann@example.com", "password123")
	token, _, err := h.tokens.IssueSession(u.ID, u.Email)
	require.NoError(t, err)

	first, err := h.gw.ResolveByEmail(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, first.ID)
	assert.Equal(t, 1, h.users.reads)

	raw, err := h.redis.Get("user:ann@example.com")
	require.NoError(t, err)
	assert.NotContains(t, strings.ToLower(raw), "hash")
	assert.NotContains(t, raw, u.PasswordHash)
	assert.Equal(t, time.Hour, h.redis.TTL("user:ann@example.com"))

	second, err := h.gw.ResolveByEmail(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, 1, h.users.reads, "second lookup is served from the cache")
	assert.Equal(t, "ann", second.Username)
	assert.Empty(t, second.PasswordHash)
}

func TestGateway_CacheIsNotInvalidatedOnWrite(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := h.register(t, "ann", "ann@example.com", "password123")
	token, _, err := h.tokens.IssueSession(u.ID, u.Email)
	require.NoError(t, err)

	_, err = h.gw.ResolveByEmail(ctx, token)
	require.NoError(t, err)
	require.NoError(t, h.users.UpdateAvatar(ctx, u.ID, "https://cdn.example/new.png"))

	stale, err := h.gw.ResolveByEmail(ctx, token)
	require.NoError(t, err)
	assert.Empty(t, stale.AvatarURL)

	h.redis.FastForward(time.Hour + time.Second)

	fresh, err := h.gw.ResolveByEmail(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/new.png", fresh.AvatarURL)
}

func TestGateway_CacheOutageFallsBackToStore(t *testing.T) {
	h := newHarness(t)
	u := h.register(t, "ann", "ann@example.com", "password123")
	token, _, err := h.tokens.IssueSession(u.ID, u.Email)
	require.NoError(t, err)

	h.redis.SetError("ERR cache unavailable")

	got, err := h.gw.ResolveByEmail(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	var warnings int
	for _, e := range h.hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warnings++
		}
	}
	assert.Equal(t, 2, warnings, "read and write failures are both logged")
}
