package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-contacts-api/internal/domain/apperror"
	"github.com/oksasatya/go-contacts-api/internal/domain/entity"
	repo "github.com/oksasatya/go-contacts-api/internal/domain/repository"
	"github.com/oksasatya/go-contacts-api/pkg/helpers"
)

var ErrIdentityGone = fmt.Errorf("%w: user no longer exists", apperror.ErrUnauthorized)

// Gateway turns a session token into the current user. ResolveByID always
// reads the credential store; ResolveByEmail goes through the user cache.
type Gateway struct {
	Users  repo.UserRepository
	Tokens *helpers.JWTManager
	Cache  UserCache
	Logger *logrus.Logger
}

func NewGateway(users repo.UserRepository, tokens *helpers.JWTManager, cache UserCache, logger *logrus.Logger) *Gateway {
	return &Gateway{Users: users, Tokens: tokens, Cache: cache, Logger: logger}
}

func (g *Gateway) ResolveByID(ctx context.Context, token string) (*entity.User, error) {
	claims, err := g.Tokens.ParseSession(token)
	if err != nil {
		return nil, err
	}
	u, err := g.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, identityErr(err)
	}
	return u, nil
}

// ResolveByEmail may return a stale snapshot: cache entries live until their
// TTL regardless of later writes. The returned user never has a password hash
// when it came from the cache.
func (g *Gateway) ResolveByEmail(ctx context.Context, token string) (*entity.User, error) {
	claims, err := g.Tokens.ParseSession(token)
	if err != nil {
		return nil, err
	}

	snap, ok, err := g.Cache.Get(ctx, claims.Email)
	if err != nil {
		g.Logger.WithError(err).WithField("email", claims.Email).Warn("user cache read failed")
	}
	if ok {
		return snap.User(), nil
	}

	u, err := g.Users.GetByEmail(ctx, claims.Email)
	if err != nil {
		return nil, identityErr(err)
	}
	if err := g.Cache.Put(ctx, claims.Email, u.Snapshot(), 0); err != nil {
		g.Logger.WithError(err).WithField("email", claims.Email).Warn("user cache write failed")
	}
	return u, nil
}

func identityErr(err error) error {
	if errors.Is(err, apperror.ErrNotFound) {
		return ErrIdentityGone
	}
	return err
}
