package repository

import (
	"context"

	"github.com/oksasatya/go-contacts-api/internal/domain/entity"
)

// UserRepository defines the credential store operations.
// Lookups return apperror.ErrNotFound when no row matches and Create returns
// apperror.ErrConflict on a duplicate username or email.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
	SetVerified(ctx context.Context, id int64) error
	UpdateAvatar(ctx context.Context, id int64, url string) error
}
