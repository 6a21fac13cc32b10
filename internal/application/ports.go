package application

import (
	"context"
	"io"
	"time"

	"github.com/oksasatya/go-contacts-api/internal/domain/entity"
)

// UserCache is the read-through snapshot cache keyed by email.
type UserCache interface {
	Get(ctx context.Context, email string) (*entity.UserSnapshot, bool, error)
	Put(ctx context.Context, email string, snap entity.UserSnapshot, ttl time.Duration) error
}

// TokenLedger records consumed single-use tokens. Release undoes a Consume
// whose guarded write did not happen.
type TokenLedger interface {
	Consume(ctx context.Context, jti string, expiresAt time.Time) (bool, error)
	Release(ctx context.Context, jti string) error
}

// AccountMailer sends the verification and password-reset emails.
type AccountMailer interface {
	SendVerification(ctx context.Context, to, username, token string, expiresAt time.Time) error
	SendPasswordReset(ctx context.Context, to, username, token string, expiresAt time.Time) error
}

// AvatarStorage stores an uploaded image and returns its public URL.
type AvatarStorage interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
}

// ContactIndex is the optional full-text index over contacts.
type ContactIndex interface {
	Index(ctx context.Context, c *entity.Contact) error
	IndexAll(ctx context.Context, cs []entity.Contact) error
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, ownerID int64, text string, size int) ([]int64, error)
}
