package repository

import (
	"context"
	"time"

	"github.com/oksasatya/go-contacts-api/internal/domain/entity"
)

// ContactRepository is the owner-scoped contact store. A contact owned by
// someone else is reported exactly like a missing one: apperror.ErrNotFound.
type ContactRepository interface {
	List(ctx context.Context, ownerID int64) ([]entity.Contact, error)
	ListByIDs(ctx context.Context, ownerID int64, ids []int64) ([]entity.Contact, error)
	Get(ctx context.Context, ownerID, id int64) (*entity.Contact, error)
	Create(ctx context.Context, ownerID int64, c *entity.Contact) error
	Update(ctx context.Context, ownerID, id int64, patch entity.ContactPatch) (*entity.Contact, error)
	Delete(ctx context.Context, ownerID, id int64) (*entity.Contact, error)
	Search(ctx context.Context, ownerID int64, text string) ([]entity.Contact, error)
	UpcomingBirthdays(ctx context.Context, ownerID int64, today time.Time, days int) ([]entity.Contact, error)
	// Page walks all contacts regardless of owner, for index backfills.
	Page(ctx context.Context, afterID int64, limit int) ([]entity.Contact, error)
}
