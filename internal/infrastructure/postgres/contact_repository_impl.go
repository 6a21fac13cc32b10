package postgres

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/go-contacts-api/internal/domain/entity"
	"github.com/oksasatya/go-contacts-api/internal/domain/repository"
)

const contactColumns = `id, first_name, last_name, COALESCE(email, ''), phone_number, birthday, COALESCE(extra_data, ''), user_id, created_at, updated_at`

type ContactRepository struct {
	db DBTX
}

func NewContactRepository(db DBTX) *ContactRepository {
	return &ContactRepository{db: db}
}

func (r *ContactRepository) List(ctx context.Context, ownerID int64) ([]entity.Contact, error) {
	return r.query(ctx, "list contacts",
		`SELECT `+contactColumns+` FROM contacts WHERE user_id = $1 ORDER BY id`, ownerID)
}

func (r *ContactRepository) ListByIDs(ctx context.Context, ownerID int64, ids []int64) ([]entity.Contact, error) {
	if len(ids) == 0 {
		return []entity.Contact{}, nil
	}
	return r.query(ctx, "list contacts by ids",
		`SELECT `+contactColumns+` FROM contacts WHERE user_id = $1 AND id = ANY($2) ORDER BY id`, ownerID, ids)
}

// Page returns up to limit contacts of every owner with id > afterID, in id
// order. It feeds the search index backfill and is not owner-scoped.
func (r *ContactRepository) Page(ctx context.Context, afterID int64, limit int) ([]entity.Contact, error) {
	return r.query(ctx, "page contacts",
		`SELECT `+contactColumns+` FROM contacts WHERE id > $1 ORDER BY id LIMIT $2`, afterID, limit)
}

func (r *ContactRepository) Get(ctx context.Context, ownerID, id int64) (*entity.Contact, error) {
	c, err := scanContact(r.db.QueryRow(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE id = $1 AND user_id = $2`, id, ownerID))
	if err != nil {
		return nil, mapErr("get contact", err)
	}
	return c, nil
}

func (r *ContactRepository) Create(ctx context.Context, ownerID int64, c *entity.Contact) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO contacts (first_name, last_name, email, phone_number, birthday, extra_data, user_id)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, NULLIF($6, ''), $7)
		RETURNING id, created_at, updated_at
	`, c.FirstName, c.LastName, c.Email, c.PhoneNumber, c.Birthday, c.ExtraData, ownerID)
	if err := row.Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return mapErr("create contact", err)
	}
	c.UserID = ownerID
	return nil
}

// Update applies the non-nil fields of patch. The owner filter lives in the
// WHERE clause so a foreign contact is indistinguishable from a missing one.
func (r *ContactRepository) Update(ctx context.Context, ownerID, id int64, patch entity.ContactPatch) (*entity.Contact, error) {
	c, err := scanContact(r.db.QueryRow(ctx, `
		UPDATE contacts SET
			first_name   = COALESCE($3, first_name),
			last_name    = COALESCE($4, last_name),
			email        = COALESCE($5, email),
			phone_number = COALESCE($6, phone_number),
			birthday     = COALESCE($7, birthday),
			extra_data   = COALESCE($8, extra_data),
			updated_at   = now()
		WHERE id = $1 AND user_id = $2
		RETURNING `+contactColumns,
		id, ownerID, patch.FirstName, patch.LastName, patch.Email, patch.PhoneNumber, patch.Birthday, patch.ExtraData))
	if err != nil {
		return nil, mapErr("update contact", err)
	}
	return c, nil
}

func (r *ContactRepository) Delete(ctx context.Context, ownerID, id int64) (*entity.Contact, error) {
	c, err := scanContact(r.db.QueryRow(ctx,
		`DELETE FROM contacts WHERE id = $1 AND user_id = $2 RETURNING `+contactColumns, id, ownerID))
	if err != nil {
		return nil, mapErr("delete contact", err)
	}
	return c, nil
}

// Search does a case-insensitive substring match on first name, last name
// and email.
func (r *ContactRepository) Search(ctx context.Context, ownerID int64, text string) ([]entity.Contact, error) {
	pattern := "%" + escapeLike(text) + "%"
	return r.query(ctx, "search contacts", `
		SELECT `+contactColumns+` FROM contacts
		WHERE user_id = $1
		  AND (first_name ILIKE $2 OR last_name ILIKE $2 OR email ILIKE $2)
		ORDER BY id`, ownerID, pattern)
}

// UpcomingBirthdays returns contacts whose birthday, ignoring the year, falls
// within [today, today+days], ordered by the next occurrence.
func (r *ContactRepository) UpcomingBirthdays(ctx context.Context, ownerID int64, today time.Time, days int) ([]entity.Contact, error) {
	all, err := r.query(ctx, "upcoming birthdays",
		`SELECT `+contactColumns+` FROM contacts WHERE user_id = $1 AND birthday IS NOT NULL`, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]entity.Contact, 0, len(all))
	for _, c := range all {
		if c.BirthdayWithin(today, days) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, _ := out[i].NextBirthday(today)
		b, _ := out[j].NextBirthday(today)
		return a.Before(b)
	})
	return out, nil
}

func (r *ContactRepository) query(ctx context.Context, op, q string, args ...any) ([]entity.Contact, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, mapErr(op, err)
	}
	defer rows.Close()

	out := make([]entity.Contact, 0)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, mapErr(op, err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(op, err)
	}
	return out, nil
}

func scanContact(row pgx.Row) (*entity.Contact, error) {
	c := &entity.Contact{}
	if err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.PhoneNumber, &c.Birthday,
		&c.ExtraData, &c.UserID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var _ repository.ContactRepository = (*ContactRepository)(nil)
