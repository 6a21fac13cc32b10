package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/go-contacts-api/internal/domain/apperror"
	"github.com/oksasatya/go-contacts-api/internal/domain/entity"
	"github.com/oksasatya/go-contacts-api/internal/domain/repository"
)

const userColumns = `id, username, email, hashed_password, is_verified, COALESCE(avatar_url, ''), created_at, updated_at`

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (username, email, hashed_password, is_verified, avatar_url)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		RETURNING id, created_at, updated_at
	`, u.Username, u.Email, u.PasswordHash, u.IsVerified, u.AvatarURL)

	return mapErr("create user", row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt))
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	return r.getOne(ctx, "get user by id", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, "get user by email", `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.getOne(ctx, "get user by username", `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return r.execOne(ctx, "update password",
		`UPDATE users SET hashed_password = $1, updated_at = now() WHERE id = $2`, hash, id)
}

func (r *UserRepository) SetVerified(ctx context.Context, id int64) error {
	return r.execOne(ctx, "set verified",
		`UPDATE users SET is_verified = TRUE, updated_at = now() WHERE id = $1`, id)
}

func (r *UserRepository) UpdateAvatar(ctx context.Context, id int64, url string) error {
	return r.execOne(ctx, "update avatar",
		`UPDATE users SET avatar_url = $1, updated_at = now() WHERE id = $2`, url, id)
}

func (r *UserRepository) getOne(ctx context.Context, op, query string, arg any) (*entity.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, mapErr(op, err)
	}
	return u, nil
}

func (r *UserRepository) execOne(ctx context.Context, op, query string, args ...any) error {
	res, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return mapErr(op, err)
	}
	if res.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, apperror.ErrNotFound)
	}
	return nil
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsVerified, &u.AvatarURL,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
