package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-contacts-api/internal/domain/apperror"
	"github.com/oksasatya/go-contacts-api/internal/domain/entity"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

var userCols = []string{"id", "username", "email", "hashed_password", "is_verified", "avatar_url", "created_at", "updated_at"}

func TestUserRepository_Create(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("ann", "ann@example.com", "hash", false, "").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(42), now, now))

	u := &entity.User{Username: "ann", Email: "ann@example.com", PasswordHash: "hash"}
	require.NoError(t, repo.Create(context.Background(), u))
	assert.Equal(t, int64(42), u.ID)
	assert.Equal(t, now, u.CreatedAt)
}

func TestUserRepository_Create_Conflict(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("ann", "ann@example.com", "hash", false, "").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	err := repo.Create(context.Background(), &entity.User{Username: "ann", Email: "ann@example.com", PasswordHash: "hash"})
	require.ErrorIs(t, err, apperror.ErrConflict)
	assert.Contains(t, err.Error(), "users_email_key")
}

func TestUserRepository_GetByEmail(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1`).
		WithArgs("ann@example.com").
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(int64(1), "ann", "ann@example.com", "hash", true, "https://cdn/a.png", now, now))

	u, err := repo.GetByEmail(context.Background(), "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
	assert.True(t, u.IsVerified)
	assert.Equal(t, "https://cdn/a.png", u.AvatarURL)
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \$1`).
		WithArgs(int64(9)).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 9)
	require.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUserRepository_GetByUsername_DBError(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE username = \$1`).
		WithArgs("ann").
		WillReturnError(errors.New("db down"))

	_, err := repo.GetByUsername(context.Background(), "ann")
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperror.ErrNotFound)
	assert.Contains(t, err.Error(), "db down")
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectExec(`UPDATE users SET hashed_password = \$1`).
		WithArgs("newhash", int64(3)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.UpdatePassword(context.Background(), 3, "newhash"))
}

func TestUserRepository_SetVerified_NoRows(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectExec(`UPDATE users SET is_verified = TRUE`).
		WithArgs(int64(3)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	require.ErrorIs(t, repo.SetVerified(context.Background(), 3), apperror.ErrNotFound)
}

func TestUserRepository_UpdateAvatar(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectExec(`UPDATE users SET avatar_url = \$1`).
		WithArgs("https://storage.googleapis.com/b/avatars/3/x.png", int64(3)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.UpdateAvatar(context.Background(), 3, "https://storage.googleapis.com/b/avatars/3/x.png"))
}
