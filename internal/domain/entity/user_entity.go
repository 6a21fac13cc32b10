package entity

import (
	"time"
)

// User is the aggregate root for the account domain.
// PasswordHash holds a bcrypt hash and never leaves the service boundary.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	IsVerified   bool
	AvatarURL    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserSnapshot is the cacheable projection of a User. It deliberately has no
// password hash field.
type UserSnapshot struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	IsVerified bool   `json:"is_verified"`
	AvatarURL  string `json:"avatar_url,omitempty"`
}

func (u *User) Snapshot() UserSnapshot {
	return UserSnapshot{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		IsVerified: u.IsVerified,
		AvatarURL:  u.AvatarURL,
	}
}

// User rebuilds a User from a snapshot. The result carries no password hash.
func (s UserSnapshot) User() *User {
	return &User{
		ID:         s.ID,
		Username:   s.Username,
		Email:      s.Email,
		IsVerified: s.IsVerified,
		AvatarURL:  s.AvatarURL,
	}
}
