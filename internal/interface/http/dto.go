package handlers

import (
	"time"

	"github.com/oksasatya/go-contacts-api/internal/domain/entity"
	"github.com/oksasatya/go-contacts-api/pkg/validation"
)

type userResponse struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	IsVerified bool   `json:"is_verified"`
	AvatarURL  string `json:"avatar_url,omitempty"`
}

func toUserResponse(u *entity.User) userResponse {
	return userResponse{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		IsVerified: u.IsVerified,
		AvatarURL:  u.AvatarURL,
	}
}

type contactResponse struct {
	ID          int64     `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email,omitempty"`
	PhoneNumber string    `json:"phone_number"`
	Birthday    *string   `json:"birthday"`
	ExtraData   string    `json:"extra_data,omitempty"`
	UserID      int64     `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toContactResponse(c *entity.Contact) contactResponse {
	out := contactResponse{
		ID:          c.ID,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		Email:       c.Email,
		PhoneNumber: c.PhoneNumber,
		ExtraData:   c.ExtraData,
		UserID:      c.UserID,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	if c.Birthday != nil {
		s := c.Birthday.Format(validation.DateLayout)
		out.Birthday = &s
	}
	return out
}

func toContactList(cs []entity.Contact) []contactResponse {
	out := make([]contactResponse, 0, len(cs))
	for i := range cs {
		out = append(out, toContactResponse(&cs[i]))
	}
	return out
}

// parseDate reads a YYYY-MM-DD value already checked by the "date" tag.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(validation.DateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}
