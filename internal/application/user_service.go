package application

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-contacts-api/internal/domain/entity"
	repo "github.com/oksasatya/go-contacts-api/internal/domain/repository"
	"github.com/oksasatya/go-contacts-api/pkg/helpers"
)

var ErrStorageDisabled = errors.New("avatar storage not configured")

type UserService struct {
	Users   repo.UserRepository
	Storage AvatarStorage
	Logger  *logrus.Logger
}

func NewUserService(users repo.UserRepository, storage AvatarStorage, logger *logrus.Logger) *UserService {
	return &UserService{Users: users, Storage: storage, Logger: logger}
}

// Me reloads the user from the credential store.
func (s *UserService) Me(ctx context.Context, userID int64) (*entity.User, error) {
	return s.Users.GetByID(ctx, userID)
}

// UploadAvatar stores r under avatars/<uid>/ and saves the resulting URL.
func (s *UserService) UploadAvatar(ctx context.Context, u *entity.User, r io.Reader, filename, contentType string) (string, error) {
	if s.Storage == nil {
		return "", ErrStorageDisabled
	}
	url, err := s.Storage.Upload(ctx, helpers.AvatarObjectPath(u.ID, filename), contentType, r)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("avatar upload failed")
		return "", fmt.Errorf("upload avatar: %w", err)
	}
	if err := s.Users.UpdateAvatar(ctx, u.ID, url); err != nil {
		return "", err
	}
	u.AvatarURL = url
	return url, nil
}
