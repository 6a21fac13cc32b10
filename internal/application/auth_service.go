package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-contacts-api/internal/domain/apperror"
	"github.com/oksasatya/go-contacts-api/internal/domain/entity"
	repo "github.com/oksasatya/go-contacts-api/internal/domain/repository"
	"github.com/oksasatya/go-contacts-api/pkg/helpers"
)

var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", apperror.ErrUnauthorized)
	ErrTokenUsed          = fmt.Errorf("%w: token already used", helpers.ErrInvalidToken)
)

const releaseTimeout = 2 * time.Second

type AuthService struct {
	Users  repo.UserRepository
	Tokens *helpers.JWTManager
	Ledger TokenLedger
	Mail   AccountMailer
	Logger *logrus.Logger
}

func NewAuthService(users repo.UserRepository, tokens *helpers.JWTManager, ledger TokenLedger, mail AccountMailer, logger *logrus.Logger) *AuthService {
	return &AuthService{Users: users, Tokens: tokens, Ledger: ledger, Mail: mail, Logger: logger}
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Session is an issued session token.
type Session struct {
	User      *entity.User
	Token     string
	ExpiresAt time.Time
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an unverified user. Duplicate username or email yields
// apperror.ErrConflict.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &entity.User{
		Username:     strings.TrimSpace(in.Username),
		Email:        normalizeEmail(in.Email),
		PasswordHash: hash,
	}
	if err := s.Users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.Logger.WithFields(logrus.Fields{"user_id": u.ID, "username": u.Username}).Info("user registered")
	return u, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.Users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !helpers.CompareHashAndPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	token, exp, err := s.Tokens.IssueSession(u.ID, u.Email)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	return &Session{User: u, Token: token, ExpiresAt: exp}, nil
}

// RequestEmailVerification mails a verification link to u.
func (s *AuthService) RequestEmailVerification(ctx context.Context, u *entity.User) error {
	if u.IsVerified {
		return apperror.ErrAlreadyVerified
	}
	token, exp, err := s.Tokens.IssueEmailVerification(u.Email)
	if err != nil {
		return fmt.Errorf("issue verification token: %w", err)
	}
	return s.Mail.SendVerification(ctx, u.Email, u.Username, token, exp)
}

// ConfirmEmail marks the token's user verified. Confirming an already
// verified account succeeds without a write.
func (s *AuthService) ConfirmEmail(ctx context.Context, token string) (*entity.User, error) {
	claims, err := s.Tokens.ParseEmailVerification(token)
	if err != nil {
		return nil, err
	}
	u, err := s.Users.GetByEmail(ctx, claims.Email)
	if err != nil {
		return nil, err
	}
	if u.IsVerified {
		return u, nil
	}
	if err := s.Users.SetVerified(ctx, u.ID); err != nil {
		return nil, err
	}
	u.IsVerified = true
	return u, nil
}

// RequestPasswordReset mails a reset link. An unknown email is logged and
// reported as success so callers cannot tell which emails have accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.Logger.WithField("email", email).Info("password reset requested for unknown email")
			return nil
		}
		return err
	}
	token, exp, err := s.Tokens.IssuePasswordReset(u.Email)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}
	return s.Mail.SendPasswordReset(ctx, u.Email, u.Username, token, exp)
}

// ResetPassword replaces the password of the token's user. Each reset token
// is accepted once. The user cache is not touched.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	claims, err := s.Tokens.ParsePasswordReset(token)
	if err != nil {
		return err
	}
	u, err := s.Users.GetByEmail(ctx, claims.Email)
	if err != nil {
		return err
	}
	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	fresh, err := s.Ledger.Consume(ctx, claims.ID, claims.ExpiresAt.Time)
	if err != nil {
		return fmt.Errorf("consume reset token: %w", err)
	}
	if !fresh {
		return ErrTokenUsed
	}

	if err := s.Users.UpdatePassword(ctx, u.ID, hash); err != nil {
		// The password is unchanged, so the token stays usable.
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		if rerr := s.Ledger.Release(rctx, claims.ID); rerr != nil {
			s.Logger.WithError(rerr).WithField("user_id", u.ID).Error("release reset token")
		}
		return err
	}
	s.Logger.WithField("user_id", u.ID).Info("password reset")
	return nil
}
