package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-contacts-api/internal/application"
	"github.com/oksasatya/go-contacts-api/internal/domain/entity"
	"github.com/oksasatya/go-contacts-api/internal/interface/middleware"
	"github.com/oksasatya/go-contacts-api/pkg/helpers"
	"github.com/oksasatya/go-contacts-api/pkg/response"
	"github.com/oksasatya/go-contacts-api/pkg/validation"
)

// AuthService is the account flow used by AuthHandler.
type AuthService interface {
	Register(ctx context.Context, in application.RegisterInput) (*entity.User, error)
	Login(ctx context.Context, email, password string) (*application.Session, error)
	RequestEmailVerification(ctx context.Context, u *entity.User) error
	ConfirmEmail(ctx context.Context, token string) (*entity.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type AuthHandler struct {
	Svc     AuthService
	Logger  *logrus.Logger
	Cookies *helpers.Manager
}

func NewAuthHandler(svc AuthService, logger *logrus.Logger, cookies *helpers.Manager) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger, Cookies: cookies}
}

type registerRequest struct {
	Username string `json:"username" binding:"required,username"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,pwd"`
}

type loginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        userResponse `json:"user"`
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return false
	}
	return true
}

// Register POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.Svc.Register(c.Request.Context(), application.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, toUserResponse(u), "user registered", nil)
}

// Login POST /api/auth/login
// The session token is returned in the body and also set as an HttpOnly cookie.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	s, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	h.Cookies.SetAccessToken(c, s.Token, s.ExpiresAt)
	response.Success(c, http.StatusOK, loginResponse{
		AccessToken: s.Token,
		TokenType:   "bearer",
		ExpiresAt:   s.ExpiresAt,
		User:        toUserResponse(s.User),
	}, "login successful", nil)
}

// Logout POST /api/auth/logout clears the session cookie. Bearer tokens stay
// valid until they expire.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, gin.H{"logged_out": true}, "logged out", nil)
}

// RequestVerification POST /api/auth/verify-email (auth required)
func (h *AuthHandler) RequestVerification(c *gin.Context) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error[any](c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	if err := h.Svc.RequestEmailVerification(c.Request.Context(), u); err != nil {
		writeError(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "verification email sent", nil)
}

// ConfirmEmail GET /api/auth/verify-email/:token
func (h *AuthHandler) ConfirmEmail(c *gin.Context) {
	u, err := h.Svc.ConfirmEmail(c.Request.Context(), c.Param("token"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u), "email verified", nil)
}

// RequestPasswordReset POST /api/auth/request-password-reset
// Always answers with the same message whether or not the email is known.
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req emailRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Svc.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		writeError(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "if the email is registered, a reset link has been sent", nil)
}

// ResetPassword POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Svc.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		writeError(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "password reset successful", nil)
}
