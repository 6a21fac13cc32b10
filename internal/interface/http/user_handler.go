package handlers

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-contacts-api/internal/domain/entity"
	"github.com/oksasatya/go-contacts-api/internal/interface/middleware"
	"github.com/oksasatya/go-contacts-api/pkg/response"
)

const maxAvatarBytes = 5 << 20

type AvatarService interface {
	UploadAvatar(ctx context.Context, u *entity.User, r io.Reader, filename, contentType string) (string, error)
}

type UserHandler struct {
	Svc    AvatarService
	Logger *logrus.Logger
}

func NewUserHandler(svc AvatarService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

// Me GET /api/users/me
func (h *UserHandler) Me(c *gin.Context) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error[any](c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u), "ok", nil)
}

// UploadAvatar PUT /api/users/me/avatar (multipart field "file")
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error[any](c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"file": "is required"})
		return
	}
	if fh.Size > maxAvatarBytes {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"file": "must be at most 5MB"})
		return
	}
	ct := fh.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "image/") {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"file": "must be an image"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		writeError(c, err)
		return
	}
	defer func() { _ = f.Close() }()

	url, err := h.Svc.UploadAvatar(c.Request.Context(), u, f, fh.Filename, ct)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"avatar_url": url}, "avatar updated", nil)
}
