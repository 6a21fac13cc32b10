package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-contacts-api/internal/application"
	"github.com/oksasatya/go-contacts-api/internal/domain/apperror"
	"github.com/oksasatya/go-contacts-api/pkg/response"
)

// writeError maps the error taxonomy to a status code. Only the category
// message reaches the client; unexpected causes are attached to the context
// for the access log.
func writeError(c *gin.Context, err error) {
	status, msg := classify(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	response.Error[any](c, status, msg, nil)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, apperror.ErrAlreadyVerified):
		return http.StatusBadRequest, "email already verified"
	case errors.Is(err, application.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized, "invalid or expired token"
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict, "username or email already registered"
	case errors.Is(err, application.ErrStorageDisabled):
		return http.StatusServiceUnavailable, "avatar upload unavailable"
	case errors.Is(err, apperror.ErrTransport):
		return http.StatusInternalServerError, "could not send email"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
