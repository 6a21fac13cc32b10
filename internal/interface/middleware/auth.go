package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-contacts-api/internal/domain/apperror"
	"github.com/oksasatya/go-contacts-api/internal/domain/entity"
	"github.com/oksasatya/go-contacts-api/pkg/helpers"
	"github.com/oksasatya/go-contacts-api/pkg/response"
)

const (
	CtxUser   = "user"
	CtxUserID = "userID"
)

// Resolver turns a session token into the calling user.
type Resolver func(ctx context.Context, token string) (*entity.User, error)

// Auth reads the bearer token (falling back to the access_token cookie),
// resolves it and stores the user under CtxUser and its id under CtxUserID.
func Auth(resolve Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			response.Error[any](c, http.StatusUnauthorized, "missing access token", nil)
			return
		}
		u, err := resolve(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, apperror.ErrUnauthorized) {
				response.Error[any](c, http.StatusUnauthorized, "invalid or expired token", nil)
				return
			}
			_ = c.Error(err)
			response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
			return
		}
		c.Set(CtxUser, u)
		c.Set(CtxUserID, u.ID)
		c.Next()
	}
}

// BearerToken extracts the token from "Authorization: Bearer <t>" or the
// access_token cookie.
func BearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		scheme, tok, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(tok)
		}
		return ""
	}
	if tok, err := c.Cookie(helpers.AccessTokenCookie); err == nil {
		return tok
	}
	return ""
}

// CurrentUser returns the user stored by Auth.
func CurrentUser(c *gin.Context) (*entity.User, bool) {
	v, ok := c.Get(CtxUser)
	if !ok {
		return nil, false
	}
	u, ok := v.(*entity.User)
	return u, ok && u != nil
}
