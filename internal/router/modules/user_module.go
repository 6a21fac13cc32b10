package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/go-contacts-api/internal/interface/http"
)

// UserModule serves the current user. /me is resolved through the user
// cache; the avatar upload always reads the credential store.
type UserModule struct {
	Handler *handlers.UserHandler
	ByID    gin.HandlerFunc
	ByEmail gin.HandlerFunc
}

func NewUserModule(h *handlers.UserHandler, byID, byEmail gin.HandlerFunc) *UserModule {
	return &UserModule{Handler: h, ByID: byID, ByEmail: byEmail}
}

func (m *UserModule) Name() string { return "users" }

func (m *UserModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/users")
	g.GET("/me", m.ByEmail, m.Handler.Me)
	g.PUT("/me/avatar", m.ByID, m.Handler.UploadAvatar)
}
