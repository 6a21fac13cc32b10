package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/go-contacts-api/internal/interface/http"
)

type AuthModule struct {
	Handler *handlers.AuthHandler
	Auth    gin.HandlerFunc
}

func NewAuthModule(h *handlers.AuthHandler, auth gin.HandlerFunc) *AuthModule {
	return &AuthModule{Handler: h, Auth: auth}
}

func (m *AuthModule) Name() string { return "auth" }

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/auth")
	g.POST("/register", m.Handler.Register)
	g.POST("/login", m.Handler.Login)
	g.POST("/logout", m.Handler.Logout)
	g.GET("/verify-email/:token", m.Handler.ConfirmEmail)
	g.POST("/request-password-reset", m.Handler.RequestPasswordReset)
	g.POST("/reset-password", m.Handler.ResetPassword)

	g.POST("/verify-email", m.Auth, m.Handler.RequestVerification)
}
