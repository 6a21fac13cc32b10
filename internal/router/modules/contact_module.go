package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/go-contacts-api/internal/interface/http"
)

type ContactModule struct {
	Handler *handlers.ContactHandler
	Auth    gin.HandlerFunc
}

func NewContactModule(h *handlers.ContactHandler, auth gin.HandlerFunc) *ContactModule {
	return &ContactModule{Handler: h, Auth: auth}
}

func (m *ContactModule) Name() string { return "contacts" }

func (m *ContactModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/contacts")
	g.Use(m.Auth)
	{
		g.GET("", m.Handler.List)
		g.POST("", m.Handler.Create)
		g.GET("/search", m.Handler.Search)
		g.GET("/birthdays", m.Handler.Birthdays)
		g.GET("/:id", m.Handler.Get)
		g.PUT("/:id", m.Handler.Update)
		g.DELETE("/:id", m.Handler.Delete)
	}
}
