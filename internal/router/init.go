package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-contacts-api/internal/container"
	handlers "github.com/oksasatya/go-contacts-api/internal/interface/http"
	"github.com/oksasatya/go-contacts-api/internal/interface/middleware"
	"github.com/oksasatya/go-contacts-api/internal/router/modules"
)

// InitModules builds the handlers from the container and registers every
// feature module.
func InitModules(r *Registry, c *container.Container) {
	authHandler := handlers.NewAuthHandler(c.AuthService, c.Logger, c.Cookies)
	userHandler := handlers.NewUserHandler(c.UserService, c.Logger)
	contactHandler := handlers.NewContactHandler(c.ContactService, c.Logger)

	byID := middleware.Auth(c.Gateway.ResolveByID)
	byEmail := middleware.Auth(c.Gateway.ResolveByEmail)

	r.Add(modules.NewAuthModule(authHandler, byEmail))
	r.Add(modules.NewUserModule(userHandler, byID, byEmail))
	r.Add(modules.NewContactModule(contactHandler, byID))
	if c.Config.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}

// corsConfig allows credentials for the listed origins. With no origins
// configured every origin is allowed, without credentials.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowOrigins = nil
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	}
	return cfg
}

// NewEngine returns the Gin engine with global middleware, the root welcome
// route and all API modules.
func NewEngine(c *container.Container) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RealIP())
	r.Use(cors.New(corsConfig(c.Config.CORSOrigins())))
	if c.Config.HTTPLogEnabled {
		r.Use(middleware.AccessLog(c.Logger))
	}

	r.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"message": "Welcome to the " + c.Config.AppName + " API"})
	})

	reg := NewRegistry(r, c.Logger)
	InitModules(reg, c)
	reg.RegisterAll()
	return r
}
