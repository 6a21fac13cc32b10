package router

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Registry collects the API modules and mounts them under /api in the order
// they were added.
type Registry struct {
	Engine  *gin.Engine
	API     *gin.RouterGroup
	logger  *logrus.Logger
	modules []Module
}

func NewRegistry(engine *gin.Engine, logger *logrus.Logger) *Registry {
	return &Registry{Engine: engine, API: engine.Group("/api"), logger: logger}
}

func (r *Registry) Add(mod Module) {
	r.modules = append(r.modules, mod)
}

// RegisterAll mounts every module and logs how many routes each one added.
func (r *Registry) RegisterAll() {
	for _, m := range r.modules {
		before := len(r.Engine.Routes())
		m.Register(r.API)
		r.logger.WithFields(logrus.Fields{
			"module": m.Name(),
			"routes": len(r.Engine.Routes()) - before,
		}).Debug("module registered")
	}
}
