package router

import "github.com/gin-gonic/gin"

// Module is one feature area of the contacts API (auth, users, contacts,
// debug). Register mounts its routes under the /api group; Name labels it in
// the startup log.
type Module interface {
	Name() string
	Register(rg *gin.RouterGroup)
}
