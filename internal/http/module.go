// Package http holds the pieces shared by every HTTP-facing module: the
// Module contract and the dependencies handed to it at route registration.
package http

import (
	"github.com/gin-gonic/gin"
)

// Module is a bounded context that mounts its own routes.
type Module interface {
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext carries the groups a module may mount routes on.
type RouterContext struct {
	Engine *gin.Engine
	// V1 is /api/v1, rate limited per client IP.
	V1 *gin.RouterGroup
}
