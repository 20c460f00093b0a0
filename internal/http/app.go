// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"context"

	"revenue_automation_backend/platform/config"
	"revenue_automation_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App holds the fully initialized application dependencies.
// This is populated by main.go (the composition root) and passed to the router.
type App struct {
	Config config.HTTPConfig
	Logger *logger.Logger
	// Health is used for readiness checks (e.g., DB ping).
	Health HealthChecker
	// Events streams pipeline events to dashboards. Nil disables the route.
	Events gin.HandlerFunc
	// Modules contains all HTTP-facing domain modules.
	Modules []Module
}
