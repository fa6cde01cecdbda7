// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"context"

	"github.com/Niconord59/crm-axivity-sub001/platform/config"
	"github.com/Niconord59/crm-axivity-sub001/platform/logger"
)

// RouterConfig is the config needed by the HTTP router.
type RouterConfig interface {
	config.HTTPConfig
}

// HealthChecker is a dependency probed by /api/health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App is what cmd/api hands to the router once every module is built.
type App struct {
	Config RouterConfig
	Logger *logger.Logger
	// Health maps a dependency name ("database", "redis") to its check.
	// Any failing check turns the health endpoint into a 503.
	Health map[string]HealthChecker
	// Modules are mounted under /api/v1 in order.
	Modules []Module
}
