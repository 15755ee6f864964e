// Package http defines the application shell: the Module interface domain
// modules implement and the App container main assembles.
package http

import (
	"context"

	"kejani_backend/internal/events"
	"kejani_backend/platform/config"
	"kejani_backend/platform/logger"
)

// RouterConfig narrows the full config to what the router actually reads.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker backs the readiness endpoint, usually with a DB ping.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App is the assembled application the composition root hands to the router.
type App struct {
	Config   RouterConfig
	Logger   *logger.Logger
	Health   HealthChecker
	EventBus events.Bus
	// Modules are the HTTP-facing domain modules, mounted in order.
	Modules []Module
}
