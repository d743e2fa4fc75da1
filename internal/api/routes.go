package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/ahrdadan/browsemd/internal/events"
	"github.com/ahrdadan/browsemd/internal/security"
	"github.com/ahrdadan/browsemd/internal/tools"
)

// RouteConfig holds configuration for routes
type RouteConfig struct {
	RateLimitRequests int           // calls per window
	RateLimitWindow   time.Duration // time window
	BurstMax          int           // calls per second
	MaxBodyBytes      int
	AllowedIPs        []string
}

// DefaultRouteConfig returns default route configuration
func DefaultRouteConfig() RouteConfig {
	return RouteConfig{
		RateLimitRequests: 60,
		RateLimitWindow:   time.Minute,
		BurstMax:          10,
		MaxBodyBytes:      security.DefaultMaxBodyBytes,
	}
}

// SetupRoutes configures all API routes. The returned limiter must be stopped on shutdown.
func SetupRoutes(app *fiber.App, service *tools.Service, hub *events.Hub, config RouteConfig) *security.RateLimiter {
	handler := NewHandler(service, hub)

	rateLimiter := security.NewRateLimiter(security.RateLimitConfig{
		RequestsPerWindow: config.RateLimitRequests,
		WindowDuration:    config.RateLimitWindow,
		BurstMax:          config.BurstMax,
	})
	secMiddleware := security.NewMiddleware(rateLimiter)

	app.Use(security.IPAllowlistMiddleware(config.AllowedIPs))

	// Health check (no rate limit)
	app.Get("/health", handler.HealthCheck)
	app.Get("/browser/status", handler.BrowserStatus)

	toolsGroup := app.Group("/tools")
	toolsGroup.Use(security.SecurityHeadersMiddleware())
	toolsGroup.Use(security.RequestValidationMiddleware(config.MaxBodyBytes))
	toolsGroup.Use(secMiddleware.RateLimitMiddleware())
	toolsGroup.Get("", handler.ListTools)
	toolsGroup.Post("/:name", handler.CallTool)

	app.Get("/events", handler.StreamEvents)

	// WebSocket endpoint for lifecycle events
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/events", websocket.New(handler.HandleWebSocket))

	return rateLimiter
}
