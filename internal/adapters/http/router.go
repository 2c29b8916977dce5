package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/metropath/internal/pkg/metrics"
)

const requestTimeout = 15 * time.Second

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())
	app.Use(DeprecationMiddleware(DeprecatedRoutes))

	// Health & readiness (no timeout)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	v1.Get("/network", timeout.NewWithContext(NetworkInfoHandler(deps), requestTimeout))
	v1.Get("/network/bounds", timeout.NewWithContext(NetworkBoundsHandler(deps), requestTimeout))
	v1.Get("/network/diagnostics", timeout.NewWithContext(NetworkDiagnosticsHandler(deps), requestTimeout))

	v1.Get("/lines", timeout.NewWithContext(ListLinesHandler(deps), requestTimeout))
	v1.Get("/lines/:id", timeout.NewWithContext(GetLineHandler(deps), requestTimeout))
	v1.Get("/lines/:id/stations", timeout.NewWithContext(LineStationsHandler(deps), requestTimeout))

	v1.Get("/stations", timeout.NewWithContext(ListStationsHandler(deps), requestTimeout))
	v1.Get("/stations/search", timeout.NewWithContext(SearchStationsHandler(deps), requestTimeout))
	v1.Get("/stations/nearest", timeout.NewWithContext(NearestStationHandler(deps), requestTimeout))
	v1.Get("/stations/transfers", timeout.NewWithContext(TransferStationsHandler(deps), requestTimeout))
	v1.Get("/stations/batch", timeout.NewWithContext(BatchStationsHandler(deps), requestTimeout))
	v1.Get("/stations/:id", timeout.NewWithContext(GetStationHandler(deps), requestTimeout))

	// Route planner
	v1.Get("/route", timeout.NewWithContext(RouteHandler(deps), requestTimeout))
	v1.Get("/journeys", timeout.NewWithContext(RouteHandler(deps), requestTimeout))

	// Per-session route history
	v1.Get("/history", timeout.NewWithContext(ListHistoryHandler(deps), requestTimeout))
	v1.Delete("/history", timeout.NewWithContext(DeleteHistoryHandler(deps), requestTimeout))
	v1.Post("/history/:index/select", timeout.NewWithContext(SelectHistoryHandler(deps), requestTimeout))

	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app, DefaultOpenAPIPath)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
