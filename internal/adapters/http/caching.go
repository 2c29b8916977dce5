package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control headers on GET responses based on endpoint.
// Adds sensible defaults if not already set by the handler.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		// Only set on GET requests
		if c.Method() != "GET" {
			return err
		}

		// Keep a value the handler already set on the response
		if existing := c.GetRespHeader("Cache-Control"); existing != "" {
			return err
		}

		path := c.Path()
		var ttl string

		switch {
		case path == "/v1/health" || path == "/v1/ready":
			ttl = "public, max-age=10"

		case path == "/metrics":
			ttl = "no-cache"

		case path == "/graphql":
			ttl = "private, max-age=0"

		// Per-session or per-query results
		case strings.HasPrefix(path, "/v1/history"), strings.HasPrefix(path, "/v1/route"),
			strings.HasPrefix(path, "/v1/journeys"):
			ttl = "private, no-store"

		case path == "/v1/network/diagnostics":
			ttl = "public, max-age=60"

		// Network topology only changes on import
		case strings.HasPrefix(path, "/v1/lines"), strings.HasPrefix(path, "/v1/stations"):
			ttl = "public, max-age=600"

		case strings.HasPrefix(path, "/v1/"):
			ttl = "public, max-age=300"
		}

		if ttl != "" {
			c.Set("Cache-Control", ttl)
		}

		return err
	}
}
