// Package security provides rate limiting and request hygiene middleware for
// the HTTP tool transport.
package security

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// RequestIDKey is the fiber.Locals key holding the request ID.
const RequestIDKey = "requestID"

// DefaultMaxBodyBytes caps tool call bodies.
const DefaultMaxBodyBytes = 10 * 1024 * 1024

// Middleware provides security middleware for Fiber
type Middleware struct {
	rateLimiter *RateLimiter
}

// NewMiddleware creates a new security middleware
func NewMiddleware(rl *RateLimiter) *Middleware {
	return &Middleware{rateLimiter: rl}
}

// ClientID identifies the caller: API key header first, then IP.
func ClientID(c *fiber.Ctx) string {
	if id := c.Get("X-API-Key"); id != "" {
		return id
	}
	return c.IP()
}

// RateLimitMiddleware returns a rate limiting middleware
func (m *Middleware) RateLimitMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		info, ok := m.rateLimiter.Allow(ClientID(c))

		c.Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(max(info.Remaining, 0)))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetAt.Unix(), 10))

		if !ok {
			retry := int64(time.Until(info.ResetAt).Seconds())
			if retry < 1 {
				retry = 1
			}
			c.Set("Retry-After", strconv.FormatInt(retry, 10))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success":     false,
				"error":       "Rate limit exceeded",
				"retry_after": retry,
			})
		}

		return c.Next()
	}
}

// SecurityHeadersMiddleware adds security headers and a request ID
func SecurityHeadersMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "no-referrer")
		c.Set("Content-Security-Policy", "default-src 'none'")
		c.Set("Cache-Control", "no-store")

		requestID := c.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("X-Request-ID", requestID)
		c.Locals(RequestIDKey, requestID)

		return c.Next()
	}
}

// RequestValidationMiddleware rejects non-JSON and oversized POST bodies
func RequestValidationMiddleware(maxBodyBytes int) fiber.Handler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}

	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost {
			return c.Next()
		}

		contentType := c.Get(fiber.HeaderContentType)
		if contentType != "" && !strings.HasPrefix(contentType, fiber.MIMEApplicationJSON) {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
				"success": false,
				"error":   "Content-Type must be application/json",
			})
		}

		if len(c.Body()) > maxBodyBytes {
			return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
				"success": false,
				"error":   "Request body too large",
			})
		}

		return c.Next()
	}
}

// IPAllowlistMiddleware rejects callers outside allowedIPs. An empty list allows everyone.
func IPAllowlistMiddleware(allowedIPs []string) fiber.Handler {
	ipSet := make(map[string]bool, len(allowedIPs))
	for _, ip := range allowedIPs {
		ipSet[strings.TrimSpace(ip)] = true
	}

	return func(c *fiber.Ctx) error {
		if len(ipSet) == 0 || ipSet[c.IP()] {
			return c.Next()
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"error":   "Access denied",
		})
	}
}
