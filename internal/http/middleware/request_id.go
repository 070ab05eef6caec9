package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDLocal  = "request_id"
	maxRequestIDLen = 128
)

// RequestID tags each request with the caller's X-Request-ID or a fresh uuid.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := c.Get(RequestIDHeader)
		if rid == "" || len(rid) > maxRequestIDLen {
			rid = uuid.New().String()
		}
		c.Set(RequestIDHeader, rid)
		c.Locals(requestIDLocal, rid)
		return c.Next()
	}
}

// GetRequestID returns the id stored by RequestID, or "".
func GetRequestID(c *fiber.Ctx) string {
	rid, _ := c.Locals(requestIDLocal).(string)
	return rid
}
