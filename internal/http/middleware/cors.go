package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// CORS allows cross-origin reads and form posts.
func CORS() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Access-Control-Allow-Origin", "*")
		c.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-Request-ID")
		c.Set("Access-Control-Expose-Headers", "Content-Length, Content-Type, X-Request-ID")
		c.Set("Access-Control-Max-Age", "86400")

		if c.Method() == fiber.MethodOptions {
			return c.SendStatus(fiber.StatusNoContent)
		}

		return c.Next()
	}
}
