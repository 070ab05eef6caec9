package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	infraPrometheus "github.com/sifan077/ShortLink/internal/infra/prometheus"
)

// Metrics records request latency by method, route pattern and status.
func Metrics(metrics *infraPrometheus.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if metrics == nil {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		// Route pattern keeps label cardinality bounded (/s/:code, not /s/abc123).
		metrics.ObserveRequest(c.Method(), c.Route().Path, strconv.Itoa(status), time.Since(start).Seconds())
		return err
	}
}
