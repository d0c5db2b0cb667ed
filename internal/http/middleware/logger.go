package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"creditdocs/internal/logging"
)

// Logger logs each HTTP request as one structured record: request_id,
// method, path, status, and latency in milliseconds.
func Logger(log logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		rid, _ := c.Locals(RequestIDLocalKey).(string)
		status := c.Response().StatusCode()
		if err != nil {
			if fiberErr, ok := err.(*fiber.Error); ok {
				status = fiberErr.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		log.Info(c.UserContext(), "http request",
			"request_id", rid,
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency_ms", float64(time.Since(start).Microseconds())/1000.0,
		)

		return err
	}
}
