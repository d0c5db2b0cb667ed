package handler

import (
	"github.com/gofiber/fiber/v2"

	"creditdocs/internal/http/middleware"
)

// Response is the uniform JSON envelope: success is always present,
// message/data on success, errors on failure.
type Response struct {
	Success   bool     `json:"success"`
	Message   string   `json:"message,omitempty"`
	Data      any      `json:"data,omitempty"`
	Errors    []string `json:"errors,omitempty"`
	RequestID string   `json:"requestId,omitempty"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func writeSuccess(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Response{
		Success:   true,
		Message:   message,
		Data:      data,
		RequestID: requestIDFromCtx(c),
	})
}

// writeError writes a failure envelope without leaking internal details.
func writeError(c *fiber.Ctx, status int, message string, errs ...string) error {
	return c.Status(status).JSON(Response{
		Success:   false,
		Message:   message,
		Errors:    errs,
		RequestID: requestIDFromCtx(c),
	})
}
