package handler

import (
	"github.com/gofiber/fiber/v2"
)

// ErrorHandler returns a Fiber global error handler that converts every
// unhandled error into the standard failure envelope.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		message := "Internal server error"
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
			if e.Message != "" && status < fiber.StatusInternalServerError {
				message = e.Message
			}
		}

		switch status {
		case fiber.StatusNotFound:
			if message == "Internal server error" {
				message = "Resource not found"
			}
		case fiber.StatusMethodNotAllowed:
			message = "Method not allowed"
		}

		return writeError(c, status, message)
	}
}
