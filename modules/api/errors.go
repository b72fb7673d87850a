package api

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// validationMarkers identify input errors raised by the auth and task services.
var validationMarkers = []string{
	"is required",
	"must be",
	"invalid",
	"do not match",
	"unsupported export format",
	"current password is incorrect",
}

// handleServiceError maps service errors to HTTP responses by matching known
// error messages, since errors cross the service boundary as text. Unknown
// errors are logged and reported as 500 without details.
func handleServiceError(c *fiber.Ctx, err error) error {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "invalid email or password"):
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "Invalid email or password",
		})
	case strings.Contains(errStr, "not found"):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: serviceMessage(errStr),
		})
	case strings.Contains(errStr, "already exists"):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Error:   "conflict",
			Message: serviceMessage(errStr),
		})
	}

	for _, marker := range validationMarkers {
		if strings.Contains(errStr, marker) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error:   "bad_request",
				Message: serviceMessage(errStr),
			})
		}
	}

	log.Printf("[api] Internal error on %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:   "internal_error",
		Message: "An unexpected error occurred",
	})
}

// serviceMessage strips the adapter prefix such as "get-task service call
// failed: " from a service error.
func serviceMessage(errStr string) string {
	if i := strings.LastIndex(errStr, "failed: "); i >= 0 {
		return errStr[i+len("failed: "):]
	}
	return errStr
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   "bad_request",
		Message: message,
	})
}
