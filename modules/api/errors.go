package api

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/fillip1984/inveniam/domain/kanban"
	"github.com/fillip1984/inveniam/modules/attachments"
)

// Service errors cross the request-reply boundary as text, so they are
// classified by the markers the domain packages put in their messages.
const (
	markerUnauthorized = "unauthorized"
	markerValidation   = "validation failed"
	markerNotFound     = "not found"
)

// errorStatus returns the HTTP status, error code and client message for err.
func errorStatus(err error) (int, string, string) {
	switch {
	case errors.Is(err, attachments.ErrTooLarge):
		return fiber.StatusRequestEntityTooLarge, "too_large", err.Error()
	case errors.Is(err, attachments.ErrUploadDenied):
		return fiber.StatusUnauthorized, "unauthorized", err.Error()
	case errors.Is(err, kanban.ErrValidation):
		return fiber.StatusBadRequest, "bad_request", err.Error()
	case errors.Is(err, kanban.ErrNotFound):
		return fiber.StatusNotFound, "not_found", err.Error()
	}

	errStr := err.Error()
	if i := strings.Index(errStr, markerUnauthorized); i >= 0 {
		return fiber.StatusUnauthorized, "unauthorized", errStr[i:]
	}
	if i := strings.Index(errStr, markerValidation); i >= 0 {
		return fiber.StatusBadRequest, "bad_request", errStr[i:]
	}
	if i := strings.Index(errStr, markerNotFound); i >= 0 {
		// Keep the noun in front of "not found", e.g. "board not found".
		start := strings.LastIndex(errStr[:i], ": ")
		if start < 0 {
			start = 0
		} else {
			start += 2
		}
		return fiber.StatusNotFound, "not_found", errStr[start:]
	}
	return fiber.StatusInternalServerError, "internal_error", "An internal error occurred"
}

// customErrorHandler handles errors returned from handlers.
func customErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(ErrorResponse{
			Error:   "server_error",
			Message: fe.Message,
		})
	}
	status, code, message := errorStatus(err)
	return c.Status(status).JSON(ErrorResponse{
		Error:   code,
		Message: message,
	})
}
