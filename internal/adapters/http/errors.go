package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/metropath/internal/core/usecases"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // bad_request, not_found, no_route, internal_error, ...
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, 400, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, 404, "not_found", msg)
}

// errNoRoute returns a 404 error distinct from an unknown resource.
func errNoRoute(c *fiber.Ctx, msg string) error {
	return newError(c, 404, "no_route", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, "internal_error", msg)
}

// errServiceUnavailable returns a 503 error.
func errServiceUnavailable(c *fiber.Ctx, msg string) error {
	return newError(c, 503, "unavailable", msg)
}

// errFromService maps usecase sentinel errors to API errors.
func errFromService(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, usecases.ErrNoRoute):
		return errNoRoute(c, err.Error())
	case errors.Is(err, usecases.ErrStationNotFound),
		errors.Is(err, usecases.ErrLineNotFound),
		errors.Is(err, usecases.ErrHistoryIndex):
		return errNotFound(c, err.Error())
	case errors.Is(err, usecases.ErrInvalidArgument):
		return errBadRequest(c, err.Error())
	case errors.Is(err, usecases.ErrInvalidNetwork):
		LoggerFromCtx(c.UserContext()).Error("network rejected", "error", err)
		return errServiceUnavailable(c, "network data is invalid")
	default:
		LoggerFromCtx(c.UserContext()).Error("request failed", "error", err, "path", c.Path())
		return errInternal(c, "internal error")
	}
}


// ErrorHandler renders errors that escape handlers, such as unknown routes
// and request timeouts, in the APIError envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	code := "internal_error"
	msg := "internal error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
		msg = fe.Message
		switch status {
		case fiber.StatusNotFound:
			code = "not_found"
		case fiber.StatusRequestTimeout:
			code = "timeout"
		case fiber.StatusUpgradeRequired:
			code = "upgrade_required"
		default:
			if status < 500 {
				code = "bad_request"
			}
		}
	} else {
		LoggerFromCtx(c.UserContext()).Error("unhandled error", "error", err, "path", c.Path())
	}
	return newError(c, status, code, msg)
}
