// Package response provides the JSON response helpers used by all handlers,
// including the mapping from the domain error taxonomy to HTTP statuses.
package response

import (
	"errors"

	errs "github.com/bbraka/wallet-pay-sub000/internal/errors"

	"github.com/gofiber/fiber/v2"
)

func Success(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(fiber.Map{
		"message": message,
		"data":    data,
	})
}

func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}

func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message)
}

func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusUnauthorized, message)
}

func ServerError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, message)
}

// DomainError renders a domain error with the status its code maps to.
// Non-domain errors become an opaque 500 so storage details never leak.
func DomainError(c *fiber.Ctx, err error) error {
	var de *errs.DomainError
	if !errors.As(err, &de) {
		return ServerError(c, "internal error")
	}

	status := fiber.StatusInternalServerError
	switch de.Code {
	case errs.CodeValidation:
		status = fiber.StatusBadRequest
	case errs.CodeInsufficientBalance:
		status = fiber.StatusUnprocessableEntity
	case errs.CodeInvalidTransition:
		status = fiber.StatusConflict
	case errs.CodeNotFound:
		status = fiber.StatusNotFound
	case errs.CodeLockTimeout:
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"error":   de.Message,
		"code":    de.Code,
		"details": de.Details,
	})
}
