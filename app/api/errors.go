package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler is the fiber error handler of the preview server.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if apiErr, ok := err.(Error); ok {
		return c.Status(apiErr.Code).JSON(apiErr)
	}
	if valErr, ok := err.(ValidationError); ok {
		return c.Status(valErr.Status).JSON(valErr)
	}
	if fiberErr, ok := err.(*fiber.Error); ok {
		return c.Status(fiberErr.Code).JSON(Error{Code: fiberErr.Code, Message: fiberErr.Message})
	}
	slog.Error("request failed", "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(Error{
		Code:    fiber.StatusInternalServerError,
		Message: err.Error(),
	})
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
}

// Error implements the error interface.
func (e Error) Error() string { return e.Message }

func NewError(code int, msg string) Error {
	return Error{Code: code, Message: msg}
}

func ErrBadRequest() Error {
	return Error{Code: fiber.StatusBadRequest, Message: "invalid JSON request"}
}

func ErrNotFound(resource string) Error {
	return Error{Code: fiber.StatusNotFound, Message: resource + " not found"}
}

type ValidationError struct {
	Status int               `json:"status"`
	Errors map[string]string `json:"errors"`
}

func (e ValidationError) Error() string { return "validation failed" }

func NewValidationError(errors map[string]string) ValidationError {
	return ValidationError{
		Status: fiber.StatusUnprocessableEntity,
		Errors: errors,
	}
}
