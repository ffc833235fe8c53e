package serverutils

import (
	"errors"

	"ai-docchat-be/internal/repository/contract"
	"ai-docchat-be/internal/repository/memory"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ErrorHandlerMiddleware maps domain errors returned by handlers onto HTTP
// status codes so controllers can just `return err`.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if err == nil {
			return nil
		}

		var validationErrs validator.ValidationErrors
		var fiberErr *fiber.Error

		switch {
		case errors.As(err, &validationErrs):
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse(err.Error()))
		case errors.Is(err, contract.ErrShardKeyMismatch):
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse(err.Error()))
		case errors.Is(err, memory.ErrNotFound),
			errors.Is(err, contract.ErrRecordNotFound),
			errors.Is(err, gorm.ErrRecordNotFound):
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse(err.Error()))
		case errors.Is(err, memory.ErrConflict):
			return c.Status(fiber.StatusConflict).JSON(ErrorResponse(err.Error()))
		case errors.As(err, &fiberErr):
			return c.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Message))
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse("internal server error"))
		}
	}
}
