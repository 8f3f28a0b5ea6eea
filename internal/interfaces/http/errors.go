package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/dcastellanos/facturacion-api/internal/application/dto"
	"github.com/dcastellanos/facturacion-api/internal/domain"
)

// domainError mapea los errores centinela del dominio a respuestas HTTP.
// RANGE_EXHAUSTED y NO_AUTHORIZATION se distinguen a propósito: el primero pide
// registrar un rango nuevo ante el SAR, el segundo puede ser un rango INACTIVA
// que un administrador reactiva.
func domainError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()})
	case errors.Is(err, domain.ErrRangeExhausted):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "RANGE_EXHAUSTED", Message: err.Error()})
	case errors.Is(err, domain.ErrNoAuthorization):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "NO_AUTHORIZATION", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidState):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVALID_STATE", Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
	}
}
