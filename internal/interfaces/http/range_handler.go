package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dcastellanos/facturacion-api/internal/application/billing"
	"github.com/dcastellanos/facturacion-api/internal/application/dto"
)

// RangeHandler maneja la administración de rangos CAI (protegido).
type RangeHandler struct {
	uc *billing.RangeUseCase
}

// NewRangeHandler construye el handler.
func NewRangeHandler(uc *billing.RangeUseCase) *RangeHandler {
	return &RangeHandler{uc: uc}
}

// Create registra una autorización de impresión recibida del SAR.
// POST /api/ranges
func (h *RangeHandler) Create(c *fiber.Ctx) error {
	var in dto.RegisterRangeRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	r, err := h.uc.RegisterRange(c.Context(), in)
	if err != nil {
		return domainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(r)
}

// List lista los rangos con utilización y condiciones derivadas.
// GET /api/ranges
func (h *RangeHandler) List(c *fiber.Ctx) error {
	ranges, err := h.uc.ListRanges(c.Context())
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(ranges)
}

// Deactivate pasa el rango a INACTIVA.
// POST /api/ranges/:id/deactivate
func (h *RangeHandler) Deactivate(c *fiber.Ctx) error {
	r, err := h.uc.DeactivateRange(c.Context(), c.Params("id"))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(r)
}

// Reactivate pasa el rango de INACTIVA a ACTIVA si sigue vigente y con números.
// POST /api/ranges/:id/reactivate
func (h *RangeHandler) Reactivate(c *fiber.Ctx) error {
	r, err := h.uc.ReactivateRange(c.Context(), c.Params("id"))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(r)
}
