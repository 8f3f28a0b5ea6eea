package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dcastellanos/facturacion-api/internal/application/billing"
	"github.com/dcastellanos/facturacion-api/internal/application/dto"
	"github.com/dcastellanos/facturacion-api/pkg/logger"
)

// InvoiceHandler maneja las peticiones HTTP de facturación (protegido).
type InvoiceHandler struct {
	create    *billing.CreateInvoiceUseCase
	lifecycle *billing.LifecycleUseCase
	queries   *billing.InvoiceQueryUseCase
	pdf       *billing.PDFUseCase
	log       *logger.Logger
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(
	create *billing.CreateInvoiceUseCase,
	lifecycle *billing.LifecycleUseCase,
	queries *billing.InvoiceQueryUseCase,
	pdf *billing.PDFUseCase,
	log *logger.Logger,
) *InvoiceHandler {
	return &InvoiceHandler{create: create, lifecycle: lifecycle, queries: queries, pdf: pdf, log: log}
}

// Create emite una factura asignando el siguiente correlativo del rango CAI.
// POST /api/invoices
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	actorID := GetUserID(c)
	if actorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.CreateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	invoice, err := h.create.CreateInvoice(c.Context(), actorID, in)
	if err != nil {
		return domainError(c, err)
	}
	h.log.Info().
		Str("invoice_id", invoice.ID).
		Str("number", invoice.Number).
		Str("range_id", invoice.RangeID).
		Int64("correlative", invoice.Correlative).
		Str("actor", actorID).
		Msg("factura emitida")
	return c.Status(fiber.StatusCreated).JSON(invoice)
}

// List lista facturas con filtros de número, RTN, estado y fechas.
// GET /api/invoices
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	var q dto.ListInvoicesQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "filtros inválidos"})
	}
	invoices, err := h.queries.ListInvoices(c.Context(), q)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(invoices)
}

// GetByID devuelve la factura con líneas y bitácora de auditoría.
// GET /api/invoices/:id
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	invoice, err := h.queries.GetInvoice(c.Context(), id)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(invoice)
}

// Void anula una factura VIGENTE. El número anulado no se reutiliza.
// POST /api/invoices/:id/void
func (h *InvoiceHandler) Void(c *fiber.Ctx) error {
	actorID := GetUserID(c)
	if actorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	id := c.Params("id")
	var in dto.VoidInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	invoice, err := h.lifecycle.VoidInvoice(c.Context(), actorID, id, in.Reason)
	if err != nil {
		return domainError(c, err)
	}
	h.log.Info().
		Str("invoice_id", invoice.ID).
		Str("number", invoice.Number).
		Str("actor", actorID).
		Msg("factura anulada")
	return c.JSON(invoice)
}

// Print marca la primera impresión sin generar PDF (impresoras externas).
// POST /api/invoices/:id/print
func (h *InvoiceHandler) Print(c *fiber.Ctx) error {
	actorID := GetUserID(c)
	if actorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	invoice, err := h.lifecycle.MarkPrinted(c.Context(), actorID, c.Params("id"))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(invoice)
}

// PDF genera la representación gráfica y marca la primera impresión.
// GET /api/invoices/:id/pdf
func (h *InvoiceHandler) PDF(c *fiber.Ctx) error {
	actorID := GetUserID(c)
	if actorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	pdfBytes, err := h.pdf.GenerateInvoicePDF(c.Context(), actorID, c.Params("id"))
	if err != nil {
		return domainError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="factura.pdf"`)
	return c.Send(pdfBytes)
}
