package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dcastellanos/facturacion-api/internal/application/billing"
	"github.com/dcastellanos/facturacion-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	CreateInvoice *billing.CreateInvoiceUseCase
	Lifecycle     *billing.LifecycleUseCase
	Queries       *billing.InvoiceQueryUseCase
	InvoicePDF    *billing.PDFUseCase
	RangeUC       *billing.RangeUseCase
	JWTSecret     string
	Log           *logger.Logger
}

// Router registra las rutas de la API. Todo el dominio fiscal es protegido:
// la auditoría necesita un actor identificado en cada mutación.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Rangos CAI (protegido)
	ranges := protected.Group("/ranges")
	rangeHandler := NewRangeHandler(deps.RangeUC)
	ranges.Post("/", rangeHandler.Create)
	ranges.Get("/", rangeHandler.List)
	ranges.Post("/:id/deactivate", rangeHandler.Deactivate)
	ranges.Post("/:id/reactivate", rangeHandler.Reactivate)

	// Facturas (protegido)
	invoices := protected.Group("/invoices")
	invoiceHandler := NewInvoiceHandler(deps.CreateInvoice, deps.Lifecycle, deps.Queries, deps.InvoicePDF, deps.Log)
	invoices.Post("/", invoiceHandler.Create)
	invoices.Get("/", invoiceHandler.List)
	invoices.Get("/:id", invoiceHandler.GetByID)
	invoices.Post("/:id/void", invoiceHandler.Void)
	invoices.Post("/:id/print", invoiceHandler.Print)
	invoices.Get("/:id/pdf", invoiceHandler.PDF)
}
