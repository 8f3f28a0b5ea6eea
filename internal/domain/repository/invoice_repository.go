package repository

import (
	"context"
	"time"

	"github.com/dcastellanos/facturacion-api/internal/domain/entity"
)

// InvoiceFilter filtros de listado de facturas. Los campos vacíos no filtran.
type InvoiceFilter struct {
	Number      string
	CustomerRTN string
	Status      string
	DateFrom    *time.Time
	DateTo      *time.Time
	Limit       int
	Offset      int
}

// InvoiceRepository define el puerto de persistencia para facturas y líneas.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *entity.Invoice) error
	CreateLine(ctx context.Context, line *entity.InvoiceLine) error
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	GetLinesByInvoiceID(ctx context.Context, invoiceID string) ([]*entity.InvoiceLine, error)
	List(ctx context.Context, f InvoiceFilter) ([]*entity.Invoice, error)

	// MarkVoided persiste la anulación con compare-and-swap sobre el estado:
	// devuelve false si la factura ya no estaba VIGENTE (carrera perdida).
	MarkVoided(ctx context.Context, inv *entity.Invoice) (bool, error)

	// MarkPrinted persiste la primera impresión con compare-and-swap sobre el
	// flag: devuelve false si ya estaba impresa.
	MarkPrinted(ctx context.Context, inv *entity.Invoice) (bool, error)
}
