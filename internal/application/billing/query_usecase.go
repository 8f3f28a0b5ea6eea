package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/dcastellanos/facturacion-api/internal/application/dto"
	"github.com/dcastellanos/facturacion-api/internal/domain"
	"github.com/dcastellanos/facturacion-api/internal/domain/entity"
	"github.com/dcastellanos/facturacion-api/internal/domain/repository"
)

// InvoiceQueryUseCase consultas de solo lectura sobre facturas emitidas.
type InvoiceQueryUseCase struct {
	invoiceRepo repository.InvoiceRepository
	auditRepo   repository.AuditLogRepository
}

// NewInvoiceQueryUseCase construye el caso de uso.
func NewInvoiceQueryUseCase(invoiceRepo repository.InvoiceRepository, auditRepo repository.AuditLogRepository) *InvoiceQueryUseCase {
	return &InvoiceQueryUseCase{invoiceRepo: invoiceRepo, auditRepo: auditRepo}
}

// GetInvoice devuelve la factura con líneas y bitácora de auditoría completa.
func (uc *InvoiceQueryUseCase) GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	lines, err := uc.invoiceRepo.GetLinesByInvoiceID(ctx, id)
	if err != nil {
		return nil, err
	}
	trail, err := uc.auditRepo.ListByInvoiceID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toInvoiceResponse(inv, lines, trail), nil
}

// GetInvoiceWithLines devuelve la entidad con sus líneas (para impresión).
func (uc *InvoiceQueryUseCase) GetInvoiceWithLines(ctx context.Context, id string) (*entity.Invoice, []*entity.InvoiceLine, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if inv == nil {
		return nil, nil, domain.ErrNotFound
	}
	lines, err := uc.invoiceRepo.GetLinesByInvoiceID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return inv, lines, nil
}

// ListInvoices lista facturas con filtros de número, RTN, estado y rango de fechas.
func (uc *InvoiceQueryUseCase) ListInvoices(ctx context.Context, q dto.ListInvoicesQuery) ([]*dto.InvoiceResponse, error) {
	q.DefaultPage()

	f := repository.InvoiceFilter{
		Number:      q.Number,
		CustomerRTN: q.CustomerRTN,
		Limit:       q.Limit,
		Offset:      q.Offset,
	}
	if q.Status != "" {
		if q.Status != entity.InvoiceStatusValid && q.Status != entity.InvoiceStatusVoided {
			return nil, fmt.Errorf("%w: estado desconocido %q", domain.ErrInvalidInput, q.Status)
		}
		f.Status = q.Status
	}
	if q.DateFrom != "" {
		from, err := time.Parse(dateLayout, q.DateFrom)
		if err != nil {
			return nil, fmt.Errorf("%w: date_from inválida %q", domain.ErrInvalidInput, q.DateFrom)
		}
		f.DateFrom = &from
	}
	if q.DateTo != "" {
		to, err := time.Parse(dateLayout, q.DateTo)
		if err != nil {
			return nil, fmt.Errorf("%w: date_to inválida %q", domain.ErrInvalidInput, q.DateTo)
		}
		// El filtro es inclusivo hasta el final del día.
		to = to.Add(24*time.Hour - time.Nanosecond)
		f.DateTo = &to
	}

	invoices, err := uc.invoiceRepo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, toInvoiceResponse(inv, nil, nil))
	}
	return out, nil
}
