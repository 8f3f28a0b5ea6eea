package billing

import (
	"context"

	"github.com/dcastellanos/facturacion-api/internal/domain/entity"
	"github.com/dcastellanos/facturacion-api/internal/domain/repository"
)

// TxRunner ejecuta una función con los repositorios de facturación atados a una
// misma transacción. Si fn retorna error la transacción completa se revierte:
// cursor del rango, factura, líneas y auditoría quedan como si nada hubiera
// ocurrido (todo-o-nada).
type TxRunner interface {
	RunBilling(ctx context.Context, fn func(
		rangeRepo repository.AuthorizationRangeRepository,
		invoiceRepo repository.InvoiceRepository,
		auditRepo repository.AuditLogRepository,
	) error) error
}

// InvoicePDFGenerator puerto para la representación gráfica de la factura.
type InvoicePDFGenerator interface {
	GenerateInvoicePDF(ctx context.Context, inv *entity.Invoice, lines []*entity.InvoiceLine) ([]byte, error)
}
