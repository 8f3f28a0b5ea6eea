package repository

import (
	"context"

	"github.com/dcastellanos/facturacion-api/internal/domain/entity"
)

// AuditLogRepository define el puerto de la bitácora de auditoría.
// Solo inserta y lee: la bitácora no expone update ni delete.
type AuditLogRepository interface {
	// Append inserta la entrada. Si la escritura falla, la operación que la
	// originó también debe fallar: la auditoría es obligatoria y se escribe en
	// la misma transacción que el cambio de estado que documenta.
	Append(ctx context.Context, e *entity.AuditLogEntry) error
	ListByInvoiceID(ctx context.Context, invoiceID string) ([]*entity.AuditLogEntry, error)
}
