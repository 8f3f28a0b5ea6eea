package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dcastellanos/facturacion-api/internal/application/dto"
	"github.com/dcastellanos/facturacion-api/internal/domain"
	"github.com/dcastellanos/facturacion-api/internal/domain/entity"
	"github.com/dcastellanos/facturacion-api/internal/domain/repository"
)

// LifecycleUseCase anulación y marca de impresión de facturas emitidas.
// Ninguna de las dos operaciones toca el rango CAI: los números anulados no se
// reutilizan.
type LifecycleUseCase struct {
	txRunner TxRunner
}

// NewLifecycleUseCase construye el caso de uso.
func NewLifecycleUseCase(txRunner TxRunner) *LifecycleUseCase {
	return &LifecycleUseCase{txRunner: txRunner}
}

// VoidInvoice anula una factura VIGENTE. La transición se persiste con
// compare-and-swap sobre el estado y la entrada de auditoría (con snapshots
// antes/después) va en la misma transacción.
func (uc *LifecycleUseCase) VoidInvoice(ctx context.Context, actorID, invoiceID, reason string) (*dto.InvoiceResponse, error) {
	var inv *entity.Invoice
	err := uc.txRunner.RunBilling(ctx, func(
		_ repository.AuthorizationRangeRepository,
		invoiceRepo repository.InvoiceRepository,
		auditRepo repository.AuditLogRepository,
	) error {
		var err error
		inv, err = invoiceRepo.GetByID(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv == nil {
			return domain.ErrNotFound
		}

		before, err := json.Marshal(inv)
		if err != nil {
			return fmt.Errorf("serializar snapshot de auditoría: %w", err)
		}

		now := time.Now()
		if err := inv.Void(reason, actorID, now); err != nil {
			return err
		}

		ok, err := invoiceRepo.MarkVoided(ctx, inv)
		if err != nil {
			return err
		}
		if !ok {
			// Otra petición ganó la carrera de anulación.
			return fmt.Errorf("%w: la factura %s ya está anulada", domain.ErrInvalidState, inv.Number)
		}

		after, err := json.Marshal(inv)
		if err != nil {
			return fmt.Errorf("serializar snapshot de auditoría: %w", err)
		}
		return auditRepo.Append(ctx, &entity.AuditLogEntry{
			ID:          uuid.New().String(),
			InvoiceID:   inv.ID,
			ActorID:     actorID,
			Action:      entity.AuditActionVoid,
			Description: fmt.Sprintf("anulación de %s: %s", inv.Number, inv.VoidReason),
			Before:      string(before),
			After:       string(after),
			CreatedAt:   now,
		})
	})
	if err != nil {
		return nil, err
	}
	return toInvoiceResponse(inv, nil, nil), nil
}

// MarkPrinted marca la primera impresión de la factura. Idempotente: si ya
// estaba impresa no muta estado ni agrega auditoría, y devuelve la factura con
// la marca de la primera vez.
func (uc *LifecycleUseCase) MarkPrinted(ctx context.Context, actorID, invoiceID string) (*dto.InvoiceResponse, error) {
	var inv *entity.Invoice
	err := uc.txRunner.RunBilling(ctx, func(
		_ repository.AuthorizationRangeRepository,
		invoiceRepo repository.InvoiceRepository,
		auditRepo repository.AuditLogRepository,
	) error {
		var err error
		inv, err = invoiceRepo.GetByID(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv == nil {
			return domain.ErrNotFound
		}

		now := time.Now()
		if !inv.MarkPrinted(now) {
			return nil // reimpresión: no-op
		}

		ok, err := invoiceRepo.MarkPrinted(ctx, inv)
		if err != nil {
			return err
		}
		if !ok {
			// Otra petición imprimió primero; releer para devolver la marca real.
			inv, err = invoiceRepo.GetByID(ctx, invoiceID)
			return err
		}

		return auditRepo.Append(ctx, &entity.AuditLogEntry{
			ID:          uuid.New().String(),
			InvoiceID:   inv.ID,
			ActorID:     actorID,
			Action:      entity.AuditActionPrint,
			Description: fmt.Sprintf("primera impresión de %s", inv.Number),
			CreatedAt:   now,
		})
	})
	if err != nil {
		return nil, err
	}
	return toInvoiceResponse(inv, nil, nil), nil
}
