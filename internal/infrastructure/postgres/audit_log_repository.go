package postgres

import (
	"context"
	"fmt"

	"github.com/dcastellanos/facturacion-api/internal/domain/entity"
	"github.com/dcastellanos/facturacion-api/internal/domain/repository"
)

var _ repository.AuditLogRepository = (*AuditLogRepository)(nil)

// AuditLogRepository implementación PostgreSQL de la bitácora de auditoría.
// Solo INSERT y SELECT: la tabla no recibe UPDATE ni DELETE desde la aplicación.
type AuditLogRepository struct {
	db Querier
}

func NewAuditLogRepository(db Querier) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (repo *AuditLogRepository) Append(ctx context.Context, e *entity.AuditLogEntry) error {
	query := `
		INSERT INTO audit_log (
			id, invoice_id, actor_id, action, description,
			before_snapshot, after_snapshot, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := repo.db.Exec(ctx, query,
		e.ID, e.InvoiceID, e.ActorID, e.Action, e.Description,
		e.Before, e.After, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insertar auditoría: %w", err)
	}
	return nil
}

func (repo *AuditLogRepository) ListByInvoiceID(ctx context.Context, invoiceID string) ([]*entity.AuditLogEntry, error) {
	query := `
		SELECT id, invoice_id, actor_id, action, description,
			before_snapshot, after_snapshot, created_at
		FROM audit_log
		WHERE invoice_id = $1
		ORDER BY created_at, id`

	rows, err := repo.db.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("listar auditoría: %w", err)
	}
	defer rows.Close()

	var entries []*entity.AuditLogEntry
	for rows.Next() {
		var e entity.AuditLogEntry
		err := rows.Scan(
			&e.ID, &e.InvoiceID, &e.ActorID, &e.Action, &e.Description,
			&e.Before, &e.After, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("escanear auditoría: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
