package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dcastellanos/facturacion-api/internal/application/billing"
	"github.com/dcastellanos/facturacion-api/internal/domain/repository"
)

var _ billing.TxRunner = (*TxRunner)(nil)

// Querier abstrae *pgxpool.Pool y pgx.Tx para que los repositorios funcionen
// dentro o fuera de una transacción.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunBilling inicia una transacción con los repos de facturación atados a ella
// y hace Commit o Rollback. El lock FOR UPDATE sobre el rango CAI que toma
// SelectUsableForUpdate vive exactamente lo que vive esta transacción: si fn
// falla (o el contexto se cancela), el rollback revierte cursor, factura,
// líneas y auditoría como una sola unidad.
func (r *TxRunner) RunBilling(ctx context.Context, fn func(
	rangeRepo repository.AuthorizationRangeRepository,
	invoiceRepo repository.InvoiceRepository,
	auditRepo repository.AuditLogRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rangeRepo := NewAuthorizationRangeRepository(tx)
	invoiceRepo := NewInvoiceRepository(tx)
	auditRepo := NewAuditLogRepository(tx)

	if err := fn(rangeRepo, invoiceRepo, auditRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
