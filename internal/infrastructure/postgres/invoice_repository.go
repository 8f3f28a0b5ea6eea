package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/dcastellanos/facturacion-api/internal/domain"
	"github.com/dcastellanos/facturacion-api/internal/domain/entity"
	"github.com/dcastellanos/facturacion-api/internal/domain/fiscal"
	"github.com/dcastellanos/facturacion-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepository)(nil)

// InvoiceRepository implementación PostgreSQL del repositorio de facturas.
// Los datos del cliente se guardan desnormalizados en columnas customer_*:
// la factura es un snapshot fiscal, no una vista sobre el cliente vivo.
type InvoiceRepository struct {
	db Querier
}

func NewInvoiceRepository(db Querier) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

const invoiceColumns = `id, range_id, correlative, number, cai, cai_expiry,
	customer_name, customer_rtn, customer_address, customer_email, customer_phone,
	payment_terms, subtotal_exempt, subtotal_taxed_15, subtotal_taxed_18, subtotal,
	tax_15, tax_18, tax_total, total, exempt, exemption_ref,
	status, void_reason, voided_by, voided_at, printed, printed_at,
	issued_by, created_at`

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var inv entity.Invoice
	err := row.Scan(
		&inv.ID, &inv.RangeID, &inv.Correlative, &inv.Number, &inv.CAI, &inv.CAIExpiry,
		&inv.Customer.Name, &inv.Customer.RTN, &inv.Customer.Address, &inv.Customer.Email, &inv.Customer.Phone,
		&inv.PaymentTerms, &inv.SubtotalExempt, &inv.SubtotalTaxed15, &inv.SubtotalTaxed18, &inv.Subtotal,
		&inv.Tax15, &inv.Tax18, &inv.TaxTotal, &inv.Total, &inv.Exempt, &inv.ExemptionRef,
		&inv.Status, &inv.VoidReason, &inv.VoidedBy, &inv.VoidedAt, &inv.Printed, &inv.PrintedAt,
		&inv.IssuedBy, &inv.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (repo *InvoiceRepository) Create(ctx context.Context, inv *entity.Invoice) error {
	query := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24, $25, $26, $27, $28, $29, $30)`

	_, err := repo.db.Exec(ctx, query,
		inv.ID, inv.RangeID, inv.Correlative, inv.Number, inv.CAI, inv.CAIExpiry,
		inv.Customer.Name, inv.Customer.RTN, inv.Customer.Address, inv.Customer.Email, inv.Customer.Phone,
		inv.PaymentTerms, inv.SubtotalExempt, inv.SubtotalTaxed15, inv.SubtotalTaxed18, inv.Subtotal,
		inv.Tax15, inv.Tax18, inv.TaxTotal, inv.Total, inv.Exempt, inv.ExemptionRef,
		inv.Status, inv.VoidReason, inv.VoidedBy, inv.VoidedAt, inv.Printed, inv.PrintedAt,
		inv.IssuedBy, inv.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// El UNIQUE (range_id, correlative) es la última línea de defensa
			// contra un correlativo duplicado si el lock del rango fallara.
			return fmt.Errorf("correlativo duplicado en el rango %s: %w", inv.RangeID, err)
		}
		return fmt.Errorf("insertar factura: %w", err)
	}
	return nil
}

func (repo *InvoiceRepository) CreateLine(ctx context.Context, line *entity.InvoiceLine) error {
	query := `
		INSERT INTO invoice_lines (
			id, invoice_id, line_number, product_ref, description,
			quantity, unit_price, tax_class, tax_rate,
			discount_percent, discount_amount, subtotal, tax_amount, total
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := repo.db.Exec(ctx, query,
		line.ID, line.InvoiceID, line.LineNumber, line.ProductRef, line.Description,
		line.Quantity, line.UnitPrice, string(line.TaxClass), line.TaxRate,
		line.DiscountPercent, line.DiscountAmount, line.Subtotal, line.TaxAmount, line.Total,
	)
	if err != nil {
		return fmt.Errorf("insertar línea %d: %w", line.LineNumber, err)
	}
	return nil
}

func (repo *InvoiceRepository) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`

	inv, err := scanInvoice(repo.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: factura %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("consultar factura: %w", err)
	}
	return inv, nil
}

func (repo *InvoiceRepository) GetLinesByInvoiceID(ctx context.Context, invoiceID string) ([]*entity.InvoiceLine, error) {
	query := `
		SELECT id, invoice_id, line_number, product_ref, description,
			quantity, unit_price, tax_class, tax_rate,
			discount_percent, discount_amount, subtotal, tax_amount, total
		FROM invoice_lines
		WHERE invoice_id = $1
		ORDER BY line_number`

	rows, err := repo.db.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("listar líneas: %w", err)
	}
	defer rows.Close()

	var lines []*entity.InvoiceLine
	for rows.Next() {
		var l entity.InvoiceLine
		var taxClass string
		err := rows.Scan(
			&l.ID, &l.InvoiceID, &l.LineNumber, &l.ProductRef, &l.Description,
			&l.Quantity, &l.UnitPrice, &taxClass, &l.TaxRate,
			&l.DiscountPercent, &l.DiscountAmount, &l.Subtotal, &l.TaxAmount, &l.Total,
		)
		if err != nil {
			return nil, fmt.Errorf("escanear línea: %w", err)
		}
		l.TaxClass = fiscal.TaxClass(taxClass)
		lines = append(lines, &l)
	}
	return lines, rows.Err()
}

func (repo *InvoiceRepository) List(ctx context.Context, f repository.InvoiceFilter) ([]*entity.Invoice, error) {
	var conditions []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Number != "" {
		conditions = append(conditions, "number = "+arg(f.Number))
	}
	if f.CustomerRTN != "" {
		conditions = append(conditions, "customer_rtn = "+arg(f.CustomerRTN))
	}
	if f.Status != "" {
		conditions = append(conditions, "status = "+arg(f.Status))
	}
	if f.DateFrom != nil {
		conditions = append(conditions, "created_at >= "+arg(*f.DateFrom))
	}
	if f.DateTo != nil {
		conditions = append(conditions, "created_at <= "+arg(*f.DateTo))
	}

	query := `SELECT ` + invoiceColumns + ` FROM invoices`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, number DESC"
	query += " LIMIT " + arg(f.Limit) + " OFFSET " + arg(f.Offset)

	rows, err := repo.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listar facturas: %w", err)
	}
	defer rows.Close()

	var invoices []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("escanear factura: %w", err)
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// MarkVoided persiste la anulación solo si la factura sigue VIGENTE. El WHERE
// sobre el estado es el compare-and-swap: dos anulaciones concurrentes no
// pueden ganar ambas.
func (repo *InvoiceRepository) MarkVoided(ctx context.Context, inv *entity.Invoice) (bool, error) {
	query := `
		UPDATE invoices
		SET status = $2, void_reason = $3, voided_by = $4, voided_at = $5
		WHERE id = $1 AND status = 'VIGENTE'`

	tag, err := repo.db.Exec(ctx, query, inv.ID, inv.Status, inv.VoidReason, inv.VoidedBy, inv.VoidedAt)
	if err != nil {
		return false, fmt.Errorf("anular factura: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkPrinted persiste la primera impresión solo si aún no estaba impresa.
func (repo *InvoiceRepository) MarkPrinted(ctx context.Context, inv *entity.Invoice) (bool, error) {
	query := `
		UPDATE invoices
		SET printed = TRUE, printed_at = $2
		WHERE id = $1 AND printed = FALSE`

	tag, err := repo.db.Exec(ctx, query, inv.ID, inv.PrintedAt)
	if err != nil {
		return false, fmt.Errorf("marcar impresión: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
