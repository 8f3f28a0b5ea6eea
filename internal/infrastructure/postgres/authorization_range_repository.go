package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dcastellanos/facturacion-api/internal/domain"
	"github.com/dcastellanos/facturacion-api/internal/domain/entity"
	"github.com/dcastellanos/facturacion-api/internal/domain/repository"
)

var _ repository.AuthorizationRangeRepository = (*AuthorizationRangeRepository)(nil)

// AuthorizationRangeRepository implementación PostgreSQL del repositorio de
// rangos CAI. Recibe un Querier para poder operar dentro de una transacción
// (TxRunner) o directamente sobre el pool.
type AuthorizationRangeRepository struct {
	db Querier
}

func NewAuthorizationRangeRepository(db Querier) *AuthorizationRangeRepository {
	return &AuthorizationRangeRepository{db: db}
}

const rangeColumns = `id, issuer_rtn, issuer_name, emission_point, document_type,
	cai, prefix, range_start, range_end, last_used, expiry_date, status,
	proof_ref, created_at, updated_at`

func scanRange(row pgx.Row) (*entity.AuthorizationRange, error) {
	var r entity.AuthorizationRange
	err := row.Scan(
		&r.ID, &r.IssuerRTN, &r.IssuerName, &r.EmissionPoint, &r.DocumentType,
		&r.CAI, &r.Prefix, &r.RangeStart, &r.RangeEnd, &r.LastUsed,
		&r.ExpiryDate, &r.Status, &r.ProofRef, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (repo *AuthorizationRangeRepository) Create(ctx context.Context, r *entity.AuthorizationRange) error {
	query := `
		INSERT INTO authorization_ranges (` + rangeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := repo.db.Exec(ctx, query,
		r.ID, r.IssuerRTN, r.IssuerName, r.EmissionPoint, r.DocumentType,
		r.CAI, r.Prefix, r.RangeStart, r.RangeEnd, r.LastUsed,
		r.ExpiryDate, r.Status, r.ProofRef, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: ya existe un rango con el CAI %s", domain.ErrDuplicate, r.CAI)
		}
		return fmt.Errorf("insertar rango: %w", err)
	}
	return nil
}

func (repo *AuthorizationRangeRepository) GetByID(ctx context.Context, id string) (*entity.AuthorizationRange, error) {
	query := `SELECT ` + rangeColumns + ` FROM authorization_ranges WHERE id = $1`

	r, err := scanRange(repo.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: rango %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("consultar rango: %w", err)
	}
	return r, nil
}

func (repo *AuthorizationRangeRepository) List(ctx context.Context) ([]*entity.AuthorizationRange, error) {
	query := `SELECT ` + rangeColumns + ` FROM authorization_ranges ORDER BY created_at DESC, id DESC`

	rows, err := repo.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listar rangos: %w", err)
	}
	defer rows.Close()

	var ranges []*entity.AuthorizationRange
	for rows.Next() {
		r, err := scanRange(rows)
		if err != nil {
			return nil, fmt.Errorf("escanear rango: %w", err)
		}
		ranges = append(ranges, r)
	}
	return ranges, rows.Err()
}

// SelectUsableForUpdate toma el rango utilizable más antiguo para el tipo de
// documento con FOR UPDATE. El lock de fila serializa a los emisores
// concurrentes sobre el mismo rango: el segundo espera a que el primero haga
// commit y relee el cursor ya avanzado.
func (repo *AuthorizationRangeRepository) SelectUsableForUpdate(ctx context.Context, documentType string, now time.Time) (*entity.AuthorizationRange, bool, error) {
	query := `
		SELECT ` + rangeColumns + `
		FROM authorization_ranges
		WHERE document_type = $1
		  AND status = 'ACTIVA'
		  AND expiry_date >= $2::date
		  AND last_used < range_end
		ORDER BY created_at, id
		LIMIT 1
		FOR UPDATE`

	r, err := scanRange(repo.db.QueryRow(ctx, query, documentType, now))
	if err == nil {
		return r, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("seleccionar rango: %w", err)
	}

	// Sin rango utilizable: distinguir agotamiento de ausencia de autorización.
	var exhausted int
	countQuery := `
		SELECT COUNT(*)
		FROM authorization_ranges
		WHERE document_type = $1
		  AND status = 'ACTIVA'
		  AND expiry_date >= $2::date
		  AND last_used >= range_end`
	if err := repo.db.QueryRow(ctx, countQuery, documentType, now).Scan(&exhausted); err != nil {
		return nil, false, fmt.Errorf("contar rangos agotados: %w", err)
	}
	return nil, exhausted > 0, nil
}

func (repo *AuthorizationRangeRepository) UpdateCursor(ctx context.Context, id string, lastUsed int64) error {
	query := `UPDATE authorization_ranges SET last_used = $2, updated_at = NOW() WHERE id = $1`

	tag, err := repo.db.Exec(ctx, query, id, lastUsed)
	if err != nil {
		return fmt.Errorf("avanzar cursor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: rango %s", domain.ErrNotFound, id)
	}
	return nil
}

func (repo *AuthorizationRangeRepository) UpdateStatus(ctx context.Context, r *entity.AuthorizationRange) error {
	query := `UPDATE authorization_ranges SET status = $2, updated_at = NOW() WHERE id = $1`

	tag, err := repo.db.Exec(ctx, query, r.ID, r.Status)
	if err != nil {
		return fmt.Errorf("actualizar estado del rango: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: rango %s", domain.ErrNotFound, r.ID)
	}
	return nil
}
