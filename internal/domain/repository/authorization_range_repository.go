package repository

import (
	"context"
	"time"

	"github.com/dcastellanos/facturacion-api/internal/domain/entity"
)

// AuthorizationRangeRepository define el puerto de persistencia para rangos CAI.
type AuthorizationRangeRepository interface {
	Create(ctx context.Context, r *entity.AuthorizationRange) error
	GetByID(ctx context.Context, id string) (*entity.AuthorizationRange, error)
	List(ctx context.Context) ([]*entity.AuthorizationRange, error)

	// SelectUsableForUpdate devuelve el rango utilizable más antiguo para el tipo
	// de documento (ACTIVA, no vencido, no agotado; orden determinista por fecha
	// de creación), bloqueado en exclusiva. Debe invocarse dentro de la misma
	// transacción que avanzará el cursor y escribirá la factura.
	//
	// Si no hay rango utilizable devuelve nil; exhaustedOnly=true indica que
	// existe al menos un rango ACTIVA y vigente pero agotado, para que el caller
	// distinga ErrRangeExhausted de ErrNoAuthorization.
	SelectUsableForUpdate(ctx context.Context, documentType string, now time.Time) (rng *entity.AuthorizationRange, exhaustedOnly bool, err error)

	// UpdateCursor persiste el avance de last_used_correlative del rango bloqueado.
	UpdateCursor(ctx context.Context, id string, lastUsed int64) error

	// UpdateStatus persiste una transición administrativa ACTIVA/INACTIVA.
	UpdateStatus(ctx context.Context, r *entity.AuthorizationRange) error
}
