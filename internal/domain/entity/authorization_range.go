package entity

import (
	"fmt"
	"time"

	"github.com/dcastellanos/facturacion-api/internal/domain"
)

// Estados persistidos de un rango CAI. AGOTADO y VENCIDO no se almacenan:
// son condiciones derivadas de last_used_correlative/range_end/expiry_date,
// calculadas al momento de la lectura para que no puedan desincronizarse.
const (
	RangeStatusActive   = "ACTIVA"
	RangeStatusInactive = "INACTIVA"
)

// Tipos de documento fiscal autorizados por el SAR.
const (
	DocumentTypeInvoice    = "FACTURA"
	DocumentTypeCreditNote = "NOTA_CREDITO"
	DocumentTypeDebitNote  = "NOTA_DEBITO"
)

// ParseDocumentType valida el tipo de documento recibido.
func ParseDocumentType(s string) (string, error) {
	switch s {
	case DocumentTypeInvoice, DocumentTypeCreditNote, DocumentTypeDebitNote:
		return s, nil
	}
	return "", fmt.Errorf("%w: tipo de documento desconocido %q", domain.ErrInvalidInput, s)
}

// AuthorizationRange representa una autorización de impresión (CAI) emitida por
// el SAR: un rango numérico finito de correlativos para un tipo de documento,
// con fecha límite de emisión. Nunca se elimina (retención regulatoria).
type AuthorizationRange struct {
	ID            string
	IssuerRTN     string // RTN del emisor autorizado
	IssuerName    string // Razón social / nombre comercial
	EmissionPoint string // Punto de emisión (ej: "001")
	DocumentType  string
	CAI           string // Código de autorización (ej: "254F8-612F1-8A0E0-6E8B3-0099B-95")
	Prefix        string // Prefijo del número de documento (ej: "000-001-01-")
	RangeStart    int64
	RangeEnd      int64
	LastUsed      int64 // Último correlativo asignado; range_start-1 al crearse
	ExpiryDate    time.Time
	Status        string
	ProofRef      string // Referencia a la constancia de registro
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsExhausted indica si el rango agotó su último correlativo. Condición
// permanente: no existe transición que la revierta.
func (r *AuthorizationRange) IsExhausted() bool {
	return r.LastUsed >= r.RangeEnd
}

// IsExpired indica si la fecha límite de emisión ya pasó. La comparación es
// por fecha: el día del vencimiento todavía se puede emitir.
func (r *AuthorizationRange) IsExpired(now time.Time) bool {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, r.ExpiryDate.Location())
	return today.After(r.ExpiryDate)
}

// IsUsable indica si el rango puede emitir un nuevo correlativo:
// ACTIVA, no vencido y no agotado.
func (r *AuthorizationRange) IsUsable(now time.Time) bool {
	return r.Status == RangeStatusActive && !r.IsExpired(now) && !r.IsExhausted()
}

// Allocate valida la usabilidad del rango y avanza el cursor en uno.
// Debe invocarse únicamente con el rango bloqueado en exclusiva (FOR UPDATE o
// equivalente): la revalidación bajo el lock es la que cierra la carrera entre
// la selección del rango y el avance del cursor.
func (r *AuthorizationRange) Allocate(now time.Time) (int64, error) {
	if r.Status != RangeStatusActive {
		return 0, domain.ErrNoAuthorization
	}
	if r.IsExpired(now) {
		return 0, domain.ErrNoAuthorization
	}
	if r.IsExhausted() {
		return 0, domain.ErrRangeExhausted
	}
	r.LastUsed++
	return r.LastUsed, nil
}

// Deactivate pasa el rango a INACTIVA. Siempre permitido: es una decisión
// administrativa (por ejemplo, al recibir un CAI de reemplazo).
func (r *AuthorizationRange) Deactivate() {
	r.Status = RangeStatusInactive
}

// Reactivate pasa el rango de INACTIVA a ACTIVA. Se rechaza si el rango está
// vencido o agotado: esas condiciones no las puede corregir un administrador.
func (r *AuthorizationRange) Reactivate(now time.Time) error {
	if r.IsExhausted() {
		return fmt.Errorf("%w: el rango ya agotó su numeración", domain.ErrInvalidState)
	}
	if r.IsExpired(now) {
		return fmt.Errorf("%w: el rango está vencido desde %s", domain.ErrInvalidState, r.ExpiryDate.Format("2006-01-02"))
	}
	r.Status = RangeStatusActive
	return nil
}

// minCorrelativeWidth ancho convencional del correlativo en documentos SAR.
const minCorrelativeWidth = 8

// FormatNumber arma el número de documento: prefijo + correlativo con ceros a
// la izquierda. El ancho lo fija la cantidad de dígitos de range_end, con un
// mínimo de 8. Se calcula una sola vez al emitir; nunca se recalcula.
func (r *AuthorizationRange) FormatNumber(correlative int64) string {
	width := len(fmt.Sprintf("%d", r.RangeEnd))
	if width < minCorrelativeWidth {
		width = minCorrelativeWidth
	}
	return fmt.Sprintf("%s%0*d", r.Prefix, width, correlative)
}

// Utilization porcentaje del rango consumido: (last_used - start + 1) / (end - start + 1).
func (r *AuthorizationRange) Utilization() float64 {
	capacity := r.RangeEnd - r.RangeStart + 1
	if capacity <= 0 {
		return 0
	}
	used := r.LastUsed - r.RangeStart + 1
	if used < 0 {
		used = 0
	}
	return float64(used) / float64(capacity) * 100
}
