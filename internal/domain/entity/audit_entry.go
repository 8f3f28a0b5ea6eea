package entity

import "time"

// Acciones auditables sobre una factura.
const (
	AuditActionCreation = "CREACION"
	AuditActionVoid     = "ANULACION"
	AuditActionPrint    = "IMPRESION"
)

// AuditLogEntry registro de auditoría de una acción que cambió el estado de una
// factura. La bitácora es append-only: nunca se actualiza ni se elimina, y cada
// transición de estado produce exactamente una entrada, escrita en la misma
// transacción que el cambio que documenta.
type AuditLogEntry struct {
	ID          string
	InvoiceID   string
	ActorID     string
	Action      string
	Description string
	Before      string // snapshot JSON previo (CREACION: vacío)
	After       string // snapshot JSON posterior
	CreatedAt   time.Time
}
