package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dcastellanos/facturacion-api/internal/domain"
)

// Estados de una factura. VIGENTE -> ANULADA es la única transición; no existe
// salida de ANULADA.
const (
	InvoiceStatusValid  = "VIGENTE"
	InvoiceStatusVoided = "ANULADA"
)

// Condiciones de pago.
const (
	PaymentTermsCash   = "CONTADO"
	PaymentTermsCredit = "CREDITO"
)

// voidReasonMinLen largo mínimo del motivo de anulación.
const voidReasonMinLen = 10

// CustomerSnapshot copia puntual de los datos del cliente al momento de la
// emisión. Se almacena desnormalizado, no como join vivo: un documento fiscal
// no puede cambiar retroactivamente si el registro del cliente se edita después.
type CustomerSnapshot struct {
	Name    string
	RTN     string
	Address string
	Email   string
	Phone   string
}

// Invoice cabecera de una factura emitida bajo un rango CAI.
// El correlativo y el número formateado son inmutables una vez asignados;
// CAI y CAIExpiry son copias del rango al momento de la emisión.
type Invoice struct {
	ID          string
	RangeID     string
	Correlative int64
	Number      string
	CAI         string
	CAIExpiry   time.Time

	Customer     CustomerSnapshot
	PaymentTerms string

	SubtotalExempt  decimal.Decimal
	SubtotalTaxed15 decimal.Decimal
	SubtotalTaxed18 decimal.Decimal
	Subtotal        decimal.Decimal
	Tax15           decimal.Decimal
	Tax18           decimal.Decimal
	TaxTotal        decimal.Decimal
	Total           decimal.Decimal

	Exempt       bool
	ExemptionRef string // N° de orden de compra exenta / constancia de exoneración

	Status     string
	VoidReason string
	VoidedBy   string
	VoidedAt   *time.Time

	Printed   bool
	PrintedAt *time.Time

	IssuedBy  string
	CreatedAt time.Time
}

// Void anula la factura. La anulación es aditiva: conserva todos los campos
// originales y solo agrega motivo, actor y fecha. Los números anulados no se
// reutilizan; los huecos por anulación son esperados y válidos ante el SAR.
func (i *Invoice) Void(reason, actorID string, now time.Time) error {
	if i.Status != InvoiceStatusValid {
		return fmt.Errorf("%w: la factura %s ya está anulada", domain.ErrInvalidState, i.Number)
	}
	if len(strings.TrimSpace(reason)) < voidReasonMinLen {
		return fmt.Errorf("%w: el motivo de anulación requiere al menos %d caracteres", domain.ErrInvalidInput, voidReasonMinLen)
	}
	i.Status = InvoiceStatusVoided
	i.VoidReason = strings.TrimSpace(reason)
	i.VoidedBy = actorID
	i.VoidedAt = &now
	return nil
}

// MarkPrinted marca la primera impresión. Devuelve false si ya estaba impresa:
// las impresiones posteriores no mutan estado ni generan auditoría.
func (i *Invoice) MarkPrinted(now time.Time) bool {
	if i.Printed {
		return false
	}
	i.Printed = true
	i.PrintedAt = &now
	return true
}
