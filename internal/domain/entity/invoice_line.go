package entity

import (
	"github.com/shopspring/decimal"

	"github.com/dcastellanos/facturacion-api/internal/domain/fiscal"
)

// InvoiceLine línea de detalle de una factura. Se crea junto con la cabecera y
// nunca se modifica ni elimina individualmente: una corrección requiere anular
// la factura y emitir una nueva.
type InvoiceLine struct {
	ID         string
	InvoiceID  string
	LineNumber int // 1-based, contiguo, el orden es significativo

	ProductRef  string // referencia opcional a producto/servicio del catálogo
	Description string

	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal

	TaxClass fiscal.TaxClass
	TaxRate  decimal.Decimal // tasa vigente al emitir, congelada en la línea

	DiscountPercent decimal.Decimal
	DiscountAmount  decimal.Decimal
	Subtotal        decimal.Decimal // post-descuento, pre-impuesto
	TaxAmount       decimal.Decimal
	Total           decimal.Decimal
}
