package fiscal

import "github.com/shopspring/decimal"

// Totals agrupa los totales de una factura por banda de ISV.
type Totals struct {
	SubtotalExempt  decimal.Decimal
	SubtotalTaxed15 decimal.Decimal
	SubtotalTaxed18 decimal.Decimal
	Subtotal        decimal.Decimal
	Tax15           decimal.Decimal
	Tax18           decimal.Decimal
	TaxTotal        decimal.Decimal
	Total           decimal.Decimal
}

// AggregateTotals suma los resultados de línea en la banda que corresponde a su
// clase de impuesto. Función pura; una entrada vacía produce totales en cero
// (soporta previsualización de borradores). Cada campo se redondea a 2 decimales
// al final; el redondeo por línea ya acota la deriva a centavos por línea.
func AggregateTotals(lines []LineResult) Totals {
	var t Totals
	for _, l := range lines {
		switch l.TaxClass {
		case TaxClassTaxed15:
			t.SubtotalTaxed15 = t.SubtotalTaxed15.Add(l.Subtotal)
			t.Tax15 = t.Tax15.Add(l.TaxAmount)
		case TaxClassTaxed18:
			t.SubtotalTaxed18 = t.SubtotalTaxed18.Add(l.Subtotal)
			t.Tax18 = t.Tax18.Add(l.TaxAmount)
		default:
			t.SubtotalExempt = t.SubtotalExempt.Add(l.Subtotal)
		}
	}
	t.SubtotalExempt = t.SubtotalExempt.Round(2)
	t.SubtotalTaxed15 = t.SubtotalTaxed15.Round(2)
	t.SubtotalTaxed18 = t.SubtotalTaxed18.Round(2)
	t.Tax15 = t.Tax15.Round(2)
	t.Tax18 = t.Tax18.Round(2)
	t.Subtotal = t.SubtotalExempt.Add(t.SubtotalTaxed15).Add(t.SubtotalTaxed18).Round(2)
	t.TaxTotal = t.Tax15.Add(t.Tax18).Round(2)
	t.Total = t.Subtotal.Add(t.TaxTotal).Round(2)
	return t
}
