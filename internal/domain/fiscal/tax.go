// Package fiscal implementa la aritmética del ISV hondureño por línea de
// factura: bandas de 15% y 18%, exenciones y descuentos, con redondeo
// determinista a 2 decimales en el momento del cálculo de cada línea.
package fiscal

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dcastellanos/facturacion-api/internal/domain"
)

// TaxClass clasifica una línea según su tratamiento de ISV.
// Es un conjunto cerrado: una nueva banda se agrega extendiendo las constantes,
// nunca comparando strings sueltos.
type TaxClass string

const (
	TaxClassExempt  TaxClass = "EXENTO"
	TaxClassTaxed15 TaxClass = "GRAVADO_15"
	TaxClassTaxed18 TaxClass = "GRAVADO_18"
)

var (
	rate15  = decimal.RequireFromString("0.15")
	rate18  = decimal.RequireFromString("0.18")
	hundred = decimal.NewFromInt(100)
)

// ParseTaxClass valida el tag persistido/recibido y lo convierte al enum.
func ParseTaxClass(s string) (TaxClass, error) {
	switch c := TaxClass(s); c {
	case TaxClassExempt, TaxClassTaxed15, TaxClassTaxed18:
		return c, nil
	}
	return "", fmt.Errorf("%w: clase de impuesto desconocida %q", domain.ErrInvalidInput, s)
}

// Rate devuelve la tasa de ISV asociada a la clase.
func (c TaxClass) Rate() decimal.Decimal {
	switch c {
	case TaxClassTaxed15:
		return rate15
	case TaxClassTaxed18:
		return rate18
	case TaxClassExempt:
		return decimal.Zero
	}
	return decimal.Zero
}

// LineInput entrada del cálculo de una línea.
type LineInput struct {
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	TaxClass        TaxClass
	DiscountPercent decimal.Decimal // 0–100
}

// LineResult montos calculados de una línea, ya redondeados a 2 decimales.
type LineResult struct {
	TaxClass       TaxClass
	RateApplied    decimal.Decimal
	DiscountAmount decimal.Decimal
	Subtotal       decimal.Decimal // post-descuento, pre-impuesto
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
}

// ComputeLine calcula descuento, subtotal, ISV y total de una línea.
// Función pura: sin efectos secundarios. El redondeo a 2 decimales ocurre aquí,
// por línea, para que la deriva de centavos no se acumule en los agregados.
func ComputeLine(in LineInput) (LineResult, error) {
	if !in.Quantity.GreaterThan(decimal.Zero) {
		return LineResult{}, fmt.Errorf("%w: la cantidad debe ser mayor que cero", domain.ErrInvalidInput)
	}
	if in.UnitPrice.LessThan(decimal.Zero) {
		return LineResult{}, fmt.Errorf("%w: el precio unitario no puede ser negativo", domain.ErrInvalidInput)
	}
	if in.DiscountPercent.LessThan(decimal.Zero) || in.DiscountPercent.GreaterThan(hundred) {
		return LineResult{}, fmt.Errorf("%w: el descuento debe estar entre 0 y 100", domain.ErrInvalidInput)
	}
	if _, err := ParseTaxClass(string(in.TaxClass)); err != nil {
		return LineResult{}, err
	}

	gross := in.Quantity.Mul(in.UnitPrice)
	discount := gross.Mul(in.DiscountPercent).Div(hundred).Round(2)
	subtotal := gross.Sub(discount).Round(2)
	rate := in.TaxClass.Rate()
	tax := subtotal.Mul(rate).Round(2)

	return LineResult{
		TaxClass:       in.TaxClass,
		RateApplied:    rate,
		DiscountAmount: discount,
		Subtotal:       subtotal,
		TaxAmount:      tax,
		Total:          subtotal.Add(tax),
	}, nil
}
