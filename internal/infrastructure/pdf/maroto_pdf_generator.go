// Package pdf implementa la representación gráfica de la factura bajo el
// régimen de facturación del SAR (Reglamento de Facturación, Acuerdo 481-2017).
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Razón Social + RTN  │  N° Factura + Fecha          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  CAI + Fecha límite de emisión                              │
//	│  CLIENTE: Nombre + RTN + contacto                           │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | Descripción | P.Unit | ISV% | Total          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Exento / Gravado 15% / Gravado 18% / ISV / TOTAL  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: Leyendas legales SAR                               │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	marotocfg "github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/dcastellanos/facturacion-api/internal/application/billing"
	"github.com/dcastellanos/facturacion-api/internal/domain/entity"
	"github.com/dcastellanos/facturacion-api/pkg/config"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 90, Blue: 60}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorRed     = &props.Color{Red: 180, Green: 30, Blue: 30}
)

// montos con separador de miles y dos decimales al estilo es-HN (L 1,234.50)
var printer = message.NewPrinter(language.MustParse("es-HN"))

func lempira(d decimal.Decimal) string {
	f, _ := d.Float64()
	return printer.Sprintf("L %.2f", f)
}

// ── Generator ─────────────────────────────────────────────────────────────────

var _ billing.InvoicePDFGenerator = (*MarotoPDFGenerator)(nil)

// MarotoPDFGenerator implementa billing.InvoicePDFGenerator usando Maroto v2.
// Los datos del emisor vienen de la configuración: son los mismos para todas
// las facturas de la instancia.
type MarotoPDFGenerator struct {
	issuer config.FiscalConfig
}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator(issuer config.FiscalConfig) *MarotoPDFGenerator {
	return &MarotoPDFGenerator{issuer: issuer}
}

// GenerateInvoicePDF genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateInvoicePDF(_ context.Context, inv *entity.Invoice, lines []*entity.InvoiceLine) ([]byte, error) {
	cfg := marotocfg.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Factura "+inv.Number, true).
		WithAuthor(g.issuer.IssuerName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(g.headerRow(inv))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(caiRow(inv))
	m.AddRows(customerRow(inv))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	for _, r := range tableLineRows(lines) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(inv))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	for _, r := range footerRows(inv) {
		m.AddRows(r)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: razón social + RTN (izq) y N° factura + fecha (der). Si la factura
// está anulada se antepone la marca ANULADA en rojo.
func (g *MarotoPDFGenerator) headerRow(inv *entity.Invoice) core.Row {
	fecha := inv.CreatedAt.Format("02/01/2006")

	title := "FACTURA"
	titleColor := colorPrimary
	if inv.Status == entity.InvoiceStatusVoided {
		title = "FACTURA ANULADA"
		titleColor = colorRed
	}

	return row.New(18).Add(
		col.New(7).Add(
			text.New(g.issuer.IssuerName, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("RTN: "+g.issuer.IssuerRTN, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(title, props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: titleColor, Top: 1,
			}),
			text.New(inv.Number, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Fecha: "+fecha, props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// caiRow: CAI y fecha límite de emisión, ambos copiados del rango al emitir.
func caiRow(inv *entity.Invoice) core.Row {
	return row.New(12).Add(
		col.New(12).Add(
			text.New("CAI: "+inv.CAI, props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New("Fecha límite de emisión: "+inv.CAIExpiry.Format("02/01/2006"), props.Text{
				Size: 8, Top: 7, Color: colorGray,
			}),
		),
	)
}

// customerRow: datos del cliente tal como quedaron congelados en la factura.
func customerRow(inv *entity.Invoice) core.Row {
	rtn := inv.Customer.RTN
	if rtn == "" {
		rtn = "CONSUMIDOR FINAL"
	}
	return row.New(14).Add(
		col.New(12).Add(
			text.New("CLIENTE", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(inv.Customer.Name, props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(fmt.Sprintf("RTN: %s   |   Dirección: %s   |   Pago: %s",
				rtn,
				nonEmpty(inv.Customer.Address, "—"),
				inv.PaymentTerms,
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de líneas.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("Descripción", 5, align.Left),
		h("Precio Unit.", 2, align.Right),
		h("ISV%", 1, align.Center),
		h("Total", 3, align.Right),
	)
}

// tableLineRows: una fila por línea de la factura.
func tableLineRows(lines []*entity.InvoiceLine) []core.Row {
	result := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		rate := l.TaxRate.Mul(decimal.NewFromInt(100)).StringFixed(0) + "%"
		if l.TaxRate.IsZero() {
			rate = "EX"
		}
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(
				l.Quantity.String(),
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(5).Add(text.New(
				l.Description,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				lempira(l.UnitPrice),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(1).Add(text.New(
				rate,
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(3).Add(text.New(
				lempira(l.Total),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
		))
	}
	return result
}

// totalsRow: desglose por banda de ISV y total a pagar.
func totalsRow(inv *entity.Invoice) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2,
		})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	grandLabel := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 2,
		})
	}
	grandValue := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 1,
		})
	}

	return row.New(44).Add(
		col.New(3),
		col.New(5).Add(
			label("Importe exento:"),
			label("Importe gravado 15%:"),
			label("Importe gravado 18%:"),
			label("ISV 15%:"),
			label("ISV 18%:"),
			grandLabel("TOTAL A PAGAR:"),
		),
		col.New(3).Add(
			value(lempira(inv.SubtotalExempt)),
			value(lempira(inv.SubtotalTaxed15)),
			value(lempira(inv.SubtotalTaxed18)),
			value(lempira(inv.Tax15)),
			value(lempira(inv.Tax18)),
			grandValue(lempira(inv.Total)),
		),
		col.New(1),
	)
}

// footerRows: leyendas obligatorias del reglamento de facturación.
func footerRows(inv *entity.Invoice) []core.Row {
	rows := []core.Row{}

	if inv.Exempt {
		rows = append(rows, row.New(6).Add(col.New(12).Add(
			text.New("Venta exenta. Constancia/orden de compra exenta: "+inv.ExemptionRef, props.Text{
				Style: fontstyle.Bold, Size: 8, Top: 1,
			}),
		)))
	}

	if inv.Status == entity.InvoiceStatusVoided {
		rows = append(rows, row.New(6).Add(col.New(12).Add(
			text.New(fmt.Sprintf("ANULADA el %s. Motivo: %s",
				inv.VoidedAt.Format("02/01/2006"), inv.VoidReason), props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorRed, Top: 1,
			}),
		)))
	}

	rows = append(rows,
		row.New(8).Add(col.New(12).Add(
			text.New("La factura es beneficio de todos. ¡Exíjala!", props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Center,
				Color: colorPrimary, Top: 2,
			}),
		)),
		row.New(6).Add(col.New(12).Add(
			text.New("Original: Cliente   |   Copia: Emisor", props.Text{
				Size: 7, Align: align.Center, Color: colorGray, Top: 1,
			}),
		)),
	)

	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
