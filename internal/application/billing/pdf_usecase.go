package billing

import (
	"context"
)

// PDFUseCase genera la representación gráfica de la factura y registra la
// primera impresión. La generación del PDF ocurre fuera de toda transacción;
// solo la marca de impresión (si es la primera) escribe estado.
type PDFUseCase struct {
	queries   *InvoiceQueryUseCase
	lifecycle *LifecycleUseCase
	generator InvoicePDFGenerator
}

// NewPDFUseCase construye el caso de uso.
func NewPDFUseCase(queries *InvoiceQueryUseCase, lifecycle *LifecycleUseCase, generator InvoicePDFGenerator) *PDFUseCase {
	return &PDFUseCase{queries: queries, lifecycle: lifecycle, generator: generator}
}

// GenerateInvoicePDF renderiza el PDF y marca la primera impresión.
// Las generaciones repetidas devuelven un PDF nuevo pero no re-auditan: la
// marca de impresión es de una sola vía.
func (uc *PDFUseCase) GenerateInvoicePDF(ctx context.Context, actorID, invoiceID string) ([]byte, error) {
	inv, lines, err := uc.queries.GetInvoiceWithLines(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	pdfBytes, err := uc.generator.GenerateInvoicePDF(ctx, inv, lines)
	if err != nil {
		return nil, err
	}
	if _, err := uc.lifecycle.MarkPrinted(ctx, actorID, invoiceID); err != nil {
		return nil, err
	}
	return pdfBytes, nil
}
