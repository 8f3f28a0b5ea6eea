package billing

import (
	"time"

	"github.com/dcastellanos/facturacion-api/internal/application/dto"
	"github.com/dcastellanos/facturacion-api/internal/domain/entity"
)

const dateLayout = "2006-01-02"

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

// toInvoiceResponse mapea la entidad a la respuesta HTTP. lines y trail son
// opcionales (los listados omiten ambos).
func toInvoiceResponse(inv *entity.Invoice, lines []*entity.InvoiceLine, trail []*entity.AuditLogEntry) *dto.InvoiceResponse {
	resp := &dto.InvoiceResponse{
		ID:          inv.ID,
		RangeID:     inv.RangeID,
		Correlative: inv.Correlative,
		Number:      inv.Number,
		CAI:         inv.CAI,
		CAIExpiry:   inv.CAIExpiry.Format(dateLayout),
		Customer: dto.CustomerPayload{
			Name:    inv.Customer.Name,
			RTN:     inv.Customer.RTN,
			Address: inv.Customer.Address,
			Email:   inv.Customer.Email,
			Phone:   inv.Customer.Phone,
		},
		PaymentTerms:    inv.PaymentTerms,
		SubtotalExempt:  inv.SubtotalExempt,
		SubtotalTaxed15: inv.SubtotalTaxed15,
		SubtotalTaxed18: inv.SubtotalTaxed18,
		Subtotal:        inv.Subtotal,
		Tax15:           inv.Tax15,
		Tax18:           inv.Tax18,
		TaxTotal:        inv.TaxTotal,
		Total:           inv.Total,
		Exempt:          inv.Exempt,
		ExemptionRef:    inv.ExemptionRef,
		Status:          inv.Status,
		VoidReason:      inv.VoidReason,
		VoidedBy:        inv.VoidedBy,
		VoidedAt:        formatTimePtr(inv.VoidedAt),
		Printed:         inv.Printed,
		PrintedAt:       formatTimePtr(inv.PrintedAt),
		IssuedBy:        inv.IssuedBy,
		CreatedAt:       formatTime(inv.CreatedAt),
	}
	for _, l := range lines {
		resp.Lines = append(resp.Lines, dto.InvoiceLineResponse{
			ID:              l.ID,
			LineNumber:      l.LineNumber,
			ProductRef:      l.ProductRef,
			Description:     l.Description,
			Quantity:        l.Quantity,
			UnitPrice:       l.UnitPrice,
			TaxClass:        string(l.TaxClass),
			TaxRate:         l.TaxRate,
			DiscountPercent: l.DiscountPercent,
			DiscountAmount:  l.DiscountAmount,
			Subtotal:        l.Subtotal,
			TaxAmount:       l.TaxAmount,
			Total:           l.Total,
		})
	}
	for _, e := range trail {
		resp.AuditTrail = append(resp.AuditTrail, dto.AuditEntryResponse{
			ID:          e.ID,
			ActorID:     e.ActorID,
			Action:      e.Action,
			Description: e.Description,
			CreatedAt:   formatTime(e.CreatedAt),
		})
	}
	return resp
}

// toRangeResponse mapea el rango con sus condiciones derivadas al momento de la lectura.
func toRangeResponse(r *entity.AuthorizationRange, now time.Time) *dto.RangeResponse {
	return &dto.RangeResponse{
		ID:            r.ID,
		IssuerRTN:     r.IssuerRTN,
		IssuerName:    r.IssuerName,
		EmissionPoint: r.EmissionPoint,
		DocumentType:  r.DocumentType,
		CAI:           r.CAI,
		Prefix:        r.Prefix,
		RangeStart:    r.RangeStart,
		RangeEnd:      r.RangeEnd,
		LastUsed:      r.LastUsed,
		ExpiryDate:    r.ExpiryDate.Format(dateLayout),
		Status:        r.Status,
		Exhausted:     r.IsExhausted(),
		Expired:       r.IsExpired(now),
		Utilization:   r.Utilization(),
		ProofRef:      r.ProofRef,
		CreatedAt:     formatTime(r.CreatedAt),
	}
}
