package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dcastellanos/facturacion-api/internal/application/dto"
	"github.com/dcastellanos/facturacion-api/internal/domain"
	"github.com/dcastellanos/facturacion-api/internal/domain/entity"
	"github.com/dcastellanos/facturacion-api/internal/domain/fiscal"
	"github.com/dcastellanos/facturacion-api/internal/domain/repository"
)

// allocationRetries reintentos de emisión cuando la revalidación bajo el lock
// reporta el rango agotado (carrera perdida contra otra emisión concurrente).
// Cada reintento abre una transacción nueva y vuelve a seleccionar rango.
const allocationRetries = 3

// CreateInvoiceUseCase emite facturas: selecciona el rango CAI utilizable,
// asigna el siguiente correlativo bajo lock exclusivo, calcula los totales
// fiscales y persiste cabecera, líneas y auditoría como una unidad atómica.
type CreateInvoiceUseCase struct {
	txRunner TxRunner
}

// NewCreateInvoiceUseCase construye el caso de uso.
func NewCreateInvoiceUseCase(txRunner TxRunner) *CreateInvoiceUseCase {
	return &CreateInvoiceUseCase{txRunner: txRunner}
}

// CreateInvoice valida la entrada, calcula las líneas (puro, fuera de la
// transacción) y ejecuta "seleccionar rango → avanzar cursor → escribir factura
// → auditar" dentro de una sola transacción. Cualquier fallo posterior a la
// asignación revierte también el cursor: los intentos fallidos no queman números.
func (uc *CreateInvoiceUseCase) CreateInvoice(ctx context.Context, actorID string, in dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	docType, paymentTerms, err := uc.validateHeader(in)
	if err != nil {
		return nil, err
	}

	results := make([]fiscal.LineResult, 0, len(in.Lines))
	for i, l := range in.Lines {
		class, err := fiscal.ParseTaxClass(l.TaxClass)
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", i+1, err)
		}
		res, err := fiscal.ComputeLine(fiscal.LineInput{
			Quantity:        l.Quantity,
			UnitPrice:       l.UnitPrice,
			TaxClass:        class,
			DiscountPercent: l.DiscountPercent,
		})
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", i+1, err)
		}
		results = append(results, res)
	}
	totals := fiscal.AggregateTotals(results)

	var inv *entity.Invoice
	var lines []*entity.InvoiceLine

	for attempt := 0; ; attempt++ {
		inv, lines = nil, nil
		err = uc.txRunner.RunBilling(ctx, func(
			rangeRepo repository.AuthorizationRangeRepository,
			invoiceRepo repository.InvoiceRepository,
			auditRepo repository.AuditLogRepository,
		) error {
			now := time.Now()

			rng, exhaustedOnly, err := rangeRepo.SelectUsableForUpdate(ctx, docType, now)
			if err != nil {
				return err
			}
			if rng == nil {
				if exhaustedOnly {
					return domain.ErrRangeExhausted
				}
				return domain.ErrNoAuthorization
			}

			// Revalidación bajo el lock: entre la selección y la adquisición
			// pudo pasar tiempo (vencimiento) u otra emisión (agotamiento).
			correlative, err := rng.Allocate(now)
			if err != nil {
				return err
			}
			if err := rangeRepo.UpdateCursor(ctx, rng.ID, rng.LastUsed); err != nil {
				return err
			}

			inv = &entity.Invoice{
				ID:          uuid.New().String(),
				RangeID:     rng.ID,
				Correlative: correlative,
				Number:      rng.FormatNumber(correlative),
				CAI:         rng.CAI,
				CAIExpiry:   rng.ExpiryDate,
				Customer: entity.CustomerSnapshot{
					Name:    strings.TrimSpace(in.Customer.Name),
					RTN:     strings.TrimSpace(in.Customer.RTN),
					Address: strings.TrimSpace(in.Customer.Address),
					Email:   strings.TrimSpace(in.Customer.Email),
					Phone:   strings.TrimSpace(in.Customer.Phone),
				},
				PaymentTerms:    paymentTerms,
				SubtotalExempt:  totals.SubtotalExempt,
				SubtotalTaxed15: totals.SubtotalTaxed15,
				SubtotalTaxed18: totals.SubtotalTaxed18,
				Subtotal:        totals.Subtotal,
				Tax15:           totals.Tax15,
				Tax18:           totals.Tax18,
				TaxTotal:        totals.TaxTotal,
				Total:           totals.Total,
				Exempt:          in.Exempt,
				ExemptionRef:    strings.TrimSpace(in.ExemptionRef),
				Status:          entity.InvoiceStatusValid,
				IssuedBy:        actorID,
				CreatedAt:       now,
			}
			if err := invoiceRepo.Create(ctx, inv); err != nil {
				return err
			}

			lines = make([]*entity.InvoiceLine, 0, len(results))
			for i, res := range results {
				line := &entity.InvoiceLine{
					ID:              uuid.New().String(),
					InvoiceID:       inv.ID,
					LineNumber:      i + 1,
					ProductRef:      strings.TrimSpace(in.Lines[i].ProductRef),
					Description:     strings.TrimSpace(in.Lines[i].Description),
					Quantity:        in.Lines[i].Quantity,
					UnitPrice:       in.Lines[i].UnitPrice,
					TaxClass:        res.TaxClass,
					TaxRate:         res.RateApplied,
					DiscountPercent: in.Lines[i].DiscountPercent,
					DiscountAmount:  res.DiscountAmount,
					Subtotal:        res.Subtotal,
					TaxAmount:       res.TaxAmount,
					Total:           res.Total,
				}
				if err := invoiceRepo.CreateLine(ctx, line); err != nil {
					return err
				}
				lines = append(lines, line)
			}

			after, err := json.Marshal(inv)
			if err != nil {
				return fmt.Errorf("serializar snapshot de auditoría: %w", err)
			}
			return auditRepo.Append(ctx, &entity.AuditLogEntry{
				ID:          uuid.New().String(),
				InvoiceID:   inv.ID,
				ActorID:     actorID,
				Action:      entity.AuditActionCreation,
				Description: fmt.Sprintf("emisión de %s %s", strings.ToLower(docType), inv.Number),
				After:       string(after),
				CreatedAt:   now,
			})
		})
		if err == nil {
			break
		}
		if errors.Is(err, domain.ErrRangeExhausted) && attempt < allocationRetries-1 {
			continue // otro rango registrado puede atender la emisión
		}
		return nil, err
	}

	return toInvoiceResponse(inv, lines, nil), nil
}

// validateHeader valida los campos de cabecera y aplica valores por defecto.
func (uc *CreateInvoiceUseCase) validateHeader(in dto.CreateInvoiceRequest) (docType, paymentTerms string, err error) {
	if len(in.Lines) == 0 {
		return "", "", fmt.Errorf("%w: la factura requiere al menos una línea", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(in.Customer.Name) == "" {
		return "", "", fmt.Errorf("%w: el nombre del cliente es obligatorio", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(in.Customer.RTN) == "" {
		return "", "", fmt.Errorf("%w: el RTN del cliente es obligatorio", domain.ErrInvalidInput)
	}

	docType = in.DocumentType
	if docType == "" {
		docType = entity.DocumentTypeInvoice
	}
	if docType, err = entity.ParseDocumentType(docType); err != nil {
		return "", "", err
	}

	paymentTerms = in.PaymentTerms
	switch paymentTerms {
	case "":
		paymentTerms = entity.PaymentTermsCash
	case entity.PaymentTermsCash, entity.PaymentTermsCredit:
	default:
		return "", "", fmt.Errorf("%w: condición de pago desconocida %q", domain.ErrInvalidInput, paymentTerms)
	}

	if in.Exempt && strings.TrimSpace(in.ExemptionRef) == "" {
		return "", "", fmt.Errorf("%w: la exención requiere constancia de respaldo", domain.ErrInvalidInput)
	}
	return docType, paymentTerms, nil
}
