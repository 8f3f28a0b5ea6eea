package dto

import (
	"github.com/shopspring/decimal"
)

// CustomerPayload datos del cliente capturados como snapshot al emitir.
type CustomerPayload struct {
	Name    string `json:"name"`
	RTN     string `json:"rtn"`
	Address string `json:"address,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// InvoiceLineRequest línea de la factura a emitir.
type InvoiceLineRequest struct {
	ProductRef      string          `json:"product_ref,omitempty"`
	Description     string          `json:"description"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	TaxClass        string          `json:"tax_class"` // EXENTO | GRAVADO_15 | GRAVADO_18
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// CreateInvoiceRequest body para POST /api/invoices.
type CreateInvoiceRequest struct {
	DocumentType string               `json:"document_type,omitempty"` // por defecto FACTURA
	Customer     CustomerPayload      `json:"customer"`
	PaymentTerms string               `json:"payment_terms,omitempty"` // CONTADO | CREDITO
	Exempt       bool                 `json:"exempt,omitempty"`
	ExemptionRef string               `json:"exemption_ref,omitempty"`
	Lines        []InvoiceLineRequest `json:"lines"`
}

// VoidInvoiceRequest body para POST /api/invoices/:id/void.
type VoidInvoiceRequest struct {
	Reason string `json:"reason"`
}

// ListInvoicesQuery filtros para GET /api/invoices.
type ListInvoicesQuery struct {
	Number      string `query:"number"`
	CustomerRTN string `query:"customer_rtn"`
	Status      string `query:"status"`
	DateFrom    string `query:"date_from"` // YYYY-MM-DD
	DateTo      string `query:"date_to"`
	PageRequest
}

// InvoiceLineResponse línea en respuestas.
type InvoiceLineResponse struct {
	ID              string          `json:"id"`
	LineNumber      int             `json:"line_number"`
	ProductRef      string          `json:"product_ref,omitempty"`
	Description     string          `json:"description"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	TaxClass        string          `json:"tax_class"`
	TaxRate         decimal.Decimal `json:"tax_rate"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	Total           decimal.Decimal `json:"total"`
}

// AuditEntryResponse entrada de auditoría en la respuesta de detalle.
type AuditEntryResponse struct {
	ID          string `json:"id"`
	ActorID     string `json:"actor_id"`
	Action      string `json:"action"` // CREACION | ANULACION | IMPRESION
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

// InvoiceResponse factura completa en respuestas.
type InvoiceResponse struct {
	ID          string `json:"id"`
	RangeID     string `json:"range_id"`
	Correlative int64  `json:"correlative"`
	Number      string `json:"number"`
	CAI         string `json:"cai"`
	CAIExpiry   string `json:"cai_expiry"`

	Customer     CustomerPayload `json:"customer"`
	PaymentTerms string          `json:"payment_terms"`

	SubtotalExempt  decimal.Decimal `json:"subtotal_exempt"`
	SubtotalTaxed15 decimal.Decimal `json:"subtotal_taxed_15"`
	SubtotalTaxed18 decimal.Decimal `json:"subtotal_taxed_18"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Tax15           decimal.Decimal `json:"tax_15"`
	Tax18           decimal.Decimal `json:"tax_18"`
	TaxTotal        decimal.Decimal `json:"tax_total"`
	Total           decimal.Decimal `json:"total"`

	Exempt       bool   `json:"exempt"`
	ExemptionRef string `json:"exemption_ref,omitempty"`

	Status     string `json:"status"` // VIGENTE | ANULADA
	VoidReason string `json:"void_reason,omitempty"`
	VoidedBy   string `json:"voided_by,omitempty"`
	VoidedAt   string `json:"voided_at,omitempty"`

	Printed   bool   `json:"printed"`
	PrintedAt string `json:"printed_at,omitempty"`

	IssuedBy  string `json:"issued_by"`
	CreatedAt string `json:"created_at"`

	Lines      []InvoiceLineResponse `json:"lines,omitempty"`
	AuditTrail []AuditEntryResponse  `json:"audit_trail,omitempty"`
}

// RegisterRangeRequest body para POST /api/ranges.
type RegisterRangeRequest struct {
	IssuerRTN     string `json:"issuer_rtn"`
	IssuerName    string `json:"issuer_name"`
	EmissionPoint string `json:"emission_point"`
	DocumentType  string `json:"document_type"`
	CAI           string `json:"cai"`
	Prefix        string `json:"prefix"`
	RangeStart    int64  `json:"range_start"`
	RangeEnd      int64  `json:"range_end"`
	ExpiryDate    string `json:"expiry_date"` // YYYY-MM-DD
	ProofRef      string `json:"proof_ref,omitempty"`
}

// RangeResponse rango CAI con sus condiciones derivadas calculadas al leer.
type RangeResponse struct {
	ID            string  `json:"id"`
	IssuerRTN     string  `json:"issuer_rtn"`
	IssuerName    string  `json:"issuer_name"`
	EmissionPoint string  `json:"emission_point"`
	DocumentType  string  `json:"document_type"`
	CAI           string  `json:"cai"`
	Prefix        string  `json:"prefix"`
	RangeStart    int64   `json:"range_start"`
	RangeEnd      int64   `json:"range_end"`
	LastUsed      int64   `json:"last_used"`
	ExpiryDate    string  `json:"expiry_date"`
	Status        string  `json:"status"` // ACTIVA | INACTIVA
	Exhausted     bool    `json:"exhausted"`
	Expired       bool    `json:"expired"`
	Utilization   float64 `json:"utilization"` // porcentaje 0–100
	ProofRef      string  `json:"proof_ref,omitempty"`
	CreatedAt     string  `json:"created_at"`
}
