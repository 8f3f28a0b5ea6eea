package billing_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/dcastellanos/facturacion-api/internal/application/billing"
	"github.com/dcastellanos/facturacion-api/internal/domain/entity"
	"github.com/dcastellanos/facturacion-api/internal/domain/repository"
)

// memStore almacén en memoria para los tests de casos de uso. Emula la
// semántica transaccional del TxRunner de PostgreSQL: un mutex global hace de
// lock de fila (serializa emisiones) y un snapshot del estado permite revertir
// todo si el callback falla, incluido el cursor del rango.
type memStore struct {
	mu       sync.Mutex
	ranges   map[string]*entity.AuthorizationRange
	invoices map[string]*entity.Invoice
	lines    map[string][]*entity.InvoiceLine
	audit    []*entity.AuditLogEntry

	failAudit bool // simula bitácora indisponible
}

var _ billing.TxRunner = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		ranges:   make(map[string]*entity.AuthorizationRange),
		invoices: make(map[string]*entity.Invoice),
		lines:    make(map[string][]*entity.InvoiceLine),
	}
}

type memSnapshot struct {
	ranges   map[string]*entity.AuthorizationRange
	invoices map[string]*entity.Invoice
	lines    map[string][]*entity.InvoiceLine
	audit    []*entity.AuditLogEntry
}

func (s *memStore) snapshot() memSnapshot {
	snap := memSnapshot{
		ranges:   make(map[string]*entity.AuthorizationRange, len(s.ranges)),
		invoices: make(map[string]*entity.Invoice, len(s.invoices)),
		lines:    make(map[string][]*entity.InvoiceLine, len(s.lines)),
		audit:    append([]*entity.AuditLogEntry(nil), s.audit...),
	}
	for id, r := range s.ranges {
		cp := *r
		snap.ranges[id] = &cp
	}
	for id, inv := range s.invoices {
		cp := *inv
		snap.invoices[id] = &cp
	}
	for id, ls := range s.lines {
		snap.lines[id] = append([]*entity.InvoiceLine(nil), ls...)
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.ranges = snap.ranges
	s.invoices = snap.invoices
	s.lines = snap.lines
	s.audit = snap.audit
}

// RunBilling ejecuta fn bajo el lock global con rollback total en caso de error.
func (s *memStore) RunBilling(_ context.Context, fn func(
	rangeRepo repository.AuthorizationRangeRepository,
	invoiceRepo repository.InvoiceRepository,
	auditRepo repository.AuditLogRepository,
) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshot()
	if err := fn(&memRangeRepo{s}, &memInvoiceRepo{s}, &memAuditRepo{s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// rangeRepo devuelve un repositorio fuera de transacción (las operaciones
// administrativas de rangos no requieren el lock global en los tests).
func (s *memStore) rangeRepo() repository.AuthorizationRangeRepository { return &memRangeRepo{s} }

func (s *memStore) invoiceRepo() repository.InvoiceRepository { return &memInvoiceRepo{s} }

func (s *memStore) auditRepo() repository.AuditLogRepository { return &memAuditRepo{s} }

// ── repositorio de rangos ─────────────────────────────────────────────────────

type memRangeRepo struct{ s *memStore }

func (r *memRangeRepo) Create(_ context.Context, rng *entity.AuthorizationRange) error {
	cp := *rng
	r.s.ranges[rng.ID] = &cp
	return nil
}

func (r *memRangeRepo) GetByID(_ context.Context, id string) (*entity.AuthorizationRange, error) {
	rng, ok := r.s.ranges[id]
	if !ok {
		return nil, nil
	}
	cp := *rng
	return &cp, nil
}

func (r *memRangeRepo) List(_ context.Context) ([]*entity.AuthorizationRange, error) {
	out := r.sorted()
	return out, nil
}

func (r *memRangeRepo) sorted() []*entity.AuthorizationRange {
	out := make([]*entity.AuthorizationRange, 0, len(r.s.ranges))
	for _, rng := range r.s.ranges {
		cp := *rng
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *memRangeRepo) SelectUsableForUpdate(_ context.Context, documentType string, now time.Time) (*entity.AuthorizationRange, bool, error) {
	exhaustedOnly := false
	for _, rng := range r.sorted() {
		if rng.DocumentType != documentType {
			continue
		}
		if rng.IsUsable(now) {
			return rng, false, nil
		}
		if rng.Status == entity.RangeStatusActive && !rng.IsExpired(now) && rng.IsExhausted() {
			exhaustedOnly = true
		}
	}
	return nil, exhaustedOnly, nil
}

func (r *memRangeRepo) UpdateCursor(_ context.Context, id string, lastUsed int64) error {
	rng, ok := r.s.ranges[id]
	if !ok {
		return errors.New("rango inexistente")
	}
	rng.LastUsed = lastUsed
	return nil
}

func (r *memRangeRepo) UpdateStatus(_ context.Context, in *entity.AuthorizationRange) error {
	rng, ok := r.s.ranges[in.ID]
	if !ok {
		return errors.New("rango inexistente")
	}
	rng.Status = in.Status
	rng.UpdatedAt = in.UpdatedAt
	return nil
}

// ── repositorio de facturas ───────────────────────────────────────────────────

type memInvoiceRepo struct{ s *memStore }

func (r *memInvoiceRepo) Create(_ context.Context, inv *entity.Invoice) error {
	cp := *inv
	r.s.invoices[inv.ID] = &cp
	return nil
}

func (r *memInvoiceRepo) CreateLine(_ context.Context, line *entity.InvoiceLine) error {
	cp := *line
	r.s.lines[line.InvoiceID] = append(r.s.lines[line.InvoiceID], &cp)
	return nil
}

func (r *memInvoiceRepo) GetByID(_ context.Context, id string) (*entity.Invoice, error) {
	inv, ok := r.s.invoices[id]
	if !ok {
		return nil, nil
	}
	cp := *inv
	return &cp, nil
}

func (r *memInvoiceRepo) GetLinesByInvoiceID(_ context.Context, invoiceID string) ([]*entity.InvoiceLine, error) {
	ls := r.s.lines[invoiceID]
	out := make([]*entity.InvoiceLine, 0, len(ls))
	for _, l := range ls {
		cp := *l
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LineNumber < out[j].LineNumber })
	return out, nil
}

func (r *memInvoiceRepo) List(_ context.Context, f repository.InvoiceFilter) ([]*entity.Invoice, error) {
	var out []*entity.Invoice
	for _, inv := range r.s.invoices {
		if f.Number != "" && inv.Number != f.Number {
			continue
		}
		if f.CustomerRTN != "" && inv.Customer.RTN != f.CustomerRTN {
			continue
		}
		if f.Status != "" && inv.Status != f.Status {
			continue
		}
		if f.DateFrom != nil && inv.CreatedAt.Before(*f.DateFrom) {
			continue
		}
		if f.DateTo != nil && inv.CreatedAt.After(*f.DateTo) {
			continue
		}
		cp := *inv
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *memInvoiceRepo) MarkVoided(_ context.Context, inv *entity.Invoice) (bool, error) {
	stored, ok := r.s.invoices[inv.ID]
	if !ok {
		return false, errors.New("factura inexistente")
	}
	if stored.Status != entity.InvoiceStatusValid {
		return false, nil
	}
	cp := *inv
	r.s.invoices[inv.ID] = &cp
	return true, nil
}

func (r *memInvoiceRepo) MarkPrinted(_ context.Context, inv *entity.Invoice) (bool, error) {
	stored, ok := r.s.invoices[inv.ID]
	if !ok {
		return false, errors.New("factura inexistente")
	}
	if stored.Printed {
		return false, nil
	}
	stored.Printed = true
	stored.PrintedAt = inv.PrintedAt
	return true, nil
}

// ── bitácora de auditoría ─────────────────────────────────────────────────────

type memAuditRepo struct{ s *memStore }

func (r *memAuditRepo) Append(_ context.Context, e *entity.AuditLogEntry) error {
	if r.s.failAudit {
		return errors.New("bitácora no disponible")
	}
	cp := *e
	r.s.audit = append(r.s.audit, &cp)
	return nil
}

func (r *memAuditRepo) ListByInvoiceID(_ context.Context, invoiceID string) ([]*entity.AuditLogEntry, error) {
	var out []*entity.AuditLogEntry
	for _, e := range r.s.audit {
		if e.InvoiceID == invoiceID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
