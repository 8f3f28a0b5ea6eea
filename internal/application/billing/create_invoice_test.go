package billing_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcastellanos/facturacion-api/internal/application/billing"
	"github.com/dcastellanos/facturacion-api/internal/application/dto"
	"github.com/dcastellanos/facturacion-api/internal/domain"
	"github.com/dcastellanos/facturacion-api/internal/domain/entity"
)

const testActor = "user-caja-1"

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// seedRange registra en el store un rango FACTURA vigente [start, end].
func seedRange(t *testing.T, s *memStore, id string, start, end int64, createdAt time.Time) *entity.AuthorizationRange {
	t.Helper()
	r := &entity.AuthorizationRange{
		ID:            id,
		IssuerRTN:     "08019995123456",
		IssuerName:    "Servicios Técnicos del Norte S. de R.L.",
		EmissionPoint: "001",
		DocumentType:  entity.DocumentTypeInvoice,
		CAI:           "254F8-612F1-8A0E0-6E8B3-0099B-95",
		Prefix:        "000-001-01-",
		RangeStart:    start,
		RangeEnd:      end,
		LastUsed:      start - 1,
		ExpiryDate:    time.Now().AddDate(0, 6, 0),
		Status:        entity.RangeStatusActive,
		CreatedAt:     createdAt,
	}
	require.NoError(t, s.rangeRepo().Create(context.Background(), r))
	return r
}

// validRequest factura de una línea gravada al 15%.
func validRequest() dto.CreateInvoiceRequest {
	return dto.CreateInvoiceRequest{
		Customer: dto.CustomerPayload{
			Name: "Ferretería El Martillo",
			RTN:  "05019998765432",
		},
		Lines: []dto.InvoiceLineRequest{
			{
				Description:     "Mantenimiento preventivo de compresor",
				Quantity:        dec("3"),
				UnitPrice:       dec("100.00"),
				TaxClass:        "GRAVADO_15",
				DiscountPercent: dec("10"),
			},
		},
	}
}

func TestCreateInvoice_EmisionCompleta(t *testing.T) {
	store := newMemStore()
	rng := seedRange(t, store, "rng-a", 1, 100, time.Now())
	uc := billing.NewCreateInvoiceUseCase(store)

	got, err := uc.CreateInvoice(context.Background(), testActor, validRequest())
	require.NoError(t, err)

	assert.Equal(t, int64(1), got.Correlative)
	assert.Equal(t, "000-001-01-00000001", got.Number)
	assert.Equal(t, rng.CAI, got.CAI, "el CAI queda congelado en la factura")
	assert.Equal(t, entity.InvoiceStatusValid, got.Status)
	assert.Equal(t, entity.PaymentTermsCash, got.PaymentTerms, "CONTADO por defecto")
	assert.Equal(t, testActor, got.IssuedBy)

	// Montos del vector 3 × 100.00 gravado 15 con 10% de descuento.
	assert.True(t, dec("270.00").Equal(got.Subtotal))
	assert.True(t, dec("40.50").Equal(got.TaxTotal))
	assert.True(t, dec("310.50").Equal(got.Total))

	require.Len(t, got.Lines, 1)
	assert.Equal(t, 1, got.Lines[0].LineNumber)
	assert.True(t, dec("0.15").Equal(got.Lines[0].TaxRate), "la tasa queda congelada en la línea")

	// Una sola entrada CREACION en la bitácora, con snapshot posterior.
	trail, err := store.auditRepo().ListByInvoiceID(context.Background(), got.ID)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, entity.AuditActionCreation, trail[0].Action)
	assert.Equal(t, testActor, trail[0].ActorID)
	assert.NotEmpty(t, trail[0].After)
}

// TestCreateInvoice_SecuencialSinHuecos N emisiones seguidas producen
// exactamente {start, start+1, ..., start+N-1}, sin repetidos ni saltos.
func TestCreateInvoice_SecuencialSinHuecos(t *testing.T) {
	store := newMemStore()
	seedRange(t, store, "rng-a", 10, 200, time.Now())
	uc := billing.NewCreateInvoiceUseCase(store)

	const n = 15
	for i := 0; i < n; i++ {
		got, err := uc.CreateInvoice(context.Background(), testActor, validRequest())
		require.NoError(t, err)
		assert.Equal(t, int64(10+i), got.Correlative)
	}
}

// TestCreateInvoice_Concurrencia K emisiones concurrentes contra un rango con
// capacidad suficiente producen K correlativos distintos y contiguos.
func TestCreateInvoice_Concurrencia(t *testing.T) {
	store := newMemStore()
	seedRange(t, store, "rng-a", 1, 100, time.Now())
	uc := billing.NewCreateInvoiceUseCase(store)

	const k = 25
	var wg sync.WaitGroup
	results := make(chan int64, k)
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := uc.CreateInvoice(context.Background(), testActor, validRequest())
			if assert.NoError(t, err) {
				results <- got.Correlative
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int64]bool)
	for c := range results {
		assert.False(t, seen[c], "correlativo %d repetido", c)
		seen[c] = true
	}
	require.Len(t, seen, k)
	for c := int64(1); c <= k; c++ {
		assert.True(t, seen[c], "falta el correlativo %d", c)
	}
}

// TestCreateInvoice_ConcurrenciaConAgotamiento con capacidad menor que K:
// exactamente capacity emisiones exitosas y el resto falla con ErrRangeExhausted,
// dejando el rango agotado al 100% de utilización.
func TestCreateInvoice_ConcurrenciaConAgotamiento(t *testing.T) {
	store := newMemStore()
	seedRange(t, store, "rng-a", 1, 5, time.Now())
	uc := billing.NewCreateInvoiceUseCase(store)

	const k = 12
	var wg sync.WaitGroup
	okCh := make(chan int64, k)
	errCh := make(chan error, k)
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := uc.CreateInvoice(context.Background(), testActor, validRequest())
			if err != nil {
				errCh <- err
				return
			}
			okCh <- got.Correlative
		}()
	}
	wg.Wait()
	close(okCh)
	close(errCh)

	var correlatives []int64
	for c := range okCh {
		correlatives = append(correlatives, c)
	}
	require.Len(t, correlatives, 5, "exactamente capacity emisiones exitosas")

	var failures int
	for err := range errCh {
		assert.ErrorIs(t, err, domain.ErrRangeExhausted)
		failures++
	}
	assert.Equal(t, k-5, failures)

	rng, err := store.rangeRepo().GetByID(context.Background(), "rng-a")
	require.NoError(t, err)
	assert.True(t, rng.IsExhausted())
	assert.InDelta(t, 100.0, rng.Utilization(), 0.001)
}

// TestCreateInvoice_EscenarioLimite rango 1..2: dos emisiones exitosas, la
// tercera falla con ErrRangeExhausted.
func TestCreateInvoice_EscenarioLimite(t *testing.T) {
	store := newMemStore()
	seedRange(t, store, "rng-a", 1, 2, time.Now())
	uc := billing.NewCreateInvoiceUseCase(store)
	ctx := context.Background()

	first, err := uc.CreateInvoice(ctx, testActor, validRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Correlative)

	second, err := uc.CreateInvoice(ctx, testActor, validRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Correlative)

	_, err = uc.CreateInvoice(ctx, testActor, validRequest())
	assert.ErrorIs(t, err, domain.ErrRangeExhausted)
}

// TestCreateInvoice_RangoVencidoExcluido un rango ACTIVA pero vencido no se
// selecciona: si es el único, la emisión falla con ErrNoAuthorization.
func TestCreateInvoice_RangoVencidoExcluido(t *testing.T) {
	store := newMemStore()
	rng := seedRange(t, store, "rng-a", 1, 100, time.Now())
	rng.ExpiryDate = time.Now().AddDate(0, 0, -10)
	require.NoError(t, store.rangeRepo().Create(context.Background(), rng)) // sobrescribe con la fecha vencida
	uc := billing.NewCreateInvoiceUseCase(store)

	_, err := uc.CreateInvoice(context.Background(), testActor, validRequest())
	assert.ErrorIs(t, err, domain.ErrNoAuthorization)
}

func TestCreateInvoice_SinRangosRegistrados(t *testing.T) {
	uc := billing.NewCreateInvoiceUseCase(newMemStore())
	_, err := uc.CreateInvoice(context.Background(), testActor, validRequest())
	assert.ErrorIs(t, err, domain.ErrNoAuthorization)
}

// TestCreateInvoice_SeleccionDeterminista con dos rangos utilizables siempre se
// elige el más antiguo; agotado el primero, la emisión continúa en el segundo.
func TestCreateInvoice_SeleccionDeterminista(t *testing.T) {
	store := newMemStore()
	base := time.Now()
	seedRange(t, store, "rng-viejo", 1, 1, base.Add(-time.Hour))
	seedRange(t, store, "rng-nuevo", 500, 600, base)
	uc := billing.NewCreateInvoiceUseCase(store)
	ctx := context.Background()

	first, err := uc.CreateInvoice(ctx, testActor, validRequest())
	require.NoError(t, err)
	assert.Equal(t, "rng-viejo", first.RangeID)
	assert.Equal(t, int64(1), first.Correlative)

	second, err := uc.CreateInvoice(ctx, testActor, validRequest())
	require.NoError(t, err)
	assert.Equal(t, "rng-nuevo", second.RangeID, "agotado el viejo, continúa el siguiente")
	assert.Equal(t, int64(500), second.Correlative)
}

// TestCreateInvoice_RollbackTotal si la bitácora falla, la transacción completa
// se revierte: sin factura, sin líneas y con el cursor del rango intacto, de
// modo que el intento fallido no quema el correlativo.
func TestCreateInvoice_RollbackTotal(t *testing.T) {
	store := newMemStore()
	seedRange(t, store, "rng-a", 1, 100, time.Now())
	store.failAudit = true
	uc := billing.NewCreateInvoiceUseCase(store)

	_, err := uc.CreateInvoice(context.Background(), testActor, validRequest())
	require.Error(t, err)

	rng, err2 := store.rangeRepo().GetByID(context.Background(), "rng-a")
	require.NoError(t, err2)
	assert.Equal(t, int64(0), rng.LastUsed, "el cursor se revierte con el rollback")
	assert.Empty(t, store.invoices)
	assert.Empty(t, store.audit)

	// Resuelto el fallo, la emisión retoma en el primer correlativo.
	store.failAudit = false
	got, err := uc.CreateInvoice(context.Background(), testActor, validRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Correlative)
}

func TestCreateInvoice_Validaciones(t *testing.T) {
	store := newMemStore()
	seedRange(t, store, "rng-a", 1, 100, time.Now())
	uc := billing.NewCreateInvoiceUseCase(store)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*dto.CreateInvoiceRequest)
	}{
		{"sin líneas", func(r *dto.CreateInvoiceRequest) { r.Lines = nil }},
		{"sin nombre de cliente", func(r *dto.CreateInvoiceRequest) { r.Customer.Name = "  " }},
		{"sin RTN de cliente", func(r *dto.CreateInvoiceRequest) { r.Customer.RTN = "" }},
		{"tipo de documento desconocido", func(r *dto.CreateInvoiceRequest) { r.DocumentType = "RECIBO" }},
		{"condición de pago desconocida", func(r *dto.CreateInvoiceRequest) { r.PaymentTerms = "APARTADO" }},
		{"exenta sin constancia", func(r *dto.CreateInvoiceRequest) { r.Exempt = true }},
		{"cantidad cero", func(r *dto.CreateInvoiceRequest) { r.Lines[0].Quantity = dec("0") }},
		{"descuento fuera de rango", func(r *dto.CreateInvoiceRequest) { r.Lines[0].DiscountPercent = dec("150") }},
		{"clase de impuesto inválida", func(r *dto.CreateInvoiceRequest) { r.Lines[0].TaxClass = "IVA_19" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			_, err := uc.CreateInvoice(ctx, testActor, req)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}

	// Ninguna validación fallida debe haber quemado correlativos.
	rng, err := store.rangeRepo().GetByID(ctx, "rng-a")
	require.NoError(t, err)
	assert.Equal(t, int64(0), rng.LastUsed)
}

// TestCreateInvoice_TotalesMultibanda los totales por banda cuadran para una
// factura con líneas exentas, al 15 y al 18.
func TestCreateInvoice_TotalesMultibanda(t *testing.T) {
	store := newMemStore()
	seedRange(t, store, "rng-a", 1, 100, time.Now())
	uc := billing.NewCreateInvoiceUseCase(store)

	req := validRequest()
	req.Lines = []dto.InvoiceLineRequest{
		{Description: "Repuesto gravado", Quantity: dec("3"), UnitPrice: dec("100.00"), TaxClass: "GRAVADO_15", DiscountPercent: dec("10")},
		{Description: "Licor industrial", Quantity: dec("2"), UnitPrice: dec("85.50"), TaxClass: "GRAVADO_18", DiscountPercent: dec("0")},
		{Description: "Medicamento exento", Quantity: dec("1"), UnitPrice: dec("50.00"), TaxClass: "EXENTO", DiscountPercent: dec("0")},
	}

	got, err := uc.CreateInvoice(context.Background(), testActor, req)
	require.NoError(t, err)

	assert.True(t, dec("270.00").Equal(got.SubtotalTaxed15))
	assert.True(t, dec("171.00").Equal(got.SubtotalTaxed18))
	assert.True(t, dec("50.00").Equal(got.SubtotalExempt))
	assert.True(t, dec("491.00").Equal(got.Subtotal))
	assert.True(t, dec("40.50").Equal(got.Tax15))
	assert.True(t, dec("30.78").Equal(got.Tax18))
	assert.True(t, dec("71.28").Equal(got.TaxTotal))
	assert.True(t, dec("562.28").Equal(got.Total))

	require.Len(t, got.Lines, 3)
	for i, l := range got.Lines {
		assert.Equal(t, i+1, l.LineNumber, fmt.Sprintf("línea %d contigua y ordenada", i+1))
	}
}
