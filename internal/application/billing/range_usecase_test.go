package billing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcastellanos/facturacion-api/internal/application/billing"
	"github.com/dcastellanos/facturacion-api/internal/application/dto"
	"github.com/dcastellanos/facturacion-api/internal/domain"
	"github.com/dcastellanos/facturacion-api/internal/domain/entity"
)

func validRangeRequest() dto.RegisterRangeRequest {
	return dto.RegisterRangeRequest{
		IssuerRTN:     "08019995123456",
		IssuerName:    "Servicios Técnicos del Norte S. de R.L.",
		EmissionPoint: "001",
		DocumentType:  entity.DocumentTypeInvoice,
		CAI:           "254F8-612F1-8A0E0-6E8B3-0099B-95",
		Prefix:        "000-001-01-",
		RangeStart:    1,
		RangeEnd:      5000,
		ExpiryDate:    time.Now().AddDate(0, 8, 0).Format("2006-01-02"),
		ProofRef:      "constancia-2026-0113",
	}
}

func TestRegisterRange(t *testing.T) {
	ctx := context.Background()

	t.Run("registro válido nace ACTIVA con el cursor antes del inicio", func(t *testing.T) {
		store := newMemStore()
		uc := billing.NewRangeUseCase(store.rangeRepo())

		got, err := uc.RegisterRange(ctx, validRangeRequest())
		require.NoError(t, err)
		assert.Equal(t, entity.RangeStatusActive, got.Status)
		assert.Equal(t, int64(0), got.LastUsed)
		assert.False(t, got.Exhausted)
		assert.False(t, got.Expired)
		assert.InDelta(t, 0.0, got.Utilization, 0.001)
	})

	t.Run("validaciones", func(t *testing.T) {
		store := newMemStore()
		uc := billing.NewRangeUseCase(store.rangeRepo())

		tests := []struct {
			name   string
			mutate func(*dto.RegisterRangeRequest)
		}{
			{"sin RTN", func(r *dto.RegisterRangeRequest) { r.IssuerRTN = "" }},
			{"sin razón social", func(r *dto.RegisterRangeRequest) { r.IssuerName = " " }},
			{"sin CAI", func(r *dto.RegisterRangeRequest) { r.CAI = "" }},
			{"sin prefijo", func(r *dto.RegisterRangeRequest) { r.Prefix = "" }},
			{"tipo de documento desconocido", func(r *dto.RegisterRangeRequest) { r.DocumentType = "TICKET" }},
			{"inicio mayor que el final", func(r *dto.RegisterRangeRequest) { r.RangeStart = 10; r.RangeEnd = 9 }},
			{"inicio no positivo", func(r *dto.RegisterRangeRequest) { r.RangeStart = 0 }},
			{"fecha límite inválida", func(r *dto.RegisterRangeRequest) { r.ExpiryDate = "31/12/2026" }},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				req := validRangeRequest()
				tt.mutate(&req)
				_, err := uc.RegisterRange(ctx, req)
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
			})
		}
	})
}

func TestDeactivateReactivateRange(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	uc := billing.NewRangeUseCase(store.rangeRepo())

	registered, err := uc.RegisterRange(ctx, validRangeRequest())
	require.NoError(t, err)

	deactivated, err := uc.DeactivateRange(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RangeStatusInactive, deactivated.Status)

	reactivated, err := uc.ReactivateRange(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RangeStatusActive, reactivated.Status)

	_, err = uc.DeactivateRange(ctx, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// TestReactivateRange_RechazaAgotado la guarda del agotamiento aplica aunque el
// rango esté INACTIVA y su fecha siga vigente.
func TestReactivateRange_RechazaAgotado(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	rng := seedRange(t, store, "rng-a", 1, 1, time.Now())
	rng.LastUsed = 1
	rng.Status = entity.RangeStatusInactive
	require.NoError(t, store.rangeRepo().Create(ctx, rng)) // sobrescribe agotado e inactivo

	uc := billing.NewRangeUseCase(store.rangeRepo())
	_, err := uc.ReactivateRange(ctx, "rng-a")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestListRanges_Utilizacion(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	rng := seedRange(t, store, "rng-a", 1, 4, time.Now())
	rng.LastUsed = 3
	require.NoError(t, store.rangeRepo().Create(ctx, rng))

	uc := billing.NewRangeUseCase(store.rangeRepo())
	ranges, err := uc.ListRanges(ctx)
	require.NoError(t, err)
	require.Len(t, ranges, 1)
	assert.InDelta(t, 75.0, ranges[0].Utilization, 0.001)
	assert.False(t, ranges[0].Exhausted)
}
