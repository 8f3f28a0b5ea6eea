package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dcastellanos/facturacion-api/internal/application/dto"
	"github.com/dcastellanos/facturacion-api/internal/domain"
	"github.com/dcastellanos/facturacion-api/internal/domain/entity"
	"github.com/dcastellanos/facturacion-api/internal/domain/repository"
)

// RangeUseCase administración de rangos CAI: registro, activación y listado.
// Los rangos nunca se eliminan (retención regulatoria).
type RangeUseCase struct {
	rangeRepo repository.AuthorizationRangeRepository
}

// NewRangeUseCase construye el caso de uso.
func NewRangeUseCase(rangeRepo repository.AuthorizationRangeRepository) *RangeUseCase {
	return &RangeUseCase{rangeRepo: rangeRepo}
}

// RegisterRange registra una autorización de impresión recibida del SAR.
// El cursor nace en range_start - 1: el primer correlativo emitido será range_start.
// Varios rangos ACTIVA del mismo tipo pueden coexistir; la selección por emisión
// es determinista (el más antiguo utilizable).
func (uc *RangeUseCase) RegisterRange(ctx context.Context, in dto.RegisterRangeRequest) (*dto.RangeResponse, error) {
	if strings.TrimSpace(in.IssuerRTN) == "" {
		return nil, fmt.Errorf("%w: el RTN del emisor es obligatorio", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(in.IssuerName) == "" {
		return nil, fmt.Errorf("%w: la razón social del emisor es obligatoria", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(in.CAI) == "" {
		return nil, fmt.Errorf("%w: el código CAI es obligatorio", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(in.Prefix) == "" {
		return nil, fmt.Errorf("%w: el prefijo de numeración es obligatorio", domain.ErrInvalidInput)
	}
	docType, err := entity.ParseDocumentType(in.DocumentType)
	if err != nil {
		return nil, err
	}
	if in.RangeStart <= 0 {
		return nil, fmt.Errorf("%w: el inicio del rango debe ser positivo", domain.ErrInvalidInput)
	}
	if in.RangeStart > in.RangeEnd {
		return nil, fmt.Errorf("%w: el inicio del rango no puede superar al final", domain.ErrInvalidInput)
	}
	expiry, err := time.Parse(dateLayout, in.ExpiryDate)
	if err != nil {
		return nil, fmt.Errorf("%w: fecha límite de emisión inválida %q", domain.ErrInvalidInput, in.ExpiryDate)
	}

	now := time.Now()
	r := &entity.AuthorizationRange{
		ID:            uuid.New().String(),
		IssuerRTN:     strings.TrimSpace(in.IssuerRTN),
		IssuerName:    strings.TrimSpace(in.IssuerName),
		EmissionPoint: strings.TrimSpace(in.EmissionPoint),
		DocumentType:  docType,
		CAI:           strings.TrimSpace(in.CAI),
		Prefix:        strings.TrimSpace(in.Prefix),
		RangeStart:    in.RangeStart,
		RangeEnd:      in.RangeEnd,
		LastUsed:      in.RangeStart - 1,
		ExpiryDate:    expiry,
		Status:        entity.RangeStatusActive,
		ProofRef:      strings.TrimSpace(in.ProofRef),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := uc.rangeRepo.Create(ctx, r); err != nil {
		return nil, err
	}
	return toRangeResponse(r, now), nil
}

// DeactivateRange pasa el rango a INACTIVA. Siempre permitido.
func (uc *RangeUseCase) DeactivateRange(ctx context.Context, id string) (*dto.RangeResponse, error) {
	r, err := uc.rangeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, domain.ErrNotFound
	}
	r.Deactivate()
	if err := uc.rangeRepo.UpdateStatus(ctx, r); err != nil {
		return nil, err
	}
	return toRangeResponse(r, time.Now()), nil
}

// ReactivateRange pasa el rango de INACTIVA a ACTIVA. Falla con ErrInvalidState
// si está vencido o agotado: esas condiciones no son corregibles.
func (uc *RangeUseCase) ReactivateRange(ctx context.Context, id string) (*dto.RangeResponse, error) {
	r, err := uc.rangeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, domain.ErrNotFound
	}
	now := time.Now()
	if err := r.Reactivate(now); err != nil {
		return nil, err
	}
	if err := uc.rangeRepo.UpdateStatus(ctx, r); err != nil {
		return nil, err
	}
	return toRangeResponse(r, now), nil
}

// ListRanges lista todos los rangos con utilización y condiciones derivadas.
func (uc *RangeUseCase) ListRanges(ctx context.Context) ([]*dto.RangeResponse, error) {
	ranges, err := uc.rangeRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	out := make([]*dto.RangeResponse, 0, len(ranges))
	for _, r := range ranges {
		out = append(out, toRangeResponse(r, now))
	}
	return out, nil
}
