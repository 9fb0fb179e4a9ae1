package commission

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/commission"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared"
	"github.com/ecommerized/adperfumes-sub001/internal/infrastructure/telemetry"
)

// MerchantService manages the merchant registry the commission engine
// resolves against
type MerchantService struct {
	merchantRepo      commission.MerchantRepository
	defaultCommission *decimal.Decimal
}

// MerchantServiceOption configures MerchantService
type MerchantServiceOption func(*MerchantService)

// WithDefaultCommission overrides the platform fallback rate applied to
// newly registered merchants.
func WithDefaultCommission(pct decimal.Decimal) MerchantServiceOption {
	return func(s *MerchantService) {
		if pct.IsPositive() {
			s.defaultCommission = &pct
		}
	}
}

// NewMerchantService creates a new MerchantService
func NewMerchantService(merchantRepo commission.MerchantRepository, opts ...MerchantServiceOption) *MerchantService {
	s := &MerchantService{merchantRepo: merchantRepo}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MerchantResponse represents a merchant in API responses
type MerchantResponse struct {
	ID                   uuid.UUID       `json:"id"`
	Code                 string          `json:"code"`
	Name                 string          `json:"name"`
	CommissionPercentage decimal.Decimal `json:"commission_percentage"`
	TrailingVolume       decimal.Decimal `json:"trailing_volume"`
	IsActive             bool            `json:"is_active"`
	CreatedAt            time.Time       `json:"created_at"`
}

func toMerchantResponse(m *commission.Merchant) *MerchantResponse {
	return &MerchantResponse{
		ID:                   m.ID,
		Code:                 m.Code,
		Name:                 m.Name,
		CommissionPercentage: m.CommissionPercentage,
		TrailingVolume:       m.TrailingVolume,
		IsActive:             m.IsActive,
		CreatedAt:            m.CreatedAt,
	}
}

// CreateMerchant registers a merchant with the platform default commission
// rate. Codes are short and unique per tenant; they appear in debit note
// numbers.
func (s *MerchantService) CreateMerchant(ctx context.Context, tenantID uuid.UUID, code, name string) (*MerchantResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "merchant", "create")
	defer span.End()

	existing, err := s.merchantRepo.FindByCode(ctx, tenantID, code)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to check merchant code: %w", err)
	}
	if existing != nil {
		err := shared.NewDomainError("DUPLICATE_MERCHANT_CODE", "A merchant with this code already exists")
		telemetry.RecordError(span, err)
		return nil, err
	}

	merchant, err := commission.NewMerchant(tenantID, code, name)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if s.defaultCommission != nil {
		if err := merchant.SetCommissionPercentage(*s.defaultCommission); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}
	if err := s.merchantRepo.Save(ctx, merchant); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save merchant: %w", err)
	}
	return toMerchantResponse(merchant), nil
}

// SetCommissionPercentage overrides a merchant's fallback commission rate.
// Existing orders keep their frozen rates; only future resolutions see the
// change.
func (s *MerchantService) SetCommissionPercentage(ctx context.Context, tenantID, merchantID uuid.UUID, rate decimal.Decimal) (*MerchantResponse, error) {
	merchant, err := s.loadMerchant(ctx, tenantID, merchantID)
	if err != nil {
		return nil, err
	}
	if err := merchant.SetCommissionPercentage(rate); err != nil {
		return nil, err
	}
	if err := s.merchantRepo.Save(ctx, merchant); err != nil {
		return nil, fmt.Errorf("failed to save merchant: %w", err)
	}
	return toMerchantResponse(merchant), nil
}

// RecordVolume replaces a merchant's trailing 30-day sales volume, the input
// to tier rule resolution
func (s *MerchantService) RecordVolume(ctx context.Context, tenantID, merchantID uuid.UUID, volume decimal.Decimal) (*MerchantResponse, error) {
	merchant, err := s.loadMerchant(ctx, tenantID, merchantID)
	if err != nil {
		return nil, err
	}
	if err := merchant.RecordVolume(volume); err != nil {
		return nil, err
	}
	if err := s.merchantRepo.Save(ctx, merchant); err != nil {
		return nil, fmt.Errorf("failed to save merchant: %w", err)
	}
	return toMerchantResponse(merchant), nil
}

// DeactivateMerchant removes a merchant from commission resolution. Already
// ingested orders are unaffected.
func (s *MerchantService) DeactivateMerchant(ctx context.Context, tenantID, merchantID uuid.UUID) (*MerchantResponse, error) {
	merchant, err := s.loadMerchant(ctx, tenantID, merchantID)
	if err != nil {
		return nil, err
	}
	merchant.Deactivate()
	if err := s.merchantRepo.Save(ctx, merchant); err != nil {
		return nil, fmt.Errorf("failed to save merchant: %w", err)
	}
	return toMerchantResponse(merchant), nil
}

// GetMerchant returns one merchant by ID
func (s *MerchantService) GetMerchant(ctx context.Context, tenantID, id uuid.UUID) (*MerchantResponse, error) {
	merchant, err := s.loadMerchant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toMerchantResponse(merchant), nil
}

// ListActiveMerchants lists the tenant's active merchants
func (s *MerchantService) ListActiveMerchants(ctx context.Context, tenantID uuid.UUID) ([]*MerchantResponse, error) {
	merchants, err := s.merchantRepo.FindActive(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list merchants: %w", err)
	}
	out := make([]*MerchantResponse, 0, len(merchants))
	for i := range merchants {
		out = append(out, toMerchantResponse(&merchants[i]))
	}
	return out, nil
}

func (s *MerchantService) loadMerchant(ctx context.Context, tenantID, id uuid.UUID) (*commission.Merchant, error) {
	merchant, err := s.merchantRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get merchant: %w", err)
	}
	if merchant == nil {
		return nil, shared.NewDomainError("MERCHANT_NOT_FOUND", "Merchant not found")
	}
	return merchant, nil
}
