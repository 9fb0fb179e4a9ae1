package commission

import (
	"time"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultCommissionPercentage is the flat platform rate applied when no
// commission rule matches an order item.
var DefaultCommissionPercentage = decimal.NewFromFloat(15.00)

// Merchant represents a marketplace merchant (perfume seller)
// Only the fields the accounting core needs are modeled here; storefront
// profile data lives outside this module.
type Merchant struct {
	shared.TenantAggregateRoot
	Code                 string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_merchant_tenant_code,priority:2"`
	Name                 string          `gorm:"type:varchar(200);not null"`
	CommissionPercentage decimal.Decimal `gorm:"type:decimal(5,2);not null"` // Fallback rate when no rule matches
	TrailingVolume       decimal.Decimal `gorm:"type:decimal(18,2);not null"` // Trailing 30-day sales volume, drives tier rules
	IsActive             bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Merchant) TableName() string {
	return "merchants"
}

// NewMerchant creates a new merchant with the platform default commission rate
func NewMerchant(tenantID uuid.UUID, code, name string) (*Merchant, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_MERCHANT_CODE", "Merchant code cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_MERCHANT_NAME", "Merchant name cannot be empty")
	}

	return &Merchant{
		TenantAggregateRoot:  shared.NewTenantAggregateRoot(tenantID),
		Code:                 code,
		Name:                 name,
		CommissionPercentage: DefaultCommissionPercentage,
		TrailingVolume:       decimal.Zero,
		IsActive:             true,
	}, nil
}

// SetCommissionPercentage overrides the merchant's fallback commission rate
func (m *Merchant) SetCommissionPercentage(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewDomainError("INVALID_RATE", "Commission percentage must be between 0 and 100")
	}
	m.CommissionPercentage = rate
	m.UpdatedAt = time.Now()
	return nil
}

// RecordVolume updates the trailing sales volume used for tier resolution
func (m *Merchant) RecordVolume(volume decimal.Decimal) error {
	if volume.IsNegative() {
		return shared.NewDomainError("INVALID_VOLUME", "Trailing volume cannot be negative")
	}
	m.TrailingVolume = volume
	m.UpdatedAt = time.Now()
	return nil
}

// Deactivate marks the merchant inactive. Inactive merchants keep their
// historical settlements but receive no new ones.
func (m *Merchant) Deactivate() {
	m.IsActive = false
	m.UpdatedAt = time.Now()
}
