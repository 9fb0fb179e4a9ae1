package commission

import (
	"context"
	"time"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared"
	"github.com/google/uuid"
)

// CommissionRuleFilter defines filtering options for rule queries
type CommissionRuleFilter struct {
	shared.Filter
	Level      *RuleLevel
	Type       *RuleType
	MerchantID *uuid.UUID
	IsActive   *bool
	ValidOn    *time.Time
}

// CommissionRuleRepository defines the interface for commission rule persistence
type CommissionRuleRepository interface {
	// FindByID finds a commission rule by ID for a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*CommissionRule, error)

	// FindAll finds all commission rules for a tenant with filtering
	FindAll(ctx context.Context, tenantID uuid.UUID, filter CommissionRuleFilter) ([]CommissionRule, error)

	// FindCandidates finds the active rules that could apply to an order line:
	// global rules plus rules referencing the merchant, product, or categories.
	// Validity-window filtering happens at resolution time.
	FindCandidates(ctx context.Context, tenantID, merchantID, productID uuid.UUID, categoryIDs []uuid.UUID) ([]CommissionRule, error)

	// Save creates or updates a commission rule
	Save(ctx context.Context, rule *CommissionRule) error

	// Count counts commission rules for a tenant
	Count(ctx context.Context, tenantID uuid.UUID, filter CommissionRuleFilter) (int64, error)
}

// MerchantRepository defines the interface for merchant persistence
type MerchantRepository interface {
	// FindByID finds a merchant by ID for a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Merchant, error)

	// FindByCode finds a merchant by its short code
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*Merchant, error)

	// FindActive finds all active merchants for a tenant
	FindActive(ctx context.Context, tenantID uuid.UUID) ([]Merchant, error)

	// Save creates or updates a merchant
	Save(ctx context.Context, merchant *Merchant) error
}
