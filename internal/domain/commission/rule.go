package commission

import (
	"sort"
	"time"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RuleLevel represents the scope a commission rule applies to
type RuleLevel string

const (
	RuleLevelGlobal   RuleLevel = "GLOBAL"   // Applies to every order item
	RuleLevelMerchant RuleLevel = "MERCHANT" // Applies to one merchant
	RuleLevelCategory RuleLevel = "CATEGORY" // Applies to one product category
	RuleLevelProduct  RuleLevel = "PRODUCT"  // Applies to one product
	RuleLevelTier     RuleLevel = "TIER"     // Applies by merchant volume tier
)

// IsValid checks if the level is a valid RuleLevel
func (l RuleLevel) IsValid() bool {
	switch l {
	case RuleLevelGlobal, RuleLevelMerchant, RuleLevelCategory, RuleLevelProduct, RuleLevelTier:
		return true
	}
	return false
}

// String returns the string representation of RuleLevel
func (l RuleLevel) String() string {
	return string(l)
}

// RuleType represents how a commission rule computes its amount
type RuleType string

const (
	RuleTypePercentage RuleType = "PERCENTAGE" // rate% of the line subtotal
	RuleTypeFixed      RuleType = "FIXED"      // flat amount per order line
	RuleTypeTiered     RuleType = "TIERED"     // percentage chosen by merchant volume tier
	RuleTypeHybrid     RuleType = "HYBRID"     // rate% of subtotal plus a flat amount
)

// IsValid checks if the type is a valid RuleType
func (t RuleType) IsValid() bool {
	switch t {
	case RuleTypePercentage, RuleTypeFixed, RuleTypeTiered, RuleTypeHybrid:
		return true
	}
	return false
}

// String returns the string representation of RuleType
func (t RuleType) String() string {
	return string(t)
}

// TierRule is one volume tier of a tiered commission rule.
// The tier selected at resolution time is the one with the greatest
// MinVolume not exceeding the merchant's trailing volume.
type TierRule struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key"`
	CommissionRuleID uuid.UUID       `gorm:"type:uuid;not null;index"`
	MinVolume        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Rate             decimal.Decimal `gorm:"type:decimal(5,2);not null"`
}

// TableName returns the table name for GORM
func (TierRule) TableName() string {
	return "commission_tier_rules"
}

// CommissionRule represents a commission rule aggregate root.
// Rules are created and edited by platform admins, never deleted, only
// deactivated; resolution treats them as read-only.
type CommissionRule struct {
	shared.TenantAggregateRoot
	Name           string           `gorm:"type:varchar(200);not null"`
	Level          RuleLevel        `gorm:"type:varchar(20);not null;index"`
	Type           RuleType         `gorm:"type:varchar(20);not null"`
	MerchantID     *uuid.UUID       `gorm:"type:uuid;index"`
	CategoryID     *uuid.UUID       `gorm:"type:uuid;index"`
	ProductID      *uuid.UUID       `gorm:"type:uuid;index"`
	PercentageRate decimal.Decimal  `gorm:"type:decimal(5,2);not null"`
	FixedAmount    decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	Tiers          []TierRule       `gorm:"foreignKey:CommissionRuleID;references:ID"`
	Priority       int              `gorm:"not null;index"` // Lower number wins
	IsActive       bool             `gorm:"not null;default:true"`
	ValidFrom      *time.Time
	ValidUntil     *time.Time
	DeactivatedAt  *time.Time
}

// TableName returns the table name for GORM
func (CommissionRule) TableName() string {
	return "commission_rules"
}

// NewCommissionRule creates a new commission rule with write-time validation
// of the level/reference consistency invariant: exactly the reference the
// level calls for is set, all others are nil.
func NewCommissionRule(
	tenantID uuid.UUID,
	name string,
	level RuleLevel,
	ruleType RuleType,
	merchantID, categoryID, productID *uuid.UUID,
	percentageRate decimal.Decimal,
	fixedAmount decimal.Decimal,
	priority int,
) (*CommissionRule, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_RULE_NAME", "Rule name cannot be empty")
	}
	if !level.IsValid() {
		return nil, shared.NewDomainError("INVALID_RULE_LEVEL", "Invalid rule level")
	}
	if !ruleType.IsValid() {
		return nil, shared.NewDomainError("INVALID_RULE_TYPE", "Invalid rule type")
	}
	if percentageRate.IsNegative() || percentageRate.GreaterThan(decimal.NewFromInt(100)) {
		return nil, shared.NewDomainError("INVALID_RATE", "Percentage rate must be between 0 and 100")
	}
	if fixedAmount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Fixed amount cannot be negative")
	}
	if err := validateLevelReferences(level, merchantID, categoryID, productID); err != nil {
		return nil, err
	}

	r := &CommissionRule{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Level:               level,
		Type:                ruleType,
		MerchantID:          merchantID,
		CategoryID:          categoryID,
		ProductID:           productID,
		PercentageRate:      percentageRate,
		FixedAmount:         fixedAmount,
		Tiers:               make([]TierRule, 0),
		Priority:            priority,
		IsActive:            true,
	}

	r.AddDomainEvent(NewCommissionRuleCreatedEvent(r))

	return r, nil
}

// validateLevelReferences enforces the level/reference consistency invariant
func validateLevelReferences(level RuleLevel, merchantID, categoryID, productID *uuid.UUID) error {
	switch level {
	case RuleLevelMerchant, RuleLevelTier:
		if merchantID == nil || *merchantID == uuid.Nil {
			return shared.NewDomainError("INVALID_RULE_REFERENCE", "Merchant-level rules require a merchant reference")
		}
		if categoryID != nil || productID != nil {
			return shared.NewDomainError("INVALID_RULE_REFERENCE", "Merchant-level rules must not reference a category or product")
		}
	case RuleLevelCategory:
		if categoryID == nil || *categoryID == uuid.Nil {
			return shared.NewDomainError("INVALID_RULE_REFERENCE", "Category-level rules require a category reference")
		}
		if merchantID != nil || productID != nil {
			return shared.NewDomainError("INVALID_RULE_REFERENCE", "Category-level rules must not reference a merchant or product")
		}
	case RuleLevelProduct:
		if productID == nil || *productID == uuid.Nil {
			return shared.NewDomainError("INVALID_RULE_REFERENCE", "Product-level rules require a product reference")
		}
		if merchantID != nil || categoryID != nil {
			return shared.NewDomainError("INVALID_RULE_REFERENCE", "Product-level rules must not reference a merchant or category")
		}
	case RuleLevelGlobal:
		if merchantID != nil || categoryID != nil || productID != nil {
			return shared.NewDomainError("INVALID_RULE_REFERENCE", "Global rules must not carry entity references")
		}
	}
	return nil
}

// SetValidity sets the validity window. Open-ended bounds are unbounded.
func (r *CommissionRule) SetValidity(from, until *time.Time) error {
	if from != nil && until != nil && until.Before(*from) {
		return shared.NewDomainError("INVALID_VALIDITY", "Valid-until cannot precede valid-from")
	}
	r.ValidFrom = from
	r.ValidUntil = until
	r.UpdatedAt = time.Now()
	return nil
}

// AddTier appends a volume tier to a tiered rule
func (r *CommissionRule) AddTier(minVolume, rate decimal.Decimal) error {
	if r.Type != RuleTypeTiered {
		return shared.NewDomainError("INVALID_RULE_TYPE", "Only tiered rules accept volume tiers")
	}
	if minVolume.IsNegative() {
		return shared.NewDomainError("INVALID_TIER", "Tier minimum volume cannot be negative")
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewDomainError("INVALID_TIER", "Tier rate must be between 0 and 100")
	}
	for _, t := range r.Tiers {
		if t.MinVolume.Equal(minVolume) {
			return shared.NewDomainError("DUPLICATE_TIER", "A tier with this minimum volume already exists")
		}
	}

	r.Tiers = append(r.Tiers, TierRule{
		ID:               uuid.New(),
		CommissionRuleID: r.ID,
		MinVolume:        minVolume,
		Rate:             rate,
	})
	sort.Slice(r.Tiers, func(i, j int) bool {
		return r.Tiers[i].MinVolume.LessThan(r.Tiers[j].MinVolume)
	})
	r.UpdatedAt = time.Now()
	return nil
}

// TierRateFor returns the rate of the highest tier whose MinVolume does not
// exceed the given volume. The second return is false when no tier applies.
// Selection is by threshold, not slice position, so rows loaded in any order
// resolve identically.
func (r *CommissionRule) TierRateFor(volume decimal.Decimal) (decimal.Decimal, bool) {
	var best *TierRule
	for i := range r.Tiers {
		t := &r.Tiers[i]
		if t.MinVolume.GreaterThan(volume) {
			continue
		}
		if best == nil || t.MinVolume.GreaterThan(best.MinVolume) {
			best = t
		}
	}
	if best == nil {
		return decimal.Zero, false
	}
	return best.Rate, true
}

// Deactivate takes the rule out of resolution. Rules are never deleted so
// historical settlement audit rows keep a valid source reference.
func (r *CommissionRule) Deactivate() error {
	if !r.IsActive {
		return nil // Already inactive, idempotent
	}
	now := time.Now()
	r.IsActive = false
	r.DeactivatedAt = &now
	r.UpdatedAt = now

	r.AddDomainEvent(NewCommissionRuleDeactivatedEvent(r))

	return nil
}

// IsValidOn returns true if the rule's validity window covers the given date
func (r *CommissionRule) IsValidOn(date time.Time) bool {
	if r.ValidFrom != nil && date.Before(*r.ValidFrom) {
		return false
	}
	if r.ValidUntil != nil && date.After(*r.ValidUntil) {
		return false
	}
	return true
}

// referencesConsistent reports whether the stored references match the level.
// Rows that fail this check are skipped at resolution time; the constructor
// rejects them at write time.
func (r *CommissionRule) referencesConsistent() bool {
	return validateLevelReferences(r.Level, r.MerchantID, r.CategoryID, r.ProductID) == nil
}
