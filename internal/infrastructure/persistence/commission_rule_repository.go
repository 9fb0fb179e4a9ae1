package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/commission"
)

// GormCommissionRuleRepository implements CommissionRuleRepository using GORM
type GormCommissionRuleRepository struct {
	db *gorm.DB
}

// NewGormCommissionRuleRepository creates a new GormCommissionRuleRepository
func NewGormCommissionRuleRepository(db *gorm.DB) *GormCommissionRuleRepository {
	return &GormCommissionRuleRepository{db: db}
}

// tiersAscending loads the volume tiers lowest threshold first. Tier
// selection must not depend on insertion order.
func tiersAscending(db *gorm.DB) *gorm.DB {
	return db.Order("min_volume ASC")
}

// FindByID finds a commission rule by ID within a tenant, tiers preloaded
func (r *GormCommissionRuleRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*commission.CommissionRule, error) {
	var rule commission.CommissionRule
	if err := r.db.WithContext(ctx).
		Preload("Tiers", tiersAscending).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&rule).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

// FindAll finds all commission rules for a tenant with filtering
func (r *GormCommissionRuleRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter commission.CommissionRuleFilter) ([]commission.CommissionRule, error) {
	var rules []commission.CommissionRule
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&commission.CommissionRule{}).
			Preload("Tiers", tiersAscending).
			Where("tenant_id = ?", tenantID),
		filter,
	)

	if err := query.Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// FindCandidates finds the active rules that could apply to an order line.
// Validity-window checks stay in the resolver so the query plan remains a
// simple index scan over the reference columns.
func (r *GormCommissionRuleRepository) FindCandidates(ctx context.Context, tenantID, merchantID, productID uuid.UUID, categoryIDs []uuid.UUID) ([]commission.CommissionRule, error) {
	query := r.db.WithContext(ctx).
		Preload("Tiers", tiersAscending).
		Where("tenant_id = ? AND is_active = ?", tenantID, true)

	scope := r.db.
		Where("level = ?", commission.RuleLevelGlobal).
		Or("level IN ? AND merchant_id = ?", []commission.RuleLevel{commission.RuleLevelMerchant, commission.RuleLevelTier}, merchantID).
		Or("level = ? AND product_id = ?", commission.RuleLevelProduct, productID)
	if len(categoryIDs) > 0 {
		scope = scope.Or("level = ? AND category_id IN ?", commission.RuleLevelCategory, categoryIDs)
	}

	var rules []commission.CommissionRule
	if err := query.Where(scope).
		Order("priority ASC, created_at ASC").
		Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// Save creates or updates a commission rule and replaces its tier set
func (r *GormCommissionRuleRepository) Save(ctx context.Context, rule *commission.CommissionRule) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tiers").Save(rule).Error; err != nil {
			return err
		}

		currentTierIDs := make([]uuid.UUID, len(rule.Tiers))
		for i, t := range rule.Tiers {
			currentTierIDs[i] = t.ID
		}

		if len(currentTierIDs) > 0 {
			if err := tx.Where("commission_rule_id = ? AND id NOT IN ?", rule.ID, currentTierIDs).
				Delete(&commission.TierRule{}).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Where("commission_rule_id = ?", rule.ID).
				Delete(&commission.TierRule{}).Error; err != nil {
				return err
			}
		}

		for i := range rule.Tiers {
			rule.Tiers[i].CommissionRuleID = rule.ID
			if err := tx.Save(&rule.Tiers[i]).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// Count counts commission rules for a tenant
func (r *GormCommissionRuleRepository) Count(ctx context.Context, tenantID uuid.UUID, filter commission.CommissionRuleFilter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&commission.CommissionRule{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormCommissionRuleRepository) applyFilter(query *gorm.DB, filter commission.CommissionRuleFilter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.Limit())
	}

	if filter.OrderBy != "" {
		field := ValidateSortField(filter.OrderBy, CommissionRuleSortFields, "priority")
		query = query.Order(field + " " + ValidateSortOrder(filter.OrderDir))
	} else {
		query = query.Order("priority ASC, created_at DESC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormCommissionRuleRepository) applyFilterWithoutPagination(query *gorm.DB, filter commission.CommissionRuleFilter) *gorm.DB {
	if filter.Level != nil {
		query = query.Where("level = ?", *filter.Level)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.MerchantID != nil {
		query = query.Where("merchant_id = ?", *filter.MerchantID)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.ValidOn != nil {
		query = query.
			Where("valid_from IS NULL OR valid_from <= ?", *filter.ValidOn).
			Where("valid_until IS NULL OR valid_until >= ?", *filter.ValidOn)
	}
	return query
}

// Ensure GormCommissionRuleRepository implements CommissionRuleRepository
var _ commission.CommissionRuleRepository = (*GormCommissionRuleRepository)(nil)
