package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/settlement"
)

// GormSettlementRepository implements SettlementRepository using GORM
type GormSettlementRepository struct {
	db *gorm.DB
}

// NewGormSettlementRepository creates a new GormSettlementRepository
func NewGormSettlementRepository(db *gorm.DB) *GormSettlementRepository {
	return &GormSettlementRepository{db: db}
}

// FindByID finds a settlement by ID within a tenant, items preloaded
func (r *GormSettlementRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*settlement.Settlement, error) {
	var s settlement.Settlement
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Reductions").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// FindByNumber finds a settlement by its document number within a tenant
func (r *GormSettlementRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*settlement.Settlement, error) {
	var s settlement.Settlement
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Reductions").
		Where("tenant_id = ? AND settlement_number = ?", tenantID, number).
		First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// FindAll finds settlements for a tenant with filtering
func (r *GormSettlementRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter settlement.Filter) ([]*settlement.Settlement, error) {
	var settlements []*settlement.Settlement
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&settlement.Settlement{}).
			Preload("Items").
			Preload("Reductions").
			Where("tenant_id = ?", tenantID),
		filter,
	)

	if err := query.Find(&settlements).Error; err != nil {
		return nil, err
	}
	return settlements, nil
}

// FindPendingForMerchant finds the merchant's open settlement, if any.
// At most one settlement per merchant accumulates at a time; the newest
// wins if historical data ever violated that.
func (r *GormSettlementRepository) FindPendingForMerchant(ctx context.Context, tenantID, merchantID uuid.UUID) (*settlement.Settlement, error) {
	var s settlement.Settlement
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Reductions").
		Where("tenant_id = ? AND merchant_id = ? AND status = ?", tenantID, merchantID, settlement.StatusPending).
		Order("created_at DESC").
		First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// FindPaidContainingOrder finds the paid settlement that already paid out
// the given order for the merchant. Used to route refunds to the
// post-settlement recovery path.
func (r *GormSettlementRepository) FindPaidContainingOrder(ctx context.Context, tenantID, orderID, merchantID uuid.UUID) (*settlement.Settlement, error) {
	var s settlement.Settlement
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Reductions").
		Where("tenant_id = ? AND merchant_id = ? AND status = ?", tenantID, merchantID, settlement.StatusPaid).
		Where(`EXISTS (SELECT 1 FROM settlement_items si
			WHERE si.settlement_id = settlements.id AND si.order_id = ?)`, orderID).
		First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// Save creates or updates a settlement, its items and its applied refund
// reductions
func (r *GormSettlementRepository) Save(ctx context.Context, s *settlement.Settlement) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items", "Reductions").Save(s).Error; err != nil {
			return err
		}

		currentItemIDs := make([]uuid.UUID, len(s.Items))
		for i, item := range s.Items {
			currentItemIDs[i] = item.ID
		}

		if len(currentItemIDs) > 0 {
			if err := tx.Where("settlement_id = ? AND id NOT IN ?", s.ID, currentItemIDs).
				Delete(&settlement.SettlementItem{}).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Where("settlement_id = ?", s.ID).
				Delete(&settlement.SettlementItem{}).Error; err != nil {
				return err
			}
		}

		for i := range s.Items {
			s.Items[i].SettlementID = s.ID
			if err := tx.Save(&s.Items[i]).Error; err != nil {
				return err
			}
		}

		// Reductions are append-only; replaying an already recorded refund
		// must not error out the save.
		for i := range s.Reductions {
			s.Reductions[i].SettlementID = s.ID
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "settlement_id"}, {Name: "refund_id"}},
				DoNothing: true,
			}).Create(&s.Reductions[i]).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// Count counts settlements for a tenant
func (r *GormSettlementRepository) Count(ctx context.Context, tenantID uuid.UUID, filter settlement.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&settlement.Settlement{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormSettlementRepository) applyFilter(query *gorm.DB, filter settlement.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.Limit())
	}
	if filter.OrderBy != "" {
		field := ValidateSortField(filter.OrderBy, SettlementSortFields, "created_at")
		query = query.Order(field + " " + ValidateSortOrder(filter.OrderDir))
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormSettlementRepository) applyFilterWithoutPagination(query *gorm.DB, filter settlement.Filter) *gorm.DB {
	if filter.MerchantID != nil {
		query = query.Where("merchant_id = ?", *filter.MerchantID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.From != nil {
		query = query.Where("payout_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("payout_date <= ?", *filter.To)
	}
	return query
}

// Ensure GormSettlementRepository implements SettlementRepository
var _ settlement.SettlementRepository = (*GormSettlementRepository)(nil)
