package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/refund"
)

// processedStatuses are the refund states whose money has actually left the
// platform and must count against the order's refundable balance.
var processedStatuses = []refund.Status{
	refund.StatusCompleted,
	refund.StatusRecoveryPending,
	refund.StatusFullyResolved,
}

// committedStatuses additionally include approved and processing refunds,
// whose amounts are already held against the order's refundable balance even
// though no money has moved yet.
var committedStatuses = []refund.Status{
	refund.StatusApproved,
	refund.StatusProcessing,
	refund.StatusCompleted,
	refund.StatusRecoveryPending,
	refund.StatusFullyResolved,
}

// GormRefundRepository implements RefundRepository using GORM
type GormRefundRepository struct {
	db *gorm.DB
}

// NewGormRefundRepository creates a new GormRefundRepository
func NewGormRefundRepository(db *gorm.DB) *GormRefundRepository {
	return &GormRefundRepository{db: db}
}

// FindByID finds a refund by ID within a tenant, items preloaded
func (r *GormRefundRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*refund.Refund, error) {
	var rf refund.Refund
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&rf).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rf, nil
}

// FindByNumber finds a refund by its document number within a tenant
func (r *GormRefundRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*refund.Refund, error) {
	var rf refund.Refund
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("tenant_id = ? AND refund_number = ?", tenantID, number).
		First(&rf).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rf, nil
}

// FindAll finds refunds for a tenant with filtering
func (r *GormRefundRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter refund.Filter) ([]*refund.Refund, error) {
	var refunds []*refund.Refund
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&refund.Refund{}).
			Preload("Items").
			Where("tenant_id = ?", tenantID),
		filter,
	)

	if err := query.Find(&refunds).Error; err != nil {
		return nil, err
	}
	return refunds, nil
}

// FindByOrderID finds all refunds raised against one order
func (r *GormRefundRepository) FindByOrderID(ctx context.Context, tenantID, orderID uuid.UUID) ([]*refund.Refund, error) {
	var refunds []*refund.Refund
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("tenant_id = ? AND order_id = ?", tenantID, orderID).
		Order("created_at ASC").
		Find(&refunds).Error; err != nil {
		return nil, err
	}
	return refunds, nil
}

// SumCommittedForOrder totals the refunds already holding part of the order's
// refundable balance, approved and processing ones included
func (r *GormRefundRepository) SumCommittedForOrder(ctx context.Context, tenantID, orderID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&refund.Refund{}).
		Select("COALESCE(SUM(refund_total), 0) AS total").
		Where("tenant_id = ? AND order_id = ? AND status IN ?", tenantID, orderID, committedStatuses).
		Scan(&result).Error
	if err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// ProcessedReductionsForOrder lists processed refund amounts against an order
// for one merchant, one row per refund, for settlement-time reduction
func (r *GormRefundRepository) ProcessedReductionsForOrder(ctx context.Context, tenantID, orderID, merchantID uuid.UUID) ([]refund.ProcessedReduction, error) {
	var rows []struct {
		ID         uuid.UUID
		Subtotal   decimal.Decimal
		Tax        decimal.Decimal
		Commission decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&refund.Refund{}).
		Select(`id,
			refund_subtotal AS subtotal,
			refund_tax AS tax,
			commission_reversed AS commission`).
		Where("tenant_id = ? AND order_id = ? AND merchant_id = ? AND status IN ?",
			tenantID, orderID, merchantID, processedStatuses).
		Order("created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]refund.ProcessedReduction, 0, len(rows))
	for _, row := range rows {
		out = append(out, refund.ProcessedReduction{
			RefundID:   row.ID,
			Subtotal:   row.Subtotal,
			Tax:        row.Tax,
			Commission: row.Commission,
		})
	}
	return out, nil
}

// Save creates or updates a refund and its items
func (r *GormRefundRepository) Save(ctx context.Context, rf *refund.Refund) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(rf).Error; err != nil {
			return err
		}

		currentItemIDs := make([]uuid.UUID, len(rf.Items))
		for i, item := range rf.Items {
			currentItemIDs[i] = item.ID
		}

		if len(currentItemIDs) > 0 {
			if err := tx.Where("refund_id = ? AND id NOT IN ?", rf.ID, currentItemIDs).
				Delete(&refund.RefundItem{}).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Where("refund_id = ?", rf.ID).
				Delete(&refund.RefundItem{}).Error; err != nil {
				return err
			}
		}

		for i := range rf.Items {
			rf.Items[i].RefundID = rf.ID
			if err := tx.Save(&rf.Items[i]).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// Count counts refunds for a tenant
func (r *GormRefundRepository) Count(ctx context.Context, tenantID uuid.UUID, filter refund.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&refund.Refund{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormRefundRepository) applyFilter(query *gorm.DB, filter refund.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.Limit())
	}
	if filter.OrderBy != "" {
		field := ValidateSortField(filter.OrderBy, RefundSortFields, "created_at")
		query = query.Order(field + " " + ValidateSortOrder(filter.OrderDir))
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormRefundRepository) applyFilterWithoutPagination(query *gorm.DB, filter refund.Filter) *gorm.DB {
	if filter.OrderID != nil {
		query = query.Where("order_id = ?", *filter.OrderID)
	}
	if filter.MerchantID != nil {
		query = query.Where("merchant_id = ?", *filter.MerchantID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	return query
}

// Ensure GormRefundRepository implements RefundRepository
var _ refund.RefundRepository = (*GormRefundRepository)(nil)
