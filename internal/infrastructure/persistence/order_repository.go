package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	ordr "github.com/ecommerized/adperfumes-sub001/internal/domain/order"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/settlement"
)

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order by ID within a tenant, items preloaded
func (r *GormOrderRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ordr.Order, error) {
	var o ordr.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

// FindByOrderNumber finds an order by its number within a tenant
func (r *GormOrderRepository) FindByOrderNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (*ordr.Order, error) {
	var o ordr.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("tenant_id = ? AND order_number = ?", tenantID, orderNumber).
		First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

// FindAll finds orders for a tenant with filtering
func (r *GormOrderRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter ordr.OrderFilter) ([]ordr.Order, error) {
	var orders []ordr.Order
	query := r.db.WithContext(ctx).Model(&ordr.Order{}).
		Preload("Items").
		Where("tenant_id = ?", tenantID)

	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *filter.PaymentStatus)
	}
	if filter.PaidFrom != nil {
		query = query.Where("paid_at >= ?", *filter.PaidFrom)
	}
	if filter.PaidTo != nil {
		query = query.Where("paid_at <= ?", *filter.PaidTo)
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.Limit())
	}
	if filter.OrderBy != "" {
		field := ValidateSortField(filter.OrderBy, OrderSortFields, "created_at")
		query = query.Order(field + " " + ValidateSortOrder(filter.OrderDir))
	} else {
		query = query.Order("created_at DESC")
	}

	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindUnsettledPaidForMerchant finds paid orders carrying items for the
// merchant that are not yet part of any non-cancelled settlement. Orders in a
// cancelled settlement come back into the pool, which is what lets a
// cancelled payout cycle be regenerated.
func (r *GormOrderRepository) FindUnsettledPaidForMerchant(ctx context.Context, tenantID, merchantID uuid.UUID, paidBefore time.Time) ([]ordr.Order, error) {
	var orders []ordr.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("tenant_id = ? AND payment_status = ? AND paid_at <= ?", tenantID, ordr.PaymentStatusPaid, paidBefore).
		Where("EXISTS (SELECT 1 FROM order_items oi WHERE oi.order_id = orders.id AND oi.merchant_id = ?)", merchantID).
		Where(`NOT EXISTS (
			SELECT 1 FROM settlement_items si
			JOIN settlements s ON s.id = si.settlement_id
			WHERE si.order_id = orders.id AND si.merchant_id = ? AND s.status <> ?)`,
			merchantID, settlement.StatusCancelled).
		Order("paid_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// SumPaidSubtotalsInPeriod sums paid order subtotals in the window
func (r *GormOrderRepository) SumPaidSubtotalsInPeriod(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	return r.sumPaidColumn(ctx, tenantID, "subtotal", from, to)
}

// SumPaidTaxInPeriod sums the VAT collected on paid orders in the window
func (r *GormOrderRepository) SumPaidTaxInPeriod(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	return r.sumPaidColumn(ctx, tenantID, "tax_amount", from, to)
}

func (r *GormOrderRepository) sumPaidColumn(ctx context.Context, tenantID uuid.UUID, column string, from, to time.Time) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&ordr.Order{}).
		Select("COALESCE(SUM("+column+"), 0) AS total").
		Where("tenant_id = ? AND payment_status = ?", tenantID, ordr.PaymentStatusPaid).
		Where("paid_at >= ? AND paid_at <= ?", from, to).
		Scan(&result).Error
	if err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// Save creates or updates an order and its items
func (r *GormOrderRepository) Save(ctx context.Context, o *ordr.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(o).Error; err != nil {
			return err
		}

		currentItemIDs := make([]uuid.UUID, len(o.Items))
		for i, item := range o.Items {
			currentItemIDs[i] = item.ID
		}

		if len(currentItemIDs) > 0 {
			if err := tx.Where("order_id = ? AND id NOT IN ?", o.ID, currentItemIDs).
				Delete(&ordr.OrderItem{}).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Where("order_id = ?", o.ID).
				Delete(&ordr.OrderItem{}).Error; err != nil {
				return err
			}
		}

		for i := range o.Items {
			o.Items[i].OrderID = o.ID
			if err := tx.Save(&o.Items[i]).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// Ensure GormOrderRepository implements OrderRepository
var _ ordr.OrderRepository = (*GormOrderRepository)(nil)
