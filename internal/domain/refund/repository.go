package refund

import (
	"context"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Filter defines query criteria for refunds
type Filter struct {
	shared.Filter
	OrderID    *uuid.UUID
	MerchantID *uuid.UUID
	Status     *Status
}

// ProcessedReduction is one processed refund's share to subtract when the
// order is folded into a settlement
type ProcessedReduction struct {
	RefundID   uuid.UUID
	Subtotal   decimal.Decimal
	Tax        decimal.Decimal
	Commission decimal.Decimal
}

// RefundRepository defines the persistence interface for refunds
type RefundRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Refund, error)
	FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*Refund, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter Filter) ([]*Refund, error)
	FindByOrderID(ctx context.Context, tenantID, orderID uuid.UUID) ([]*Refund, error)
	// SumCommittedForOrder totals the refunds already holding part of the
	// order's refundable balance: approved and processing refunds as well as
	// completed, recovery_pending and fully_resolved ones.
	SumCommittedForOrder(ctx context.Context, tenantID, orderID uuid.UUID) (decimal.Decimal, error)
	// ProcessedReductionsForOrder lists processed refund amounts against an
	// order for one merchant, for settlement-time reduction. One entry per
	// refund so each applies exactly once.
	ProcessedReductionsForOrder(ctx context.Context, tenantID, orderID, merchantID uuid.UUID) ([]ProcessedReduction, error)
	Save(ctx context.Context, r *Refund) error
	Count(ctx context.Context, tenantID uuid.UUID, filter Filter) (int64, error)
}
