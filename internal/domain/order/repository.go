package order

import (
	"context"
	"time"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderFilter defines filtering options for order queries
type OrderFilter struct {
	shared.Filter
	CustomerID    *uuid.UUID
	PaymentStatus *PaymentStatus
	PaidFrom      *time.Time
	PaidTo        *time.Time
}

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	// FindByID finds an order by ID for a tenant, items preloaded
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Order, error)

	// FindByOrderNumber finds an order by its number for a tenant
	FindByOrderNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (*Order, error)

	// FindAll finds orders for a tenant with filtering
	FindAll(ctx context.Context, tenantID uuid.UUID, filter OrderFilter) ([]Order, error)

	// FindUnsettledPaidForMerchant finds paid orders carrying items for the
	// merchant that are not yet included in any non-cancelled settlement.
	FindUnsettledPaidForMerchant(ctx context.Context, tenantID, merchantID uuid.UUID, paidBefore time.Time) ([]Order, error)

	// SumPaidSubtotalsInPeriod sums paid order subtotals for VAT output computation
	SumPaidSubtotalsInPeriod(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (decimal.Decimal, error)

	// SumPaidTaxInPeriod sums the VAT collected on paid orders in the window
	SumPaidTaxInPeriod(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (decimal.Decimal, error)

	// Save creates or updates an order
	Save(ctx context.Context, o *Order) error
}
