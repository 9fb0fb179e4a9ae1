package refund

import (
	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	RefundAggregateType = "Refund"

	RefundRequestedEventType        = "refund.requested"
	RefundApprovedEventType         = "refund.approved"
	RefundProcessedEventType        = "refund.processed"
	RefundRecoveryResolvedEventType = "refund.recovery_resolved"
)

// RefundRequestedEvent is raised when a customer refund request is recorded
type RefundRequestedEvent struct {
	shared.BaseDomainEvent
	RefundNumber string    `json:"refund_number"`
	OrderID      uuid.UUID `json:"order_id"`
	MerchantID   uuid.UUID `json:"merchant_id"`
	RefundType   Type      `json:"refund_type"`
}

// NewRefundRequestedEvent creates a refund requested event
func NewRefundRequestedEvent(r *Refund) *RefundRequestedEvent {
	return &RefundRequestedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(RefundRequestedEventType, RefundAggregateType, r.ID, r.TenantID),
		RefundNumber:    r.RefundNumber,
		OrderID:         r.OrderID,
		MerchantID:      r.MerchantID,
		RefundType:      r.Type,
	}
}

// RefundApprovedEvent is raised when a refund passes balance validation
type RefundApprovedEvent struct {
	shared.BaseDomainEvent
	RefundNumber string          `json:"refund_number"`
	OrderID      uuid.UUID       `json:"order_id"`
	RefundTotal  decimal.Decimal `json:"refund_total"`
}

// NewRefundApprovedEvent creates a refund approved event
func NewRefundApprovedEvent(r *Refund) *RefundApprovedEvent {
	return &RefundApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(RefundApprovedEventType, RefundAggregateType, r.ID, r.TenantID),
		RefundNumber:    r.RefundNumber,
		OrderID:         r.OrderID,
		RefundTotal:     r.RefundTotal,
	}
}

// RefundProcessedEvent is raised after reconciliation ran, whether the refund
// completed outright or went into recovery
type RefundProcessedEvent struct {
	shared.BaseDomainEvent
	RefundNumber     string          `json:"refund_number"`
	OrderID          uuid.UUID       `json:"order_id"`
	MerchantID       uuid.UUID       `json:"merchant_id"`
	RefundTotal      decimal.Decimal `json:"refund_total"`
	IsPostSettlement bool            `json:"is_post_settlement"`
}

// NewRefundProcessedEvent creates a refund processed event
func NewRefundProcessedEvent(r *Refund) *RefundProcessedEvent {
	return &RefundProcessedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(RefundProcessedEventType, RefundAggregateType, r.ID, r.TenantID),
		RefundNumber:     r.RefundNumber,
		OrderID:          r.OrderID,
		MerchantID:       r.MerchantID,
		RefundTotal:      r.RefundTotal,
		IsPostSettlement: r.IsPostSettlement,
	}
}

// RefundRecoveryResolvedEvent is raised when the debit note recovery lands
type RefundRecoveryResolvedEvent struct {
	shared.BaseDomainEvent
	RefundNumber         string    `json:"refund_number"`
	RecoverySettlementID uuid.UUID `json:"recovery_settlement_id"`
}

// NewRefundRecoveryResolvedEvent creates a recovery resolved event
func NewRefundRecoveryResolvedEvent(r *Refund) *RefundRecoveryResolvedEvent {
	var recoveryID uuid.UUID
	if r.RecoverySettlementID != nil {
		recoveryID = *r.RecoverySettlementID
	}
	return &RefundRecoveryResolvedEvent{
		BaseDomainEvent:      shared.NewBaseDomainEvent(RefundRecoveryResolvedEventType, RefundAggregateType, r.ID, r.TenantID),
		RefundNumber:         r.RefundNumber,
		RecoverySettlementID: recoveryID,
	}
}
