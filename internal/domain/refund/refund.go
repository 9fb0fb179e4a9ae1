package refund

import (
	"time"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type represents the kind of refund requested
type Type string

const (
	TypeFull     Type = "FULL"
	TypePartial  Type = "PARTIAL"
	TypeExchange Type = "EXCHANGE"
)

// IsValid checks if the type is a valid Type
func (t Type) IsValid() bool {
	switch t {
	case TypeFull, TypePartial, TypeExchange:
		return true
	}
	return false
}

// String returns the string representation of Type
func (t Type) String() string {
	return string(t)
}

// Status represents the lifecycle state of a refund
type Status string

const (
	StatusPending         Status = "PENDING"
	StatusApproved        Status = "APPROVED"
	StatusProcessing      Status = "PROCESSING"
	StatusCompleted       Status = "COMPLETED"        // Pre-settlement refunds end here
	StatusRejected        Status = "REJECTED"         // Only reachable from pending
	StatusRecoveryPending Status = "RECOVERY_PENDING" // Post-settlement, debit note outstanding
	StatusFullyResolved   Status = "FULLY_RESOLVED"   // Debit note applied, money recovered
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusProcessing, StatusCompleted,
		StatusRejected, StatusRecoveryPending, StatusFullyResolved:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true if the refund has reached a final state
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusRejected || s == StatusFullyResolved
}

// ItemCondition describes the returned goods and decides stock restoration
type ItemCondition string

const (
	ConditionSealed          ItemCondition = "SEALED"
	ConditionUnopened        ItemCondition = "UNOPENED"
	ConditionOpenedDefective ItemCondition = "OPENED_DEFECTIVE"
	ConditionDamagedTransit  ItemCondition = "DAMAGED_IN_TRANSIT"
)

// IsValid checks if the condition is a valid ItemCondition
func (c ItemCondition) IsValid() bool {
	switch c {
	case ConditionSealed, ConditionUnopened, ConditionOpenedDefective, ConditionDamagedTransit:
		return true
	}
	return false
}

// RestoresStock reports whether goods in this condition go back on sale
func (c ItemCondition) RestoresStock() bool {
	return c == ConditionSealed || c == ConditionUnopened
}

// RefundItem is one refunded line with its return condition. Stock
// restoration is one-way, false to true only.
type RefundItem struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	RefundID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderItemID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName   string          `gorm:"type:varchar(255);not null"`
	Quantity      int             `gorm:"not null"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TaxAmount     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	ItemCondition ItemCondition   `gorm:"type:varchar(30);not null"`
	StockRestored bool            `gorm:"not null;default:false"`
	CreatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (RefundItem) TableName() string {
	return "refund_items"
}

// Refund represents a customer refund against a paid order. The reconciler
// decides between the pre-settlement path (reduce the pending settlement) and
// the post-settlement path (debit note recovery from the merchant).
type Refund struct {
	shared.TenantAggregateRoot
	RefundNumber            string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_refund_tenant_number,priority:2"`
	OrderID                 uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderNumber             string          `gorm:"type:varchar(50);not null"`
	MerchantID              uuid.UUID       `gorm:"type:uuid;not null;index"`
	Type                    Type            `gorm:"type:varchar(20);not null"`
	ReasonCategory          string          `gorm:"type:varchar(50);not null"`
	Items                   []RefundItem    `gorm:"foreignKey:RefundID;references:ID"`
	RefundSubtotal          decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	RefundTax               decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	RefundTotal             decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CommissionReversed      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CommissionTaxReversed   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TotalCommissionReversed decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	IsPostSettlement        bool            `gorm:"not null;default:false"`
	MerchantRecoveryAmount  decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	RecoveryMethod          string          `gorm:"type:varchar(50)"`
	RecoverySettlementID    *uuid.UUID      `gorm:"type:uuid"`
	IsRecoveryCompleted     bool            `gorm:"not null;default:false"`
	Status                  Status          `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	RejectionReason         string          `gorm:"type:varchar(500)"`
	ApprovedAt              *time.Time
	CompletedAt             *time.Time
	ResolvedAt              *time.Time
}

// TableName returns the table name for GORM
func (Refund) TableName() string {
	return "refunds"
}

// NewRefund creates a pending refund request against a paid order
func NewRefund(
	tenantID uuid.UUID,
	refundNumber string,
	orderID uuid.UUID,
	orderNumber string,
	merchantID uuid.UUID,
	refundType Type,
	reasonCategory string,
) (*Refund, error) {
	if refundNumber == "" {
		return nil, shared.NewDomainError("INVALID_REFUND_NUMBER", "Refund number cannot be empty")
	}
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Order ID cannot be empty")
	}
	if merchantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MERCHANT", "Merchant ID cannot be empty")
	}
	if !refundType.IsValid() {
		return nil, shared.NewDomainError("INVALID_REFUND_TYPE", "Invalid refund type: "+refundType.String())
	}
	if reasonCategory == "" {
		return nil, shared.NewDomainError("INVALID_REASON", "Reason category cannot be empty")
	}

	r := &Refund{
		TenantAggregateRoot:     shared.NewTenantAggregateRoot(tenantID),
		RefundNumber:            refundNumber,
		OrderID:                 orderID,
		OrderNumber:             orderNumber,
		MerchantID:              merchantID,
		Type:                    refundType,
		ReasonCategory:          reasonCategory,
		Items:                   make([]RefundItem, 0),
		RefundSubtotal:          decimal.Zero,
		RefundTax:               decimal.Zero,
		RefundTotal:             decimal.Zero,
		CommissionReversed:      decimal.Zero,
		CommissionTaxReversed:   decimal.Zero,
		TotalCommissionReversed: decimal.Zero,
		MerchantRecoveryAmount:  decimal.Zero,
		Status:                  StatusPending,
	}

	r.AddDomainEvent(NewRefundRequestedEvent(r))

	return r, nil
}

// AddItem adds one refunded line while the request is still pending
func (r *Refund) AddItem(
	orderItemID uuid.UUID,
	productName string,
	quantity int,
	subtotal, taxAmount decimal.Decimal,
	condition ItemCondition,
) (*RefundItem, error) {
	if r.Status != StatusPending {
		return nil, shared.NewDomainError("INVALID_STATE", "Items can only be added to a pending refund")
	}
	if orderItemID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER_ITEM", "Order item ID cannot be empty")
	}
	if quantity < 1 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
	}
	if subtotal.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Refund item subtotal must be positive")
	}
	if taxAmount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Refund item tax cannot be negative")
	}
	if !condition.IsValid() {
		return nil, shared.NewDomainError("INVALID_CONDITION", "Invalid item condition: "+string(condition))
	}
	for _, item := range r.Items {
		if item.OrderItemID == orderItemID {
			return nil, shared.NewDomainError("DUPLICATE_ITEM", "Order item is already part of this refund")
		}
	}

	item := RefundItem{
		ID:            uuid.New(),
		RefundID:      r.ID,
		OrderItemID:   orderItemID,
		ProductName:   productName,
		Quantity:      quantity,
		Subtotal:      subtotal,
		TaxAmount:     taxAmount,
		ItemCondition: condition,
		CreatedAt:     time.Now(),
	}

	r.Items = append(r.Items, item)
	r.RefundSubtotal = r.RefundSubtotal.Add(subtotal)
	r.RefundTax = r.RefundTax.Add(taxAmount)
	r.RefundTotal = r.RefundSubtotal.Add(r.RefundTax)
	r.UpdatedAt = time.Now()

	return &r.Items[len(r.Items)-1], nil
}

// Approve validates the refund against the order's remaining refundable
// balance and moves it to approved. Computation happens later in processing.
func (r *Refund) Approve(refundableBalance decimal.Decimal) error {
	if r.Status != StatusPending {
		return shared.NewDomainError("INVALID_STATE", "Only pending refunds can be approved")
	}
	if len(r.Items) == 0 {
		return shared.NewDomainError("EMPTY_REFUND", "Refund has no items")
	}
	if r.RefundTotal.GreaterThan(refundableBalance) {
		return shared.ErrRefundExceedsOrder
	}

	now := time.Now()
	r.Status = StatusApproved
	r.ApprovedAt = &now
	r.UpdatedAt = now
	r.IncrementVersion()

	r.AddDomainEvent(NewRefundApprovedEvent(r))

	return nil
}

// Reject declines a pending refund with a reason
func (r *Refund) Reject(reason string) error {
	if r.Status != StatusPending {
		return shared.NewDomainError("INVALID_STATE", "Only pending refunds can be rejected")
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Rejection reason cannot be empty")
	}

	r.Status = StatusRejected
	r.RejectionReason = reason
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	return nil
}

// StartProcessing moves an approved refund into processing. Idempotent when
// already processing so a retried reconciliation run can resume.
func (r *Refund) StartProcessing() error {
	if r.Status == StatusProcessing {
		return nil
	}
	if r.Status != StatusApproved {
		return shared.NewDomainError("INVALID_STATE", "Only approved refunds can be processed")
	}

	r.Status = StatusProcessing
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	return nil
}

// SetCommissionReversal records how much of the merchant's commission is
// unwound by this refund. The reversal can never exceed what was originally
// earned on the refunded items.
func (r *Refund) SetCommissionReversal(commission, commissionTax, originallyEarned decimal.Decimal) error {
	if r.Status != StatusProcessing {
		return shared.NewDomainError("INVALID_STATE", "Commission reversal is set during processing")
	}
	if commission.IsNegative() || commissionTax.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Commission reversal cannot be negative")
	}
	if commission.GreaterThan(originallyEarned) {
		return shared.NewDomainError("REVERSAL_EXCEEDS_EARNED", "Commission reversal exceeds commission originally earned")
	}

	r.CommissionReversed = commission
	r.CommissionTaxReversed = commissionTax
	r.TotalCommissionReversed = commission.Add(commissionTax)
	r.UpdatedAt = time.Now()

	return nil
}

// RestoreStock flags one item's stock as returned to inventory. One-way;
// calling it again on a restored item is a no-op.
func (r *Refund) RestoreStock(itemID uuid.UUID) error {
	if r.Status != StatusProcessing {
		return shared.NewDomainError("INVALID_STATE", "Stock is restored during processing")
	}
	for i := range r.Items {
		if r.Items[i].ID != itemID {
			continue
		}
		if r.Items[i].StockRestored {
			return nil
		}
		if !r.Items[i].ItemCondition.RestoresStock() {
			return shared.NewDomainError("CONDITION_BLOCKS_RESTOCK", "Item condition does not allow stock restoration")
		}
		r.Items[i].StockRestored = true
		r.UpdatedAt = time.Now()
		return nil
	}
	return shared.ErrNotFound
}

// Complete finishes a pre-settlement refund. Idempotent on repeat calls.
func (r *Refund) Complete() error {
	if r.Status == StatusCompleted {
		return nil
	}
	if r.Status != StatusProcessing {
		return shared.NewDomainError("INVALID_STATE", "Only processing refunds can be completed")
	}
	if r.IsPostSettlement {
		return shared.NewDomainError("INVALID_STATE", "Post-settlement refunds complete via recovery")
	}

	now := time.Now()
	r.Status = StatusCompleted
	r.CompletedAt = &now
	r.UpdatedAt = now
	r.IncrementVersion()

	r.AddDomainEvent(NewRefundProcessedEvent(r))

	return nil
}

// MarkRecoveryPending flags a post-settlement refund whose commission and
// payout were already transferred, leaving a debit note to recover the money.
func (r *Refund) MarkRecoveryPending(recoveryAmount decimal.Decimal, recoveryMethod string) error {
	if r.Status == StatusRecoveryPending {
		return nil
	}
	if r.Status != StatusProcessing {
		return shared.NewDomainError("INVALID_STATE", "Only processing refunds can enter recovery")
	}
	if recoveryAmount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Recovery amount must be positive")
	}

	now := time.Now()
	r.IsPostSettlement = true
	r.MerchantRecoveryAmount = recoveryAmount
	r.RecoveryMethod = recoveryMethod
	r.Status = StatusRecoveryPending
	r.CompletedAt = &now
	r.UpdatedAt = now
	r.IncrementVersion()

	r.AddDomainEvent(NewRefundProcessedEvent(r))

	return nil
}

// ResolveRecovery closes a post-settlement refund once its debit note has
// been applied to a settlement. Idempotent on repeat calls.
func (r *Refund) ResolveRecovery(recoverySettlementID uuid.UUID) error {
	if r.Status == StatusFullyResolved {
		return nil
	}
	if r.Status != StatusRecoveryPending {
		return shared.NewDomainError("INVALID_STATE", "Only refunds awaiting recovery can be resolved")
	}
	if recoverySettlementID == uuid.Nil {
		return shared.NewDomainError("INVALID_SETTLEMENT", "Recovery settlement ID cannot be empty")
	}

	now := time.Now()
	r.Status = StatusFullyResolved
	r.RecoverySettlementID = &recoverySettlementID
	r.IsRecoveryCompleted = true
	r.ResolvedAt = &now
	r.UpdatedAt = now
	r.IncrementVersion()

	r.AddDomainEvent(NewRefundRecoveryResolvedEvent(r))

	return nil
}

// IsProcessed reports whether the irreversible reconciliation already ran
func (r *Refund) IsProcessed() bool {
	switch r.Status {
	case StatusCompleted, StatusRecoveryPending, StatusFullyResolved:
		return true
	}
	return false
}

// IsCommitted reports whether the refund already counts against the order's
// refundable balance. An approved refund holds its amount before any money
// moves.
func (r *Refund) IsCommitted() bool {
	switch r.Status {
	case StatusApproved, StatusProcessing:
		return true
	}
	return r.IsProcessed()
}
