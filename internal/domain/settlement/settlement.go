package settlement

import (
	"time"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle state of a settlement
type Status string

const (
	StatusPending    Status = "PENDING"    // Accumulating orders, payout not started
	StatusProcessing Status = "PROCESSING" // Bank transfer in flight
	StatusPaid       Status = "PAID"       // Funds transferred, permanently immutable
	StatusCancelled  Status = "CANCELLED"  // Abandoned before payout
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true if the settlement is in a terminal state
func (s Status) IsTerminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

// SettlementItem is one order folded into a settlement. It records the
// commission rate and source actually applied so the audit trail survives
// later rule changes. Created once, never mutated.
type SettlementItem struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key"`
	SettlementID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderID          uuid.UUID       `gorm:"type:uuid;not null;index:idx_settlement_item_order_merchant,priority:1"`
	MerchantID       uuid.UUID       `gorm:"type:uuid;not null;index:idx_settlement_item_order_merchant,priority:2"`
	OrderNumber      string          `gorm:"type:varchar(50);not null"`
	OrderAmount      decimal.Decimal `gorm:"type:decimal(18,2);not null"` // Subtotal + allocated tax
	Subtotal         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TaxShare         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CommissionRate   decimal.Decimal `gorm:"type:decimal(5,2);not null"` // Effective rate actually applied
	CommissionAmount decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CommissionSource string          `gorm:"type:varchar(100);not null"`
	CreatedAt        time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SettlementItem) TableName() string {
	return "settlement_items"
}

// AppliedReduction records a refund already folded out of this settlement.
// A retried reconciliation finds its refund here and must not subtract again.
type AppliedReduction struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key"`
	SettlementID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_settlement_reduction_refund,priority:1"`
	RefundID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_settlement_reduction_refund,priority:2"`
	Subtotal         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TaxShare         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CommissionAmount decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CreatedAt        time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AppliedReduction) TableName() string {
	return "settlement_refund_reductions"
}

// Settlement represents a batched payout record for one merchant covering a
// set of paid orders. Monetary fields recompute while pending and freeze the
// moment the settlement is paid.
type Settlement struct {
	shared.TenantAggregateRoot
	SettlementNumber     string             `gorm:"type:varchar(50);not null;uniqueIndex:idx_settlement_tenant_number,priority:2"`
	MerchantID           uuid.UUID          `gorm:"type:uuid;not null;index"`
	MerchantCode         string             `gorm:"type:varchar(20);not null"`
	PayoutDate           time.Time          `gorm:"not null"`
	Items                []SettlementItem   `gorm:"foreignKey:SettlementID;references:ID"`
	Reductions           []AppliedReduction `gorm:"foreignKey:SettlementID;references:ID"`
	TotalOrderAmount     decimal.Decimal    `gorm:"type:decimal(18,2);not null"`
	TotalSubtotal        decimal.Decimal    `gorm:"type:decimal(18,2);not null"`
	TotalTax             decimal.Decimal    `gorm:"type:decimal(18,2);not null"`
	CommissionAmount     decimal.Decimal    `gorm:"type:decimal(18,2);not null"`
	CommissionTax        decimal.Decimal    `gorm:"type:decimal(18,2);not null"` // VAT the platform owes on its commission
	TotalCommission      decimal.Decimal    `gorm:"type:decimal(18,2);not null"`
	Deductions           decimal.Decimal    `gorm:"type:decimal(18,2);not null"` // Applied debit note recoveries
	MerchantPayout       decimal.Decimal    `gorm:"type:decimal(18,2);not null"` // TotalSubtotal - TotalCommission
	NetPayout            decimal.Decimal    `gorm:"type:decimal(18,2);not null"` // MerchantPayout - Deductions
	VatRate              decimal.Decimal    `gorm:"type:decimal(5,2);not null"`  // Rate used for CommissionTax
	Status               Status             `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	TransactionReference string             `gorm:"type:varchar(100)"`
	PaidAt               *time.Time
	CancelledAt          *time.Time
	CancelReason         string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (Settlement) TableName() string {
	return "settlements"
}

// NewSettlement creates a new pending settlement for one merchant payout cycle
func NewSettlement(
	tenantID uuid.UUID,
	settlementNumber string,
	merchantID uuid.UUID,
	merchantCode string,
	payoutDate time.Time,
	vatRate decimal.Decimal,
) (*Settlement, error) {
	if settlementNumber == "" {
		return nil, shared.NewDomainError("INVALID_SETTLEMENT_NUMBER", "Settlement number cannot be empty")
	}
	if merchantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MERCHANT", "Merchant ID cannot be empty")
	}
	if merchantCode == "" {
		return nil, shared.NewDomainError("INVALID_MERCHANT_CODE", "Merchant code cannot be empty")
	}
	if vatRate.IsNegative() {
		return nil, shared.NewDomainError("INVALID_VAT_RATE", "VAT rate cannot be negative")
	}

	s := &Settlement{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		SettlementNumber:    settlementNumber,
		MerchantID:          merchantID,
		MerchantCode:        merchantCode,
		PayoutDate:          payoutDate,
		Items:               make([]SettlementItem, 0),
		Reductions:          make([]AppliedReduction, 0),
		TotalOrderAmount:    decimal.Zero,
		TotalSubtotal:       decimal.Zero,
		TotalTax:            decimal.Zero,
		CommissionAmount:    decimal.Zero,
		CommissionTax:       decimal.Zero,
		TotalCommission:     decimal.Zero,
		Deductions:          decimal.Zero,
		MerchantPayout:      decimal.Zero,
		NetPayout:           decimal.Zero,
		VatRate:             vatRate,
		Status:              StatusPending,
	}

	s.AddDomainEvent(NewSettlementCreatedEvent(s))

	return s, nil
}

// OrderContribution is one paid order's share for this merchant
type OrderContribution struct {
	OrderID          uuid.UUID
	OrderNumber      string
	Subtotal         decimal.Decimal
	TaxShare         decimal.Decimal
	CommissionAmount decimal.Decimal
	CommissionRate   decimal.Decimal
	CommissionSource string
}

// AddOrder folds one order's contribution into the settlement. Only pending
// settlements accept new orders; each order may appear at most once.
func (s *Settlement) AddOrder(c OrderContribution) (*SettlementItem, error) {
	if s.Status != StatusPending {
		return nil, shared.NewDomainError("INVALID_STATE", "Orders can only be added to a pending settlement")
	}
	if c.OrderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Order ID cannot be empty")
	}
	if c.Subtotal.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Order contribution subtotal must be positive")
	}
	for _, item := range s.Items {
		if item.OrderID == c.OrderID {
			return nil, shared.ErrAlreadySettled
		}
	}

	item := SettlementItem{
		ID:               uuid.New(),
		SettlementID:     s.ID,
		OrderID:          c.OrderID,
		MerchantID:       s.MerchantID,
		OrderNumber:      c.OrderNumber,
		OrderAmount:      c.Subtotal.Add(c.TaxShare),
		Subtotal:         c.Subtotal,
		TaxShare:         c.TaxShare,
		CommissionRate:   c.CommissionRate,
		CommissionAmount: c.CommissionAmount,
		CommissionSource: c.CommissionSource,
		CreatedAt:        time.Now(),
	}

	s.Items = append(s.Items, item)
	s.TotalSubtotal = s.TotalSubtotal.Add(c.Subtotal)
	s.TotalTax = s.TotalTax.Add(c.TaxShare)
	s.CommissionAmount = s.CommissionAmount.Add(c.CommissionAmount)
	s.recomputeTotals()
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	return &s.Items[len(s.Items)-1], nil
}

// RefundReduction is a pre-settlement refund's contribution to unwind
type RefundReduction struct {
	RefundID         uuid.UUID
	Subtotal         decimal.Decimal
	TaxShare         decimal.Decimal
	CommissionAmount decimal.Decimal
}

// ReduceForRefund subtracts a pre-settlement refund from the running totals.
// Funds have not moved yet, so no debit note is needed. Each refund is
// recorded and applies at most once; a repeat is a no-op.
func (s *Settlement) ReduceForRefund(r RefundReduction) error {
	if s.Status != StatusPending {
		return shared.NewDomainError("INVALID_STATE", "Only pending settlements can absorb refund reductions")
	}
	if r.RefundID == uuid.Nil {
		return shared.NewDomainError("INVALID_REFUND", "Refund ID cannot be empty")
	}
	if s.HasReduction(r.RefundID) {
		return nil
	}
	if r.Subtotal.IsNegative() || r.TaxShare.IsNegative() || r.CommissionAmount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Refund reduction amounts cannot be negative")
	}
	if r.Subtotal.GreaterThan(s.TotalSubtotal) {
		return shared.NewDomainError("INVALID_AMOUNT", "Refund reduction exceeds settlement subtotal")
	}

	s.Reductions = append(s.Reductions, AppliedReduction{
		ID:               uuid.New(),
		SettlementID:     s.ID,
		RefundID:         r.RefundID,
		Subtotal:         r.Subtotal,
		TaxShare:         r.TaxShare,
		CommissionAmount: r.CommissionAmount,
		CreatedAt:        time.Now(),
	})
	s.TotalSubtotal = s.TotalSubtotal.Sub(r.Subtotal)
	s.TotalTax = s.TotalTax.Sub(r.TaxShare)
	s.CommissionAmount = s.CommissionAmount.Sub(r.CommissionAmount)
	s.recomputeTotals()
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	return nil
}

// HasReduction reports whether the refund was already folded out of this
// settlement
func (s *Settlement) HasReduction(refundID uuid.UUID) bool {
	for _, red := range s.Reductions {
		if red.RefundID == refundID {
			return true
		}
	}
	return false
}

// ApplyDeduction records a debit note recovery against this settlement,
// reducing the net payout. Only pending settlements accept deductions.
func (s *Settlement) ApplyDeduction(amount valueobject.Money) error {
	if s.Status != StatusPending {
		return shared.NewDomainError("INVALID_STATE", "Deductions can only be applied to a pending settlement")
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Deduction amount must be positive")
	}

	s.Deductions = s.Deductions.Add(amount.Amount())
	s.recomputeTotals()
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	return nil
}

// recomputeTotals reestablishes the settlement balance invariants:
// commission_tax = commission_amount x vat_rate
// total_commission = commission_amount + commission_tax
// merchant_payout = total_subtotal - total_commission
// net_payout = merchant_payout - deductions
func (s *Settlement) recomputeTotals() {
	s.TotalOrderAmount = s.TotalSubtotal.Add(s.TotalTax)
	s.CommissionTax = s.CommissionAmount.Mul(s.VatRate).Div(decimal.NewFromInt(100)).Round(2)
	s.TotalCommission = s.CommissionAmount.Add(s.CommissionTax)
	s.MerchantPayout = s.TotalSubtotal.Sub(s.TotalCommission)
	s.NetPayout = s.MerchantPayout.Sub(s.Deductions)
}

// MarkProcessing flags the settlement while the bank transfer is in flight
func (s *Settlement) MarkProcessing() error {
	if s.Status != StatusPending {
		return shared.NewDomainError("INVALID_STATE", "Only pending settlements can move to processing")
	}
	s.Status = StatusProcessing
	s.UpdatedAt = time.Now()
	return nil
}

// MarkPaid records the completed transfer. The settlement becomes permanently
// immutable; monetary fields never change again. Idempotent on repeat calls
// with the same transaction reference.
func (s *Settlement) MarkPaid(transactionReference string) error {
	if s.Status == StatusPaid {
		if s.TransactionReference == transactionReference {
			return nil // Already paid, idempotent
		}
		return shared.ErrImmutableDocument
	}
	if s.Status != StatusPending && s.Status != StatusProcessing {
		return shared.NewDomainError("INVALID_STATE", "Only pending settlements can be marked paid")
	}
	if transactionReference == "" {
		return shared.NewDomainError("INVALID_TRANSACTION_REFERENCE", "Transaction reference cannot be empty")
	}

	now := time.Now()
	s.Status = StatusPaid
	s.TransactionReference = transactionReference
	s.PaidAt = &now
	s.UpdatedAt = now

	s.AddDomainEvent(NewSettlementPaidEvent(s))

	return nil
}

// Cancel abandons a settlement before payout. Its orders become eligible for
// inclusion in a later settlement.
func (s *Settlement) Cancel(reason string) error {
	if s.Status == StatusCancelled {
		return nil // Already cancelled, idempotent
	}
	if s.Status == StatusPaid {
		return shared.ErrImmutableDocument
	}

	now := time.Now()
	s.Status = StatusCancelled
	s.CancelledAt = &now
	s.CancelReason = reason
	s.UpdatedAt = now

	return nil
}

// IsPaid returns true once funds have been transferred
func (s *Settlement) IsPaid() bool {
	return s.Status == StatusPaid
}

// ContainsOrder reports whether the order is already folded into this settlement
func (s *Settlement) ContainsOrder(orderID uuid.UUID) bool {
	for _, item := range s.Items {
		if item.OrderID == orderID {
			return true
		}
	}
	return false
}
