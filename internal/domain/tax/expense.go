package tax

import (
	"time"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseStatus represents the approval state of an expense
type ExpenseStatus string

const (
	ExpenseStatusPending  ExpenseStatus = "PENDING"  // Recorded, awaiting approval
	ExpenseStatusApproved ExpenseStatus = "APPROVED" // Cleared for VAT reclaim
)

// String returns the string representation of ExpenseStatus
func (s ExpenseStatus) String() string {
	return string(s)
}

// Expense is a business cost whose VAT component feeds the input side of a
// VAT return. Only approved, reclaimable expenses count; the vat_reclaimed
// flag is one-way: it is set exactly when the expense is folded into a filed
// return and never cleared.
type Expense struct {
	shared.TenantAggregateRoot
	Description      string          `gorm:"type:varchar(255);not null"`
	Category         string          `gorm:"type:varchar(50);not null"`
	Amount           decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	VatAmount        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	ExpenseDate      time.Time       `gorm:"not null;index"`
	IsVatReclaimable bool            `gorm:"not null;default:true"`
	Status           ExpenseStatus   `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	ApprovedAt       *time.Time
	VatReclaimed     bool       `gorm:"not null;default:false"`
	VatReturnID      *uuid.UUID `gorm:"type:uuid"` // The return that claims this expense
	ReclaimedAt      *time.Time
}

// TableName returns the table name for GORM
func (Expense) TableName() string {
	return "expenses"
}

// NewExpense records a business expense with its VAT component. Entertainment
// and similar costs carry VAT that is not reclaimable; callers flag those with
// isVatReclaimable false.
func NewExpense(
	tenantID uuid.UUID,
	description, category string,
	amount, vatAmount decimal.Decimal,
	expenseDate time.Time,
	isVatReclaimable bool,
) (*Expense, error) {
	if description == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Expense description cannot be empty")
	}
	if category == "" {
		return nil, shared.NewDomainError("INVALID_CATEGORY", "Expense category cannot be empty")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Expense amount must be positive")
	}
	if vatAmount.IsNegative() || vatAmount.GreaterThan(amount) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Expense VAT must be between zero and the expense amount")
	}

	return &Expense{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Description:         description,
		Category:            category,
		Amount:              amount,
		VatAmount:           vatAmount,
		ExpenseDate:         expenseDate,
		IsVatReclaimable:    isVatReclaimable,
		Status:              ExpenseStatusPending,
	}, nil
}

// Approve clears the expense for VAT reclaim. Idempotent.
func (e *Expense) Approve() error {
	if e.Status == ExpenseStatusApproved {
		return nil
	}

	now := time.Now()
	e.Status = ExpenseStatusApproved
	e.ApprovedAt = &now
	e.UpdatedAt = now
	e.IncrementVersion()

	return nil
}

// AttachToReturn reserves the expense for a prepared return so filing claims
// exactly the expenses the preparation counted. Reattaching to a different
// return is allowed while the VAT is not yet reclaimed.
func (e *Expense) AttachToReturn(vatReturnID uuid.UUID) error {
	if vatReturnID == uuid.Nil {
		return shared.NewDomainError("INVALID_RETURN", "VAT return ID cannot be empty")
	}
	if e.VatReclaimed {
		return shared.NewDomainError("ALREADY_RECLAIMED", "Expense VAT has already been reclaimed")
	}
	if e.Status != ExpenseStatusApproved {
		return shared.NewDomainError("INVALID_STATE", "Only approved expenses can be attached to a return")
	}
	if !e.IsVatReclaimable {
		return shared.NewDomainError("NOT_RECLAIMABLE", "Expense VAT is not reclaimable")
	}

	e.VatReturnID = &vatReturnID
	e.UpdatedAt = time.Now()
	e.IncrementVersion()

	return nil
}

// MarkVatReclaimed folds the expense's VAT into a filed return. One-way;
// reclaiming again for the same return is a no-op, for another return an error.
func (e *Expense) MarkVatReclaimed(vatReturnID uuid.UUID) error {
	if vatReturnID == uuid.Nil {
		return shared.NewDomainError("INVALID_RETURN", "VAT return ID cannot be empty")
	}
	if e.VatReclaimed {
		if e.VatReturnID != nil && *e.VatReturnID == vatReturnID {
			return nil
		}
		return shared.NewDomainError("ALREADY_RECLAIMED", "Expense VAT has already been reclaimed")
	}

	now := time.Now()
	e.VatReclaimed = true
	e.VatReturnID = &vatReturnID
	e.ReclaimedAt = &now
	e.UpdatedAt = now
	e.IncrementVersion()

	return nil
}
