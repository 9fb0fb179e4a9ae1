package tax

import (
	"time"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FilingDeadlineDays is the FTA window after period end for filing and payment
const FilingDeadlineDays = 28

// PeriodType represents the VAT reporting cadence
type PeriodType string

const (
	PeriodQuarterly PeriodType = "QUARTERLY"
	PeriodMonthly   PeriodType = "MONTHLY"
)

// IsValid checks if the period type is valid
func (p PeriodType) IsValid() bool {
	return p == PeriodQuarterly || p == PeriodMonthly
}

// ReturnStatus represents the lifecycle state of a VAT return
type ReturnStatus string

const (
	ReturnStatusDraft           ReturnStatus = "DRAFT"
	ReturnStatusPendingReview   ReturnStatus = "PENDING_REVIEW"
	ReturnStatusApproved        ReturnStatus = "APPROVED"
	ReturnStatusFiled           ReturnStatus = "FILED"
	ReturnStatusPaid            ReturnStatus = "PAID"
	ReturnStatusRefundRequested ReturnStatus = "REFUND_REQUESTED" // Negative net VAT, reclaim filed
	ReturnStatusRefundReceived  ReturnStatus = "REFUND_RECEIVED"
	ReturnStatusAmended         ReturnStatus = "AMENDED" // Superseded by a correction return
)

// IsValid checks if the status is a valid ReturnStatus
func (s ReturnStatus) IsValid() bool {
	switch s {
	case ReturnStatusDraft, ReturnStatusPendingReview, ReturnStatusApproved,
		ReturnStatusFiled, ReturnStatusPaid, ReturnStatusRefundRequested,
		ReturnStatusRefundReceived, ReturnStatusAmended:
		return true
	}
	return false
}

// String returns the string representation of ReturnStatus
func (s ReturnStatus) String() string {
	return string(s)
}

// IsTerminal returns true when no further transitions are allowed
func (s ReturnStatus) IsTerminal() bool {
	return s == ReturnStatusPaid || s == ReturnStatusRefundReceived || s == ReturnStatusAmended
}

// VatReturn is one VAT reporting period's declaration. The net position is
// always output VAT minus reclaimable input VAT plus manual adjustments.
// The state machine only moves forward; corrections after filing happen by
// amending into a fresh linked draft, never by editing this return.
type VatReturn struct {
	shared.TenantAggregateRoot
	ReturnNumber        string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_vat_return_tenant_number,priority:2"`
	PeriodType          PeriodType      `gorm:"type:varchar(20);not null"`
	PeriodStart         time.Time       `gorm:"not null"`
	PeriodEnd           time.Time       `gorm:"not null"`
	OutputVatAmount     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	InputVatReclaimable decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Adjustments         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	NetVatPayable       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Status              ReturnStatus    `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	FilingDeadline      time.Time       `gorm:"not null"`
	IsAmendment         bool            `gorm:"not null;default:false"`
	OriginalReturnID    *uuid.UUID      `gorm:"type:uuid"`
	FiledAt             *time.Time
	PaidAt              *time.Time
	AmendedAt           *time.Time
	AmendmentReason     string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (VatReturn) TableName() string {
	return "vat_returns"
}

// NewVatReturn creates a draft return for one reporting period
func NewVatReturn(
	tenantID uuid.UUID,
	returnNumber string,
	periodType PeriodType,
	periodStart, periodEnd time.Time,
) (*VatReturn, error) {
	if returnNumber == "" {
		return nil, shared.NewDomainError("INVALID_RETURN_NUMBER", "Return number cannot be empty")
	}
	if !periodType.IsValid() {
		return nil, shared.NewDomainError("INVALID_PERIOD_TYPE", "Invalid period type: "+string(periodType))
	}
	if !periodEnd.After(periodStart) {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Period end must be after period start")
	}

	return &VatReturn{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ReturnNumber:        returnNumber,
		PeriodType:          periodType,
		PeriodStart:         periodStart,
		PeriodEnd:           periodEnd,
		OutputVatAmount:     decimal.Zero,
		InputVatReclaimable: decimal.Zero,
		Adjustments:         decimal.Zero,
		NetVatPayable:       decimal.Zero,
		Status:              ReturnStatusDraft,
		FilingDeadline:      periodEnd.AddDate(0, 0, FilingDeadlineDays),
	}, nil
}

// SetAmounts recomputes the return while it is still editable
func (v *VatReturn) SetAmounts(outputVat, inputVatReclaimable, adjustments decimal.Decimal) error {
	if v.Status != ReturnStatusDraft && v.Status != ReturnStatusPendingReview {
		return shared.ErrImmutableDocument
	}
	if outputVat.IsNegative() || inputVatReclaimable.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "VAT amounts cannot be negative")
	}

	v.OutputVatAmount = outputVat
	v.InputVatReclaimable = inputVatReclaimable
	v.Adjustments = adjustments
	v.NetVatPayable = outputVat.Sub(inputVatReclaimable).Add(adjustments)
	v.UpdatedAt = time.Now()

	return nil
}

// SubmitForReview moves a draft to pending review
func (v *VatReturn) SubmitForReview() error {
	if v.Status != ReturnStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Only drafts can be submitted for review")
	}
	v.Status = ReturnStatusPendingReview
	v.UpdatedAt = time.Now()
	v.IncrementVersion()
	return nil
}

// Approve confirms the reviewed figures
func (v *VatReturn) Approve() error {
	if v.Status != ReturnStatusPendingReview {
		return shared.NewDomainError("INVALID_STATE", "Only returns pending review can be approved")
	}
	v.Status = ReturnStatusApproved
	v.UpdatedAt = time.Now()
	v.IncrementVersion()
	return nil
}

// MarkAsFiled records the submission to the tax authority. Idempotent on
// repeat calls. A negative net position routes to refund_requested instead
// of awaiting payment.
func (v *VatReturn) MarkAsFiled() error {
	if v.Status == ReturnStatusFiled || v.Status == ReturnStatusRefundRequested {
		return nil
	}
	if v.Status != ReturnStatusApproved {
		return shared.NewDomainError("INVALID_STATE", "Only approved returns can be filed")
	}

	now := time.Now()
	v.FiledAt = &now
	if v.NetVatPayable.IsNegative() {
		v.Status = ReturnStatusRefundRequested
	} else {
		v.Status = ReturnStatusFiled
	}
	v.UpdatedAt = now
	v.IncrementVersion()

	v.AddDomainEvent(NewVatReturnFiledEvent(v))

	return nil
}

// MarkAsPaid records the payment of a positive net VAT position
func (v *VatReturn) MarkAsPaid() error {
	if v.Status == ReturnStatusPaid {
		return nil
	}
	if v.Status != ReturnStatusFiled {
		return shared.NewDomainError("INVALID_STATE", "Only filed returns can be marked paid")
	}

	now := time.Now()
	v.Status = ReturnStatusPaid
	v.PaidAt = &now
	v.UpdatedAt = now
	v.IncrementVersion()

	return nil
}

// MarkRefundReceived closes a reclaim once the authority pays out
func (v *VatReturn) MarkRefundReceived() error {
	if v.Status == ReturnStatusRefundReceived {
		return nil
	}
	if v.Status != ReturnStatusRefundRequested {
		return shared.NewDomainError("INVALID_STATE", "No refund was requested for this return")
	}

	now := time.Now()
	v.Status = ReturnStatusRefundReceived
	v.PaidAt = &now
	v.UpdatedAt = now
	v.IncrementVersion()

	return nil
}

// Amend supersedes this return and spawns a linked draft carrying the same
// period. Allowed from any state past draft; the original is frozen as
// amended and the correction lives entirely in the child.
func (v *VatReturn) Amend(childReturnNumber, reason string) (*VatReturn, error) {
	if v.Status == ReturnStatusDraft {
		return nil, shared.NewDomainError("INVALID_STATE", "Drafts are edited directly, not amended")
	}
	if v.Status == ReturnStatusAmended {
		return nil, shared.NewDomainError("INVALID_STATE", "Return has already been amended")
	}
	if reason == "" {
		return nil, shared.NewDomainError("INVALID_REASON", "Amendment reason cannot be empty")
	}

	child, err := NewVatReturn(v.TenantID, childReturnNumber, v.PeriodType, v.PeriodStart, v.PeriodEnd)
	if err != nil {
		return nil, err
	}
	child.IsAmendment = true
	originalID := v.ID
	child.OriginalReturnID = &originalID
	if err := child.SetAmounts(v.OutputVatAmount, v.InputVatReclaimable, v.Adjustments); err != nil {
		return nil, err
	}

	now := time.Now()
	v.Status = ReturnStatusAmended
	v.AmendedAt = &now
	v.AmendmentReason = reason
	v.UpdatedAt = now
	v.IncrementVersion()

	v.AddDomainEvent(NewVatReturnAmendedEvent(v, child))

	return child, nil
}
