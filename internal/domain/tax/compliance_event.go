package tax

import (
	"time"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared"
	"github.com/google/uuid"
)

// ComplianceEventType categorizes scheduled tax obligations
type ComplianceEventType string

const (
	ComplianceFilingDue  ComplianceEventType = "FILING_DUE"
	CompliancePaymentDue ComplianceEventType = "PAYMENT_DUE"
	ComplianceReminder   ComplianceEventType = "REMINDER"
	CompliancePenalty    ComplianceEventType = "PENALTY"
)

// IsValid checks if the event type is valid
func (t ComplianceEventType) IsValid() bool {
	switch t {
	case ComplianceFilingDue, CompliancePaymentDue, ComplianceReminder, CompliancePenalty:
		return true
	}
	return false
}

// ComplianceEventStatus tracks whether the obligation was met
type ComplianceEventStatus string

const (
	ComplianceStatusPending   ComplianceEventStatus = "PENDING"
	ComplianceStatusCompleted ComplianceEventStatus = "COMPLETED"
	ComplianceStatusOverdue   ComplianceEventStatus = "OVERDUE"
)

// TaxComplianceEvent is a scheduled obligation tied to a VAT return, such as
// the payment due after filing or a reminder ahead of the deadline
type TaxComplianceEvent struct {
	shared.TenantAggregateRoot
	EventType   ComplianceEventType   `gorm:"type:varchar(30);not null;index"`
	VatReturnID *uuid.UUID            `gorm:"type:uuid;index"`
	Description string                `gorm:"type:varchar(500);not null"`
	DueDate     time.Time             `gorm:"not null;index"`
	Status      ComplianceEventStatus `gorm:"type:varchar(20);not null;default:'PENDING'"`
	CompletedAt *time.Time
}

// TableName returns the table name for GORM
func (TaxComplianceEvent) TableName() string {
	return "tax_compliance_events"
}

// NewTaxComplianceEvent schedules a compliance obligation
func NewTaxComplianceEvent(
	tenantID uuid.UUID,
	eventType ComplianceEventType,
	vatReturnID *uuid.UUID,
	description string,
	dueDate time.Time,
) (*TaxComplianceEvent, error) {
	if !eventType.IsValid() {
		return nil, shared.NewDomainError("INVALID_EVENT_TYPE", "Invalid compliance event type: "+string(eventType))
	}
	if description == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot be empty")
	}

	return &TaxComplianceEvent{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		EventType:           eventType,
		VatReturnID:         vatReturnID,
		Description:         description,
		DueDate:             dueDate,
		Status:              ComplianceStatusPending,
	}, nil
}

// Complete marks the obligation as met. Idempotent.
func (e *TaxComplianceEvent) Complete() error {
	if e.Status == ComplianceStatusCompleted {
		return nil
	}

	now := time.Now()
	e.Status = ComplianceStatusCompleted
	e.CompletedAt = &now
	e.UpdatedAt = now
	e.IncrementVersion()

	return nil
}

// MarkOverdue flags a pending obligation past its due date
func (e *TaxComplianceEvent) MarkOverdue(now time.Time) error {
	if e.Status != ComplianceStatusPending {
		return nil
	}
	if !now.After(e.DueDate) {
		return shared.NewDomainError("NOT_DUE", "Obligation is not past its due date")
	}

	e.Status = ComplianceStatusOverdue
	e.UpdatedAt = now

	return nil
}
