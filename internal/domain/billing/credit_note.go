package billing

import (
	"time"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreditNote documents money returned to a customer against an issued
// invoice. It is born issued and immutable; there is no draft stage because
// its amounts come fully computed from the refund.
type CreditNote struct {
	shared.TenantAggregateRoot
	NoteNumber  string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_credit_note_tenant_number,priority:2"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	RefundID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_credit_note_refund"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	CustomerID  uuid.UUID       `gorm:"type:uuid;not null"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TaxAmount   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	GrandTotal  decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Reason      string          `gorm:"type:varchar(500);not null"`
	IssuedAt    time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CreditNote) TableName() string {
	return "credit_notes"
}

// NewCreditNote issues a credit note for a refund. The unique refund
// reference is the guard against a retried reconciliation issuing two notes
// for one refund.
func NewCreditNote(
	tenantID uuid.UUID,
	noteNumber string,
	invoiceID uuid.UUID,
	refundID uuid.UUID,
	orderID uuid.UUID,
	customerID uuid.UUID,
	subtotal, taxAmount decimal.Decimal,
	reason string,
) (*CreditNote, error) {
	if noteNumber == "" {
		return nil, shared.NewDomainError("INVALID_NOTE_NUMBER", "Credit note number cannot be empty")
	}
	if invoiceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	if refundID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_REFUND", "Refund ID cannot be empty")
	}
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Order ID cannot be empty")
	}
	if subtotal.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Credit note subtotal must be positive")
	}
	if taxAmount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Credit note tax cannot be negative")
	}
	if reason == "" {
		return nil, shared.NewDomainError("INVALID_REASON", "Credit note reason cannot be empty")
	}

	cn := &CreditNote{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		NoteNumber:          noteNumber,
		InvoiceID:           invoiceID,
		RefundID:            refundID,
		OrderID:             orderID,
		CustomerID:          customerID,
		Subtotal:            subtotal,
		TaxAmount:           taxAmount,
		GrandTotal:          subtotal.Add(taxAmount),
		Reason:              reason,
		IssuedAt:            time.Now(),
	}

	cn.AddDomainEvent(NewCreditNoteIssuedEvent(cn))

	return cn, nil
}
