package billing

import (
	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	InvoiceAggregateType    = "Invoice"
	CreditNoteAggregateType = "CreditNote"

	InvoiceIssuedEventType    = "billing.invoice.issued"
	CreditNoteIssuedEventType = "billing.credit_note.issued"
)

// InvoiceIssuedEvent is raised when an invoice is frozen
type InvoiceIssuedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string          `json:"invoice_number"`
	OrderID       uuid.UUID       `json:"order_id"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
}

// NewInvoiceIssuedEvent creates an invoice issued event
func NewInvoiceIssuedEvent(inv *Invoice) *InvoiceIssuedEvent {
	return &InvoiceIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(InvoiceIssuedEventType, InvoiceAggregateType, inv.ID, inv.TenantID),
		InvoiceNumber:   inv.InvoiceNumber,
		OrderID:         inv.OrderID,
		GrandTotal:      inv.GrandTotal,
	}
}

// CreditNoteIssuedEvent is raised when a refund produces a credit note
type CreditNoteIssuedEvent struct {
	shared.BaseDomainEvent
	NoteNumber string          `json:"note_number"`
	InvoiceID  uuid.UUID       `json:"invoice_id"`
	RefundID   uuid.UUID       `json:"refund_id"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// NewCreditNoteIssuedEvent creates a credit note issued event
func NewCreditNoteIssuedEvent(cn *CreditNote) *CreditNoteIssuedEvent {
	return &CreditNoteIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(CreditNoteIssuedEventType, CreditNoteAggregateType, cn.ID, cn.TenantID),
		NoteNumber:      cn.NoteNumber,
		InvoiceID:       cn.InvoiceID,
		RefundID:        cn.RefundID,
		GrandTotal:      cn.GrandTotal,
	}
}
