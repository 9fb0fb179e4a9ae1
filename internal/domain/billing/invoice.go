package billing

import (
	"time"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the lifecycle state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft  InvoiceStatus = "DRAFT"
	InvoiceStatusIssued InvoiceStatus = "ISSUED" // Terminal; amounts frozen
	InvoiceStatusVoided InvoiceStatus = "VOIDED" // Terminal; superseded by a credit note
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusIssued, InvoiceStatusVoided:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// InvoiceItem is one billed line, copied from the order at issuance
type InvoiceItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderItemID uuid.UUID       `gorm:"type:uuid;not null"`
	Description string          `gorm:"type:varchar(255);not null"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TaxAmount   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Total       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CreatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceItem) TableName() string {
	return "invoice_items"
}

// Invoice is the customer-facing financial document for a paid order. Once
// issued its amounts never change; corrections happen through credit notes.
type Invoice struct {
	shared.TenantAggregateRoot
	InvoiceNumber string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_invoice_tenant_number,priority:2"`
	OrderID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderNumber   string          `gorm:"type:varchar(50);not null"`
	CustomerID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Items         []InvoiceItem   `gorm:"foreignKey:InvoiceID;references:ID"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TaxAmount     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	GrandTotal    decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Status        InvoiceStatus   `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	IssuedAt      *time.Time
	VoidedAt      *time.Time
	VoidReason    string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (Invoice) TableName() string {
	return "invoices"
}

// NewInvoice creates a draft invoice for a paid order
func NewInvoice(
	tenantID uuid.UUID,
	invoiceNumber string,
	orderID uuid.UUID,
	orderNumber string,
	customerID uuid.UUID,
) (*Invoice, error) {
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Order ID cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}

	return &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvoiceNumber:       invoiceNumber,
		OrderID:             orderID,
		OrderNumber:         orderNumber,
		CustomerID:          customerID,
		Items:               make([]InvoiceItem, 0),
		Subtotal:            decimal.Zero,
		TaxAmount:           decimal.Zero,
		GrandTotal:          decimal.Zero,
		Status:              InvoiceStatusDraft,
	}, nil
}

// AddItem adds one billed line while the invoice is still a draft
func (inv *Invoice) AddItem(
	orderItemID uuid.UUID,
	description string,
	quantity int,
	unitPrice, taxAmount decimal.Decimal,
) (*InvoiceItem, error) {
	if inv.Status != InvoiceStatusDraft {
		return nil, shared.ErrImmutableDocument
	}
	if orderItemID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER_ITEM", "Order item ID cannot be empty")
	}
	if description == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot be empty")
	}
	if quantity < 1 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
	}
	if unitPrice.IsNegative() || taxAmount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amounts cannot be negative")
	}

	subtotal := unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
	item := InvoiceItem{
		ID:          uuid.New(),
		InvoiceID:   inv.ID,
		OrderItemID: orderItemID,
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		Subtotal:    subtotal,
		TaxAmount:   taxAmount,
		Total:       subtotal.Add(taxAmount),
		CreatedAt:   time.Now(),
	}

	inv.Items = append(inv.Items, item)
	inv.Subtotal = inv.Subtotal.Add(subtotal)
	inv.TaxAmount = inv.TaxAmount.Add(taxAmount)
	inv.GrandTotal = inv.Subtotal.Add(inv.TaxAmount)
	inv.UpdatedAt = time.Now()

	return &inv.Items[len(inv.Items)-1], nil
}

// Issue freezes the invoice. Idempotent on repeat calls.
func (inv *Invoice) Issue() error {
	if inv.Status == InvoiceStatusIssued {
		return nil
	}
	if inv.Status != InvoiceStatusDraft {
		return shared.ErrImmutableDocument
	}
	if len(inv.Items) == 0 {
		return shared.NewDomainError("EMPTY_INVOICE", "Invoice has no items")
	}

	now := time.Now()
	inv.Status = InvoiceStatusIssued
	inv.IssuedAt = &now
	inv.UpdatedAt = now
	inv.IncrementVersion()

	inv.AddDomainEvent(NewInvoiceIssuedEvent(inv))

	return nil
}

// Void marks an issued invoice as superseded. Amounts stay frozen; the
// correction lives in the credit note that references this invoice.
func (inv *Invoice) Void(reason string) error {
	if inv.Status == InvoiceStatusVoided {
		return nil
	}
	if inv.Status != InvoiceStatusIssued {
		return shared.NewDomainError("INVALID_STATE", "Only issued invoices can be voided")
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Void reason cannot be empty")
	}

	now := time.Now()
	inv.Status = InvoiceStatusVoided
	inv.VoidedAt = &now
	inv.VoidReason = reason
	inv.UpdatedAt = now
	inv.IncrementVersion()

	return nil
}

// IsIssued returns true once the invoice has been frozen
func (inv *Invoice) IsIssued() bool {
	return inv.Status == InvoiceStatusIssued || inv.Status == InvoiceStatusVoided
}
