package billing

import (
	"context"

	"github.com/google/uuid"
)

// InvoiceRepository defines the persistence interface for invoices
type InvoiceRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)
	FindByOrderID(ctx context.Context, tenantID, orderID uuid.UUID) (*Invoice, error)
	FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*Invoice, error)
	Save(ctx context.Context, inv *Invoice) error
}

// CreditNoteRepository defines the persistence interface for credit notes
type CreditNoteRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*CreditNote, error)
	FindByRefundID(ctx context.Context, tenantID, refundID uuid.UUID) (*CreditNote, error)
	Save(ctx context.Context, cn *CreditNote) error
}
