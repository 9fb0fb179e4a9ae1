package tax

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// VatReturnRepository defines the persistence interface for VAT returns
type VatReturnRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*VatReturn, error)
	FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*VatReturn, error)
	FindByPeriod(ctx context.Context, tenantID uuid.UUID, periodStart, periodEnd time.Time) (*VatReturn, error)
	FindAll(ctx context.Context, tenantID uuid.UUID) ([]*VatReturn, error)
	Save(ctx context.Context, v *VatReturn) error
}

// ExpenseRepository defines the persistence interface for expenses
type ExpenseRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Expense, error)
	// FindUnreclaimedInPeriod lists approved, reclaimable expenses whose VAT
	// has not yet been folded into any filed return, for the given window.
	FindUnreclaimedInPeriod(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*Expense, error)
	// FindByReturnID lists the expenses attached to a prepared return.
	FindByReturnID(ctx context.Context, tenantID, vatReturnID uuid.UUID) ([]*Expense, error)
	Save(ctx context.Context, e *Expense) error
}

// ComplianceEventRepository defines the persistence interface for compliance events
type ComplianceEventRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*TaxComplianceEvent, error)
	FindPending(ctx context.Context, tenantID uuid.UUID) ([]*TaxComplianceEvent, error)
	FindByVatReturnID(ctx context.Context, tenantID, vatReturnID uuid.UUID) ([]*TaxComplianceEvent, error)
	Save(ctx context.Context, e *TaxComplianceEvent) error
}
