package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/tax"
)

// GormExpenseRepository implements ExpenseRepository using GORM
type GormExpenseRepository struct {
	db *gorm.DB
}

// NewGormExpenseRepository creates a new GormExpenseRepository
func NewGormExpenseRepository(db *gorm.DB) *GormExpenseRepository {
	return &GormExpenseRepository{db: db}
}

// FindByID finds an expense by ID within a tenant
func (r *GormExpenseRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*tax.Expense, error) {
	var e tax.Expense
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// FindUnreclaimedInPeriod lists approved, reclaimable expenses dated within
// the window whose input VAT has not been folded into any filed return yet
func (r *GormExpenseRepository) FindUnreclaimedInPeriod(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*tax.Expense, error) {
	var expenses []*tax.Expense
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND vat_reclaimed = ? AND status = ? AND is_vat_reclaimable = ? AND expense_date >= ? AND expense_date <= ?",
			tenantID, false, tax.ExpenseStatusApproved, true, from, to).
		Order("expense_date ASC").
		Find(&expenses).Error; err != nil {
		return nil, err
	}
	return expenses, nil
}

// FindByReturnID lists the expenses attached to a prepared return
func (r *GormExpenseRepository) FindByReturnID(ctx context.Context, tenantID, vatReturnID uuid.UUID) ([]*tax.Expense, error) {
	var expenses []*tax.Expense
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND vat_return_id = ?", tenantID, vatReturnID).
		Order("expense_date ASC").
		Find(&expenses).Error; err != nil {
		return nil, err
	}
	return expenses, nil
}

// Save creates or updates an expense
func (r *GormExpenseRepository) Save(ctx context.Context, e *tax.Expense) error {
	return r.db.WithContext(ctx).Save(e).Error
}

// Ensure GormExpenseRepository implements ExpenseRepository
var _ tax.ExpenseRepository = (*GormExpenseRepository)(nil)
