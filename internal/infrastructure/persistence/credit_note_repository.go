package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/billing"
)

// GormCreditNoteRepository implements CreditNoteRepository using GORM
type GormCreditNoteRepository struct {
	db *gorm.DB
}

// NewGormCreditNoteRepository creates a new GormCreditNoteRepository
func NewGormCreditNoteRepository(db *gorm.DB) *GormCreditNoteRepository {
	return &GormCreditNoteRepository{db: db}
}

// FindByID finds a credit note by ID within a tenant
func (r *GormCreditNoteRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*billing.CreditNote, error) {
	var cn billing.CreditNote
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&cn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cn, nil
}

// FindByRefundID finds the credit note issued for a refund. A refund produces
// at most one note, enforced by a unique index on refund_id.
func (r *GormCreditNoteRepository) FindByRefundID(ctx context.Context, tenantID, refundID uuid.UUID) (*billing.CreditNote, error) {
	var cn billing.CreditNote
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND refund_id = ?", tenantID, refundID).
		First(&cn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cn, nil
}

// Save creates or updates a credit note
func (r *GormCreditNoteRepository) Save(ctx context.Context, cn *billing.CreditNote) error {
	return r.db.WithContext(ctx).Save(cn).Error
}

// Ensure GormCreditNoteRepository implements CreditNoteRepository
var _ billing.CreditNoteRepository = (*GormCreditNoteRepository)(nil)
