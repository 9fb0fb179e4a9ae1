package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/settlement"
)

// GormDebitNoteRepository implements DebitNoteRepository using GORM
type GormDebitNoteRepository struct {
	db *gorm.DB
}

// NewGormDebitNoteRepository creates a new GormDebitNoteRepository
func NewGormDebitNoteRepository(db *gorm.DB) *GormDebitNoteRepository {
	return &GormDebitNoteRepository{db: db}
}

// FindByID finds a debit note by ID within a tenant
func (r *GormDebitNoteRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*settlement.MerchantDebitNote, error) {
	var dn settlement.MerchantDebitNote
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&dn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &dn, nil
}

// FindByRefundID finds the debit note raised for a refund, if any. One refund
// produces at most one note.
func (r *GormDebitNoteRepository) FindByRefundID(ctx context.Context, tenantID, refundID uuid.UUID) (*settlement.MerchantDebitNote, error) {
	var dn settlement.MerchantDebitNote
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND refund_id = ?", tenantID, refundID).
		First(&dn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &dn, nil
}

// FindPendingForMerchant finds the merchant's outstanding debit notes,
// oldest first so recoveries apply in the order the refunds happened
func (r *GormDebitNoteRepository) FindPendingForMerchant(ctx context.Context, tenantID, merchantID uuid.UUID) ([]*settlement.MerchantDebitNote, error) {
	var notes []*settlement.MerchantDebitNote
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND merchant_id = ? AND status = ?", tenantID, merchantID, settlement.DebitNoteStatusPending).
		Order("created_at ASC").
		Find(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

// Save creates or updates a debit note
func (r *GormDebitNoteRepository) Save(ctx context.Context, dn *settlement.MerchantDebitNote) error {
	return r.db.WithContext(ctx).Save(dn).Error
}

// Ensure GormDebitNoteRepository implements DebitNoteRepository
var _ settlement.DebitNoteRepository = (*GormDebitNoteRepository)(nil)
