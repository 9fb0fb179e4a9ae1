package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/tax"
)

// GormVatReturnRepository implements VatReturnRepository using GORM
type GormVatReturnRepository struct {
	db *gorm.DB
}

// NewGormVatReturnRepository creates a new GormVatReturnRepository
func NewGormVatReturnRepository(db *gorm.DB) *GormVatReturnRepository {
	return &GormVatReturnRepository{db: db}
}

// FindByID finds a VAT return by ID within a tenant
func (r *GormVatReturnRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*tax.VatReturn, error) {
	var v tax.VatReturn
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&v).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

// FindByNumber finds a VAT return by its document number within a tenant
func (r *GormVatReturnRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*tax.VatReturn, error) {
	var v tax.VatReturn
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND return_number = ?", tenantID, number).
		First(&v).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

// FindByPeriod finds the most recent return covering the given period.
// Amendments create additional returns for the same period, so the newest
// one is the authoritative filing.
func (r *GormVatReturnRepository) FindByPeriod(ctx context.Context, tenantID uuid.UUID, periodStart, periodEnd time.Time) (*tax.VatReturn, error) {
	var v tax.VatReturn
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND period_start = ? AND period_end = ?", tenantID, periodStart, periodEnd).
		Order("created_at DESC").
		First(&v).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

// FindAll lists all VAT returns for a tenant, newest period first
func (r *GormVatReturnRepository) FindAll(ctx context.Context, tenantID uuid.UUID) ([]*tax.VatReturn, error) {
	var returns []*tax.VatReturn
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("period_start DESC, created_at DESC").
		Find(&returns).Error; err != nil {
		return nil, err
	}
	return returns, nil
}

// Save creates or updates a VAT return
func (r *GormVatReturnRepository) Save(ctx context.Context, v *tax.VatReturn) error {
	return r.db.WithContext(ctx).Save(v).Error
}

// Ensure GormVatReturnRepository implements VatReturnRepository
var _ tax.VatReturnRepository = (*GormVatReturnRepository)(nil)
