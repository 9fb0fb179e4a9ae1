package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/commission"
)

// GormMerchantRepository implements MerchantRepository using GORM
type GormMerchantRepository struct {
	db *gorm.DB
}

// NewGormMerchantRepository creates a new GormMerchantRepository
func NewGormMerchantRepository(db *gorm.DB) *GormMerchantRepository {
	return &GormMerchantRepository{db: db}
}

// FindByID finds a merchant by ID within a tenant
func (r *GormMerchantRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*commission.Merchant, error) {
	var m commission.Merchant
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// FindByCode finds a merchant by its short code within a tenant
func (r *GormMerchantRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*commission.Merchant, error) {
	var m commission.Merchant
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND code = ?", tenantID, code).
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// FindActive finds all active merchants for a tenant
func (r *GormMerchantRepository) FindActive(ctx context.Context, tenantID uuid.UUID) ([]commission.Merchant, error) {
	var merchants []commission.Merchant
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND is_active = ?", tenantID, true).
		Order("code ASC").
		Find(&merchants).Error; err != nil {
		return nil, err
	}
	return merchants, nil
}

// Save creates or updates a merchant
func (r *GormMerchantRepository) Save(ctx context.Context, merchant *commission.Merchant) error {
	return r.db.WithContext(ctx).Save(merchant).Error
}

// Ensure GormMerchantRepository implements MerchantRepository
var _ commission.MerchantRepository = (*GormMerchantRepository)(nil)
