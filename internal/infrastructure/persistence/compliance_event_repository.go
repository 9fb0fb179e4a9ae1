package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/tax"
)

// GormComplianceEventRepository implements ComplianceEventRepository using GORM
type GormComplianceEventRepository struct {
	db *gorm.DB
}

// NewGormComplianceEventRepository creates a new GormComplianceEventRepository
func NewGormComplianceEventRepository(db *gorm.DB) *GormComplianceEventRepository {
	return &GormComplianceEventRepository{db: db}
}

// FindByID finds a compliance event by ID within a tenant
func (r *GormComplianceEventRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*tax.TaxComplianceEvent, error) {
	var e tax.TaxComplianceEvent
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

// FindPending lists open obligations for a tenant, nearest deadline first
func (r *GormComplianceEventRepository) FindPending(ctx context.Context, tenantID uuid.UUID) ([]*tax.TaxComplianceEvent, error) {
	var events []*tax.TaxComplianceEvent
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ?", tenantID, tax.ComplianceStatusPending).
		Order("due_date ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// FindByVatReturnID lists the obligations tracked against a VAT return
func (r *GormComplianceEventRepository) FindByVatReturnID(ctx context.Context, tenantID, vatReturnID uuid.UUID) ([]*tax.TaxComplianceEvent, error) {
	var events []*tax.TaxComplianceEvent
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND vat_return_id = ?", tenantID, vatReturnID).
		Order("due_date ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// TenantsWithOpenObligations lists the tenants that still have pending
// obligations. The nightly sweep fans out over this set.
func (r *GormComplianceEventRepository) TenantsWithOpenObligations(ctx context.Context) ([]uuid.UUID, error) {
	var tenantIDs []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&tax.TaxComplianceEvent{}).
		Where("status = ?", tax.ComplianceStatusPending).
		Distinct("tenant_id").
		Pluck("tenant_id", &tenantIDs).Error; err != nil {
		return nil, err
	}
	return tenantIDs, nil
}

// Save creates or updates a compliance event
func (r *GormComplianceEventRepository) Save(ctx context.Context, e *tax.TaxComplianceEvent) error {
	return r.db.WithContext(ctx).Save(e).Error
}

// Ensure GormComplianceEventRepository implements ComplianceEventRepository
var _ tax.ComplianceEventRepository = (*GormComplianceEventRepository)(nil)
