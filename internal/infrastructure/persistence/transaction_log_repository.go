package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/audit"
)

// GormTransactionLogRepository implements TransactionLogRepository using GORM.
// The table is append-only: this type exposes no update or delete path.
type GormTransactionLogRepository struct {
	db *gorm.DB
}

// NewGormTransactionLogRepository creates a new GormTransactionLogRepository
func NewGormTransactionLogRepository(db *gorm.DB) *GormTransactionLogRepository {
	return &GormTransactionLogRepository{db: db}
}

// Append writes one audit entry
func (r *GormTransactionLogRepository) Append(ctx context.Context, entry *audit.TransactionLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// FindByLoggable lists the audit trail for one financial record, oldest first
func (r *GormTransactionLogRepository) FindByLoggable(ctx context.Context, tenantID uuid.UUID, loggableType audit.LoggableType, loggableID uuid.UUID) ([]*audit.TransactionLog, error) {
	var entries []*audit.TransactionLog
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND loggable_type = ? AND loggable_id = ?", tenantID, loggableType, loggableID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Ensure GormTransactionLogRepository implements TransactionLogRepository
var _ audit.TransactionLogRepository = (*GormTransactionLogRepository)(nil)
