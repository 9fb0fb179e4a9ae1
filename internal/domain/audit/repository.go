package audit

import (
	"context"

	"github.com/google/uuid"
)

// TransactionLogRepository is append-only: entries can be written and read,
// never updated or removed
type TransactionLogRepository interface {
	Append(ctx context.Context, entry *TransactionLog) error
	FindByLoggable(ctx context.Context, tenantID uuid.UUID, loggableType LoggableType, loggableID uuid.UUID) ([]*TransactionLog, error)
}
