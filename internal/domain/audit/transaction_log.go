package audit

import (
	"encoding/json"
	"time"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared"
	"github.com/google/uuid"
)

// LoggableType identifies which financial record a log entry belongs to
type LoggableType string

const (
	LoggableRefund     LoggableType = "Refund"
	LoggableSettlement LoggableType = "Settlement"
	LoggableVatReturn  LoggableType = "VatReturn"
	LoggableExpense    LoggableType = "Expense"
	LoggableDebitNote  LoggableType = "MerchantDebitNote"
)

// IsValid checks if the loggable type is valid
func (t LoggableType) IsValid() bool {
	switch t {
	case LoggableRefund, LoggableSettlement, LoggableVatReturn, LoggableExpense, LoggableDebitNote:
		return true
	}
	return false
}

// TransactionLog is one append-only audit entry for a state change on a
// financial record. Entries are never updated or deleted; corrections to the
// underlying record produce new entries, not edits here.
type TransactionLog struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	LoggableType LoggableType    `gorm:"type:varchar(50);not null;index:idx_txlog_loggable,priority:1"`
	LoggableID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_txlog_loggable,priority:2"`
	Action       string          `gorm:"type:varchar(100);not null"`
	OldValues    json.RawMessage `gorm:"type:jsonb"`
	NewValues    json.RawMessage `gorm:"type:jsonb"`
	PerformedBy  string          `gorm:"type:varchar(100);not null"`
	CreatedAt    time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (TransactionLog) TableName() string {
	return "transaction_logs"
}

// NewTransactionLog builds one audit entry. Old and new values are free-form
// snapshots of the fields the action touched.
func NewTransactionLog(
	tenantID uuid.UUID,
	loggableType LoggableType,
	loggableID uuid.UUID,
	action string,
	oldValues, newValues map[string]any,
	performedBy string,
) (*TransactionLog, error) {
	if !loggableType.IsValid() {
		return nil, shared.NewDomainError("INVALID_LOGGABLE_TYPE", "Invalid loggable type: "+string(loggableType))
	}
	if loggableID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LOGGABLE", "Loggable ID cannot be empty")
	}
	if action == "" {
		return nil, shared.NewDomainError("INVALID_ACTION", "Action cannot be empty")
	}
	if performedBy == "" {
		return nil, shared.NewDomainError("INVALID_PERFORMER", "Performer cannot be empty")
	}

	oldJSON, err := json.Marshal(oldValues)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_VALUES", "Old values are not serializable")
	}
	newJSON, err := json.Marshal(newValues)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_VALUES", "New values are not serializable")
	}

	return &TransactionLog{
		ID:           uuid.New(),
		TenantID:     tenantID,
		LoggableType: loggableType,
		LoggableID:   loggableID,
		Action:       action,
		OldValues:    oldJSON,
		NewValues:    newJSON,
		PerformedBy:  performedBy,
		CreatedAt:    time.Now(),
	}, nil
}
