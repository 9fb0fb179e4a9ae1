package settlement

import (
	"time"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DebitNoteStatus represents the lifecycle of a merchant debit note
type DebitNoteStatus string

const (
	DebitNoteStatusPending DebitNoteStatus = "PENDING" // Awaiting the merchant's next settlement
	DebitNoteStatusApplied DebitNoteStatus = "APPLIED" // Deducted from a settlement, terminal
)

// IsValid checks if the status is a valid DebitNoteStatus
func (s DebitNoteStatus) IsValid() bool {
	return s == DebitNoteStatusPending || s == DebitNoteStatusApplied
}

// String returns the string representation of DebitNoteStatus
func (s DebitNoteStatus) String() string {
	return string(s)
}

// MerchantDebitNote records money owed back by a merchant after a refund hit
// an order that was already paid out. The amount is recovered by deducting it
// from the merchant's next settlement. The PENDING to APPLIED transition is
// one-way.
type MerchantDebitNote struct {
	shared.TenantAggregateRoot
	NoteNumber           string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_debit_note_tenant_number,priority:2"`
	MerchantID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	RefundID             uuid.UUID       `gorm:"type:uuid;not null;index"`
	OriginalSettlementID uuid.UUID       `gorm:"type:uuid;not null"` // The paid settlement the refunded order was part of
	RecoveryAmount       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CommissionReversed   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Reason               string          `gorm:"type:varchar(500);not null"`
	Status               DebitNoteStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	RecoverySettlementID *uuid.UUID      `gorm:"type:uuid"` // The settlement the deduction landed on
	AppliedAt            *time.Time
}

// TableName returns the table name for GORM
func (MerchantDebitNote) TableName() string {
	return "merchant_debit_notes"
}

// NewMerchantDebitNote creates a pending debit note for post-settlement refund recovery
func NewMerchantDebitNote(
	tenantID uuid.UUID,
	noteNumber string,
	merchantID uuid.UUID,
	refundID uuid.UUID,
	originalSettlementID uuid.UUID,
	recoveryAmount decimal.Decimal,
	commissionReversed decimal.Decimal,
	reason string,
) (*MerchantDebitNote, error) {
	if noteNumber == "" {
		return nil, shared.NewDomainError("INVALID_NOTE_NUMBER", "Debit note number cannot be empty")
	}
	if merchantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MERCHANT", "Merchant ID cannot be empty")
	}
	if refundID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_REFUND", "Refund ID cannot be empty")
	}
	if originalSettlementID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SETTLEMENT", "Original settlement ID cannot be empty")
	}
	if recoveryAmount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Recovery amount must be positive")
	}
	if commissionReversed.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Commission reversed cannot be negative")
	}

	dn := &MerchantDebitNote{
		TenantAggregateRoot:  shared.NewTenantAggregateRoot(tenantID),
		NoteNumber:           noteNumber,
		MerchantID:           merchantID,
		RefundID:             refundID,
		OriginalSettlementID: originalSettlementID,
		RecoveryAmount:       recoveryAmount,
		CommissionReversed:   commissionReversed,
		Reason:               reason,
		Status:               DebitNoteStatusPending,
	}

	dn.AddDomainEvent(NewDebitNoteCreatedEvent(dn))

	return dn, nil
}

// ApplyToSettlement marks the note as recovered via the given settlement.
// Idempotent when re-applied against the same settlement; any other mutation
// of an applied note is rejected.
func (dn *MerchantDebitNote) ApplyToSettlement(settlementID uuid.UUID) error {
	if settlementID == uuid.Nil {
		return shared.NewDomainError("INVALID_SETTLEMENT", "Recovery settlement ID cannot be empty")
	}
	if dn.Status == DebitNoteStatusApplied {
		if dn.RecoverySettlementID != nil && *dn.RecoverySettlementID == settlementID {
			return nil // Already applied here, idempotent
		}
		return shared.NewDomainError("ALREADY_APPLIED", "Debit note has already been applied to a settlement")
	}

	now := time.Now()
	dn.Status = DebitNoteStatusApplied
	dn.RecoverySettlementID = &settlementID
	dn.AppliedAt = &now
	dn.UpdatedAt = now
	dn.IncrementVersion()

	dn.AddDomainEvent(NewDebitNoteAppliedEvent(dn))

	return nil
}

// IsApplied returns true once the recovery has been deducted from a settlement
func (dn *MerchantDebitNote) IsApplied() bool {
	return dn.Status == DebitNoteStatusApplied
}
