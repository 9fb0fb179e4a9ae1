package settlement

import (
	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	SettlementAggregateType = "Settlement"
	DebitNoteAggregateType  = "MerchantDebitNote"

	SettlementCreatedEventType = "settlement.created"
	SettlementPaidEventType    = "settlement.paid"
	DebitNoteCreatedEventType  = "settlement.debit_note.created"
	DebitNoteAppliedEventType  = "settlement.debit_note.applied"
)

// SettlementCreatedEvent is raised when a new pending settlement is opened
type SettlementCreatedEvent struct {
	shared.BaseDomainEvent
	SettlementNumber string    `json:"settlement_number"`
	MerchantID       uuid.UUID `json:"merchant_id"`
	MerchantCode     string    `json:"merchant_code"`
}

// NewSettlementCreatedEvent creates a settlement created event
func NewSettlementCreatedEvent(s *Settlement) *SettlementCreatedEvent {
	return &SettlementCreatedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(SettlementCreatedEventType, SettlementAggregateType, s.ID, s.TenantID),
		SettlementNumber: s.SettlementNumber,
		MerchantID:       s.MerchantID,
		MerchantCode:     s.MerchantCode,
	}
}

// SettlementPaidEvent is raised when the merchant payout transfer completes
type SettlementPaidEvent struct {
	shared.BaseDomainEvent
	SettlementNumber     string          `json:"settlement_number"`
	MerchantID           uuid.UUID       `json:"merchant_id"`
	NetPayout            decimal.Decimal `json:"net_payout"`
	TransactionReference string          `json:"transaction_reference"`
}

// NewSettlementPaidEvent creates a settlement paid event
func NewSettlementPaidEvent(s *Settlement) *SettlementPaidEvent {
	return &SettlementPaidEvent{
		BaseDomainEvent:      shared.NewBaseDomainEvent(SettlementPaidEventType, SettlementAggregateType, s.ID, s.TenantID),
		SettlementNumber:     s.SettlementNumber,
		MerchantID:           s.MerchantID,
		NetPayout:            s.NetPayout,
		TransactionReference: s.TransactionReference,
	}
}

// DebitNoteCreatedEvent is raised when a post-settlement refund creates a recovery
type DebitNoteCreatedEvent struct {
	shared.BaseDomainEvent
	NoteNumber     string          `json:"note_number"`
	MerchantID     uuid.UUID       `json:"merchant_id"`
	RefundID       uuid.UUID       `json:"refund_id"`
	RecoveryAmount decimal.Decimal `json:"recovery_amount"`
}

// NewDebitNoteCreatedEvent creates a debit note created event
func NewDebitNoteCreatedEvent(dn *MerchantDebitNote) *DebitNoteCreatedEvent {
	return &DebitNoteCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(DebitNoteCreatedEventType, DebitNoteAggregateType, dn.ID, dn.TenantID),
		NoteNumber:      dn.NoteNumber,
		MerchantID:      dn.MerchantID,
		RefundID:        dn.RefundID,
		RecoveryAmount:  dn.RecoveryAmount,
	}
}

// DebitNoteAppliedEvent is raised when the recovery is deducted from a settlement
type DebitNoteAppliedEvent struct {
	shared.BaseDomainEvent
	NoteNumber           string          `json:"note_number"`
	MerchantID           uuid.UUID       `json:"merchant_id"`
	RecoveryAmount       decimal.Decimal `json:"recovery_amount"`
	RecoverySettlementID uuid.UUID       `json:"recovery_settlement_id"`
}

// NewDebitNoteAppliedEvent creates a debit note applied event
func NewDebitNoteAppliedEvent(dn *MerchantDebitNote) *DebitNoteAppliedEvent {
	var recoveryID uuid.UUID
	if dn.RecoverySettlementID != nil {
		recoveryID = *dn.RecoverySettlementID
	}
	return &DebitNoteAppliedEvent{
		BaseDomainEvent:      shared.NewBaseDomainEvent(DebitNoteAppliedEventType, DebitNoteAggregateType, dn.ID, dn.TenantID),
		NoteNumber:           dn.NoteNumber,
		MerchantID:           dn.MerchantID,
		RecoveryAmount:       dn.RecoveryAmount,
		RecoverySettlementID: recoveryID,
	}
}
