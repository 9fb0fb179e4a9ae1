package settlement

import (
	"context"
	"time"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared"
	"github.com/google/uuid"
)

// Filter defines query criteria for settlements
type Filter struct {
	shared.Filter
	MerchantID *uuid.UUID
	Status     *Status
	From       *time.Time
	To         *time.Time
}

// SettlementRepository defines the persistence interface for settlements
type SettlementRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Settlement, error)
	FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*Settlement, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter Filter) ([]*Settlement, error)
	FindPendingForMerchant(ctx context.Context, tenantID, merchantID uuid.UUID) (*Settlement, error)
	FindPaidContainingOrder(ctx context.Context, tenantID, orderID, merchantID uuid.UUID) (*Settlement, error)
	Save(ctx context.Context, s *Settlement) error
	Count(ctx context.Context, tenantID uuid.UUID, filter Filter) (int64, error)
}

// DebitNoteRepository defines the persistence interface for merchant debit notes
type DebitNoteRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*MerchantDebitNote, error)
	FindByRefundID(ctx context.Context, tenantID, refundID uuid.UUID) (*MerchantDebitNote, error)
	FindPendingForMerchant(ctx context.Context, tenantID, merchantID uuid.UUID) ([]*MerchantDebitNote, error)
	Save(ctx context.Context, dn *MerchantDebitNote) error
}
