package jobs

import (
	"context"

	"go.uber.org/zap"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/refund"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/settlement"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/tax"
)

// NoticeEnqueuer is the queue surface the relay needs
type NoticeEnqueuer interface {
	EnqueueSettlementPaidNotice(payload SettlementPaidNoticePayload) error
	EnqueueRefundProcessedNotice(payload RefundProcessedNoticePayload) error
	EnqueueVatReturnFiledNotice(payload VatReturnFiledNoticePayload) error
}

// EventRelay subscribes to the in-process bus and turns money-movement events
// into queued notification tasks. The aggregate transaction has already
// committed when the bus publishes, so the task payload is durable state.
type EventRelay struct {
	enqueuer NoticeEnqueuer
	logger   *zap.Logger
}

// NewEventRelay creates an EventRelay
func NewEventRelay(enqueuer NoticeEnqueuer, logger *zap.Logger) *EventRelay {
	return &EventRelay{enqueuer: enqueuer, logger: logger}
}

// EventTypes returns the events the relay forwards
func (r *EventRelay) EventTypes() []string {
	return []string{
		settlement.SettlementPaidEventType,
		refund.RefundProcessedEventType,
		tax.VatReturnFiledEventType,
	}
}

// Handle converts one domain event into its notification task
func (r *EventRelay) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *settlement.SettlementPaidEvent:
		return r.enqueuer.EnqueueSettlementPaidNotice(SettlementPaidNoticePayload{
			TenantID:             e.TenantID(),
			SettlementID:         e.AggregateID(),
			SettlementNumber:     e.SettlementNumber,
			MerchantID:           e.MerchantID,
			NetPayout:            e.NetPayout,
			TransactionReference: e.TransactionReference,
		})
	case *refund.RefundProcessedEvent:
		return r.enqueuer.EnqueueRefundProcessedNotice(RefundProcessedNoticePayload{
			TenantID:         e.TenantID(),
			RefundID:         e.AggregateID(),
			RefundNumber:     e.RefundNumber,
			MerchantID:       e.MerchantID,
			RefundTotal:      e.RefundTotal,
			IsPostSettlement: e.IsPostSettlement,
		})
	case *tax.VatReturnFiledEvent:
		return r.enqueuer.EnqueueVatReturnFiledNotice(VatReturnFiledNoticePayload{
			TenantID:      e.TenantID(),
			VatReturnID:   e.AggregateID(),
			ReturnNumber:  e.ReturnNumber,
			NetVatPayable: e.NetVatPayable,
		})
	default:
		// Subscribed types and handled types can drift during refactors
		r.logger.Debug("relay ignoring event", zap.String("event_type", event.EventType()))
		return nil
	}
}

// Ensure EventRelay implements EventHandler
var _ shared.EventHandler = (*EventRelay)(nil)
