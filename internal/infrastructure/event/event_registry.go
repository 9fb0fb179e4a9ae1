package event

import (
	"github.com/ecommerized/adperfumes-sub001/internal/domain/billing"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/commission"
	ordr "github.com/ecommerized/adperfumes-sub001/internal/domain/order"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/refund"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/settlement"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/tax"
)

// RegisterAllEvents registers all domain event types with the serializer.
// This is required for the OutboxProcessor to deserialize events from the outbox table.
func RegisterAllEvents(serializer *EventSerializer) {
	// Order events
	serializer.Register(ordr.EventTypeOrderPaid, &ordr.OrderPaidEvent{})

	// Commission events
	serializer.Register(commission.EventTypeCommissionRuleCreated, &commission.CommissionRuleCreatedEvent{})
	serializer.Register(commission.EventTypeCommissionRuleDeactivated, &commission.CommissionRuleDeactivatedEvent{})

	// Refund events
	serializer.Register(refund.RefundRequestedEventType, &refund.RefundRequestedEvent{})
	serializer.Register(refund.RefundApprovedEventType, &refund.RefundApprovedEvent{})
	serializer.Register(refund.RefundProcessedEventType, &refund.RefundProcessedEvent{})
	serializer.Register(refund.RefundRecoveryResolvedEventType, &refund.RefundRecoveryResolvedEvent{})

	// Settlement and debit note events
	serializer.Register(settlement.SettlementCreatedEventType, &settlement.SettlementCreatedEvent{})
	serializer.Register(settlement.SettlementPaidEventType, &settlement.SettlementPaidEvent{})
	serializer.Register(settlement.DebitNoteCreatedEventType, &settlement.DebitNoteCreatedEvent{})
	serializer.Register(settlement.DebitNoteAppliedEventType, &settlement.DebitNoteAppliedEvent{})

	// Billing events
	serializer.Register(billing.InvoiceIssuedEventType, &billing.InvoiceIssuedEvent{})
	serializer.Register(billing.CreditNoteIssuedEventType, &billing.CreditNoteIssuedEvent{})

	// Tax events
	serializer.Register(tax.VatReturnFiledEventType, &tax.VatReturnFiledEvent{})
	serializer.Register(tax.VatReturnAmendedEventType, &tax.VatReturnAmendedEvent{})
}
