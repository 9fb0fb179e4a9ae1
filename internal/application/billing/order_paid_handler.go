package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/billing"
	ordr "github.com/ecommerized/adperfumes-sub001/internal/domain/order"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderPaidHandler issues the customer invoice when an order's payment
// completes
type OrderPaidHandler struct {
	invoiceRepo billing.InvoiceRepository
	orderRepo   ordr.OrderRepository
	sequencer   shared.NumberSequencer
	logger      *zap.Logger
}

// NewOrderPaidHandler creates a new handler for order paid events
func NewOrderPaidHandler(
	invoiceRepo billing.InvoiceRepository,
	orderRepo ordr.OrderRepository,
	sequencer shared.NumberSequencer,
	logger *zap.Logger,
) *OrderPaidHandler {
	return &OrderPaidHandler{
		invoiceRepo: invoiceRepo,
		orderRepo:   orderRepo,
		sequencer:   sequencer,
		logger:      logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *OrderPaidHandler) EventTypes() []string {
	return []string{ordr.EventTypeOrderPaid}
}

// Handle processes an OrderPaidEvent by issuing the order's invoice
func (h *OrderPaidHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	paidEvent, ok := event.(*ordr.OrderPaidEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", ordr.EventTypeOrderPaid),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			ordr.EventTypeOrderPaid, event.EventType())
	}

	h.logger.Info("processing order paid event for invoicing",
		zap.String("order_id", paidEvent.OrderID.String()),
		zap.String("order_number", paidEvent.OrderNumber),
		zap.String("grand_total", paidEvent.GrandTotal.String()),
	)

	// Idempotency check: a redelivered event must not issue a second invoice
	existing, err := h.invoiceRepo.FindByOrderID(ctx, paidEvent.TenantID(), paidEvent.OrderID)
	if err != nil {
		return fmt.Errorf("failed to check existing invoice: %w", err)
	}
	if existing != nil {
		h.logger.Warn("invoice already exists for order, skipping",
			zap.String("order_id", paidEvent.OrderID.String()),
			zap.String("invoice_number", existing.InvoiceNumber),
		)
		return nil
	}

	order, err := h.orderRepo.FindByID(ctx, paidEvent.TenantID(), paidEvent.OrderID)
	if err != nil {
		return fmt.Errorf("failed to load order: %w", err)
	}
	if order == nil {
		return fmt.Errorf("order %s not found", paidEvent.OrderID)
	}

	now := time.Now()
	seq, err := h.sequencer.Next(ctx, shared.PrefixInvoice, shared.MonthlyPeriod(now))
	if err != nil {
		return fmt.Errorf("failed to generate invoice number: %w", err)
	}
	number := shared.FormatDocumentNumber(shared.PrefixInvoice, shared.MonthlyPeriod(now), seq)

	inv, err := billing.NewInvoice(paidEvent.TenantID(), number, order.ID, order.OrderNumber, order.CustomerID)
	if err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	// Spread the order tax across lines by subtotal so the invoice total
	// matches the order to the fils
	remainingTax := order.TaxAmount
	for i := range order.Items {
		item := &order.Items[i]
		lineTax := decimal.Zero
		if order.Subtotal.IsPositive() {
			if i == len(order.Items)-1 {
				lineTax = remainingTax
			} else {
				lineTax = order.TaxAmount.Mul(item.Subtotal).Div(order.Subtotal).Round(2)
				remainingTax = remainingTax.Sub(lineTax)
			}
		}
		if _, err := inv.AddItem(item.ID, item.BrandName+" "+item.ProductName, item.Quantity, item.Price, lineTax); err != nil {
			return fmt.Errorf("failed to add invoice line: %w", err)
		}
	}

	if err := inv.Issue(); err != nil {
		return fmt.Errorf("failed to issue invoice: %w", err)
	}
	if err := h.invoiceRepo.Save(ctx, inv); err != nil {
		return fmt.Errorf("failed to save invoice: %w", err)
	}

	h.logger.Info("invoice issued",
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("order_number", order.OrderNumber),
		zap.String("grand_total", inv.GrandTotal.String()),
	)

	return nil
}

// Ensure OrderPaidHandler implements shared.EventHandler
var _ shared.EventHandler = (*OrderPaidHandler)(nil)
