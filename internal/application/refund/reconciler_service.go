package refund

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/audit"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/billing"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/commission"
	ordr "github.com/ecommerized/adperfumes-sub001/internal/domain/order"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/refund"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/settlement"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared"
	"github.com/ecommerized/adperfumes-sub001/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderLocker serializes refund processing per order. Two refunds against the
// same order must never compute their refundable balance from the same read.
type OrderLocker interface {
	// WithLock runs fn while holding an exclusive lock on the order
	WithLock(ctx context.Context, orderID uuid.UUID, fn func(ctx context.Context) error) error
}

// ReconcilerService processes approved refunds: stock restoration, credit
// note issuance, and the pre- versus post-settlement money path
type ReconcilerService struct {
	refundRepo     refund.RefundRepository
	orderRepo      ordr.OrderRepository
	merchantRepo   commission.MerchantRepository
	settlementRepo settlement.SettlementRepository
	debitNoteRepo  settlement.DebitNoteRepository
	invoiceRepo    billing.InvoiceRepository
	creditNoteRepo billing.CreditNoteRepository
	txLogRepo      audit.TransactionLogRepository
	sequencer      shared.NumberSequencer
	locker         OrderLocker
	txScope        TransactionScope
	publisher      shared.EventPublisher
	vatRate        decimal.Decimal
	logger         *zap.Logger
}

// NewReconcilerService creates a ReconcilerService
func NewReconcilerService(
	refundRepo refund.RefundRepository,
	orderRepo ordr.OrderRepository,
	merchantRepo commission.MerchantRepository,
	settlementRepo settlement.SettlementRepository,
	debitNoteRepo settlement.DebitNoteRepository,
	invoiceRepo billing.InvoiceRepository,
	creditNoteRepo billing.CreditNoteRepository,
	txLogRepo audit.TransactionLogRepository,
	sequencer shared.NumberSequencer,
	locker OrderLocker,
	txScope TransactionScope,
	publisher shared.EventPublisher,
	vatRate decimal.Decimal,
	logger *zap.Logger,
) *ReconcilerService {
	return &ReconcilerService{
		refundRepo:     refundRepo,
		orderRepo:      orderRepo,
		merchantRepo:   merchantRepo,
		settlementRepo: settlementRepo,
		debitNoteRepo:  debitNoteRepo,
		invoiceRepo:    invoiceRepo,
		creditNoteRepo: creditNoteRepo,
		txLogRepo:      txLogRepo,
		sequencer:      sequencer,
		locker:         locker,
		txScope:        txScope,
		publisher:      publisher,
		vatRate:        vatRate,
		logger:         logger,
	}
}

// RefundResponse represents a refund in API responses
type RefundResponse struct {
	ID                      uuid.UUID       `json:"id"`
	RefundNumber            string          `json:"refund_number"`
	OrderID                 uuid.UUID       `json:"order_id"`
	OrderNumber             string          `json:"order_number"`
	MerchantID              uuid.UUID       `json:"merchant_id"`
	Type                    refund.Type     `json:"type"`
	ReasonCategory          string          `json:"reason_category"`
	RefundSubtotal          decimal.Decimal `json:"refund_subtotal"`
	RefundTax               decimal.Decimal `json:"refund_tax"`
	RefundTotal             decimal.Decimal `json:"refund_total"`
	CommissionReversed      decimal.Decimal `json:"commission_reversed"`
	CommissionTaxReversed   decimal.Decimal `json:"commission_tax_reversed"`
	TotalCommissionReversed decimal.Decimal `json:"total_commission_reversed"`
	IsPostSettlement        bool            `json:"is_post_settlement"`
	MerchantRecoveryAmount  decimal.Decimal `json:"merchant_recovery_amount"`
	Status                  refund.Status   `json:"status"`
	CompletedAt             *time.Time      `json:"completed_at,omitempty"`
	CreatedAt               time.Time       `json:"created_at"`
}

func toRefundResponse(r *refund.Refund) *RefundResponse {
	return &RefundResponse{
		ID:                      r.ID,
		RefundNumber:            r.RefundNumber,
		OrderID:                 r.OrderID,
		OrderNumber:             r.OrderNumber,
		MerchantID:              r.MerchantID,
		Type:                    r.Type,
		ReasonCategory:          r.ReasonCategory,
		RefundSubtotal:          r.RefundSubtotal,
		RefundTax:               r.RefundTax,
		RefundTotal:             r.RefundTotal,
		CommissionReversed:      r.CommissionReversed,
		CommissionTaxReversed:   r.CommissionTaxReversed,
		TotalCommissionReversed: r.TotalCommissionReversed,
		IsPostSettlement:        r.IsPostSettlement,
		MerchantRecoveryAmount:  r.MerchantRecoveryAmount,
		Status:                  r.Status,
		CompletedAt:             r.CompletedAt,
		CreatedAt:               r.CreatedAt,
	}
}

// RequestRefundInput carries a new refund request
type RequestRefundInput struct {
	TenantID       uuid.UUID
	OrderID        uuid.UUID
	MerchantID     uuid.UUID
	Type           refund.Type
	ReasonCategory string
	Items          []RequestRefundItem
}

// RequestRefundItem is one line of a refund request
type RequestRefundItem struct {
	OrderItemID uuid.UUID
	Condition   refund.ItemCondition
	Quantity    int
}

// RequestRefund records a refund request against a paid order. Amounts come
// from the order item snapshots, never from the caller.
func (s *ReconcilerService) RequestRefund(ctx context.Context, input RequestRefundInput) (*RefundResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "refund", "request")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrOrderID, input.OrderID.String())

	order, err := s.orderRepo.FindByID(ctx, input.TenantID, input.OrderID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, shared.NewDomainError("ORDER_NOT_FOUND", "Order not found")
	}
	if !order.IsPaid() {
		return nil, shared.NewDomainError("ORDER_NOT_PAID", "Refunds require a paid order")
	}

	now := time.Now()
	seq, err := s.sequencer.Next(ctx, shared.PrefixRefund, shared.MonthlyPeriod(now))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to generate refund number: %w", err)
	}
	number := shared.FormatDocumentNumber(shared.PrefixRefund, shared.MonthlyPeriod(now), seq)

	r, err := refund.NewRefund(input.TenantID, number, order.ID, order.OrderNumber, input.MerchantID, input.Type, input.ReasonCategory)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	taxByMerchant := order.AllocateTax()
	merchantSubtotal := order.SubtotalForMerchant(input.MerchantID)
	for _, reqItem := range input.Items {
		orderItem := findOrderItem(order, reqItem.OrderItemID)
		if orderItem == nil {
			return nil, shared.NewDomainError("ORDER_ITEM_NOT_FOUND", "Order item not found on this order")
		}
		if orderItem.MerchantID != input.MerchantID {
			return nil, shared.NewDomainError("ITEM_MERCHANT_MISMATCH", "Order item belongs to another merchant")
		}
		if reqItem.Quantity < 1 || reqItem.Quantity > orderItem.Quantity {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Refund quantity exceeds the ordered quantity")
		}

		fraction := decimal.NewFromInt(int64(reqItem.Quantity)).Div(decimal.NewFromInt(int64(orderItem.Quantity)))
		subtotal := orderItem.Subtotal.Mul(fraction).Round(2)
		tax := itemTaxShare(orderItem.Subtotal, merchantSubtotal, taxByMerchant[input.MerchantID]).Mul(fraction).Round(2)

		if _, err := r.AddItem(orderItem.ID, orderItem.ProductName, reqItem.Quantity, subtotal, tax, reqItem.Condition); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	if err := s.refundRepo.Save(ctx, r); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save refund: %w", err)
	}

	s.publishEvents(ctx, r.GetDomainEvents())
	r.ClearDomainEvents()

	return toRefundResponse(r), nil
}

// ApproveRefund validates the refund against the order's remaining
// refundable balance under the per-order lock, then approves it. Validation
// only; the irreversible work happens in ProcessRefund.
func (s *ReconcilerService) ApproveRefund(ctx context.Context, tenantID, refundID uuid.UUID) (*RefundResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "refund", "approve")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrRefundID, refundID.String())

	r, err := s.refundRepo.FindByID(ctx, tenantID, refundID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to get refund: %w", err)
	}
	if r == nil {
		return nil, shared.ErrNotFound
	}

	err = s.locker.WithLock(ctx, r.OrderID, func(ctx context.Context) error {
		order, err := s.orderRepo.FindByID(ctx, tenantID, r.OrderID)
		if err != nil {
			return fmt.Errorf("failed to get order: %w", err)
		}
		if order == nil {
			return shared.NewDomainError("ORDER_NOT_FOUND", "Order not found")
		}

		alreadyRefunded, err := s.refundRepo.SumCommittedForOrder(ctx, tenantID, r.OrderID)
		if err != nil {
			return fmt.Errorf("failed to sum committed refunds: %w", err)
		}
		refundable := order.GrandTotal.Sub(alreadyRefunded)

		if err := r.Approve(refundable); err != nil {
			if errors.Is(err, shared.ErrRefundExceedsOrder) {
				// Over-limit requests are closed out, not left pending.
				if rejectErr := r.Reject("Refund total exceeds the order's refundable balance"); rejectErr == nil {
					if saveErr := s.refundRepo.Save(ctx, r); saveErr != nil {
						return fmt.Errorf("failed to save refund: %w", saveErr)
					}
					s.appendLog(ctx, tenantID, r.ID, "refund.rejected",
						map[string]any{"status": refund.StatusPending.String()},
						map[string]any{"status": r.Status.String(), "reason": r.RejectionReason})
				}
			}
			return err
		}
		return s.refundRepo.Save(ctx, r)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.appendLog(ctx, tenantID, r.ID, "refund.approved", nil, map[string]any{
		"refund_number": r.RefundNumber,
		"refund_total":  r.RefundTotal.String(),
	})
	s.publishEvents(ctx, r.GetDomainEvents())
	r.ClearDomainEvents()

	return toRefundResponse(r), nil
}

// RejectRefund declines a pending refund
func (s *ReconcilerService) RejectRefund(ctx context.Context, tenantID, refundID uuid.UUID, reason string) error {
	r, err := s.refundRepo.FindByID(ctx, tenantID, refundID)
	if err != nil {
		return fmt.Errorf("failed to get refund: %w", err)
	}
	if r == nil {
		return shared.ErrNotFound
	}

	oldStatus := r.Status
	if err := r.Reject(reason); err != nil {
		return err
	}
	if err := s.refundRepo.Save(ctx, r); err != nil {
		return fmt.Errorf("failed to save refund: %w", err)
	}

	s.appendLog(ctx, tenantID, r.ID, "refund.rejected",
		map[string]any{"status": oldStatus.String()},
		map[string]any{"status": r.Status.String(), "reason": reason})
	return nil
}

// ProcessRefund runs the irreversible reconciliation for an approved refund:
// stock restoration by item condition, credit note issuance, and the
// pre- or post-settlement money path. Serialized per order; reprocessing an
// already processed refund is a no-op.
func (s *ReconcilerService) ProcessRefund(ctx context.Context, tenantID, refundID uuid.UUID) (*RefundResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "refund", "process")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrRefundID, refundID.String())

	r, err := s.refundRepo.FindByID(ctx, tenantID, refundID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to get refund: %w", err)
	}
	if r == nil {
		return nil, shared.ErrNotFound
	}

	err = s.locker.WithLock(ctx, r.OrderID, func(ctx context.Context) error {
		// Re-read under the lock so a concurrent run's completion is seen
		r, err = s.refundRepo.FindByID(ctx, tenantID, refundID)
		if err != nil {
			return fmt.Errorf("failed to get refund: %w", err)
		}
		if r == nil {
			return shared.ErrNotFound
		}
		if r.IsProcessed() {
			return nil // Idempotent retry
		}
		return s.processLocked(ctx, tenantID, r)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		"refund_status", r.Status.String(),
		"is_post_settlement", r.IsPostSettlement,
	)
	return toRefundResponse(r), nil
}

// processLocked performs the reconciliation steps. Caller holds the
// per-order lock and has verified the refund is not yet processed.
func (s *ReconcilerService) processLocked(ctx context.Context, tenantID uuid.UUID, r *refund.Refund) error {
	oldStatus := r.Status
	if err := r.StartProcessing(); err != nil {
		return err
	}

	order, err := s.orderRepo.FindByID(ctx, tenantID, r.OrderID)
	if err != nil {
		return fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return shared.NewDomainError("ORDER_NOT_FOUND", "Order not found")
	}

	// Step 1: restore stock where the return condition allows it
	for i := range r.Items {
		if !r.Items[i].ItemCondition.RestoresStock() {
			continue
		}
		if err := r.RestoreStock(r.Items[i].ID); err != nil {
			return err
		}
	}

	// Step 2: commission reversal, proportional to the refunded share of the
	// merchant's subtotal on this order
	merchantSubtotal := order.SubtotalForMerchant(r.MerchantID)
	merchantCommission := order.CommissionForMerchant(r.MerchantID)
	var reversal decimal.Decimal
	if merchantSubtotal.IsPositive() {
		reversal = merchantCommission.Mul(r.RefundSubtotal).Div(merchantSubtotal).Round(2)
	}
	reversalTax := reversal.Mul(s.vatRate).Div(decimal.NewFromInt(100)).Round(2)
	if err := r.SetCommissionReversal(reversal, reversalTax, merchantCommission); err != nil {
		return err
	}

	// Step 3: credit note against the original invoice, guarded by the
	// unique refund reference for retried runs
	if err := s.issueCreditNote(ctx, tenantID, r, order); err != nil {
		return err
	}

	// Step 4: pre- versus post-settlement path. The settlement change and the
	// refund status change commit together or not at all.
	paidSettlement, err := s.settlementRepo.FindPaidContainingOrder(ctx, tenantID, r.OrderID, r.MerchantID)
	if err != nil {
		return fmt.Errorf("failed to check settlement state: %w", err)
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if paidSettlement == nil {
			if err := s.reducePendingSettlement(ctx, tenantID, r, repos.SettlementRepo()); err != nil {
				return err
			}
			if err := r.Complete(); err != nil {
				return err
			}
		} else {
			if err := s.createDebitNote(ctx, tenantID, r, paidSettlement.ID, repos.DebitNoteRepo()); err != nil {
				return err
			}
			if err := r.MarkRecoveryPending(r.RefundSubtotal, "NEXT_SETTLEMENT_DEDUCTION"); err != nil {
				return err
			}
		}
		if err := repos.RefundRepo().Save(ctx, r); err != nil {
			return fmt.Errorf("failed to save refund: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.appendLog(ctx, tenantID, r.ID, "refund.processed",
		map[string]any{"status": oldStatus.String()},
		map[string]any{
			"status":              r.Status.String(),
			"refund_total":        r.RefundTotal.String(),
			"commission_reversed": r.TotalCommissionReversed.String(),
			"is_post_settlement":  r.IsPostSettlement,
		})

	s.publishEvents(ctx, r.GetDomainEvents())
	r.ClearDomainEvents()

	s.logger.Info("refund processed",
		zap.String("refund_number", r.RefundNumber),
		zap.String("order_number", r.OrderNumber),
		zap.String("status", r.Status.String()),
		zap.Bool("post_settlement", r.IsPostSettlement),
	)

	return nil
}

// issueCreditNote creates the credit note unless one already exists for this
// refund (a retried run after a mid-flight failure)
func (s *ReconcilerService) issueCreditNote(ctx context.Context, tenantID uuid.UUID, r *refund.Refund, order *ordr.Order) error {
	existing, err := s.creditNoteRepo.FindByRefundID(ctx, tenantID, r.ID)
	if err != nil {
		return fmt.Errorf("failed to check existing credit note: %w", err)
	}
	if existing != nil {
		return nil
	}

	invoice, err := s.invoiceRepo.FindByOrderID(ctx, tenantID, r.OrderID)
	if err != nil {
		return fmt.Errorf("failed to get invoice: %w", err)
	}
	if invoice == nil {
		return shared.NewDomainError("INVOICE_NOT_FOUND", "No invoice issued for this order")
	}

	now := time.Now()
	seq, err := s.sequencer.Next(ctx, shared.PrefixCreditNote, shared.MonthlyPeriod(now))
	if err != nil {
		return fmt.Errorf("failed to generate credit note number: %w", err)
	}
	number := shared.FormatDocumentNumber(shared.PrefixCreditNote, shared.MonthlyPeriod(now), seq)

	cn, err := billing.NewCreditNote(tenantID, number, invoice.ID, r.ID, r.OrderID, order.CustomerID,
		r.RefundSubtotal, r.RefundTax, "Refund "+r.RefundNumber)
	if err != nil {
		return err
	}
	if err := s.creditNoteRepo.Save(ctx, cn); err != nil {
		return fmt.Errorf("failed to save credit note: %w", err)
	}

	s.publishEvents(ctx, cn.GetDomainEvents())
	cn.ClearDomainEvents()
	return nil
}

// reducePendingSettlement unwinds the refund from the merchant's pending
// settlement when the order is already folded into one. When no settlement
// holds the order yet, the reduction happens at settlement build time.
// Runs against the transaction-scoped settlement repository.
func (s *ReconcilerService) reducePendingSettlement(ctx context.Context, tenantID uuid.UUID, r *refund.Refund, settlementRepo settlement.SettlementRepository) error {
	pending, err := settlementRepo.FindPendingForMerchant(ctx, tenantID, r.MerchantID)
	if err != nil {
		return fmt.Errorf("failed to get pending settlement: %w", err)
	}
	if pending == nil || !pending.ContainsOrder(r.OrderID) {
		return nil
	}

	if err := pending.ReduceForRefund(settlement.RefundReduction{
		RefundID:         r.ID,
		Subtotal:         r.RefundSubtotal,
		TaxShare:         r.RefundTax,
		CommissionAmount: r.CommissionReversed,
	}); err != nil {
		return err
	}
	if err := settlementRepo.Save(ctx, pending); err != nil {
		return fmt.Errorf("failed to save settlement: %w", err)
	}

	s.appendLog(ctx, tenantID, r.ID, "refund.settlement_reduced", nil, map[string]any{
		"settlement_number": pending.SettlementNumber,
		"subtotal":          r.RefundSubtotal.String(),
	})
	return nil
}

// createDebitNote opens the recovery for a refund whose order was already
// paid out, unless one already exists for this refund. Runs against the
// transaction-scoped debit note repository.
func (s *ReconcilerService) createDebitNote(ctx context.Context, tenantID uuid.UUID, r *refund.Refund, paidSettlementID uuid.UUID, debitNoteRepo settlement.DebitNoteRepository) error {
	existing, err := debitNoteRepo.FindByRefundID(ctx, tenantID, r.ID)
	if err != nil {
		return fmt.Errorf("failed to check existing debit note: %w", err)
	}
	if existing != nil {
		return nil
	}

	merchant, err := s.merchantRepo.FindByID(ctx, tenantID, r.MerchantID)
	if err != nil {
		return fmt.Errorf("failed to get merchant: %w", err)
	}
	if merchant == nil {
		return shared.NewDomainError("MERCHANT_NOT_FOUND", "Merchant not found")
	}

	period := shared.MonthlyPeriod(time.Now())
	seq, err := s.sequencer.Next(ctx, shared.PrefixDebitNote, period+"-"+merchant.Code)
	if err != nil {
		return fmt.Errorf("failed to generate debit note number: %w", err)
	}
	number := shared.FormatDebitNoteNumber(period, merchant.Code, seq)

	dn, err := settlement.NewMerchantDebitNote(tenantID, number, r.MerchantID, r.ID, paidSettlementID,
		r.RefundSubtotal, r.CommissionReversed, "Refund "+r.RefundNumber+" after payout")
	if err != nil {
		return err
	}
	if err := debitNoteRepo.Save(ctx, dn); err != nil {
		return fmt.Errorf("failed to save debit note: %w", err)
	}

	s.publishEvents(ctx, dn.GetDomainEvents())
	dn.ClearDomainEvents()
	return nil
}

// ResolveRecoveredRefunds closes recovery_pending refunds whose debit note
// has been applied to a settlement. Called after settlement generation.
func (s *ReconcilerService) ResolveRecoveredRefunds(ctx context.Context, tenantID, merchantID uuid.UUID) error {
	status := refund.StatusRecoveryPending
	pending, err := s.refundRepo.FindAll(ctx, tenantID, refund.Filter{MerchantID: &merchantID, Status: &status})
	if err != nil {
		return fmt.Errorf("failed to list recovery-pending refunds: %w", err)
	}

	for _, r := range pending {
		note, err := s.debitNoteRepo.FindByRefundID(ctx, tenantID, r.ID)
		if err != nil {
			return fmt.Errorf("failed to get debit note for refund %s: %w", r.RefundNumber, err)
		}
		if note == nil || !note.IsApplied() || note.RecoverySettlementID == nil {
			continue
		}

		if err := r.ResolveRecovery(*note.RecoverySettlementID); err != nil {
			return err
		}
		if err := s.refundRepo.Save(ctx, r); err != nil {
			return fmt.Errorf("failed to save refund %s: %w", r.RefundNumber, err)
		}

		s.appendLog(ctx, tenantID, r.ID, "refund.recovery_resolved", nil, map[string]any{
			"refund_number":          r.RefundNumber,
			"recovery_settlement_id": note.RecoverySettlementID.String(),
		})
		s.publishEvents(ctx, r.GetDomainEvents())
		r.ClearDomainEvents()
	}
	return nil
}

// GetRefund returns one refund by ID
func (s *ReconcilerService) GetRefund(ctx context.Context, tenantID, id uuid.UUID) (*RefundResponse, error) {
	r, err := s.refundRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get refund: %w", err)
	}
	if r == nil {
		return nil, shared.ErrNotFound
	}
	return toRefundResponse(r), nil
}

// ListRefunds lists refunds for a tenant with pagination
func (s *ReconcilerService) ListRefunds(ctx context.Context, tenantID uuid.UUID, filter refund.Filter) (*shared.Paginated[*RefundResponse], error) {
	refunds, err := s.refundRepo.FindAll(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list refunds: %w", err)
	}
	total, err := s.refundRepo.Count(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count refunds: %w", err)
	}

	items := make([]*RefundResponse, 0, len(refunds))
	for _, r := range refunds {
		items = append(items, toRefundResponse(r))
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

func findOrderItem(o *ordr.Order, itemID uuid.UUID) *ordr.OrderItem {
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			return &o.Items[i]
		}
	}
	return nil
}

// itemTaxShare splits the merchant's allocated tax across its lines by
// subtotal proportion
func itemTaxShare(itemSubtotal, merchantSubtotal, merchantTax decimal.Decimal) decimal.Decimal {
	if merchantSubtotal.IsZero() {
		return decimal.Zero
	}
	return merchantTax.Mul(itemSubtotal).Div(merchantSubtotal)
}

func (s *ReconcilerService) appendLog(ctx context.Context, tenantID, refundID uuid.UUID, action string, oldValues, newValues map[string]any) {
	entry, err := audit.NewTransactionLog(tenantID, audit.LoggableRefund, refundID, action, oldValues, newValues, "system")
	if err != nil {
		s.logger.Error("failed to build audit entry", zap.String("action", action), zap.Error(err))
		return
	}
	if err := s.txLogRepo.Append(ctx, entry); err != nil {
		s.logger.Error("failed to append audit entry", zap.String("action", action), zap.Error(err))
	}
}

func (s *ReconcilerService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.publisher == nil {
		return
	}
	for _, event := range events {
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Error("failed to publish domain event",
				zap.String("event_type", event.EventType()), zap.Error(err))
		}
	}
}
