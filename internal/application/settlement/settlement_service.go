package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/audit"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/commission"
	ordr "github.com/ecommerized/adperfumes-sub001/internal/domain/order"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/refund"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/settlement"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared/valueobject"
	"github.com/ecommerized/adperfumes-sub001/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service generates merchant settlements from eligible paid orders, applies
// pending debit notes, and records payouts
type Service struct {
	settlementRepo settlement.SettlementRepository
	debitNoteRepo  settlement.DebitNoteRepository
	orderRepo      ordr.OrderRepository
	merchantRepo   commission.MerchantRepository
	refundRepo     refund.RefundRepository
	txLogRepo      audit.TransactionLogRepository
	sequencer      shared.NumberSequencer
	txScope        TransactionScope
	publisher      shared.EventPublisher
	vatRate        decimal.Decimal
	cycleDays      int
	logger         *zap.Logger
}

// ServiceOption configures the settlement Service
type ServiceOption func(*Service)

// WithPayoutCycle sets the settlement holding period. Orders become eligible
// for payout once they have been paid for at least this many days.
func WithPayoutCycle(days int) ServiceOption {
	return func(s *Service) {
		if days > 0 {
			s.cycleDays = days
		}
	}
}

// NewService creates a settlement Service
func NewService(
	settlementRepo settlement.SettlementRepository,
	debitNoteRepo settlement.DebitNoteRepository,
	orderRepo ordr.OrderRepository,
	merchantRepo commission.MerchantRepository,
	refundRepo refund.RefundRepository,
	txLogRepo audit.TransactionLogRepository,
	sequencer shared.NumberSequencer,
	txScope TransactionScope,
	publisher shared.EventPublisher,
	vatRate decimal.Decimal,
	logger *zap.Logger,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		settlementRepo: settlementRepo,
		debitNoteRepo:  debitNoteRepo,
		orderRepo:      orderRepo,
		merchantRepo:   merchantRepo,
		refundRepo:     refundRepo,
		txLogRepo:      txLogRepo,
		sequencer:      sequencer,
		txScope:        txScope,
		publisher:      publisher,
		vatRate:        vatRate,
		logger:         logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SettlementResponse represents a settlement in API responses
type SettlementResponse struct {
	ID                   uuid.UUID         `json:"id"`
	SettlementNumber     string            `json:"settlement_number"`
	MerchantID           uuid.UUID         `json:"merchant_id"`
	MerchantCode         string            `json:"merchant_code"`
	PayoutDate           time.Time         `json:"payout_date"`
	TotalOrderAmount     decimal.Decimal   `json:"total_order_amount"`
	TotalSubtotal        decimal.Decimal   `json:"total_subtotal"`
	TotalTax             decimal.Decimal   `json:"total_tax"`
	CommissionAmount     decimal.Decimal   `json:"commission_amount"`
	CommissionTax        decimal.Decimal   `json:"commission_tax"`
	TotalCommission      decimal.Decimal   `json:"total_commission"`
	Deductions           decimal.Decimal   `json:"deductions"`
	MerchantPayout       decimal.Decimal   `json:"merchant_payout"`
	NetPayout            decimal.Decimal   `json:"net_payout"`
	Status               settlement.Status `json:"status"`
	TransactionReference string            `json:"transaction_reference,omitempty"`
	PaidAt               *time.Time        `json:"paid_at,omitempty"`
	ItemCount            int               `json:"item_count"`
	CreatedAt            time.Time         `json:"created_at"`
}

func toSettlementResponse(s *settlement.Settlement) *SettlementResponse {
	return &SettlementResponse{
		ID:                   s.ID,
		SettlementNumber:     s.SettlementNumber,
		MerchantID:           s.MerchantID,
		MerchantCode:         s.MerchantCode,
		PayoutDate:           s.PayoutDate,
		TotalOrderAmount:     s.TotalOrderAmount,
		TotalSubtotal:        s.TotalSubtotal,
		TotalTax:             s.TotalTax,
		CommissionAmount:     s.CommissionAmount,
		CommissionTax:        s.CommissionTax,
		TotalCommission:      s.TotalCommission,
		Deductions:           s.Deductions,
		MerchantPayout:       s.MerchantPayout,
		NetPayout:            s.NetPayout,
		Status:               s.Status,
		TransactionReference: s.TransactionReference,
		PaidAt:               s.PaidAt,
		ItemCount:            len(s.Items),
		CreatedAt:            s.CreatedAt,
	}
}

// GenerateSettlement builds a pending settlement for one merchant payout
// cycle: all paid, not yet settled orders outside the holding period, with the
// merchant's pending debit notes applied as deductions. An order is eligible
// only while no non-cancelled settlement holds it, so cancelling a
// settlement returns its orders to the pool. Generation runs for one
// merchant must not overlap; the payout scheduler serializes them.
func (s *Service) GenerateSettlement(ctx context.Context, tenantID, merchantID uuid.UUID, payoutDate time.Time) (*SettlementResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "settlement", "generate")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrMerchantID, merchantID.String(),
	)

	merchant, err := s.merchantRepo.FindByID(ctx, tenantID, merchantID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to get merchant: %w", err)
	}
	if merchant == nil {
		err := shared.NewDomainError("MERCHANT_NOT_FOUND", "Merchant not found")
		telemetry.RecordError(span, err)
		return nil, err
	}

	paidBefore := payoutDate.AddDate(0, 0, -s.cycleDays)
	orders, err := s.orderRepo.FindUnsettledPaidForMerchant(ctx, tenantID, merchantID, paidBefore)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load eligible orders: %w", err)
	}
	if len(orders) == 0 {
		err := shared.NewDomainError("NO_ELIGIBLE_ORDERS", "No unsettled paid orders for this merchant")
		return nil, err
	}

	seq, err := s.sequencer.Next(ctx, shared.PrefixSettlement, shared.MonthlyPeriod(payoutDate))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to generate settlement number: %w", err)
	}
	number := shared.FormatDocumentNumber(shared.PrefixSettlement, shared.MonthlyPeriod(payoutDate), seq)

	stl, err := settlement.NewSettlement(tenantID, number, merchantID, merchant.Code, payoutDate, s.vatRate)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	calc := settlement.NewCalculator(s.vatRate)
	orderPtrs := make([]*ordr.Order, 0, len(orders))
	for i := range orders {
		orderPtrs = append(orderPtrs, &orders[i])
	}
	if err := calc.Build(stl, orderPtrs); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	// Refunds completed before the order was ever settled have not been
	// absorbed by any settlement yet; subtract them now.
	for _, o := range orderPtrs {
		if !stl.ContainsOrder(o.ID) {
			continue
		}
		reductions, err := s.refundRepo.ProcessedReductionsForOrder(ctx, tenantID, o.ID, merchantID)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("failed to load refund totals for order %s: %w", o.OrderNumber, err)
		}
		for _, red := range reductions {
			if !red.Subtotal.IsPositive() {
				continue
			}
			if err := stl.ReduceForRefund(settlement.RefundReduction{
				RefundID:         red.RefundID,
				Subtotal:         red.Subtotal,
				TaxShare:         red.Tax,
				CommissionAmount: red.Commission,
			}); err != nil {
				telemetry.RecordError(span, err)
				return nil, err
			}
		}
	}

	// Fold outstanding recoveries into this payout. Applying the notes and
	// creating the settlement belong to the same run so a note is never
	// orphaned or double-applied.
	pendingNotes, err := s.debitNoteRepo.FindPendingForMerchant(ctx, tenantID, merchantID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load pending debit notes: %w", err)
	}
	for _, note := range pendingNotes {
		if err := stl.ApplyDeduction(valueobject.NewMoneyAED(note.RecoveryAmount)); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		if err := note.ApplyToSettlement(stl.ID); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	// The settlement and the notes it applies land in one transaction; a note
	// is never marked applied without its settlement.
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.SettlementRepo().Save(ctx, stl); err != nil {
			return fmt.Errorf("failed to save settlement: %w", err)
		}
		for _, note := range pendingNotes {
			if err := repos.DebitNoteRepo().Save(ctx, note); err != nil {
				return fmt.Errorf("failed to save debit note %s: %w", note.NoteNumber, err)
			}
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	for _, note := range pendingNotes {
		s.publishEvents(ctx, note.GetDomainEvents())
		note.ClearDomainEvents()
	}

	s.appendLog(ctx, tenantID, audit.LoggableSettlement, stl.ID, "settlement.generated", nil, map[string]any{
		"settlement_number": stl.SettlementNumber,
		"net_payout":        stl.NetPayout.String(),
		"orders":            len(stl.Items),
		"deductions":        stl.Deductions.String(),
	})

	s.publishEvents(ctx, stl.GetDomainEvents())
	stl.ClearDomainEvents()

	s.logger.Info("settlement generated",
		zap.String("settlement_number", stl.SettlementNumber),
		zap.String("merchant_code", stl.MerchantCode),
		zap.String("net_payout", stl.NetPayout.String()),
		zap.Int("orders", len(stl.Items)),
	)

	return toSettlementResponse(stl), nil
}

// MarkSettlementPaid records the completed bank transfer for a settlement
func (s *Service) MarkSettlementPaid(ctx context.Context, tenantID, settlementID uuid.UUID, transactionReference string) (*SettlementResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "settlement", "mark_paid")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrSettlementID, settlementID.String())

	stl, err := s.settlementRepo.FindByID(ctx, tenantID, settlementID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}
	if stl == nil {
		return nil, shared.ErrNotFound
	}

	oldStatus := stl.Status
	if err := stl.MarkPaid(transactionReference); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.settlementRepo.Save(ctx, stl); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save settlement: %w", err)
	}

	s.appendLog(ctx, tenantID, audit.LoggableSettlement, stl.ID, "settlement.paid",
		map[string]any{"status": oldStatus.String()},
		map[string]any{"status": stl.Status.String(), "transaction_reference": transactionReference})

	s.publishEvents(ctx, stl.GetDomainEvents())
	stl.ClearDomainEvents()

	return toSettlementResponse(stl), nil
}

// CancelSettlement abandons a pending settlement so its orders can be
// settled in a later run
func (s *Service) CancelSettlement(ctx context.Context, tenantID, settlementID uuid.UUID, reason string) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "settlement", "cancel")
	defer span.End()

	stl, err := s.settlementRepo.FindByID(ctx, tenantID, settlementID)
	if err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("failed to get settlement: %w", err)
	}
	if stl == nil {
		return shared.ErrNotFound
	}

	oldStatus := stl.Status
	if err := stl.Cancel(reason); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	if err := s.settlementRepo.Save(ctx, stl); err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("failed to save settlement: %w", err)
	}

	s.appendLog(ctx, tenantID, audit.LoggableSettlement, stl.ID, "settlement.cancelled",
		map[string]any{"status": oldStatus.String()},
		map[string]any{"status": stl.Status.String(), "reason": reason})

	return nil
}

// GetSettlement returns one settlement by ID
func (s *Service) GetSettlement(ctx context.Context, tenantID, id uuid.UUID) (*SettlementResponse, error) {
	stl, err := s.settlementRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}
	if stl == nil {
		return nil, shared.ErrNotFound
	}
	return toSettlementResponse(stl), nil
}

// ListSettlements lists settlements for a tenant with pagination
func (s *Service) ListSettlements(ctx context.Context, tenantID uuid.UUID, filter settlement.Filter) (*shared.Paginated[*SettlementResponse], error) {
	settlements, err := s.settlementRepo.FindAll(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	total, err := s.settlementRepo.Count(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count settlements: %w", err)
	}

	items := make([]*SettlementResponse, 0, len(settlements))
	for _, stl := range settlements {
		items = append(items, toSettlementResponse(stl))
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// appendLog writes one audit entry; audit failures are logged, never fatal
// to the business operation that already committed
func (s *Service) appendLog(ctx context.Context, tenantID uuid.UUID, loggableType audit.LoggableType, loggableID uuid.UUID, action string, oldValues, newValues map[string]any) {
	entry, err := audit.NewTransactionLog(tenantID, loggableType, loggableID, action, oldValues, newValues, "system")
	if err != nil {
		s.logger.Error("failed to build audit entry", zap.String("action", action), zap.Error(err))
		return
	}
	if err := s.txLogRepo.Append(ctx, entry); err != nil {
		s.logger.Error("failed to append audit entry", zap.String("action", action), zap.Error(err))
	}
}

func (s *Service) publishEvents(ctx context.Context, events []shared.DomainEvent) {
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
