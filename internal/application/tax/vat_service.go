package tax

import (
	"context"
	"fmt"
	"time"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/audit"
	ordr "github.com/ecommerized/adperfumes-sub001/internal/domain/order"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/tax"
	"github.com/ecommerized/adperfumes-sub001/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// vatDriftTolerance is the largest gap between the VAT charged on orders and
// the rate-derived output VAT that is attributed to per-line rounding
var vatDriftTolerance = decimal.NewFromInt(1)

// ComplianceService prepares, files and tracks VAT returns for the quarterly
// (or monthly) reporting cycle
type ComplianceService struct {
	returnRepo    tax.VatReturnRepository
	expenseRepo   tax.ExpenseRepository
	eventRepo     tax.ComplianceEventRepository
	orderRepo     ordr.OrderRepository
	txLogRepo     audit.TransactionLogRepository
	sequencer     shared.NumberSequencer
	publisher     shared.EventPublisher
	vatRate       decimal.Decimal
	logger        *zap.Logger
	reminderAhead time.Duration
}

// ComplianceOption configures the ComplianceService
type ComplianceOption func(*ComplianceService)

// WithReminderLeadTime sets how far before the filing deadline the reminder
// event is scheduled
func WithReminderLeadTime(d time.Duration) ComplianceOption {
	return func(s *ComplianceService) {
		s.reminderAhead = d
	}
}

// NewComplianceService creates a ComplianceService
func NewComplianceService(
	returnRepo tax.VatReturnRepository,
	expenseRepo tax.ExpenseRepository,
	eventRepo tax.ComplianceEventRepository,
	orderRepo ordr.OrderRepository,
	txLogRepo audit.TransactionLogRepository,
	sequencer shared.NumberSequencer,
	publisher shared.EventPublisher,
	vatRate decimal.Decimal,
	logger *zap.Logger,
	opts ...ComplianceOption,
) *ComplianceService {
	s := &ComplianceService{
		returnRepo:    returnRepo,
		expenseRepo:   expenseRepo,
		eventRepo:     eventRepo,
		orderRepo:     orderRepo,
		txLogRepo:     txLogRepo,
		sequencer:     sequencer,
		publisher:     publisher,
		vatRate:       vatRate,
		logger:        logger,
		reminderAhead: 7 * 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// VatReturnResponse represents a VAT return in API responses
type VatReturnResponse struct {
	ID                  uuid.UUID        `json:"id"`
	ReturnNumber        string           `json:"return_number"`
	PeriodType          tax.PeriodType   `json:"period_type"`
	PeriodStart         time.Time        `json:"period_start"`
	PeriodEnd           time.Time        `json:"period_end"`
	OutputVatAmount     decimal.Decimal  `json:"output_vat_amount"`
	InputVatReclaimable decimal.Decimal  `json:"input_vat_reclaimable"`
	Adjustments         decimal.Decimal  `json:"adjustments"`
	NetVatPayable       decimal.Decimal  `json:"net_vat_payable"`
	Status              tax.ReturnStatus `json:"status"`
	FilingDeadline      time.Time        `json:"filing_deadline"`
	IsAmendment         bool             `json:"is_amendment"`
	OriginalReturnID    *uuid.UUID       `json:"original_return_id,omitempty"`
	FiledAt             *time.Time       `json:"filed_at,omitempty"`
	PaidAt              *time.Time       `json:"paid_at,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
}

func toVatReturnResponse(v *tax.VatReturn) *VatReturnResponse {
	return &VatReturnResponse{
		ID:                  v.ID,
		ReturnNumber:        v.ReturnNumber,
		PeriodType:          v.PeriodType,
		PeriodStart:         v.PeriodStart,
		PeriodEnd:           v.PeriodEnd,
		OutputVatAmount:     v.OutputVatAmount,
		InputVatReclaimable: v.InputVatReclaimable,
		Adjustments:         v.Adjustments,
		NetVatPayable:       v.NetVatPayable,
		Status:              v.Status,
		FilingDeadline:      v.FilingDeadline,
		IsAmendment:         v.IsAmendment,
		OriginalReturnID:    v.OriginalReturnID,
		FiledAt:             v.FiledAt,
		PaidAt:              v.PaidAt,
		CreatedAt:           v.CreatedAt,
	}
}

// PrepareReturn drafts the VAT return for a reporting period. Output VAT is
// the standard rate applied to paid order subtotals in the window, input VAT
// comes from approved reclaimable expenses not yet folded into an earlier
// return. Counted expenses are attached to the draft so filing claims exactly
// what was prepared. One return per period.
func (s *ComplianceService) PrepareReturn(ctx context.Context, tenantID uuid.UUID, periodType tax.PeriodType, periodStart, periodEnd time.Time, adjustments decimal.Decimal) (*VatReturnResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "tax", "prepare_return")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrTenantID, tenantID.String())

	existing, err := s.returnRepo.FindByPeriod(ctx, tenantID, periodStart, periodEnd)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to check existing return: %w", err)
	}
	if existing != nil && existing.Status != tax.ReturnStatusAmended {
		return nil, shared.NewDomainError("RETURN_EXISTS", "A VAT return already covers this period")
	}

	period := periodKey(periodType, periodStart)
	seq, err := s.sequencer.Next(ctx, shared.PrefixVatReturn, period)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to generate return number: %w", err)
	}
	number := shared.FormatVatReturnNumber(period, seq)

	ret, err := tax.NewVatReturn(tenantID, number, periodType, periodStart, periodEnd)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	paidSubtotals, err := s.orderRepo.SumPaidSubtotalsInPeriod(ctx, tenantID, periodStart, periodEnd)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to sum taxable sales: %w", err)
	}
	outputVat := paidSubtotals.Mul(s.vatRate).Div(decimal.NewFromInt(100)).Round(2)

	// The tax stored on orders is what was charged at checkout; per-line
	// rounding can leave it a few fils off the rate-derived figure. Anything
	// beyond that points at mispriced orders and needs a human look.
	chargedVat, err := s.orderRepo.SumPaidTaxInPeriod(ctx, tenantID, periodStart, periodEnd)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to sum charged VAT: %w", err)
	}
	if drift := chargedVat.Sub(outputVat).Abs(); drift.GreaterThan(vatDriftTolerance) {
		s.logger.Warn("charged VAT diverges from rate-derived output VAT",
			zap.String("period", period),
			zap.String("charged_vat", chargedVat.String()),
			zap.String("output_vat", outputVat.String()),
			zap.String("drift", drift.String()),
		)
	}

	expenses, err := s.expenseRepo.FindUnreclaimedInPeriod(ctx, tenantID, periodStart, periodEnd)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load expenses: %w", err)
	}
	inputVat := decimal.Zero
	for _, e := range expenses {
		inputVat = inputVat.Add(e.VatAmount)
	}

	if err := ret.SetAmounts(outputVat, inputVat, adjustments); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.returnRepo.Save(ctx, ret); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save return: %w", err)
	}

	for _, e := range expenses {
		if err := e.AttachToReturn(ret.ID); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		if err := s.expenseRepo.Save(ctx, e); err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("failed to save expense: %w", err)
		}
	}

	s.appendLog(ctx, tenantID, ret.ID, "vat_return.prepared", nil, map[string]any{
		"return_number":   ret.ReturnNumber,
		"output_vat":      ret.OutputVatAmount.String(),
		"input_vat":       ret.InputVatReclaimable.String(),
		"net_vat_payable": ret.NetVatPayable.String(),
	})

	s.logger.Info("vat return prepared",
		zap.String("return_number", ret.ReturnNumber),
		zap.String("net_vat_payable", ret.NetVatPayable.String()),
		zap.Time("filing_deadline", ret.FilingDeadline),
	)

	return toVatReturnResponse(ret), nil
}

// SubmitForReview moves a draft return into review
func (s *ComplianceService) SubmitForReview(ctx context.Context, tenantID, returnID uuid.UUID) (*VatReturnResponse, error) {
	ret, err := s.loadReturn(ctx, tenantID, returnID)
	if err != nil {
		return nil, err
	}
	if err := ret.SubmitForReview(); err != nil {
		return nil, err
	}
	if err := s.returnRepo.Save(ctx, ret); err != nil {
		return nil, fmt.Errorf("failed to save return: %w", err)
	}
	return toVatReturnResponse(ret), nil
}

// ApproveReturn approves a reviewed return for filing
func (s *ComplianceService) ApproveReturn(ctx context.Context, tenantID, returnID uuid.UUID) (*VatReturnResponse, error) {
	ret, err := s.loadReturn(ctx, tenantID, returnID)
	if err != nil {
		return nil, err
	}
	if err := ret.Approve(); err != nil {
		return nil, err
	}
	if err := s.returnRepo.Save(ctx, ret); err != nil {
		return nil, fmt.Errorf("failed to save return: %w", err)
	}
	return toVatReturnResponse(ret), nil
}

// FileReturn records the submission to the tax authority. The expenses
// attached at preparation are marked reclaimed, the filing obligation is
// closed, and a payment (or refund follow-up) event is scheduled. Expenses
// recorded after preparation stay unattached and roll into the next return.
func (s *ComplianceService) FileReturn(ctx context.Context, tenantID, returnID uuid.UUID) (*VatReturnResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "tax", "file_return")
	defer span.End()

	ret, err := s.loadReturn(ctx, tenantID, returnID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrReturnNumber, ret.ReturnNumber)

	oldStatus := ret.Status
	if err := ret.MarkAsFiled(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.returnRepo.Save(ctx, ret); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save return: %w", err)
	}

	expenses, err := s.expenseRepo.FindByReturnID(ctx, tenantID, ret.ID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load expenses: %w", err)
	}
	for _, e := range expenses {
		if err := e.MarkVatReclaimed(ret.ID); err != nil {
			return nil, err
		}
		if err := s.expenseRepo.Save(ctx, e); err != nil {
			return nil, fmt.Errorf("failed to save expense: %w", err)
		}
	}

	if err := s.closeFilingEvents(ctx, tenantID, ret.ID); err != nil {
		return nil, err
	}
	if err := s.schedulePostFilingEvent(ctx, tenantID, ret); err != nil {
		return nil, err
	}

	s.appendLog(ctx, tenantID, ret.ID, "vat_return.filed",
		map[string]any{"status": oldStatus.String()},
		map[string]any{"status": ret.Status.String(), "net_vat_payable": ret.NetVatPayable.String()})

	s.publishEvents(ctx, ret.GetDomainEvents())
	ret.ClearDomainEvents()

	s.logger.Info("vat return filed",
		zap.String("return_number", ret.ReturnNumber),
		zap.String("status", ret.Status.String()),
	)

	return toVatReturnResponse(ret), nil
}

// MarkReturnPaid records the payment to the tax authority
func (s *ComplianceService) MarkReturnPaid(ctx context.Context, tenantID, returnID uuid.UUID) (*VatReturnResponse, error) {
	ret, err := s.loadReturn(ctx, tenantID, returnID)
	if err != nil {
		return nil, err
	}
	if err := ret.MarkAsPaid(); err != nil {
		return nil, err
	}
	if err := s.returnRepo.Save(ctx, ret); err != nil {
		return nil, fmt.Errorf("failed to save return: %w", err)
	}

	events, err := s.eventRepo.FindByVatReturnID(ctx, tenantID, ret.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load compliance events: %w", err)
	}
	for _, e := range events {
		if e.EventType != tax.CompliancePaymentDue || e.Status != tax.ComplianceStatusPending {
			continue
		}
		if err := e.Complete(); err != nil {
			return nil, err
		}
		if err := s.eventRepo.Save(ctx, e); err != nil {
			return nil, fmt.Errorf("failed to save compliance event: %w", err)
		}
	}

	s.appendLog(ctx, tenantID, ret.ID, "vat_return.paid", nil, map[string]any{
		"return_number": ret.ReturnNumber,
		"amount":        ret.NetVatPayable.String(),
	})
	return toVatReturnResponse(ret), nil
}

// MarkRefundReceived records the authority's refund for a negative net return
func (s *ComplianceService) MarkRefundReceived(ctx context.Context, tenantID, returnID uuid.UUID) (*VatReturnResponse, error) {
	ret, err := s.loadReturn(ctx, tenantID, returnID)
	if err != nil {
		return nil, err
	}
	if err := ret.MarkRefundReceived(); err != nil {
		return nil, err
	}
	if err := s.returnRepo.Save(ctx, ret); err != nil {
		return nil, fmt.Errorf("failed to save return: %w", err)
	}
	return toVatReturnResponse(ret), nil
}

// AmendReturn supersedes a filed return with a fresh linked draft carrying
// the correction
func (s *ComplianceService) AmendReturn(ctx context.Context, tenantID, returnID uuid.UUID, reason string) (*VatReturnResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "tax", "amend_return")
	defer span.End()

	ret, err := s.loadReturn(ctx, tenantID, returnID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	period := periodKey(ret.PeriodType, ret.PeriodStart)
	seq, err := s.sequencer.Next(ctx, shared.PrefixVatReturn, period)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to generate return number: %w", err)
	}
	childNumber := shared.FormatVatReturnNumber(period, seq)

	child, err := ret.Amend(childNumber, reason)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.returnRepo.Save(ctx, ret); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save amended return: %w", err)
	}
	if err := s.returnRepo.Save(ctx, child); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save amendment draft: %w", err)
	}

	s.appendLog(ctx, tenantID, ret.ID, "vat_return.amended",
		map[string]any{"return_number": ret.ReturnNumber},
		map[string]any{"child_return_number": child.ReturnNumber, "reason": reason})

	s.publishEvents(ctx, ret.GetDomainEvents())
	ret.ClearDomainEvents()

	return toVatReturnResponse(child), nil
}

// ScheduleFilingReminders creates the filing-due and reminder events for a
// prepared return. Idempotent per return.
func (s *ComplianceService) ScheduleFilingReminders(ctx context.Context, tenantID, returnID uuid.UUID) error {
	ret, err := s.loadReturn(ctx, tenantID, returnID)
	if err != nil {
		return err
	}

	existing, err := s.eventRepo.FindByVatReturnID(ctx, tenantID, ret.ID)
	if err != nil {
		return fmt.Errorf("failed to load compliance events: %w", err)
	}
	has := make(map[tax.ComplianceEventType]bool, len(existing))
	for _, e := range existing {
		has[e.EventType] = true
	}

	if !has[tax.ComplianceFilingDue] {
		event, err := tax.NewTaxComplianceEvent(tenantID, tax.ComplianceFilingDue, &ret.ID,
			"File VAT return "+ret.ReturnNumber, ret.FilingDeadline)
		if err != nil {
			return err
		}
		if err := s.eventRepo.Save(ctx, event); err != nil {
			return fmt.Errorf("failed to save compliance event: %w", err)
		}
	}
	if !has[tax.ComplianceReminder] {
		event, err := tax.NewTaxComplianceEvent(tenantID, tax.ComplianceReminder, &ret.ID,
			"VAT return "+ret.ReturnNumber+" due soon", ret.FilingDeadline.Add(-s.reminderAhead))
		if err != nil {
			return err
		}
		if err := s.eventRepo.Save(ctx, event); err != nil {
			return fmt.Errorf("failed to save compliance event: %w", err)
		}
	}
	return nil
}

// SweepOverdueEvents flags pending obligations past their due date and raises
// a penalty event for each overdue filing
func (s *ComplianceService) SweepOverdueEvents(ctx context.Context, tenantID uuid.UUID, now time.Time) (int, error) {
	pending, err := s.eventRepo.FindPending(ctx, tenantID)
	if err != nil {
		return 0, fmt.Errorf("failed to load pending events: %w", err)
	}

	flagged := 0
	for _, e := range pending {
		if !e.DueDate.Before(now) {
			continue
		}
		if err := e.MarkOverdue(now); err != nil {
			return flagged, err
		}
		if err := s.eventRepo.Save(ctx, e); err != nil {
			return flagged, fmt.Errorf("failed to save compliance event: %w", err)
		}
		flagged++

		if e.EventType == tax.ComplianceFilingDue && e.VatReturnID != nil {
			penalty, err := tax.NewTaxComplianceEvent(tenantID, tax.CompliancePenalty, e.VatReturnID,
				"Late filing penalty exposure", now)
			if err != nil {
				return flagged, err
			}
			if err := s.eventRepo.Save(ctx, penalty); err != nil {
				return flagged, fmt.Errorf("failed to save penalty event: %w", err)
			}
		}

		s.logger.Warn("compliance obligation overdue",
			zap.String("event_type", string(e.EventType)),
			zap.Time("due_date", e.DueDate),
		)
	}
	return flagged, nil
}

// RecordExpense captures a business expense. It starts pending and counts
// toward input VAT only after approval, and only when its VAT is reclaimable
func (s *ComplianceService) RecordExpense(ctx context.Context, tenantID uuid.UUID, description, category string, amount, vatAmount decimal.Decimal, expenseDate time.Time, isVatReclaimable bool) (*tax.Expense, error) {
	e, err := tax.NewExpense(tenantID, description, category, amount, vatAmount, expenseDate, isVatReclaimable)
	if err != nil {
		return nil, err
	}
	if err := s.expenseRepo.Save(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to save expense: %w", err)
	}
	return e, nil
}

// ApproveExpense confirms a recorded expense so its VAT can be reclaimed
func (s *ComplianceService) ApproveExpense(ctx context.Context, tenantID, expenseID uuid.UUID) (*tax.Expense, error) {
	e, err := s.expenseRepo.FindByID(ctx, tenantID, expenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	if e == nil {
		return nil, shared.ErrNotFound
	}

	oldStatus := e.Status
	if err := e.Approve(); err != nil {
		return nil, err
	}
	if err := s.expenseRepo.Save(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to save expense: %w", err)
	}

	entry, err := audit.NewTransactionLog(tenantID, audit.LoggableExpense, e.ID, "expense.approved",
		map[string]any{"status": oldStatus.String()},
		map[string]any{"status": e.Status.String()}, "system")
	if err != nil {
		s.logger.Error("failed to build audit entry", zap.String("action", "expense.approved"), zap.Error(err))
	} else if err := s.txLogRepo.Append(ctx, entry); err != nil {
		s.logger.Error("failed to append audit entry", zap.String("action", "expense.approved"), zap.Error(err))
	}

	return e, nil
}

// GetReturn returns one VAT return by ID
func (s *ComplianceService) GetReturn(ctx context.Context, tenantID, id uuid.UUID) (*VatReturnResponse, error) {
	ret, err := s.loadReturn(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toVatReturnResponse(ret), nil
}

// ListReturns lists all VAT returns for a tenant
func (s *ComplianceService) ListReturns(ctx context.Context, tenantID uuid.UUID) ([]*VatReturnResponse, error) {
	returns, err := s.returnRepo.FindAll(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list returns: %w", err)
	}
	out := make([]*VatReturnResponse, 0, len(returns))
	for _, ret := range returns {
		out = append(out, toVatReturnResponse(ret))
	}
	return out, nil
}

// ComplianceEventResponse represents an open compliance obligation in API
// responses
type ComplianceEventResponse struct {
	ID          uuid.UUID                 `json:"id"`
	EventType   tax.ComplianceEventType   `json:"event_type"`
	VatReturnID *uuid.UUID                `json:"vat_return_id,omitempty"`
	Description string                    `json:"description"`
	DueDate     time.Time                 `json:"due_date"`
	Status      tax.ComplianceEventStatus `json:"status"`
}

// ListPendingObligations lists open compliance obligations for a tenant,
// nearest deadline first
func (s *ComplianceService) ListPendingObligations(ctx context.Context, tenantID uuid.UUID) ([]*ComplianceEventResponse, error) {
	events, err := s.eventRepo.FindPending(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list compliance events: %w", err)
	}
	out := make([]*ComplianceEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, &ComplianceEventResponse{
			ID:          e.ID,
			EventType:   e.EventType,
			VatReturnID: e.VatReturnID,
			Description: e.Description,
			DueDate:     e.DueDate,
			Status:      e.Status,
		})
	}
	return out, nil
}

func (s *ComplianceService) loadReturn(ctx context.Context, tenantID, id uuid.UUID) (*tax.VatReturn, error) {
	ret, err := s.returnRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get return: %w", err)
	}
	if ret == nil {
		return nil, shared.ErrNotFound
	}
	return ret, nil
}

// closeFilingEvents completes the filing obligation and its reminder once
// the return has been filed
func (s *ComplianceService) closeFilingEvents(ctx context.Context, tenantID, returnID uuid.UUID) error {
	events, err := s.eventRepo.FindByVatReturnID(ctx, tenantID, returnID)
	if err != nil {
		return fmt.Errorf("failed to load compliance events: %w", err)
	}
	for _, e := range events {
		if e.Status != tax.ComplianceStatusPending {
			continue
		}
		if e.EventType != tax.ComplianceFilingDue && e.EventType != tax.ComplianceReminder {
			continue
		}
		if err := e.Complete(); err != nil {
			return err
		}
		if err := s.eventRepo.Save(ctx, e); err != nil {
			return fmt.Errorf("failed to save compliance event: %w", err)
		}
	}
	return nil
}

// schedulePostFilingEvent creates the payment-due obligation, or for a
// negative net position a reminder to chase the authority's refund
func (s *ComplianceService) schedulePostFilingEvent(ctx context.Context, tenantID uuid.UUID, ret *tax.VatReturn) error {
	eventType := tax.CompliancePaymentDue
	description := "Pay VAT return " + ret.ReturnNumber
	if ret.NetVatPayable.IsNegative() {
		eventType = tax.ComplianceReminder
		description = "Track refund for VAT return " + ret.ReturnNumber
	}

	event, err := tax.NewTaxComplianceEvent(tenantID, eventType, &ret.ID, description, ret.FilingDeadline)
	if err != nil {
		return err
	}
	if err := s.eventRepo.Save(ctx, event); err != nil {
		return fmt.Errorf("failed to save compliance event: %w", err)
	}
	return nil
}

func periodKey(periodType tax.PeriodType, periodStart time.Time) string {
	if periodType == tax.PeriodMonthly {
		return shared.MonthlyPeriod(periodStart)
	}
	return shared.QuarterlyPeriod(periodStart)
}

func (s *ComplianceService) appendLog(ctx context.Context, tenantID, returnID uuid.UUID, action string, oldValues, newValues map[string]any) {
	entry, err := audit.NewTransactionLog(tenantID, audit.LoggableVatReturn, returnID, action, oldValues, newValues, "system")
	if err != nil {
		s.logger.Error("failed to build audit entry", zap.String("action", action), zap.Error(err))
		return
	}
	if err := s.txLogRepo.Append(ctx, entry); err != nil {
		s.logger.Error("failed to append audit entry", zap.String("action", action), zap.Error(err))
	}
}

func (s *ComplianceService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
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
