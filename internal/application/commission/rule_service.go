package commission

import (
	"context"
	"fmt"
	"time"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/commission"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared/valueobject"
	"github.com/ecommerized/adperfumes-sub001/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RuleService provides application-level commission rule management and rate
// resolution
type RuleService struct {
	ruleRepo     commission.CommissionRuleRepository
	merchantRepo commission.MerchantRepository
	engine       *commission.RuleEngine
}

// RuleServiceOption is a functional option for configuring RuleService
type RuleServiceOption func(*RuleService)

// WithRuleEngine injects a custom rule engine
func WithRuleEngine(engine *commission.RuleEngine) RuleServiceOption {
	return func(s *RuleService) {
		s.engine = engine
	}
}

// NewRuleService creates a new RuleService
func NewRuleService(
	ruleRepo commission.CommissionRuleRepository,
	merchantRepo commission.MerchantRepository,
	opts ...RuleServiceOption,
) *RuleService {
	s := &RuleService{
		ruleRepo:     ruleRepo,
		merchantRepo: merchantRepo,
		engine:       commission.NewRuleEngine(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRuleRequest carries the fields for a new commission rule
type CreateRuleRequest struct {
	TenantID       uuid.UUID
	Name           string
	Level          commission.RuleLevel
	Type           commission.RuleType
	MerchantID     *uuid.UUID
	CategoryID     *uuid.UUID
	ProductID      *uuid.UUID
	PercentageRate decimal.Decimal
	FixedAmount    decimal.Decimal
	Priority       int
	ValidFrom      *time.Time
	ValidUntil     *time.Time
	Tiers          []TierRequest
}

// TierRequest is one volume tier of a tiered rule
type TierRequest struct {
	MinVolume decimal.Decimal
	Rate      decimal.Decimal
}

// RuleResponse represents a commission rule in API responses
type RuleResponse struct {
	ID             uuid.UUID             `json:"id"`
	Name           string                `json:"name"`
	Level          commission.RuleLevel  `json:"level"`
	Type           commission.RuleType   `json:"type"`
	MerchantID     *uuid.UUID            `json:"merchant_id,omitempty"`
	CategoryID     *uuid.UUID            `json:"category_id,omitempty"`
	ProductID      *uuid.UUID            `json:"product_id,omitempty"`
	PercentageRate decimal.Decimal       `json:"percentage_rate"`
	FixedAmount    decimal.Decimal       `json:"fixed_amount"`
	Tiers          []commission.TierRule `json:"tiers,omitempty"`
	Priority       int                   `json:"priority"`
	IsActive       bool                  `json:"is_active"`
	ValidFrom      *time.Time            `json:"valid_from,omitempty"`
	ValidUntil     *time.Time            `json:"valid_until,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

func toRuleResponse(r *commission.CommissionRule) *RuleResponse {
	return &RuleResponse{
		ID:             r.ID,
		Name:           r.Name,
		Level:          r.Level,
		Type:           r.Type,
		MerchantID:     r.MerchantID,
		CategoryID:     r.CategoryID,
		ProductID:      r.ProductID,
		PercentageRate: r.PercentageRate,
		FixedAmount:    r.FixedAmount,
		Tiers:          r.Tiers,
		Priority:       r.Priority,
		IsActive:       r.IsActive,
		ValidFrom:      r.ValidFrom,
		ValidUntil:     r.ValidUntil,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// CreateRule validates and persists a new commission rule
func (s *RuleService) CreateRule(ctx context.Context, req CreateRuleRequest) (*RuleResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "commission_rule", "create")
	defer span.End()

	rule, err := commission.NewCommissionRule(
		req.TenantID, req.Name, req.Level, req.Type,
		req.MerchantID, req.CategoryID, req.ProductID,
		req.PercentageRate, req.FixedAmount, req.Priority,
	)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if req.ValidFrom != nil || req.ValidUntil != nil {
		if err := rule.SetValidity(req.ValidFrom, req.ValidUntil); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}
	for _, tier := range req.Tiers {
		if err := rule.AddTier(tier.MinVolume, tier.Rate); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	if err := s.ruleRepo.Save(ctx, rule); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save commission rule: %w", err)
	}

	telemetry.SetAttribute(span, "rule_id", rule.ID.String())
	return toRuleResponse(rule), nil
}

// GetRule returns one rule by ID
func (s *RuleService) GetRule(ctx context.Context, tenantID, id uuid.UUID) (*RuleResponse, error) {
	rule, err := s.ruleRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get commission rule: %w", err)
	}
	if rule == nil {
		return nil, shared.ErrNotFound
	}
	return toRuleResponse(rule), nil
}

// ListRules lists rules for a tenant with pagination
func (s *RuleService) ListRules(ctx context.Context, tenantID uuid.UUID, filter commission.CommissionRuleFilter) (*shared.Paginated[*RuleResponse], error) {
	rules, err := s.ruleRepo.FindAll(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list commission rules: %w", err)
	}
	total, err := s.ruleRepo.Count(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count commission rules: %w", err)
	}

	items := make([]*RuleResponse, 0, len(rules))
	for i := range rules {
		items = append(items, toRuleResponse(&rules[i]))
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// DeactivateRule retires a rule. Rules are never deleted; orders already
// priced against them keep their frozen commission.
func (s *RuleService) DeactivateRule(ctx context.Context, tenantID, id uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "commission_rule", "deactivate")
	defer span.End()
	telemetry.SetAttribute(span, "rule_id", id.String())

	rule, err := s.ruleRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("failed to get commission rule: %w", err)
	}
	if rule == nil {
		return shared.ErrNotFound
	}

	if err := rule.Deactivate(); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	if err := s.ruleRepo.Save(ctx, rule); err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("failed to save commission rule: %w", err)
	}
	return nil
}

// ResolveRateRequest describes one order line to price
type ResolveRateRequest struct {
	TenantID    uuid.UUID
	MerchantID  uuid.UUID
	ProductID   uuid.UUID
	CategoryIDs []uuid.UUID
	Subtotal    decimal.Decimal
	Date        time.Time
}

// ResolvedRateResponse is the outcome of rate resolution for one line
type ResolvedRateResponse struct {
	Rate         decimal.Decimal `json:"rate"`
	Amount       decimal.Decimal `json:"amount"`
	SourceRuleID *uuid.UUID      `json:"source_rule_id,omitempty"`
	Source       string          `json:"source"`
}

// ResolveRate resolves the commission for one order line. This is the entry
// point checkout uses to freeze the commission into the order item.
func (s *RuleService) ResolveRate(ctx context.Context, req ResolveRateRequest) (*commission.RateSpec, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "commission_rule", "resolve_rate")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrMerchantID, req.MerchantID.String(),
		telemetry.SpanAttrAmount, req.Subtotal.String(),
	)

	merchant, err := s.merchantRepo.FindByID(ctx, req.TenantID, req.MerchantID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to get merchant: %w", err)
	}
	if merchant == nil {
		err := shared.NewDomainError("MERCHANT_NOT_FOUND", "Merchant not found")
		telemetry.RecordError(span, err)
		return nil, err
	}

	rules, err := s.ruleRepo.FindCandidates(ctx, req.TenantID, req.MerchantID, req.ProductID, req.CategoryIDs)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load candidate rules: %w", err)
	}

	date := req.Date
	if date.IsZero() {
		date = time.Now()
	}
	spec, err := s.engine.ResolveRate(commission.ResolutionContext{
		Merchant:    merchant,
		ProductID:   req.ProductID,
		CategoryIDs: req.CategoryIDs,
		Subtotal:    valueobject.NewMoneyAED(req.Subtotal),
		Date:        date,
	}, rules)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		"commission_source", spec.Source,
		"commission_rate", spec.Rate.String(),
	)
	return spec, nil
}

// ToResolvedRateResponse converts a rate spec into its API shape
func ToResolvedRateResponse(spec *commission.RateSpec) *ResolvedRateResponse {
	return &ResolvedRateResponse{
		Rate:         spec.Rate,
		Amount:       spec.Amount.Amount(),
		SourceRuleID: spec.SourceRuleID,
		Source:       spec.Source,
	}
}
