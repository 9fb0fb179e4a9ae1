package commission

import (
	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant for CommissionRule
const AggregateTypeCommissionRule = "CommissionRule"

// Event type constants for CommissionRule
const (
	EventTypeCommissionRuleCreated     = "CommissionRuleCreated"
	EventTypeCommissionRuleDeactivated = "CommissionRuleDeactivated"
)

// CommissionRuleCreatedEvent is raised when a new commission rule is created
type CommissionRuleCreatedEvent struct {
	shared.BaseDomainEvent
	RuleID         uuid.UUID       `json:"rule_id"`
	Name           string          `json:"name"`
	Level          RuleLevel       `json:"level"`
	RuleType       RuleType        `json:"rule_type"`
	PercentageRate decimal.Decimal `json:"percentage_rate"`
	FixedAmount    decimal.Decimal `json:"fixed_amount"`
	Priority       int             `json:"priority"`
}

// NewCommissionRuleCreatedEvent creates a new CommissionRuleCreatedEvent
func NewCommissionRuleCreatedEvent(r *CommissionRule) *CommissionRuleCreatedEvent {
	return &CommissionRuleCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCommissionRuleCreated, AggregateTypeCommissionRule, r.ID, r.TenantID),
		RuleID:          r.ID,
		Name:            r.Name,
		Level:           r.Level,
		RuleType:        r.Type,
		PercentageRate:  r.PercentageRate,
		FixedAmount:     r.FixedAmount,
		Priority:        r.Priority,
	}
}

// EventType returns the event type name
func (e *CommissionRuleCreatedEvent) EventType() string {
	return EventTypeCommissionRuleCreated
}

// CommissionRuleDeactivatedEvent is raised when a rule is taken out of resolution
type CommissionRuleDeactivatedEvent struct {
	shared.BaseDomainEvent
	RuleID uuid.UUID `json:"rule_id"`
	Name   string    `json:"name"`
	Level  RuleLevel `json:"level"`
}

// NewCommissionRuleDeactivatedEvent creates a new CommissionRuleDeactivatedEvent
func NewCommissionRuleDeactivatedEvent(r *CommissionRule) *CommissionRuleDeactivatedEvent {
	return &CommissionRuleDeactivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCommissionRuleDeactivated, AggregateTypeCommissionRule, r.ID, r.TenantID),
		RuleID:          r.ID,
		Name:            r.Name,
		Level:           r.Level,
	}
}

// EventType returns the event type name
func (e *CommissionRuleDeactivatedEvent) EventType() string {
	return EventTypeCommissionRuleDeactivated
}
