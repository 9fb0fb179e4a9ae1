package commission

import (
	"sort"
	"time"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SourceMerchantDefault marks a rate resolved from the merchant's fallback
// percentage rather than from a stored rule.
const SourceMerchantDefault = "MERCHANT_DEFAULT"

// ResolutionContext carries everything a resolver needs to decide whether a
// rule applies to one order line.
type ResolutionContext struct {
	Merchant    *Merchant
	ProductID   uuid.UUID
	CategoryIDs []uuid.UUID
	Subtotal    valueobject.Money
	Date        time.Time
}

// RateSpec is the outcome of rate resolution for one order line. The amount
// is snapshotted into the order item and never recomputed afterwards.
type RateSpec struct {
	Rate         decimal.Decimal   // Percentage-equivalent for display
	Amount       valueobject.Money // Commission owed to the platform on this line
	SourceRuleID *uuid.UUID        // Nil when resolved from the merchant default
	Source       string            // Rule level that matched, or MERCHANT_DEFAULT
}

// RateResolver is one step of the resolution cascade. Resolvers are pure:
// given a context and the candidate rules they either produce a RateSpec or
// pass to the next resolver.
type RateResolver interface {
	// Name returns the resolver name for logging and audit rows
	Name() string
	// Resolve returns the resolved rate, or false to fall through
	Resolve(ctx ResolutionContext, rules []CommissionRule) (*RateSpec, bool)
}

// RuleEngine resolves the commission rate for an order line by running an
// ordered resolver chain. The default chain is the stored-rule cascade
// followed by the merchant-default fallback, so resolution always succeeds.
type RuleEngine struct {
	resolvers []RateResolver
}

// NewRuleEngine creates a RuleEngine with the default resolver chain
func NewRuleEngine() *RuleEngine {
	return &RuleEngine{
		resolvers: []RateResolver{
			&RuleCascadeResolver{},
			&MerchantDefaultResolver{},
		},
	}
}

// NewRuleEngineWithResolvers creates a RuleEngine with a custom chain
func NewRuleEngineWithResolvers(resolvers ...RateResolver) *RuleEngine {
	return &RuleEngine{resolvers: resolvers}
}

// ResolveRate runs the chain and returns the first resolver's result
func (e *RuleEngine) ResolveRate(ctx ResolutionContext, rules []CommissionRule) (*RateSpec, error) {
	if ctx.Merchant == nil {
		return nil, shared.NewDomainError("INVALID_CONTEXT", "Resolution context requires a merchant")
	}
	if ctx.Subtotal.IsNegative() {
		return nil, shared.NewDomainError("INVALID_CONTEXT", "Resolution subtotal cannot be negative")
	}

	for _, resolver := range e.resolvers {
		if spec, ok := resolver.Resolve(ctx, rules); ok {
			return spec, nil
		}
	}
	return nil, shared.NewDomainError("NO_RATE_RESOLVED", "No resolver produced a commission rate")
}

// RuleCascadeResolver resolves from stored commission rules: collect active,
// valid, applicable rules, sort by priority ascending, first match wins.
// Rules never blend.
type RuleCascadeResolver struct{}

// Name returns the resolver name
func (r *RuleCascadeResolver) Name() string {
	return "rule_cascade"
}

// Resolve picks the highest-precedence applicable rule
func (r *RuleCascadeResolver) Resolve(ctx ResolutionContext, rules []CommissionRule) (*RateSpec, bool) {
	candidates := make([]CommissionRule, 0, len(rules))
	for _, rule := range rules {
		if !rule.IsActive || !rule.IsValidOn(ctx.Date) {
			continue
		}
		// Inconsistent rows are skipped rather than failing resolution
		if !rule.referencesConsistent() {
			continue
		}
		if ruleApplies(rule, ctx) {
			candidates = append(candidates, rule)
		}
	}
	if len(candidates) == 0 {
		return nil, false
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority < candidates[j].Priority
		}
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})

	winner := candidates[0]
	spec, ok := computeRate(winner, ctx)
	if !ok {
		// A tiered rule with no tier covering the merchant's volume falls
		// through to the next resolver instead of charging zero.
		return nil, false
	}
	return spec, true
}

// ruleApplies reports whether a rule's level matches the context
func ruleApplies(rule CommissionRule, ctx ResolutionContext) bool {
	switch rule.Level {
	case RuleLevelGlobal:
		return true
	case RuleLevelMerchant, RuleLevelTier:
		return rule.MerchantID != nil && *rule.MerchantID == ctx.Merchant.ID
	case RuleLevelProduct:
		return rule.ProductID != nil && *rule.ProductID == ctx.ProductID
	case RuleLevelCategory:
		if rule.CategoryID == nil {
			return false
		}
		for _, cid := range ctx.CategoryIDs {
			if cid == *rule.CategoryID {
				return true
			}
		}
	}
	return false
}

// computeRate applies the rule type to the line subtotal
func computeRate(rule CommissionRule, ctx ResolutionContext) (*RateSpec, bool) {
	ruleID := rule.ID
	switch rule.Type {
	case RuleTypePercentage:
		amount := ctx.Subtotal.Percent(rule.PercentageRate).RoundCents()
		return &RateSpec{
			Rate:         rule.PercentageRate,
			Amount:       amount,
			SourceRuleID: &ruleID,
			Source:       rule.Level.String(),
		}, true

	case RuleTypeFixed:
		// Flat amount per order line; does not scale with quantity
		amount := valueobject.NewMoneyAED(rule.FixedAmount).RoundCents()
		return &RateSpec{
			Rate:         effectiveRate(amount, ctx.Subtotal),
			Amount:       amount,
			SourceRuleID: &ruleID,
			Source:       rule.Level.String(),
		}, true

	case RuleTypeHybrid:
		amount, err := ctx.Subtotal.Percent(rule.PercentageRate).Add(valueobject.NewMoneyAED(rule.FixedAmount))
		if err != nil {
			return nil, false
		}
		amount = amount.RoundCents()
		return &RateSpec{
			Rate:         effectiveRate(amount, ctx.Subtotal),
			Amount:       amount,
			SourceRuleID: &ruleID,
			Source:       rule.Level.String(),
		}, true

	case RuleTypeTiered:
		rate, found := rule.TierRateFor(ctx.Merchant.TrailingVolume)
		if !found {
			return nil, false
		}
		amount := ctx.Subtotal.Percent(rate).RoundCents()
		return &RateSpec{
			Rate:         rate,
			Amount:       amount,
			SourceRuleID: &ruleID,
			Source:       rule.Level.String(),
		}, true
	}
	return nil, false
}

// effectiveRate derives the display percentage for flat and hybrid amounts
func effectiveRate(amount valueobject.Money, subtotal valueobject.Money) decimal.Decimal {
	if subtotal.IsZero() {
		return decimal.Zero
	}
	return amount.Amount().Div(subtotal.Amount()).Mul(decimal.NewFromInt(100)).Round(2)
}

// MerchantDefaultResolver is the terminal fallback: a flat percentage rule
// from the merchant's own commission percentage.
type MerchantDefaultResolver struct{}

// Name returns the resolver name
func (r *MerchantDefaultResolver) Name() string {
	return "merchant_default"
}

// Resolve always succeeds with the merchant's fallback percentage
func (r *MerchantDefaultResolver) Resolve(ctx ResolutionContext, _ []CommissionRule) (*RateSpec, bool) {
	rate := ctx.Merchant.CommissionPercentage
	return &RateSpec{
		Rate:   rate,
		Amount: ctx.Subtotal.Percent(rate).RoundCents(),
		Source: SourceMerchantDefault,
	}, true
}
