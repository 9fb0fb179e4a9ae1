package commission

import (
	"testing"
	"time"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMerchant(t *testing.T) *Merchant {
	t.Helper()
	m, err := NewMerchant(uuid.New(), "M003", "Arabian Oud Trading")
	require.NoError(t, err)
	return m
}

func newResolutionContext(merchant *Merchant, productID uuid.UUID, subtotal float64) ResolutionContext {
	return ResolutionContext{
		Merchant:  merchant,
		ProductID: productID,
		Subtotal:  valueobject.NewMoneyAEDFromFloat(subtotal),
		Date:      time.Now(),
	}
}

func TestRuleEngine_PriorityResolution(t *testing.T) {
	merchant := newTestMerchant(t)
	productID := uuid.New()
	tenantID := merchant.TenantID

	globalRule, err := NewCommissionRule(
		tenantID, "Platform default", RuleLevelGlobal, RuleTypePercentage,
		nil, nil, nil, decimal.NewFromInt(15), decimal.Zero, 10,
	)
	require.NoError(t, err)

	productRule, err := NewCommissionRule(
		tenantID, "Oud promo", RuleLevelProduct, RuleTypePercentage,
		nil, nil, &productID, decimal.NewFromInt(10), decimal.Zero, 1,
	)
	require.NoError(t, err)

	engine := NewRuleEngine()

	t.Run("product rule wins by priority", func(t *testing.T) {
		ctx := newResolutionContext(merchant, productID, 100)
		spec, err := engine.ResolveRate(ctx, []CommissionRule{*globalRule, *productRule})

		require.NoError(t, err)
		assert.True(t, spec.Rate.Equal(decimal.NewFromInt(10)))
		assert.Equal(t, "10", spec.Amount.Amount().String())
		require.NotNil(t, spec.SourceRuleID)
		assert.Equal(t, productRule.ID, *spec.SourceRuleID)
		assert.Equal(t, RuleLevelProduct.String(), spec.Source)
	})

	t.Run("global rule applies to other products", func(t *testing.T) {
		ctx := newResolutionContext(merchant, uuid.New(), 100)
		spec, err := engine.ResolveRate(ctx, []CommissionRule{*globalRule, *productRule})

		require.NoError(t, err)
		assert.True(t, spec.Rate.Equal(decimal.NewFromInt(15)))
		assert.Equal(t, globalRule.ID, *spec.SourceRuleID)
	})

	t.Run("no blending of matching rules", func(t *testing.T) {
		ctx := newResolutionContext(merchant, productID, 100)
		spec, err := engine.ResolveRate(ctx, []CommissionRule{*globalRule, *productRule})

		require.NoError(t, err)
		// 10% product rule only, not 10% + 15%
		assert.Equal(t, "10", spec.Amount.Amount().String())
	})
}

func TestRuleEngine_MerchantDefaultFallback(t *testing.T) {
	merchant := newTestMerchant(t)
	engine := NewRuleEngine()

	t.Run("no rules at all", func(t *testing.T) {
		ctx := newResolutionContext(merchant, uuid.New(), 200)
		spec, err := engine.ResolveRate(ctx, nil)

		require.NoError(t, err)
		assert.True(t, spec.Rate.Equal(decimal.NewFromFloat(15.00)))
		assert.Equal(t, "30", spec.Amount.Amount().String())
		assert.Nil(t, spec.SourceRuleID)
		assert.Equal(t, SourceMerchantDefault, spec.Source)
	})

	t.Run("inactive rules are skipped", func(t *testing.T) {
		rule, err := NewCommissionRule(
			merchant.TenantID, "Retired", RuleLevelGlobal, RuleTypePercentage,
			nil, nil, nil, decimal.NewFromInt(5), decimal.Zero, 1,
		)
		require.NoError(t, err)
		require.NoError(t, rule.Deactivate())

		ctx := newResolutionContext(merchant, uuid.New(), 100)
		spec, err := engine.ResolveRate(ctx, []CommissionRule{*rule})

		require.NoError(t, err)
		assert.Equal(t, SourceMerchantDefault, spec.Source)
	})

	t.Run("expired rules are skipped", func(t *testing.T) {
		rule, err := NewCommissionRule(
			merchant.TenantID, "Expired promo", RuleLevelGlobal, RuleTypePercentage,
			nil, nil, nil, decimal.NewFromInt(5), decimal.Zero, 1,
		)
		require.NoError(t, err)
		past := time.Now().AddDate(0, -2, 0)
		until := time.Now().AddDate(0, -1, 0)
		require.NoError(t, rule.SetValidity(&past, &until))

		ctx := newResolutionContext(merchant, uuid.New(), 100)
		spec, err := engine.ResolveRate(ctx, []CommissionRule{*rule})

		require.NoError(t, err)
		assert.Equal(t, SourceMerchantDefault, spec.Source)
	})

	t.Run("missing merchant is an error", func(t *testing.T) {
		_, err := engine.ResolveRate(ResolutionContext{Subtotal: valueobject.ZeroAED()}, nil)
		require.Error(t, err)
	})
}

func TestRuleEngine_RuleTypes(t *testing.T) {
	merchant := newTestMerchant(t)
	tenantID := merchant.TenantID
	engine := NewRuleEngine()

	t.Run("fixed amount is flat per order line", func(t *testing.T) {
		rule, err := NewCommissionRule(
			tenantID, "Listing fee", RuleLevelGlobal, RuleTypeFixed,
			nil, nil, nil, decimal.Zero, decimal.NewFromInt(5), 1,
		)
		require.NoError(t, err)

		ctx := newResolutionContext(merchant, uuid.New(), 250)
		spec, err := engine.ResolveRate(ctx, []CommissionRule{*rule})

		require.NoError(t, err)
		assert.Equal(t, "5", spec.Amount.Amount().String())
		// Display rate: 5 / 250 = 2%
		assert.True(t, spec.Rate.Equal(decimal.NewFromInt(2)))
	})

	t.Run("hybrid combines percentage and fixed", func(t *testing.T) {
		rule, err := NewCommissionRule(
			tenantID, "Hybrid", RuleLevelGlobal, RuleTypeHybrid,
			nil, nil, nil, decimal.NewFromInt(10), decimal.NewFromInt(5), 1,
		)
		require.NoError(t, err)

		ctx := newResolutionContext(merchant, uuid.New(), 100)
		spec, err := engine.ResolveRate(ctx, []CommissionRule{*rule})

		require.NoError(t, err)
		assert.Equal(t, "15", spec.Amount.Amount().String())
	})

	t.Run("tiered picks rate by trailing volume", func(t *testing.T) {
		merchantID := merchant.ID
		rule, err := NewCommissionRule(
			tenantID, "Volume tiers", RuleLevelTier, RuleTypeTiered,
			&merchantID, nil, nil, decimal.Zero, decimal.Zero, 1,
		)
		require.NoError(t, err)
		require.NoError(t, rule.AddTier(decimal.Zero, decimal.NewFromInt(15)))
		require.NoError(t, rule.AddTier(decimal.NewFromInt(10000), decimal.NewFromInt(12)))

		require.NoError(t, merchant.RecordVolume(decimal.NewFromInt(20000)))

		ctx := newResolutionContext(merchant, uuid.New(), 100)
		spec, err := engine.ResolveRate(ctx, []CommissionRule{*rule})

		require.NoError(t, err)
		assert.True(t, spec.Rate.Equal(decimal.NewFromInt(12)))
		assert.Equal(t, "12", spec.Amount.Amount().String())
	})

	t.Run("tiered with no covering tier falls back", func(t *testing.T) {
		merchantID := merchant.ID
		rule, err := NewCommissionRule(
			tenantID, "High volume only", RuleLevelTier, RuleTypeTiered,
			&merchantID, nil, nil, decimal.Zero, decimal.Zero, 1,
		)
		require.NoError(t, err)
		require.NoError(t, rule.AddTier(decimal.NewFromInt(1000000), decimal.NewFromInt(8)))

		require.NoError(t, merchant.RecordVolume(decimal.NewFromInt(500)))

		ctx := newResolutionContext(merchant, uuid.New(), 100)
		spec, err := engine.ResolveRate(ctx, []CommissionRule{*rule})

		require.NoError(t, err)
		assert.Equal(t, SourceMerchantDefault, spec.Source)
	})
}

func TestRuleEngine_CategoryResolution(t *testing.T) {
	merchant := newTestMerchant(t)
	categoryID := uuid.New()

	rule, err := NewCommissionRule(
		merchant.TenantID, "Niche fragrance", RuleLevelCategory, RuleTypePercentage,
		nil, &categoryID, nil, decimal.NewFromInt(8), decimal.Zero, 2,
	)
	require.NoError(t, err)

	engine := NewRuleEngine()

	ctx := newResolutionContext(merchant, uuid.New(), 100)
	ctx.CategoryIDs = []uuid.UUID{uuid.New(), categoryID}

	spec, err := engine.ResolveRate(ctx, []CommissionRule{*rule})
	require.NoError(t, err)
	assert.True(t, spec.Rate.Equal(decimal.NewFromInt(8)))

	t.Run("non-matching category falls back", func(t *testing.T) {
		ctx.CategoryIDs = []uuid.UUID{uuid.New()}
		spec, err := engine.ResolveRate(ctx, []CommissionRule{*rule})
		require.NoError(t, err)
		assert.Equal(t, SourceMerchantDefault, spec.Source)
	})
}

func TestRuleEngine_PriorityTieBreak(t *testing.T) {
	merchant := newTestMerchant(t)

	older, err := NewCommissionRule(
		merchant.TenantID, "First", RuleLevelGlobal, RuleTypePercentage,
		nil, nil, nil, decimal.NewFromInt(10), decimal.Zero, 5,
	)
	require.NoError(t, err)
	older.CreatedAt = time.Now().Add(-time.Hour)

	newer, err := NewCommissionRule(
		merchant.TenantID, "Second", RuleLevelGlobal, RuleTypePercentage,
		nil, nil, nil, decimal.NewFromInt(20), decimal.Zero, 5,
	)
	require.NoError(t, err)

	engine := NewRuleEngine()
	ctx := newResolutionContext(merchant, uuid.New(), 100)

	// Equal priority resolves deterministically to the older rule
	spec, err := engine.ResolveRate(ctx, []CommissionRule{*newer, *older})
	require.NoError(t, err)
	assert.Equal(t, older.ID, *spec.SourceRuleID)
}
