package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ordr "github.com/ecommerized/adperfumes-sub001/internal/domain/order"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/settlement"
)

func settleOrder(t *testing.T, repo *GormSettlementRepository, tenantID, merchantID uuid.UUID, number string, o *ordr.Order) *settlement.Settlement {
	t.Helper()

	s, err := settlement.NewSettlement(tenantID, number, merchantID, "DAT001", time.Now(), decimal.NewFromInt(5))
	require.NoError(t, err)

	_, err = s.AddOrder(settlement.OrderContribution{
		OrderID:          o.ID,
		OrderNumber:      o.OrderNumber,
		Subtotal:         o.SubtotalForMerchant(merchantID),
		TaxShare:         o.TaxAmount,
		CommissionAmount: o.CommissionForMerchant(merchantID),
		CommissionRate:   decimal.NewFromInt(15),
		CommissionSource: "GLOBAL",
	})
	require.NoError(t, err)

	require.NoError(t, repo.Save(context.Background(), s))
	return s
}

func TestGormOrderRepository_FindUnsettledPaidForMerchant(t *testing.T) {
	db := newLedgerTestDB(t)
	orderRepo := NewGormOrderRepository(db)
	settlementRepo := NewGormSettlementRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	merchantID := uuid.New()
	otherMerchant := uuid.New()

	price := decimal.NewFromInt(200)

	unsettled := buildPaidOrder(t, tenantID, merchantID, "ORD-001", price, 1)
	require.NoError(t, orderRepo.Save(ctx, unsettled))

	settled := buildPaidOrder(t, tenantID, merchantID, "ORD-002", price, 1)
	require.NoError(t, orderRepo.Save(ctx, settled))
	settleOrder(t, settlementRepo, tenantID, merchantID, "STL-202609-00001", settled)

	// An order in a cancelled settlement returns to the unsettled pool
	repooled := buildPaidOrder(t, tenantID, merchantID, "ORD-003", price, 1)
	require.NoError(t, orderRepo.Save(ctx, repooled))
	cancelled := settleOrder(t, settlementRepo, tenantID, merchantID, "STL-202609-00002", repooled)
	require.NoError(t, cancelled.Cancel("payout details rejected by bank"))
	require.NoError(t, settlementRepo.Save(ctx, cancelled))

	foreignMerchant := buildPaidOrder(t, tenantID, otherMerchant, "ORD-004", price, 1)
	require.NoError(t, orderRepo.Save(ctx, foreignMerchant))

	unpaid, err := ordr.NewOrder(tenantID, "ORD-005", uuid.New())
	require.NoError(t, err)
	require.NoError(t, orderRepo.Save(ctx, unpaid))

	foreignTenant := buildPaidOrder(t, uuid.New(), merchantID, "ORD-001", price, 1)
	require.NoError(t, orderRepo.Save(ctx, foreignTenant))

	t.Run("returns only paid orders missing from non-cancelled settlements", func(t *testing.T) {
		orders, err := orderRepo.FindUnsettledPaidForMerchant(ctx, tenantID, merchantID, time.Now().Add(time.Minute))
		require.NoError(t, err)
		require.Len(t, orders, 2)

		numbers := []string{orders[0].OrderNumber, orders[1].OrderNumber}
		assert.Contains(t, numbers, "ORD-001")
		assert.Contains(t, numbers, "ORD-003")
	})

	t.Run("respects the paid-before cutoff", func(t *testing.T) {
		orders, err := orderRepo.FindUnsettledPaidForMerchant(ctx, tenantID, merchantID, time.Now().Add(-time.Hour))
		require.NoError(t, err)
		assert.Empty(t, orders)
	})

	t.Run("preloads items", func(t *testing.T) {
		orders, err := orderRepo.FindUnsettledPaidForMerchant(ctx, tenantID, merchantID, time.Now().Add(time.Minute))
		require.NoError(t, err)
		require.NotEmpty(t, orders)
		assert.NotEmpty(t, orders[0].Items)
	})
}

func TestGormOrderRepository_SumPaidInPeriod(t *testing.T) {
	db := newLedgerTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	merchantID := uuid.New()

	inside := buildPaidOrder(t, tenantID, merchantID, "ORD-101", decimal.NewFromInt(100), 2)
	require.NoError(t, repo.Save(ctx, inside))

	outside := buildPaidOrder(t, tenantID, merchantID, "ORD-102", decimal.NewFromInt(400), 1)
	past := time.Now().AddDate(0, -2, 0)
	outside.PaidAt = &past
	require.NoError(t, repo.Save(ctx, outside))

	foreign := buildPaidOrder(t, uuid.New(), merchantID, "ORD-101", decimal.NewFromInt(999), 1)
	require.NoError(t, repo.Save(ctx, foreign))

	from := time.Now().AddDate(0, 0, -7)
	to := time.Now().AddDate(0, 0, 1)

	t.Run("sums subtotals inside the window", func(t *testing.T) {
		total, err := repo.SumPaidSubtotalsInPeriod(ctx, tenantID, from, to)
		require.NoError(t, err)
		assert.True(t, total.Equal(decimal.NewFromInt(200)), "got %s", total)
	})

	t.Run("sums collected tax inside the window", func(t *testing.T) {
		total, err := repo.SumPaidTaxInPeriod(ctx, tenantID, from, to)
		require.NoError(t, err)
		assert.True(t, total.Equal(decimal.NewFromInt(10)), "got %s", total)
	})

	t.Run("returns zero for an empty window", func(t *testing.T) {
		total, err := repo.SumPaidSubtotalsInPeriod(ctx, tenantID, to, to.AddDate(0, 1, 0))
		require.NoError(t, err)
		assert.True(t, total.IsZero())
	})
}

func TestGormOrderRepository_FindByOrderNumber(t *testing.T) {
	db := newLedgerTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	o := buildPaidOrder(t, tenantID, uuid.New(), "ORD-201", decimal.NewFromInt(50), 1)
	require.NoError(t, repo.Save(ctx, o))

	t.Run("finds by number within the tenant", func(t *testing.T) {
		found, err := repo.FindByOrderNumber(ctx, tenantID, "ORD-201")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, o.ID, found.ID)
		assert.Len(t, found.Items, 1)
	})

	t.Run("returns nil for another tenant", func(t *testing.T) {
		found, err := repo.FindByOrderNumber(ctx, uuid.New(), "ORD-201")
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}
