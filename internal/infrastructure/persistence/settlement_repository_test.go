package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/settlement"
)

func buildSettlement(t *testing.T, tenantID, merchantID, orderID uuid.UUID, number string) *settlement.Settlement {
	t.Helper()

	s, err := settlement.NewSettlement(tenantID, number, merchantID, "DAT001", time.Now(), decimal.NewFromInt(5))
	require.NoError(t, err)
	_, err = s.AddOrder(settlement.OrderContribution{
		OrderID:          orderID,
		OrderNumber:      "ORD-401",
		Subtotal:         decimal.NewFromInt(300),
		TaxShare:         decimal.NewFromInt(15),
		CommissionAmount: decimal.NewFromInt(45),
		CommissionRate:   decimal.NewFromInt(15),
		CommissionSource: "GLOBAL",
	})
	require.NoError(t, err)
	return s
}

func TestGormSettlementRepository_FindPendingForMerchant(t *testing.T) {
	db := newLedgerTestDB(t)
	repo := NewGormSettlementRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	merchantID := uuid.New()

	t.Run("returns nil when the merchant has no open settlement", func(t *testing.T) {
		found, err := repo.FindPendingForMerchant(ctx, tenantID, merchantID)
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	pending := buildSettlement(t, tenantID, merchantID, uuid.New(), "STL-202609-00011")
	require.NoError(t, repo.Save(ctx, pending))

	paid := buildSettlement(t, tenantID, merchantID, uuid.New(), "STL-202609-00012")
	require.NoError(t, paid.MarkPaid("TRF-88213"))
	require.NoError(t, repo.Save(ctx, paid))

	t.Run("skips settlements already past pending", func(t *testing.T) {
		found, err := repo.FindPendingForMerchant(ctx, tenantID, merchantID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, pending.ID, found.ID)
		assert.Equal(t, settlement.StatusPending, found.Status)
	})

	t.Run("is scoped to the merchant", func(t *testing.T) {
		found, err := repo.FindPendingForMerchant(ctx, tenantID, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestGormSettlementRepository_FindPaidContainingOrder(t *testing.T) {
	db := newLedgerTestDB(t)
	repo := NewGormSettlementRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	merchantID := uuid.New()
	paidOrderID := uuid.New()
	pendingOrderID := uuid.New()

	paid := buildSettlement(t, tenantID, merchantID, paidOrderID, "STL-202609-00021")
	require.NoError(t, paid.MarkPaid("TRF-11523"))
	require.NoError(t, repo.Save(ctx, paid))

	pending := buildSettlement(t, tenantID, merchantID, pendingOrderID, "STL-202609-00022")
	require.NoError(t, repo.Save(ctx, pending))

	t.Run("finds the paid settlement holding the order", func(t *testing.T) {
		found, err := repo.FindPaidContainingOrder(ctx, tenantID, paidOrderID, merchantID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, paid.ID, found.ID)
		require.Len(t, found.Items, 1)
		assert.Equal(t, paidOrderID, found.Items[0].OrderID)
	})

	t.Run("ignores settlements not yet paid", func(t *testing.T) {
		found, err := repo.FindPaidContainingOrder(ctx, tenantID, pendingOrderID, merchantID)
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("ignores other merchants", func(t *testing.T) {
		found, err := repo.FindPaidContainingOrder(ctx, tenantID, paidOrderID, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestGormSettlementRepository_Save(t *testing.T) {
	db := newLedgerTestDB(t)
	repo := NewGormSettlementRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	merchantID := uuid.New()

	s := buildSettlement(t, tenantID, merchantID, uuid.New(), "STL-202609-00031")
	_, err := s.AddOrder(settlement.OrderContribution{
		OrderID:          uuid.New(),
		OrderNumber:      "ORD-402",
		Subtotal:         decimal.NewFromInt(120),
		TaxShare:         decimal.NewFromInt(6),
		CommissionAmount: decimal.NewFromInt(18),
		CommissionRate:   decimal.NewFromInt(15),
		CommissionSource: "MERCHANT",
	})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, s))

	t.Run("persists items with the aggregate", func(t *testing.T) {
		found, err := repo.FindByNumber(ctx, tenantID, "STL-202609-00031")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Len(t, found.Items, 2)
		assert.True(t, found.TotalSubtotal.Equal(decimal.NewFromInt(420)), "subtotal %s", found.TotalSubtotal)
	})

	t.Run("updates status in place", func(t *testing.T) {
		require.NoError(t, s.MarkProcessing())
		require.NoError(t, repo.Save(ctx, s))

		found, err := repo.FindByID(ctx, tenantID, s.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, settlement.StatusProcessing, found.Status)

		count, err := repo.Count(ctx, tenantID, settlement.Filter{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
}

func TestGormSettlementRepository_FindAll(t *testing.T) {
	db := newLedgerTestDB(t)
	repo := NewGormSettlementRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	merchantID := uuid.New()

	first := buildSettlement(t, tenantID, merchantID, uuid.New(), "STL-202609-00041")
	require.NoError(t, repo.Save(ctx, first))
	second := buildSettlement(t, tenantID, uuid.New(), uuid.New(), "STL-202609-00042")
	require.NoError(t, second.MarkPaid("TRF-70021"))
	require.NoError(t, repo.Save(ctx, second))

	t.Run("filters by merchant", func(t *testing.T) {
		results, err := repo.FindAll(ctx, tenantID, settlement.Filter{MerchantID: &merchantID})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, first.ID, results[0].ID)
	})

	t.Run("filters by status", func(t *testing.T) {
		paidStatus := settlement.StatusPaid
		results, err := repo.FindAll(ctx, tenantID, settlement.Filter{Status: &paidStatus})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, second.ID, results[0].ID)
	})

	t.Run("is tenant scoped", func(t *testing.T) {
		results, err := repo.FindAll(ctx, uuid.New(), settlement.Filter{})
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}
