package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/settlement"
)

func buildDebitNote(t *testing.T, tenantID, merchantID uuid.UUID, number string) *settlement.MerchantDebitNote {
	t.Helper()

	dn, err := settlement.NewMerchantDebitNote(tenantID, number, merchantID, uuid.New(), uuid.New(),
		decimal.NewFromInt(105), decimal.NewFromInt(15), "refund after payout")
	require.NoError(t, err)
	return dn
}

func TestGormDebitNoteRepository_FindPendingForMerchant(t *testing.T) {
	db := newLedgerTestDB(t)
	repo := NewGormDebitNoteRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	merchantID := uuid.New()

	first := buildDebitNote(t, tenantID, merchantID, "DN-202609-DAT001-00001")
	require.NoError(t, repo.Save(ctx, first))

	second := buildDebitNote(t, tenantID, merchantID, "DN-202609-DAT001-00002")
	require.NoError(t, repo.Save(ctx, second))

	applied := buildDebitNote(t, tenantID, merchantID, "DN-202609-DAT001-00003")
	require.NoError(t, applied.ApplyToSettlement(uuid.New()))
	require.NoError(t, repo.Save(ctx, applied))

	otherMerchant := buildDebitNote(t, tenantID, uuid.New(), "DN-202609-OAS002-00001")
	require.NoError(t, repo.Save(ctx, otherMerchant))

	t.Run("returns open notes oldest first", func(t *testing.T) {
		notes, err := repo.FindPendingForMerchant(ctx, tenantID, merchantID)
		require.NoError(t, err)
		require.Len(t, notes, 2)
		assert.Equal(t, first.ID, notes[0].ID)
		assert.Equal(t, second.ID, notes[1].ID)
	})

	t.Run("is tenant scoped", func(t *testing.T) {
		notes, err := repo.FindPendingForMerchant(ctx, uuid.New(), merchantID)
		require.NoError(t, err)
		assert.Empty(t, notes)
	})
}

func TestGormDebitNoteRepository_FindByRefundID(t *testing.T) {
	db := newLedgerTestDB(t)
	repo := NewGormDebitNoteRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	dn := buildDebitNote(t, tenantID, uuid.New(), "DN-202609-DAT001-00011")
	require.NoError(t, repo.Save(ctx, dn))

	found, err := repo.FindByRefundID(ctx, tenantID, dn.RefundID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, dn.ID, found.ID)

	missing, err := repo.FindByRefundID(ctx, tenantID, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}
