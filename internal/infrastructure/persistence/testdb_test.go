package persistence

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/commission"
	ordr "github.com/ecommerized/adperfumes-sub001/internal/domain/order"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared/valueobject"
)

// newLedgerTestDB opens an in-memory SQLite database with the full ledger
// schema. The pool is pinned to one connection so every query sees the same
// in-memory database.
func newLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(LedgerModels()...))

	return db
}

// buildPaidOrder assembles a single-merchant paid order through the domain
// constructors so totals and commission snapshots are consistent.
func buildPaidOrder(t *testing.T, tenantID, merchantID uuid.UUID, number string, price decimal.Decimal, quantity int) *ordr.Order {
	t.Helper()

	o, err := ordr.NewOrder(tenantID, number, uuid.New())
	require.NoError(t, err)

	subtotal := price.Mul(decimal.NewFromInt(int64(quantity)))
	rate := &commission.RateSpec{
		Rate:   decimal.NewFromInt(15),
		Amount: valueobject.NewMoneyAED(subtotal.Mul(decimal.NewFromFloat(0.15))),
		Source: commission.SourceMerchantDefault,
	}
	_, err = o.AddItem(merchantID, uuid.New(), "Oud Royale 100ml", "Dar Al Teeb", price, quantity, rate)
	require.NoError(t, err)

	require.NoError(t, o.SetTax(subtotal.Mul(decimal.NewFromFloat(0.05)).Round(2)))
	require.NoError(t, o.MarkPaid("PAY-"+number))

	return o
}
