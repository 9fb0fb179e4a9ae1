package tax

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared"
	csvimport "github.com/ecommerized/adperfumes-sub001/internal/infrastructure/import"
)

func newExpenseImportFixture() (*ExpenseImportService, *fakeExpenseRepo) {
	repo := newFakeExpenseRepo()
	svc := NewExpenseImportService(repo, zap.NewNop())
	return svc, repo
}

func TestExpenseImportService_ImportCSV(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("imports valid rows", func(t *testing.T) {
		svc, repo := newExpenseImportFixture()

		csv := "description,category,amount,vat_amount,expense_date\n" +
			"Packaging boxes,supplies,150.00,7.50,2026-01-15\n" +
			"Courier fees,logistics,89.50,4.48,2026-01-20\n" +
			"Warehouse rent,rent,5000.00,250.00,2026-02-01\n"

		result, err := svc.ImportCSV(ctx, tenantID, []byte(csv))

		require.NoError(t, err)
		assert.Equal(t, 3, result.TotalRows)
		assert.Equal(t, 3, result.ImportedRows)
		assert.Equal(t, 0, result.ErrorRows)
		assert.Empty(t, result.Errors)
		assert.Len(t, repo.expenses, 3)

		for _, e := range repo.expenses {
			assert.Equal(t, tenantID, e.TenantID)
			assert.False(t, e.VatReclaimed)
		}
	})

	t.Run("reports invalid rows and imports the rest", func(t *testing.T) {
		svc, repo := newExpenseImportFixture()

		csv := "description,category,amount,vat_amount,expense_date\n" +
			"Packaging boxes,supplies,150.00,7.50,2026-01-15\n" +
			",logistics,89.50,4.48,2026-01-20\n" +
			"Warehouse rent,rent,not-a-number,250.00,2026-02-01\n" +
			"Courier fees,logistics,89.50,4.48,15/01/2026\n"

		result, err := svc.ImportCSV(ctx, tenantID, []byte(csv))

		require.NoError(t, err)
		assert.Equal(t, 4, result.TotalRows)
		assert.Equal(t, 1, result.ImportedRows)
		assert.Equal(t, 3, result.ErrorRows)
		assert.NotEmpty(t, result.Errors)
		assert.Len(t, repo.expenses, 1)
	})

	t.Run("rejects negative VAT", func(t *testing.T) {
		svc, repo := newExpenseImportFixture()

		csv := "description,category,amount,vat_amount,expense_date\n" +
			"Packaging boxes,supplies,150.00,-5.00,2026-01-15\n"

		result, err := svc.ImportCSV(ctx, tenantID, []byte(csv))

		require.NoError(t, err)
		assert.Equal(t, 0, result.ImportedRows)
		assert.Equal(t, 1, result.ErrorRows)
		assert.Empty(t, repo.expenses)
	})

	t.Run("rejects VAT above the expense amount", func(t *testing.T) {
		svc, repo := newExpenseImportFixture()

		csv := "description,category,amount,vat_amount,expense_date\n" +
			"Packaging boxes,supplies,100.00,200.00,2026-01-15\n"

		result, err := svc.ImportCSV(ctx, tenantID, []byte(csv))

		require.NoError(t, err)
		assert.Equal(t, 0, result.ImportedRows)
		assert.Equal(t, 1, result.ErrorRows)
		assert.Empty(t, repo.expenses)
	})

	t.Run("skips empty rows", func(t *testing.T) {
		svc, _ := newExpenseImportFixture()

		csv := "description,category,amount,vat_amount,expense_date\n" +
			"Packaging boxes,supplies,150.00,7.50,2026-01-15\n" +
			",,,,\n"

		result, err := svc.ImportCSV(ctx, tenantID, []byte(csv))

		require.NoError(t, err)
		assert.Equal(t, 1, result.TotalRows)
		assert.Equal(t, 1, result.ImportedRows)
	})

	t.Run("rejects CSV with missing columns", func(t *testing.T) {
		svc, _ := newExpenseImportFixture()

		csv := "description,amount\nPackaging boxes,150.00\n"

		_, err := svc.ImportCSV(ctx, tenantID, []byte(csv))

		require.Error(t, err)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "MISSING_COLUMNS", de.Code)
	})

	t.Run("rejects empty file", func(t *testing.T) {
		svc, _ := newExpenseImportFixture()

		_, err := svc.ImportCSV(ctx, tenantID, []byte(""))

		require.Error(t, err)
	})
}

func TestExpenseImportService_ValidateCSV(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	userID := uuid.New()

	t.Run("valid file produces a validated session", func(t *testing.T) {
		svc, repo := newExpenseImportFixture()

		csv := "description,category,amount,vat_amount,expense_date\n" +
			"Packaging boxes,supplies,150.00,7.50,2026-01-15\n" +
			"Courier fees,logistics,89.50,4.48,2026-01-20\n"

		session, err := svc.ValidateCSV(ctx, tenantID, userID, "expenses.csv", []byte(csv))

		require.NoError(t, err)
		assert.Equal(t, csvimport.StateValidated, session.State)
		assert.Equal(t, 2, session.TotalRows)
		assert.Equal(t, 2, session.ValidRows)
		assert.Equal(t, 0, session.ErrorRows)
		assert.True(t, session.IsValid())
		assert.NotEmpty(t, session.Preview)

		// Dry run must not persist anything
		assert.Empty(t, repo.expenses)

		stored, err := svc.GetSession(session.ID)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, session.ID, stored.ID)
	})

	t.Run("invalid rows fail the session", func(t *testing.T) {
		svc, _ := newExpenseImportFixture()

		csv := "description,category,amount,vat_amount,expense_date\n" +
			",supplies,150.00,7.50,2026-01-15\n"

		session, err := svc.ValidateCSV(ctx, tenantID, userID, "expenses.csv", []byte(csv))

		require.NoError(t, err)
		assert.Equal(t, csvimport.StateFailed, session.State)
		assert.Equal(t, 1, session.ErrorRows)
		assert.False(t, session.IsValid())
		assert.NotEmpty(t, session.Errors)
	})

	t.Run("missing columns rejected before validation", func(t *testing.T) {
		svc, _ := newExpenseImportFixture()

		csv := "description,amount\nPackaging boxes,150.00\n"

		_, err := svc.ValidateCSV(ctx, tenantID, userID, "expenses.csv", []byte(csv))

		require.Error(t, err)
	})

	t.Run("unknown session returns nil", func(t *testing.T) {
		svc, _ := newExpenseImportFixture()

		session, err := svc.GetSession(uuid.New())

		require.NoError(t, err)
		assert.Nil(t, session)
	})
}
