package csvimport

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityType(t *testing.T) {
	t.Run("ValidEntityTypes", func(t *testing.T) {
		types := ValidEntityTypes()
		assert.Contains(t, types, EntityExpenses)
		assert.Contains(t, types, EntityMerchants)
	})

	t.Run("IsValidEntityType", func(t *testing.T) {
		assert.True(t, IsValidEntityType("expenses"))
		assert.True(t, IsValidEntityType("merchants"))
		assert.False(t, IsValidEntityType("invalid"))
		assert.False(t, IsValidEntityType(""))
	})
}

func TestImportSession(t *testing.T) {
	tenantID := uuid.New()
	userID := uuid.New()

	t.Run("NewImportSession", func(t *testing.T) {
		session := NewImportSession(tenantID, userID, EntityExpenses, "expenses.csv", 1024)

		assert.NotEqual(t, uuid.Nil, session.ID)
		assert.Equal(t, tenantID, session.TenantID)
		assert.Equal(t, userID, session.UserID)
		assert.Equal(t, EntityExpenses, session.EntityType)
		assert.Equal(t, "expenses.csv", session.FileName)
		assert.Equal(t, int64(1024), session.FileSize)
		assert.Equal(t, StateCreated, session.State)
		assert.Nil(t, session.CompletedAt)
	})

	t.Run("UpdateState", func(t *testing.T) {
		session := NewImportSession(tenantID, userID, EntityExpenses, "expenses.csv", 1024)

		session.UpdateState(StateValidating)
		assert.Equal(t, StateValidating, session.State)
		assert.Nil(t, session.CompletedAt)

		session.UpdateState(StateCompleted)
		assert.Equal(t, StateCompleted, session.State)
		assert.NotNil(t, session.CompletedAt)
	})

	t.Run("SetValidationResult", func(t *testing.T) {
		session := NewImportSession(tenantID, userID, EntityExpenses, "expenses.csv", 1024)
		result := &ValidationResult{
			ValidationID: session.ID.String(),
			TotalRows:    100,
			ValidRows:    95,
			ErrorRows:    5,
			Errors:       []RowError{{Row: 10, Column: "amount", Message: "required"}},
			Preview:      []map[string]any{{"description": "Packaging boxes", "amount": "150.00"}},
		}

		session.SetValidationResult(result)

		assert.Equal(t, 100, session.TotalRows)
		assert.Equal(t, 95, session.ValidRows)
		assert.Equal(t, 5, session.ErrorRows)
		assert.Len(t, session.Errors, 1)
		assert.Len(t, session.Preview, 1)
	})

	t.Run("IsValid", func(t *testing.T) {
		session := NewImportSession(tenantID, userID, EntityExpenses, "expenses.csv", 1024)
		session.ErrorRows = 0
		assert.True(t, session.IsValid())

		session.ErrorRows = 5
		assert.False(t, session.IsValid())
	})
}

func TestImportContext(t *testing.T) {
	tenantID := uuid.New()
	userID := uuid.New()
	session := NewImportSession(tenantID, userID, EntityExpenses, "expenses.csv", 1024)

	t.Run("NewImportContext", func(t *testing.T) {
		ctx := context.Background()
		importCtx := NewImportContext(ctx, session)

		assert.NotNil(t, importCtx.Context())
		assert.Equal(t, session, importCtx.Session())
		assert.Nil(t, importCtx.Parser())
	})

	t.Run("Cancel", func(t *testing.T) {
		ctx := context.Background()
		importCtx := NewImportContext(ctx, session)

		importCtx.Cancel()

		assert.Equal(t, context.Canceled, importCtx.Context().Err())
		assert.Equal(t, StateCancelled, session.State)
	})

	t.Run("Valid rows management", func(t *testing.T) {
		ctx := context.Background()
		session := NewImportSession(tenantID, userID, EntityExpenses, "expenses.csv", 1024)
		importCtx := NewImportContext(ctx, session)

		row1 := &Row{LineNumber: 2, Data: map[string]string{"description": "Courier fees"}}
		row2 := &Row{LineNumber: 3, Data: map[string]string{"description": "Warehouse rent"}}

		importCtx.AddValidRow(row1)
		importCtx.AddValidRow(row2)

		validRows := importCtx.ValidRows()
		assert.Len(t, validRows, 2)
	})

	t.Run("Error row tracking", func(t *testing.T) {
		ctx := context.Background()
		session := NewImportSession(tenantID, userID, EntityExpenses, "expenses.csv", 1024)
		importCtx := NewImportContext(ctx, session)

		importCtx.MarkRowError(5)
		importCtx.MarkRowError(10)

		assert.True(t, importCtx.HasRowError(5))
		assert.True(t, importCtx.HasRowError(10))
		assert.False(t, importCtx.HasRowError(7))
		assert.Equal(t, 2, importCtx.ErrorCount())
	})

	t.Run("With validators", func(t *testing.T) {
		ctx := context.Background()
		session := NewImportSession(tenantID, userID, EntityExpenses, "expenses.csv", 1024)

		rules := []FieldRule{Field("description").Required().Build()}
		fieldVal := NewFieldValidator(rules, 10)

		importCtx := NewImportContext(ctx, session, WithFieldValidator(fieldVal))

		assert.NotNil(t, importCtx)
	})
}

func TestImportProcessor(t *testing.T) {
	t.Run("NewImportProcessor with defaults", func(t *testing.T) {
		processor := NewImportProcessor()
		assert.NotNil(t, processor)
	})

	t.Run("NewImportProcessor with options", func(t *testing.T) {
		processor := NewImportProcessor(
			WithMaxFileSize(5*1024*1024),
			WithMaxRows(50000),
			WithMaxErrors(50),
			WithPreviewRows(10),
		)
		assert.NotNil(t, processor)
	})

	t.Run("Validate simple CSV", func(t *testing.T) {
		processor := NewImportProcessor()
		tenantID := uuid.New()
		userID := uuid.New()
		session := NewImportSession(tenantID, userID, EntityExpenses, "expenses.csv", 1024)

		csv := "description,category,amount\nPackaging boxes,supplies,150.00\nCourier fees,logistics,89.50\nWarehouse rent,rent,5000.00"
		rules := []FieldRule{
			Field("description").Required().String().MaxLength(255).Build(),
			Field("category").Required().String().MaxLength(50).Build(),
			Field("amount").Required().Decimal().Build(),
		}

		result, err := processor.Validate(context.Background(), session, strings.NewReader(csv), rules)

		require.NoError(t, err)
		assert.Equal(t, 3, result.TotalRows)
		assert.Equal(t, 3, result.ValidRows)
		assert.Equal(t, 0, result.ErrorRows)
		assert.True(t, result.IsValid())
	})

	t.Run("Validate CSV with errors", func(t *testing.T) {
		processor := NewImportProcessor()
		tenantID := uuid.New()
		userID := uuid.New()
		session := NewImportSession(tenantID, userID, EntityExpenses, "expenses.csv", 1024)

		csv := "description,category,amount\nPackaging boxes,supplies,150.00\n,logistics,89.50\nWarehouse rent,,5000.00"
		rules := []FieldRule{
			Field("description").Required().Build(),
			Field("category").Required().Build(),
			Field("amount").Required().Build(),
		}

		result, err := processor.Validate(context.Background(), session, strings.NewReader(csv), rules)

		require.NoError(t, err)
		assert.Equal(t, 3, result.TotalRows)
		assert.Equal(t, 1, result.ValidRows)
		assert.Equal(t, 2, result.ErrorRows)
		assert.False(t, result.IsValid())
		assert.GreaterOrEqual(t, len(result.Errors), 2)
	})

	t.Run("Validate generates preview", func(t *testing.T) {
		processor := NewImportProcessor(WithPreviewRows(3))
		tenantID := uuid.New()
		userID := uuid.New()
		session := NewImportSession(tenantID, userID, EntityExpenses, "expenses.csv", 1024)

		csv := "description,amount\nA,1\nB,2\nC,3\nD,4\nE,5"
		rules := []FieldRule{
			Field("description").Build(),
			Field("amount").Build(),
		}

		result, err := processor.Validate(context.Background(), session, strings.NewReader(csv), rules)

		require.NoError(t, err)
		assert.Len(t, result.Preview, 3)
		assert.Equal(t, "A", result.Preview[0]["description"])
		assert.Equal(t, "B", result.Preview[1]["description"])
		assert.Equal(t, "C", result.Preview[2]["description"])
	})

	t.Run("Validate with reference lookup", func(t *testing.T) {
		lookupFn := func(refType, value string) (bool, error) {
			return value == "MER-001", nil
		}

		processor := NewImportProcessor(WithReferenceLookup(lookupFn))
		tenantID := uuid.New()
		userID := uuid.New()
		session := NewImportSession(tenantID, userID, EntityExpenses, "expenses.csv", 1024)

		csv := "description,merchant_code\nListing fee,MER-001\nListing fee,MER-999"
		rules := []FieldRule{
			Field("description").Required().Build(),
			Field("merchant_code").Reference("merchant").Build(),
		}

		result, err := processor.Validate(context.Background(), session, strings.NewReader(csv), rules)

		require.NoError(t, err)
		assert.Equal(t, 1, result.ErrorRows)
	})

	t.Run("Validate with uniqueness lookup", func(t *testing.T) {
		lookupFn := func(entityType, field, value string) (bool, error) {
			return value == "EXISTING", nil
		}

		processor := NewImportProcessor(WithUniqueLookup(lookupFn))
		tenantID := uuid.New()
		userID := uuid.New()
		session := NewImportSession(tenantID, userID, EntityMerchants, "merchants.csv", 1024)

		csv := "code,name\nNEW,Oud House\nEXISTING,Amber Souk"
		rules := []FieldRule{
			Field("code").Required().Unique().Build(),
			Field("name").Required().Build(),
		}

		result, err := processor.Validate(context.Background(), session, strings.NewReader(csv), rules)

		require.NoError(t, err)
		assert.Equal(t, 1, result.ErrorRows)
	})

	t.Run("Validate context cancellation", func(t *testing.T) {
		processor := NewImportProcessor()
		tenantID := uuid.New()
		userID := uuid.New()
		session := NewImportSession(tenantID, userID, EntityExpenses, "expenses.csv", 1024)

		ctx, cancel := context.WithCancel(context.Background())
		cancel() // Cancel immediately

		csv := "description,amount\nCourier fees,89.50"
		rules := []FieldRule{
			Field("description").Build(),
		}

		_, err := processor.Validate(ctx, session, strings.NewReader(csv), rules)

		assert.Error(t, err)
		assert.Equal(t, StateCancelled, session.State)
	})

	t.Run("Session state updates", func(t *testing.T) {
		processor := NewImportProcessor()
		tenantID := uuid.New()
		userID := uuid.New()
		session := NewImportSession(tenantID, userID, EntityExpenses, "expenses.csv", 1024)

		csv := "description,amount\nCourier fees,89.50"
		rules := []FieldRule{
			Field("description").Build(),
			Field("amount").Build(),
		}

		_, err := processor.Validate(context.Background(), session, strings.NewReader(csv), rules)

		require.NoError(t, err)
		assert.Equal(t, StateValidated, session.State)
	})

	t.Run("Session state updates on error", func(t *testing.T) {
		processor := NewImportProcessor()
		tenantID := uuid.New()
		userID := uuid.New()
		session := NewImportSession(tenantID, userID, EntityExpenses, "expenses.csv", 1024)

		csv := "description,amount\n,89.50" // Missing required field
		rules := []FieldRule{
			Field("description").Required().Build(),
			Field("amount").Build(),
		}

		_, err := processor.Validate(context.Background(), session, strings.NewReader(csv), rules)

		require.NoError(t, err)
		assert.Equal(t, StateFailed, session.State)
	})
}

func TestInMemorySessionStore(t *testing.T) {
	t.Run("Save and Get", func(t *testing.T) {
		store := NewInMemorySessionStore(time.Hour)
		tenantID := uuid.New()
		userID := uuid.New()
		session := NewImportSession(tenantID, userID, EntityExpenses, "expenses.csv", 1024)

		err := store.Save(session)
		require.NoError(t, err)

		retrieved, err := store.Get(session.ID)
		require.NoError(t, err)
		assert.Equal(t, session.ID, retrieved.ID)
	})

	t.Run("Get non-existent session", func(t *testing.T) {
		store := NewInMemorySessionStore(time.Hour)

		session, err := store.Get(uuid.New())
		require.NoError(t, err)
		assert.Nil(t, session)
	})

	t.Run("Delete session", func(t *testing.T) {
		store := NewInMemorySessionStore(time.Hour)
		tenantID := uuid.New()
		userID := uuid.New()
		session := NewImportSession(tenantID, userID, EntityExpenses, "expenses.csv", 1024)

		store.Save(session)
		err := store.Delete(session.ID)
		require.NoError(t, err)

		retrieved, _ := store.Get(session.ID)
		assert.Nil(t, retrieved)
	})

	t.Run("GetByTenant", func(t *testing.T) {
		store := NewInMemorySessionStore(time.Hour)
		tenantID := uuid.New()
		userID := uuid.New()

		session1 := NewImportSession(tenantID, userID, EntityExpenses, "q1.csv", 1024)
		session2 := NewImportSession(tenantID, userID, EntityExpenses, "q2.csv", 1024)
		session3 := NewImportSession(uuid.New(), userID, EntityExpenses, "other.csv", 1024) // Different tenant

		store.Save(session1)
		store.Save(session2)
		store.Save(session3)

		sessions, err := store.GetByTenant(tenantID, 10)
		require.NoError(t, err)
		assert.Len(t, sessions, 2)
	})

	t.Run("TTL expiration", func(t *testing.T) {
		store := NewInMemorySessionStore(time.Millisecond * 10)
		tenantID := uuid.New()
		userID := uuid.New()
		session := NewImportSession(tenantID, userID, EntityExpenses, "expenses.csv", 1024)

		store.Save(session)

		// Wait for TTL to expire
		time.Sleep(time.Millisecond * 20)

		retrieved, err := store.Get(session.ID)
		require.NoError(t, err)
		assert.Nil(t, retrieved)
	})

	t.Run("Cleanup removes expired", func(t *testing.T) {
		store := NewInMemorySessionStore(time.Millisecond * 10)
		tenantID := uuid.New()
		userID := uuid.New()
		session := NewImportSession(tenantID, userID, EntityExpenses, "expenses.csv", 1024)

		store.Save(session)

		// Wait for TTL to expire
		time.Sleep(time.Millisecond * 20)

		store.Cleanup()

		// Direct check - should have been cleaned up
		store.mu.RLock()
		defer store.mu.RUnlock()
		assert.Empty(t, store.sessions)
	})
}
