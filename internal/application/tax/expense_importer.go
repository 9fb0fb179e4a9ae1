package tax

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/tax"
	csvimport "github.com/ecommerized/adperfumes-sub001/internal/infrastructure/import"
)

// expenseImportMaxErrors caps how many row errors a single import reports
const expenseImportMaxErrors = 100

// ExpenseImportResult summarises a bulk expense import
type ExpenseImportResult struct {
	TotalRows    int                  `json:"total_rows"`
	ImportedRows int                  `json:"imported_rows"`
	ErrorRows    int                  `json:"error_rows"`
	Errors       []csvimport.RowError `json:"errors,omitempty"`
	IsTruncated  bool                 `json:"is_truncated,omitempty"`
	TotalErrors  int                  `json:"total_errors,omitempty"`
}

// ExpenseImportService ingests expenses from CSV uploads so the input VAT
// side of a return can be loaded in bulk from accounting exports.
type ExpenseImportService struct {
	expenseRepo tax.ExpenseRepository
	processor   *csvimport.ImportProcessor
	sessions    csvimport.SessionStore
	logger      *zap.Logger
}

// NewExpenseImportService creates a new ExpenseImportService
func NewExpenseImportService(expenseRepo tax.ExpenseRepository, logger *zap.Logger) *ExpenseImportService {
	return &ExpenseImportService{
		expenseRepo: expenseRepo,
		processor:   csvimport.NewImportProcessor(csvimport.WithMaxErrors(expenseImportMaxErrors)),
		sessions:    csvimport.NewInMemorySessionStore(time.Hour),
		logger:      logger,
	}
}

// expenseImportHeaders are the columns every expense CSV must carry
var expenseImportHeaders = []string{"description", "category", "amount", "vat_amount", "expense_date"}

// validationRules returns the field rules for expense import
func (s *ExpenseImportService) validationRules() []csvimport.FieldRule {
	zero := decimal.Zero
	return []csvimport.FieldRule{
		csvimport.Field("description").Required().String().MinLength(1).MaxLength(255).Build(),
		csvimport.Field("category").Required().String().MinLength(1).MaxLength(50).Build(),
		csvimport.Field("amount").Required().Decimal().MinValue(zero).Build(),
		csvimport.Field("vat_amount").Required().Decimal().MinValue(zero).Build(),
		csvimport.Field("expense_date").Required().Date().Build(),
	}
}

// ValidateCSV runs a dry-run validation and returns the result with a row
// preview. The session is retained for one hour so callers can inspect it
// before committing the import.
func (s *ExpenseImportService) ValidateCSV(ctx context.Context, tenantID, userID uuid.UUID, fileName string, data []byte) (*csvimport.ImportSession, error) {
	parser, err := csvimport.ParseFromBytes(data)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_CSV", err.Error())
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, shared.NewDomainError("INVALID_CSV", err.Error())
	}
	if missing := parser.ValidateHeaders(expenseImportHeaders); len(missing) > 0 {
		return nil, shared.NewDomainError("MISSING_COLUMNS", "CSV is missing required columns: "+joinColumns(missing))
	}

	session := csvimport.NewImportSession(tenantID, userID, csvimport.EntityExpenses, fileName, int64(len(data)))
	if _, err := s.processor.Validate(ctx, session, bytes.NewReader(data), s.validationRules()); err != nil {
		return nil, shared.NewDomainError("VALIDATION_FAILED", err.Error())
	}
	if err := s.sessions.Save(session); err != nil {
		s.logger.Warn("Failed to store import session", zap.Error(err))
	}
	return session, nil
}

// GetSession returns a previously validated import session, or nil when the
// session is unknown or expired.
func (s *ExpenseImportService) GetSession(id uuid.UUID) (*csvimport.ImportSession, error) {
	return s.sessions.Get(id)
}

// ImportCSV parses, validates and persists expenses from raw CSV data.
// Rows that fail validation are reported in the result; valid rows are
// imported regardless of failures elsewhere in the file.
func (s *ExpenseImportService) ImportCSV(ctx context.Context, tenantID uuid.UUID, data []byte) (*ExpenseImportResult, error) {
	parser, err := csvimport.ParseFromBytes(data)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_CSV", err.Error())
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, shared.NewDomainError("INVALID_CSV", err.Error())
	}
	if missing := parser.ValidateHeaders(expenseImportHeaders); len(missing) > 0 {
		return nil, shared.NewDomainError("MISSING_COLUMNS", "CSV is missing required columns: "+joinColumns(missing))
	}

	rows, err := parser.ReadAllRows()
	if err != nil {
		return nil, shared.NewDomainError("INVALID_CSV", err.Error())
	}

	validator := csvimport.NewFieldValidator(s.validationRules(), expenseImportMaxErrors)
	result := &ExpenseImportResult{}

	for _, row := range rows {
		if row.IsEmpty() {
			continue
		}
		result.TotalRows++

		if !validator.ValidateRow(row) {
			result.ErrorRows++
			continue
		}

		expense, derr := s.buildExpense(tenantID, row)
		if derr != nil {
			validator.Errors().AddValidationError(row.LineNumber, "", derr.Code, derr.Message)
			result.ErrorRows++
			continue
		}

		if err := s.expenseRepo.Save(ctx, expense); err != nil {
			s.logger.Error("Failed to save imported expense",
				zap.Error(err),
				zap.Int("line", row.LineNumber))
			validator.Errors().AddValidationError(row.LineNumber, "", "SAVE_FAILED", "Failed to save expense")
			result.ErrorRows++
			continue
		}
		result.ImportedRows++
	}

	errs := validator.Errors()
	result.Errors = errs.Errors()
	result.IsTruncated = errs.IsTruncated()
	result.TotalErrors = errs.TotalCount()

	s.logger.Info("Expense import finished",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("total", result.TotalRows),
		zap.Int("imported", result.ImportedRows),
		zap.Int("errors", result.ErrorRows))

	return result, nil
}

// buildExpense converts a validated CSV row into an Expense aggregate
func (s *ExpenseImportService) buildExpense(tenantID uuid.UUID, row *csvimport.Row) (*tax.Expense, *shared.DomainError) {
	amount, err := decimal.NewFromString(row.Get("amount"))
	if err != nil {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount is not a valid decimal")
	}
	vatAmount, err := decimal.NewFromString(row.Get("vat_amount"))
	if err != nil {
		return nil, shared.NewDomainError("INVALID_VAT_AMOUNT", "VAT amount is not a valid decimal")
	}
	expenseDate, err := time.Parse("2006-01-02", row.Get("expense_date"))
	if err != nil {
		return nil, shared.NewDomainError("INVALID_DATE", "Expense date must be YYYY-MM-DD")
	}

	expense, derr := tax.NewExpense(tenantID, row.Get("description"), row.Get("category"), amount, vatAmount, expenseDate, true)
	if derr != nil {
		var de *shared.DomainError
		if errors.As(derr, &de) {
			return nil, de
		}
		return nil, shared.NewDomainError("INVALID_EXPENSE", derr.Error())
	}
	return expense, nil
}

func joinColumns(cols []string) string {
	out := ""
	for i, c := range cols {
		if i > 0 {
			out += ", "
		}
		out += c
	}
	return out
}
