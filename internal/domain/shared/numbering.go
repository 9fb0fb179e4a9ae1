package shared

import (
	"context"
	"fmt"
	"time"
)

// Document number prefixes used across the ledger. Numbers are unique and
// monotonic per prefix+period and are never reused, even when the underlying
// record is soft-deleted.
const (
	PrefixInvoice    = "INV"
	PrefixCreditNote = "CN"
	PrefixRefund     = "RFD"
	PrefixDebitNote  = "DN"
	PrefixSettlement = "STL"
	PrefixVatReturn  = "VAT"
)

// MonthlyPeriod returns the YYYYMM period key for a point in time.
func MonthlyPeriod(t time.Time) string {
	return t.Format("200601")
}

// QuarterlyPeriod returns the YYYY-Qn period key for a point in time.
func QuarterlyPeriod(t time.Time) string {
	quarter := (int(t.Month())-1)/3 + 1
	return fmt.Sprintf("%d-Q%d", t.Year(), quarter)
}

// FormatDocumentNumber renders a monthly document number, e.g. INV-202501-00001.
func FormatDocumentNumber(prefix, period string, seq int64) string {
	return fmt.Sprintf("%s-%s-%05d", prefix, period, seq)
}

// FormatDebitNoteNumber renders a debit note number scoped to a merchant code,
// e.g. DN-202501-M003-00001.
func FormatDebitNoteNumber(period, merchantCode string, seq int64) string {
	return fmt.Sprintf("%s-%s-%s-%05d", PrefixDebitNote, period, merchantCode, seq)
}

// FormatVatReturnNumber renders a VAT return number, e.g. VAT-2025-Q1-001.
func FormatVatReturnNumber(period string, seq int64) string {
	return fmt.Sprintf("%s-%s-%03d", PrefixVatReturn, period, seq)
}

// NumberSequencer issues the next sequence value for a prefix+period pair.
// Implementations must be safe under concurrent callers: two transactions
// requesting the same prefix+period never receive the same value.
type NumberSequencer interface {
	Next(ctx context.Context, prefix, period string) (int64, error)
}
