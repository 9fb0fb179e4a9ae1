package persistence

import (
	"strings"
)

// ValidateSortOrder normalizes the sort direction to ASC or DESC, falling
// back to DESC for anything unrecognized.
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField checks a caller-supplied sort column against the entity's
// whitelist. Returns defaultField when the input is empty or not allowed.
// Filters accept column names straight from query strings, so everything that
// ends up in an ORDER BY clause goes through here.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// MerchantSortFields contains allowed sort fields for merchants
var MerchantSortFields = map[string]bool{
	"id":                    true,
	"created_at":            true,
	"updated_at":            true,
	"code":                  true,
	"name":                  true,
	"status":                true,
	"commission_percentage": true,
}

// CommissionRuleSortFields contains allowed sort fields for commission rules
var CommissionRuleSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"level":      true,
	"priority":   true,
	"is_active":  true,
	"valid_from": true,
	"valid_to":   true,
}

// OrderSortFields contains allowed sort fields for orders
var OrderSortFields = map[string]bool{
	"id":                true,
	"created_at":        true,
	"updated_at":        true,
	"order_number":      true,
	"merchant_id":       true,
	"status":            true,
	"subtotal":          true,
	"tax_amount":        true,
	"total_amount":      true,
	"commission_amount": true,
	"paid_at":           true,
}

// RefundSortFields contains allowed sort fields for refunds
var RefundSortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"refund_number":   true,
	"order_id":        true,
	"merchant_id":     true,
	"status":          true,
	"refund_subtotal": true,
	"refund_tax":      true,
	"completed_at":    true,
}

// SettlementSortFields contains allowed sort fields for settlements
var SettlementSortFields = map[string]bool{
	"id":                true,
	"created_at":        true,
	"updated_at":        true,
	"settlement_number": true,
	"merchant_id":       true,
	"status":            true,
	"total_subtotal":    true,
	"net_payable":       true,
	"period_start":      true,
	"period_end":        true,
	"paid_at":           true,
}
