package settlement

import (
	"fmt"
	"sort"
	"strings"

	ordr "github.com/ecommerized/adperfumes-sub001/internal/domain/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Calculator folds paid orders into a merchant settlement. Commission figures
// come from the rates frozen in the order items at order time, never from a
// fresh rule lookup.
type Calculator struct {
	vatRate decimal.Decimal
}

// NewCalculator creates a settlement calculator with the VAT rate charged on
// the platform's commission
func NewCalculator(vatRate decimal.Decimal) *Calculator {
	return &Calculator{vatRate: vatRate}
}

// Contribution extracts one paid order's share for the merchant. Returns
// (zero, false) when the order carries no items for that merchant.
func (c *Calculator) Contribution(o *ordr.Order, merchantID uuid.UUID) (OrderContribution, bool) {
	items := o.ItemsForMerchant(merchantID)
	if len(items) == 0 {
		return OrderContribution{}, false
	}

	subtotal := o.SubtotalForMerchant(merchantID)
	commission := o.CommissionForMerchant(merchantID)
	taxShare := o.AllocateTax()[merchantID]

	return OrderContribution{
		OrderID:          o.ID,
		OrderNumber:      o.OrderNumber,
		Subtotal:         subtotal,
		TaxShare:         taxShare,
		CommissionAmount: commission,
		CommissionRate:   effectiveRate(commission, subtotal),
		CommissionSource: sourceSummary(items),
	}, true
}

// Build adds every eligible order to the settlement. Orders that are not paid
// or carry nothing for the merchant are skipped; orders already in the
// settlement are skipped rather than rejected so a retried build is safe.
func (c *Calculator) Build(s *Settlement, orders []*ordr.Order) error {
	for _, o := range orders {
		if !o.IsPaid() {
			continue
		}
		if s.ContainsOrder(o.ID) {
			continue
		}
		contribution, ok := c.Contribution(o, s.MerchantID)
		if !ok {
			continue
		}
		if _, err := s.AddOrder(contribution); err != nil {
			return fmt.Errorf("add order %s to settlement %s: %w", o.OrderNumber, s.SettlementNumber, err)
		}
	}
	return nil
}

// effectiveRate is the blended percentage actually charged across the
// merchant's lines in one order, kept for the audit row
func effectiveRate(commission, subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.IsZero() {
		return decimal.Zero
	}
	return commission.Mul(decimal.NewFromInt(100)).Div(subtotal).Round(2)
}

// sourceSummary joins the distinct commission sources applied to the lines
func sourceSummary(items []ordr.OrderItem) string {
	seen := make(map[string]bool)
	sources := make([]string, 0, 1)
	for _, item := range items {
		if item.CommissionSource == "" || seen[item.CommissionSource] {
			continue
		}
		seen[item.CommissionSource] = true
		sources = append(sources, item.CommissionSource)
	}
	sort.Strings(sources)
	return strings.Join(sources, ",")
}
