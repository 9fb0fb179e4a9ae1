package order

import (
	"sort"
	"time"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/commission"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus represents the payment state of an order
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// OrderItem is an immutable snapshot of one purchased line. The commission
// rate and amount are frozen at order time and never recomputed, so
// historical invoices and settlements stay stable when rules change later.
type OrderItem struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	MerchantID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName      string          `gorm:"type:varchar(200);not null"`
	BrandName        string          `gorm:"type:varchar(100)"`
	Price            decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Quantity         int             `gorm:"not null"`
	Subtotal         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CommissionRate   decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	CommissionAmount decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CommissionSource string          `gorm:"type:varchar(30);not null"`
	SourceRuleID     *uuid.UUID      `gorm:"type:uuid"`
	CreatedAt        time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderItem) TableName() string {
	return "order_items"
}

// SubtotalMoney returns the line subtotal as Money
func (i *OrderItem) SubtotalMoney() valueobject.Money {
	return valueobject.NewMoneyAED(i.Subtotal)
}

// CommissionMoney returns the frozen commission amount as Money
func (i *OrderItem) CommissionMoney() valueobject.Money {
	return valueobject.NewMoneyAED(i.CommissionAmount)
}

// Order represents a customer order aggregate root. The checkout and payment
// flow lives outside this module; the accounting core reads orders once their
// payment status reaches PAID.
type Order struct {
	shared.TenantAggregateRoot
	OrderNumber      string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_order_tenant_number,priority:2"`
	CustomerID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Items            []OrderItem     `gorm:"foreignKey:OrderID;references:ID"`
	Subtotal         decimal.Decimal `gorm:"type:decimal(18,2);not null"` // Sum of item subtotals
	TaxAmount        decimal.Decimal `gorm:"type:decimal(18,2);not null"` // Order-level VAT
	GrandTotal       decimal.Decimal `gorm:"type:decimal(18,2);not null"` // Subtotal + tax
	PaymentStatus    PaymentStatus   `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	PaymentReference string          `gorm:"type:varchar(100)"`
	PaidAt           *time.Time
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// NewOrder creates a new pending order
func NewOrder(tenantID uuid.UUID, orderNumber string, customerID uuid.UUID) (*Order, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}

	return &Order{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		OrderNumber:         orderNumber,
		CustomerID:          customerID,
		Items:               make([]OrderItem, 0),
		Subtotal:            decimal.Zero,
		TaxAmount:           decimal.Zero,
		GrandTotal:          decimal.Zero,
		PaymentStatus:       PaymentStatusPending,
	}, nil
}

// AddItem snapshots one purchased line with its resolved commission. The
// rate spec comes from the commission engine and is frozen here for good.
func (o *Order) AddItem(
	merchantID, productID uuid.UUID,
	productName, brandName string,
	price decimal.Decimal,
	quantity int,
	rate *commission.RateSpec,
) (*OrderItem, error) {
	if o.PaymentStatus != PaymentStatusPending {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add items after payment")
	}
	if merchantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MERCHANT", "Merchant ID cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if productName == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	if quantity < 1 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
	}
	if rate == nil {
		return nil, shared.NewDomainError("INVALID_RATE_SPEC", "Commission rate spec is required")
	}

	subtotal := price.Mul(decimal.NewFromInt(int64(quantity))).Round(2)

	item := OrderItem{
		ID:               uuid.New(),
		OrderID:          o.ID,
		MerchantID:       merchantID,
		ProductID:        productID,
		ProductName:      productName,
		BrandName:        brandName,
		Price:            price,
		Quantity:         quantity,
		Subtotal:         subtotal,
		CommissionRate:   rate.Rate,
		CommissionAmount: rate.Amount.RoundCents().Amount(),
		CommissionSource: rate.Source,
		SourceRuleID:     rate.SourceRuleID,
		CreatedAt:        time.Now(),
	}

	o.Items = append(o.Items, item)
	o.Subtotal = o.Subtotal.Add(subtotal)
	o.GrandTotal = o.Subtotal.Add(o.TaxAmount)
	o.UpdatedAt = time.Now()

	return &o.Items[len(o.Items)-1], nil
}

// SetTax sets the order-level VAT amount before payment
func (o *Order) SetTax(tax decimal.Decimal) error {
	if o.PaymentStatus != PaymentStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Cannot change tax after payment")
	}
	if tax.IsNegative() {
		return shared.NewDomainError("INVALID_TAX", "Tax cannot be negative")
	}
	o.TaxAmount = tax
	o.GrandTotal = o.Subtotal.Add(tax)
	o.UpdatedAt = time.Now()
	return nil
}

// MarkPaid transitions the order to PAID. Idempotent on repeat calls.
func (o *Order) MarkPaid(paymentReference string) error {
	if o.PaymentStatus == PaymentStatusPaid {
		return nil // Already paid, idempotent
	}
	if o.PaymentStatus != PaymentStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Only pending orders can be marked paid")
	}
	if len(o.Items) == 0 {
		return shared.NewDomainError("EMPTY_ORDER", "Cannot mark an empty order paid")
	}

	now := time.Now()
	o.PaymentStatus = PaymentStatusPaid
	o.PaymentReference = paymentReference
	o.PaidAt = &now
	o.UpdatedAt = now

	o.AddDomainEvent(NewOrderPaidEvent(o))

	return nil
}

// IsPaid returns true once the order has been paid
func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusPaid
}

// MerchantIDs returns the distinct merchants with items on this order
func (o *Order) MerchantIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	ids := make([]uuid.UUID, 0)
	for _, item := range o.Items {
		if !seen[item.MerchantID] {
			seen[item.MerchantID] = true
			ids = append(ids, item.MerchantID)
		}
	}
	return ids
}

// ItemsForMerchant returns this merchant's lines on the order
func (o *Order) ItemsForMerchant(merchantID uuid.UUID) []OrderItem {
	items := make([]OrderItem, 0)
	for _, item := range o.Items {
		if item.MerchantID == merchantID {
			items = append(items, item)
		}
	}
	return items
}

// SubtotalForMerchant sums this merchant's item subtotals
func (o *Order) SubtotalForMerchant(merchantID uuid.UUID) decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		if item.MerchantID == merchantID {
			total = total.Add(item.Subtotal)
		}
	}
	return total
}

// CommissionForMerchant sums this merchant's frozen commission amounts
func (o *Order) CommissionForMerchant(merchantID uuid.UUID) decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		if item.MerchantID == merchantID {
			total = total.Add(item.CommissionAmount)
		}
	}
	return total
}

// AllocateTax splits the order-level tax across merchants pro-rata by each
// merchant's share of the order subtotal. Remainder cents go to the merchant
// with the largest share so the allocations always sum to the order tax.
func (o *Order) AllocateTax() map[uuid.UUID]decimal.Decimal {
	allocations := make(map[uuid.UUID]decimal.Decimal)
	merchants := o.MerchantIDs()
	if len(merchants) == 0 || o.Subtotal.IsZero() {
		return allocations
	}

	allocated := decimal.Zero
	shares := make(map[uuid.UUID]decimal.Decimal, len(merchants))
	for _, mid := range merchants {
		share := o.SubtotalForMerchant(mid)
		shares[mid] = share
		portion := o.TaxAmount.Mul(share).Div(o.Subtotal).Round(2)
		allocations[mid] = portion
		allocated = allocated.Add(portion)
	}

	remainder := o.TaxAmount.Sub(allocated)
	if !remainder.IsZero() {
		sort.Slice(merchants, func(i, j int) bool {
			a, b := shares[merchants[i]], shares[merchants[j]]
			if !a.Equal(b) {
				return a.GreaterThan(b)
			}
			return merchants[i].String() < merchants[j].String()
		})
		largest := merchants[0]
		allocations[largest] = allocations[largest].Add(remainder)
	}
	return allocations
}
