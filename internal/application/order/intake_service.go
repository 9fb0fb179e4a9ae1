package order

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	commissionapp "github.com/ecommerized/adperfumes-sub001/internal/application/commission"
	ordr "github.com/ecommerized/adperfumes-sub001/internal/domain/order"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared"
	"github.com/ecommerized/adperfumes-sub001/internal/infrastructure/telemetry"
)

// IntakeService ingests orders from the storefront into the accounting core.
// Checkout and payment collection live upstream; this service snapshots each
// line with its resolved commission so later rule changes never move money
// on existing orders.
type IntakeService struct {
	orderRepo   ordr.OrderRepository
	ruleService *commissionapp.RuleService
	publisher   shared.EventPublisher
	logger      *zap.Logger
}

// NewIntakeService creates an order IntakeService
func NewIntakeService(
	orderRepo ordr.OrderRepository,
	ruleService *commissionapp.RuleService,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *IntakeService {
	return &IntakeService{
		orderRepo:   orderRepo,
		ruleService: ruleService,
		publisher:   publisher,
		logger:      logger,
	}
}

// OrderItemResponse represents one order line in API responses
type OrderItemResponse struct {
	ID               uuid.UUID       `json:"id"`
	MerchantID       uuid.UUID       `json:"merchant_id"`
	ProductID        uuid.UUID       `json:"product_id"`
	ProductName      string          `json:"product_name"`
	BrandName        string          `json:"brand_name,omitempty"`
	Price            decimal.Decimal `json:"price"`
	Quantity         int             `json:"quantity"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	CommissionRate   decimal.Decimal `json:"commission_rate"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	CommissionSource string          `json:"commission_source"`
	SourceRuleID     *uuid.UUID      `json:"source_rule_id,omitempty"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID               uuid.UUID           `json:"id"`
	OrderNumber      string              `json:"order_number"`
	CustomerID       uuid.UUID           `json:"customer_id"`
	Items            []OrderItemResponse `json:"items"`
	Subtotal         decimal.Decimal     `json:"subtotal"`
	TaxAmount        decimal.Decimal     `json:"tax_amount"`
	GrandTotal       decimal.Decimal     `json:"grand_total"`
	PaymentStatus    ordr.PaymentStatus  `json:"payment_status"`
	PaymentReference string              `json:"payment_reference,omitempty"`
	PaidAt           *time.Time          `json:"paid_at,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
}

func toOrderResponse(o *ordr.Order) *OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemResponse{
			ID:               item.ID,
			MerchantID:       item.MerchantID,
			ProductID:        item.ProductID,
			ProductName:      item.ProductName,
			BrandName:        item.BrandName,
			Price:            item.Price,
			Quantity:         item.Quantity,
			Subtotal:         item.Subtotal,
			CommissionRate:   item.CommissionRate,
			CommissionAmount: item.CommissionAmount,
			CommissionSource: item.CommissionSource,
			SourceRuleID:     item.SourceRuleID,
		})
	}
	return &OrderResponse{
		ID:               o.ID,
		OrderNumber:      o.OrderNumber,
		CustomerID:       o.CustomerID,
		Items:            items,
		Subtotal:         o.Subtotal,
		TaxAmount:        o.TaxAmount,
		GrandTotal:       o.GrandTotal,
		PaymentStatus:    o.PaymentStatus,
		PaymentReference: o.PaymentReference,
		PaidAt:           o.PaidAt,
		CreatedAt:        o.CreatedAt,
	}
}

// IngestOrderItem is one purchased line handed over by the storefront
type IngestOrderItem struct {
	MerchantID  uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	BrandName   string
	CategoryIDs []uuid.UUID
	Price       decimal.Decimal
	Quantity    int
}

// IngestOrderInput carries a storefront order handover
type IngestOrderInput struct {
	TenantID    uuid.UUID
	OrderNumber string
	CustomerID  uuid.UUID
	TaxAmount   decimal.Decimal
	Items       []IngestOrderItem
}

// IngestOrder records a storefront order, resolving and freezing the
// commission for every line. Order numbers are issued upstream and must be
// unique per tenant.
func (s *IntakeService) IngestOrder(ctx context.Context, input IngestOrderInput) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "ingest")
	defer span.End()

	existing, err := s.orderRepo.FindByOrderNumber(ctx, input.TenantID, input.OrderNumber)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to check order number: %w", err)
	}
	if existing != nil {
		err := shared.NewDomainError("DUPLICATE_ORDER_NUMBER", "An order with this number already exists")
		telemetry.RecordError(span, err)
		return nil, err
	}

	o, err := ordr.NewOrder(input.TenantID, input.OrderNumber, input.CustomerID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	now := time.Now()
	for _, line := range input.Items {
		subtotal := line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2)
		rate, err := s.ruleService.ResolveRate(ctx, commissionapp.ResolveRateRequest{
			TenantID:    input.TenantID,
			MerchantID:  line.MerchantID,
			ProductID:   line.ProductID,
			CategoryIDs: line.CategoryIDs,
			Subtotal:    subtotal,
			Date:        now,
		})
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		if _, err := o.AddItem(line.MerchantID, line.ProductID, line.ProductName, line.BrandName, line.Price, line.Quantity, rate); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	if err := o.SetTax(input.TaxAmount); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.orderRepo.Save(ctx, o); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	s.logger.Info("order ingested",
		zap.String("order_number", o.OrderNumber),
		zap.Int("items", len(o.Items)),
		zap.String("grand_total", o.GrandTotal.StringFixed(2)),
	)

	return toOrderResponse(o), nil
}

// MarkOrderPaid records the payment confirmation for an order. Idempotent:
// confirming an already paid order returns it unchanged.
func (s *IntakeService) MarkOrderPaid(ctx context.Context, tenantID, orderID uuid.UUID, paymentReference string) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "mark_paid")
	defer span.End()

	o, err := s.orderRepo.FindByID(ctx, tenantID, orderID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if o == nil {
		err := shared.NewDomainError("ORDER_NOT_FOUND", "Order not found")
		telemetry.RecordError(span, err)
		return nil, err
	}

	wasPaid := o.IsPaid()
	if err := o.MarkPaid(paymentReference); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if wasPaid {
		return toOrderResponse(o), nil
	}

	if err := s.orderRepo.Save(ctx, o); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	s.publishEvents(ctx, o.GetDomainEvents())
	o.ClearDomainEvents()

	s.logger.Info("order paid",
		zap.String("order_number", o.OrderNumber),
		zap.String("payment_reference", paymentReference),
	)

	return toOrderResponse(o), nil
}

// GetOrder returns one order by ID with its items
func (s *IntakeService) GetOrder(ctx context.Context, tenantID, id uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if o == nil {
		return nil, shared.ErrNotFound
	}
	return toOrderResponse(o), nil
}

// ListOrders lists orders for a tenant with filtering
func (s *IntakeService) ListOrders(ctx context.Context, tenantID uuid.UUID, filter ordr.OrderFilter) ([]*OrderResponse, error) {
	orders, err := s.orderRepo.FindAll(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	out := make([]*OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderResponse(&orders[i]))
	}
	return out, nil
}

func (s *IntakeService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.publisher == nil {
		return
	}
	for _, event := range events {
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Error("failed to publish domain event",
				zap.String("event_type", event.EventType()), zap.Error(err))
		}
	}
}
