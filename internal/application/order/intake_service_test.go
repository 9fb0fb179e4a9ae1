package order

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	commissionapp "github.com/ecommerized/adperfumes-sub001/internal/application/commission"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/commission"
	ordr "github.com/ecommerized/adperfumes-sub001/internal/domain/order"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared"
)

type fakeOrderRepo struct {
	orders map[uuid.UUID]*ordr.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*ordr.Order)}
}

func (f *fakeOrderRepo) FindByID(_ context.Context, _, id uuid.UUID) (*ordr.Order, error) {
	return f.orders[id], nil
}

func (f *fakeOrderRepo) FindByOrderNumber(_ context.Context, _ uuid.UUID, orderNumber string) (*ordr.Order, error) {
	for _, o := range f.orders {
		if o.OrderNumber == orderNumber {
			return o, nil
		}
	}
	return nil, nil
}

func (f *fakeOrderRepo) FindAll(_ context.Context, _ uuid.UUID, _ ordr.OrderFilter) ([]ordr.Order, error) {
	out := make([]ordr.Order, 0, len(f.orders))
	for _, o := range f.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (f *fakeOrderRepo) FindUnsettledPaidForMerchant(_ context.Context, _, _ uuid.UUID, _ time.Time) ([]ordr.Order, error) {
	return nil, nil
}

func (f *fakeOrderRepo) SumPaidSubtotalsInPeriod(_ context.Context, _ uuid.UUID, _, _ time.Time) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (f *fakeOrderRepo) SumPaidTaxInPeriod(_ context.Context, _ uuid.UUID, _, _ time.Time) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (f *fakeOrderRepo) Save(_ context.Context, o *ordr.Order) error {
	f.orders[o.ID] = o
	return nil
}

type fakeRuleRepo struct {
	rules []commission.CommissionRule
}

func (f *fakeRuleRepo) FindByID(_ context.Context, _, id uuid.UUID) (*commission.CommissionRule, error) {
	for i := range f.rules {
		if f.rules[i].ID == id {
			return &f.rules[i], nil
		}
	}
	return nil, nil
}

func (f *fakeRuleRepo) FindAll(_ context.Context, _ uuid.UUID, _ commission.CommissionRuleFilter) ([]commission.CommissionRule, error) {
	return f.rules, nil
}

func (f *fakeRuleRepo) FindCandidates(_ context.Context, _, _, _ uuid.UUID, _ []uuid.UUID) ([]commission.CommissionRule, error) {
	return f.rules, nil
}

func (f *fakeRuleRepo) Save(_ context.Context, rule *commission.CommissionRule) error {
	f.rules = append(f.rules, *rule)
	return nil
}

func (f *fakeRuleRepo) Count(_ context.Context, _ uuid.UUID, _ commission.CommissionRuleFilter) (int64, error) {
	return int64(len(f.rules)), nil
}

type fakeMerchantRepo struct {
	merchants map[uuid.UUID]*commission.Merchant
}

func (f *fakeMerchantRepo) FindByID(_ context.Context, _, id uuid.UUID) (*commission.Merchant, error) {
	return f.merchants[id], nil
}

func (f *fakeMerchantRepo) FindByCode(_ context.Context, _ uuid.UUID, code string) (*commission.Merchant, error) {
	for _, m := range f.merchants {
		if m.Code == code {
			return m, nil
		}
	}
	return nil, nil
}

func (f *fakeMerchantRepo) FindActive(_ context.Context, _ uuid.UUID) ([]commission.Merchant, error) {
	out := make([]commission.Merchant, 0, len(f.merchants))
	for _, m := range f.merchants {
		if m.IsActive {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMerchantRepo) Save(_ context.Context, m *commission.Merchant) error {
	f.merchants[m.ID] = m
	return nil
}

type capturingPublisher struct {
	events []shared.DomainEvent
}

func (p *capturingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

func newTestIntake(t *testing.T) (*IntakeService, *fakeOrderRepo, *capturingPublisher, uuid.UUID, uuid.UUID) {
	t.Helper()

	tenantID := uuid.New()
	merchant, err := commission.NewMerchant(tenantID, "M001", "Dar Al Teeb")
	require.NoError(t, err)

	merchantRepo := &fakeMerchantRepo{merchants: map[uuid.UUID]*commission.Merchant{merchant.ID: merchant}}
	ruleSvc := commissionapp.NewRuleService(&fakeRuleRepo{}, merchantRepo)

	orderRepo := newFakeOrderRepo()
	publisher := &capturingPublisher{}
	svc := NewIntakeService(orderRepo, ruleSvc, publisher, zap.NewNop())
	return svc, orderRepo, publisher, tenantID, merchant.ID
}

func TestIntakeService_IngestOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("freezes merchant default commission into each line", func(t *testing.T) {
		svc, _, _, tenantID, merchantID := newTestIntake(t)

		resp, err := svc.IngestOrder(ctx, IngestOrderInput{
			TenantID:    tenantID,
			OrderNumber: "ORD-1001",
			CustomerID:  uuid.New(),
			TaxAmount:   decimal.NewFromInt(10),
			Items: []IngestOrderItem{
				{
					MerchantID:  merchantID,
					ProductID:   uuid.New(),
					ProductName: "Oud Royale 50ml",
					BrandName:   "Dar Al Teeb",
					Price:       decimal.NewFromInt(100),
					Quantity:    2,
				},
			},
		})
		require.NoError(t, err)

		require.Len(t, resp.Items, 1)
		assert.True(t, resp.Items[0].CommissionRate.Equal(decimal.NewFromInt(15)))
		assert.True(t, resp.Items[0].CommissionAmount.Equal(decimal.NewFromInt(30)))
		assert.Equal(t, "MERCHANT_DEFAULT", resp.Items[0].CommissionSource)
		assert.True(t, resp.Subtotal.Equal(decimal.NewFromInt(200)))
		assert.True(t, resp.GrandTotal.Equal(decimal.NewFromInt(210)))
		assert.Equal(t, ordr.PaymentStatusPending, resp.PaymentStatus)
	})

	t.Run("rejects duplicate order number", func(t *testing.T) {
		svc, _, _, tenantID, merchantID := newTestIntake(t)

		input := IngestOrderInput{
			TenantID:    tenantID,
			OrderNumber: "ORD-1002",
			CustomerID:  uuid.New(),
			Items: []IngestOrderItem{
				{
					MerchantID:  merchantID,
					ProductID:   uuid.New(),
					ProductName: "Amber Musk 30ml",
					Price:       decimal.NewFromInt(50),
					Quantity:    1,
				},
			},
		}
		_, err := svc.IngestOrder(ctx, input)
		require.NoError(t, err)

		_, err = svc.IngestOrder(ctx, input)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "DUPLICATE_ORDER_NUMBER", domainErr.Code)
	})

	t.Run("rejects unknown merchant", func(t *testing.T) {
		svc, _, _, tenantID, _ := newTestIntake(t)

		_, err := svc.IngestOrder(ctx, IngestOrderInput{
			TenantID:    tenantID,
			OrderNumber: "ORD-1003",
			CustomerID:  uuid.New(),
			Items: []IngestOrderItem{
				{
					MerchantID:  uuid.New(),
					ProductID:   uuid.New(),
					ProductName: "Rose Attar 10ml",
					Price:       decimal.NewFromInt(80),
					Quantity:    1,
				},
			},
		})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "MERCHANT_NOT_FOUND", domainErr.Code)
	})
}

func TestIntakeService_MarkOrderPaid(t *testing.T) {
	ctx := context.Background()

	ingest := func(t *testing.T, svc *IntakeService, tenantID, merchantID uuid.UUID) uuid.UUID {
		t.Helper()
		resp, err := svc.IngestOrder(ctx, IngestOrderInput{
			TenantID:    tenantID,
			OrderNumber: "ORD-2001",
			CustomerID:  uuid.New(),
			Items: []IngestOrderItem{
				{
					MerchantID:  merchantID,
					ProductID:   uuid.New(),
					ProductName: "Saffron Oud 100ml",
					Price:       decimal.NewFromInt(300),
					Quantity:    1,
				},
			},
		})
		require.NoError(t, err)
		return resp.ID
	}

	t.Run("publishes the paid event once", func(t *testing.T) {
		svc, _, publisher, tenantID, merchantID := newTestIntake(t)
		orderID := ingest(t, svc, tenantID, merchantID)

		resp, err := svc.MarkOrderPaid(ctx, tenantID, orderID, "PAY-REF-77")
		require.NoError(t, err)
		assert.Equal(t, ordr.PaymentStatusPaid, resp.PaymentStatus)
		assert.Equal(t, "PAY-REF-77", resp.PaymentReference)
		require.NotNil(t, resp.PaidAt)
		require.Len(t, publisher.events, 1)

		// Repeat confirmation is a no-op, not a second event
		resp, err = svc.MarkOrderPaid(ctx, tenantID, orderID, "PAY-REF-78")
		require.NoError(t, err)
		assert.Equal(t, "PAY-REF-77", resp.PaymentReference)
		assert.Len(t, publisher.events, 1)
	})

	t.Run("unknown order", func(t *testing.T) {
		svc, _, _, tenantID, _ := newTestIntake(t)

		_, err := svc.MarkOrderPaid(ctx, tenantID, uuid.New(), "PAY-REF-79")
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "ORDER_NOT_FOUND", domainErr.Code)
	})
}
