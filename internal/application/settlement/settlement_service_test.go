package settlement

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/audit"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/commission"
	ordr "github.com/ecommerized/adperfumes-sub001/internal/domain/order"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/refund"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/settlement"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memSettlementRepo struct {
	settlements map[uuid.UUID]*settlement.Settlement
}

func (m *memSettlementRepo) FindByID(_ context.Context, _, id uuid.UUID) (*settlement.Settlement, error) {
	return m.settlements[id], nil
}

func (m *memSettlementRepo) FindByNumber(_ context.Context, _ uuid.UUID, number string) (*settlement.Settlement, error) {
	for _, s := range m.settlements {
		if s.SettlementNumber == number {
			return s, nil
		}
	}
	return nil, nil
}

func (m *memSettlementRepo) FindAll(_ context.Context, _ uuid.UUID, _ settlement.Filter) ([]*settlement.Settlement, error) {
	var out []*settlement.Settlement
	for _, s := range m.settlements {
		out = append(out, s)
	}
	return out, nil
}

func (m *memSettlementRepo) FindPendingForMerchant(_ context.Context, _, merchantID uuid.UUID) (*settlement.Settlement, error) {
	for _, s := range m.settlements {
		if s.MerchantID == merchantID && s.Status == settlement.StatusPending {
			return s, nil
		}
	}
	return nil, nil
}

func (m *memSettlementRepo) FindPaidContainingOrder(_ context.Context, _, orderID, merchantID uuid.UUID) (*settlement.Settlement, error) {
	for _, s := range m.settlements {
		if s.MerchantID == merchantID && s.Status == settlement.StatusPaid && s.ContainsOrder(orderID) {
			return s, nil
		}
	}
	return nil, nil
}

func (m *memSettlementRepo) Save(_ context.Context, s *settlement.Settlement) error {
	m.settlements[s.ID] = s
	return nil
}

func (m *memSettlementRepo) Count(_ context.Context, _ uuid.UUID, _ settlement.Filter) (int64, error) {
	return int64(len(m.settlements)), nil
}

type memDebitNoteRepo struct {
	notes map[uuid.UUID]*settlement.MerchantDebitNote
}

func (m *memDebitNoteRepo) FindByID(_ context.Context, _, id uuid.UUID) (*settlement.MerchantDebitNote, error) {
	return m.notes[id], nil
}

func (m *memDebitNoteRepo) FindByRefundID(_ context.Context, _, refundID uuid.UUID) (*settlement.MerchantDebitNote, error) {
	for _, n := range m.notes {
		if n.RefundID == refundID {
			return n, nil
		}
	}
	return nil, nil
}

func (m *memDebitNoteRepo) FindPendingForMerchant(_ context.Context, _, merchantID uuid.UUID) ([]*settlement.MerchantDebitNote, error) {
	var out []*settlement.MerchantDebitNote
	for _, n := range m.notes {
		if n.MerchantID == merchantID && !n.IsApplied() {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memDebitNoteRepo) Save(_ context.Context, dn *settlement.MerchantDebitNote) error {
	m.notes[dn.ID] = dn
	return nil
}

type memOrderRepo struct {
	unsettled []ordr.Order
}

func (m *memOrderRepo) FindByID(_ context.Context, _, id uuid.UUID) (*ordr.Order, error) {
	for i := range m.unsettled {
		if m.unsettled[i].ID == id {
			return &m.unsettled[i], nil
		}
	}
	return nil, nil
}

func (m *memOrderRepo) FindByOrderNumber(_ context.Context, _ uuid.UUID, _ string) (*ordr.Order, error) {
	return nil, nil
}

func (m *memOrderRepo) FindAll(_ context.Context, _ uuid.UUID, _ ordr.OrderFilter) ([]ordr.Order, error) {
	return nil, nil
}

func (m *memOrderRepo) FindUnsettledPaidForMerchant(_ context.Context, _, _ uuid.UUID, _ time.Time) ([]ordr.Order, error) {
	return m.unsettled, nil
}

func (m *memOrderRepo) SumPaidSubtotalsInPeriod(_ context.Context, _ uuid.UUID, _, _ time.Time) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (m *memOrderRepo) SumPaidTaxInPeriod(_ context.Context, _ uuid.UUID, _, _ time.Time) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (m *memOrderRepo) Save(_ context.Context, _ *ordr.Order) error {
	return nil
}

type memMerchantRepo struct {
	merchants map[uuid.UUID]*commission.Merchant
}

func (m *memMerchantRepo) FindByID(_ context.Context, _, id uuid.UUID) (*commission.Merchant, error) {
	return m.merchants[id], nil
}

func (m *memMerchantRepo) FindByCode(_ context.Context, _ uuid.UUID, code string) (*commission.Merchant, error) {
	for _, mc := range m.merchants {
		if mc.Code == code {
			return mc, nil
		}
	}
	return nil, nil
}

func (m *memMerchantRepo) FindActive(_ context.Context, _ uuid.UUID) ([]commission.Merchant, error) {
	return nil, nil
}

func (m *memMerchantRepo) Save(_ context.Context, mc *commission.Merchant) error {
	m.merchants[mc.ID] = mc
	return nil
}

// memRefundRepo only answers the settlement-time reduction query
type memRefundRepo struct {
	reductions map[uuid.UUID][]refund.ProcessedReduction
}

func (m *memRefundRepo) FindByID(_ context.Context, _, _ uuid.UUID) (*refund.Refund, error) {
	return nil, nil
}

func (m *memRefundRepo) FindByNumber(_ context.Context, _ uuid.UUID, _ string) (*refund.Refund, error) {
	return nil, nil
}

func (m *memRefundRepo) FindAll(_ context.Context, _ uuid.UUID, _ refund.Filter) ([]*refund.Refund, error) {
	return nil, nil
}

func (m *memRefundRepo) FindByOrderID(_ context.Context, _ uuid.UUID, _ uuid.UUID) ([]*refund.Refund, error) {
	return nil, nil
}

func (m *memRefundRepo) SumCommittedForOrder(_ context.Context, _, _ uuid.UUID) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (m *memRefundRepo) ProcessedReductionsForOrder(_ context.Context, _, orderID, _ uuid.UUID) ([]refund.ProcessedReduction, error) {
	return m.reductions[orderID], nil
}

func (m *memRefundRepo) Save(_ context.Context, _ *refund.Refund) error {
	return nil
}

func (m *memRefundRepo) Count(_ context.Context, _ uuid.UUID, _ refund.Filter) (int64, error) {
	return 0, nil
}

type memTxLogRepo struct {
	entries []*audit.TransactionLog
}

func (m *memTxLogRepo) Append(_ context.Context, entry *audit.TransactionLog) error {
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memTxLogRepo) FindByLoggable(_ context.Context, _ uuid.UUID, _ audit.LoggableType, _ uuid.UUID) ([]*audit.TransactionLog, error) {
	return m.entries, nil
}

type memSequencer struct {
	counters map[string]int64
}

func (m *memSequencer) Next(_ context.Context, prefix, period string) (int64, error) {
	key := prefix + ":" + period
	m.counters[key]++
	return m.counters[key], nil
}

type memPublisher struct {
	events []shared.DomainEvent
}

func (p *memPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

type harness struct {
	svc         *Service
	settlements *memSettlementRepo
	debitNotes  *memDebitNoteRepo
	orders      *memOrderRepo
	refunds     *memRefundRepo
	txLog       *memTxLogRepo
	tenantID    uuid.UUID
	merchantID  uuid.UUID
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		settlements: &memSettlementRepo{settlements: make(map[uuid.UUID]*settlement.Settlement)},
		debitNotes:  &memDebitNoteRepo{notes: make(map[uuid.UUID]*settlement.MerchantDebitNote)},
		orders:      &memOrderRepo{},
		refunds:     &memRefundRepo{reductions: make(map[uuid.UUID][]refund.ProcessedReduction)},
		txLog:       &memTxLogRepo{},
		tenantID:    uuid.New(),
		merchantID:  uuid.New(),
	}
	merchants := &memMerchantRepo{merchants: make(map[uuid.UUID]*commission.Merchant)}
	m, err := commission.NewMerchant(h.tenantID, "M003", "Nassem Perfumes")
	require.NoError(t, err)
	m.ID = h.merchantID
	require.NoError(t, merchants.Save(context.Background(), m))

	h.svc = NewService(
		h.settlements,
		h.debitNotes,
		h.orders,
		merchants,
		h.refunds,
		h.txLog,
		&memSequencer{counters: make(map[string]int64)},
		&NoOpTransactionScope{Settlements: h.settlements, DebitNotes: h.debitNotes},
		&memPublisher{},
		decimal.NewFromInt(5),
		zap.NewNop(),
	)
	return h
}

func (h *harness) addPaidOrder(t *testing.T, number string, subtotal int64) ordr.Order {
	t.Helper()
	o, err := ordr.NewOrder(h.tenantID, number, uuid.New())
	require.NoError(t, err)
	spec := &commission.RateSpec{
		Rate:   decimal.NewFromInt(15),
		Amount: valueobject.NewMoneyAED(decimal.NewFromInt(subtotal).Mul(decimal.NewFromFloat(0.15))),
		Source: "GLOBAL",
	}
	_, err = o.AddItem(h.merchantID, uuid.New(), "Oud Royale 100ml", "Nassem", decimal.NewFromInt(subtotal), 1, spec)
	require.NoError(t, err)
	require.NoError(t, o.SetTax(decimal.NewFromInt(subtotal).Mul(decimal.NewFromFloat(0.05)).Round(2)))
	require.NoError(t, o.MarkPaid("PAY-"+number))
	h.orders.unsettled = append(h.orders.unsettled, *o)
	return *o
}

func TestService_GenerateSettlement(t *testing.T) {
	ctx := context.Background()
	payoutDate := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)

	t.Run("folds eligible orders into one payout", func(t *testing.T) {
		h := newHarness(t)
		h.addPaidOrder(t, "ORD-1001", 100)
		h.addPaidOrder(t, "ORD-1002", 200)
		h.addPaidOrder(t, "ORD-1003", 300)

		resp, err := h.svc.GenerateSettlement(ctx, h.tenantID, h.merchantID, payoutDate)
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(resp.SettlementNumber, "STL-202501-"))
		assert.Equal(t, 3, resp.ItemCount)
		assert.True(t, resp.CommissionAmount.Equal(decimal.NewFromInt(90)))
		assert.True(t, resp.CommissionTax.Equal(decimal.NewFromFloat(4.50)))
		assert.True(t, resp.TotalCommission.Equal(decimal.NewFromFloat(94.50)))
		assert.True(t, resp.MerchantPayout.Equal(decimal.NewFromFloat(505.50)))
		assert.True(t, resp.NetPayout.Equal(decimal.NewFromFloat(505.50)))
		assert.Equal(t, settlement.StatusPending, resp.Status)
	})

	t.Run("errors when nothing is eligible", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.svc.GenerateSettlement(ctx, h.tenantID, h.merchantID, payoutDate)
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "NO_ELIGIBLE_ORDERS", domainErr.Code)
	})

	t.Run("deducts pending debit notes and applies them", func(t *testing.T) {
		h := newHarness(t)
		h.addPaidOrder(t, "ORD-1001", 100)

		note, err := settlement.NewMerchantDebitNote(h.tenantID, "DN-202501-M003-00001",
			h.merchantID, uuid.New(), uuid.New(),
			decimal.NewFromFloat(95.24), decimal.NewFromFloat(14.29), "Refund RFD-202501-00007 after payout")
		require.NoError(t, err)
		require.NoError(t, h.debitNotes.Save(ctx, note))

		resp, err := h.svc.GenerateSettlement(ctx, h.tenantID, h.merchantID, payoutDate)
		require.NoError(t, err)

		// 100 - 15.75 total commission = 84.25, minus the 95.24 recovery
		assert.True(t, resp.Deductions.Equal(decimal.NewFromFloat(95.24)))
		assert.True(t, resp.NetPayout.Equal(decimal.NewFromFloat(-10.99)))
		assert.True(t, note.IsApplied())
		require.NotNil(t, note.RecoverySettlementID)
		assert.Equal(t, resp.ID, *note.RecoverySettlementID)
	})

	t.Run("subtracts refunds completed before first settlement", func(t *testing.T) {
		h := newHarness(t)
		o := h.addPaidOrder(t, "ORD-1001", 100)
		h.addPaidOrder(t, "ORD-1002", 200)

		h.refunds.reductions[o.ID] = []refund.ProcessedReduction{{
			RefundID:   uuid.New(),
			Subtotal:   decimal.NewFromInt(100),
			Tax:        decimal.NewFromInt(5),
			Commission: decimal.NewFromInt(15),
		}}

		resp, err := h.svc.GenerateSettlement(ctx, h.tenantID, h.merchantID, payoutDate)
		require.NoError(t, err)

		// Only ORD-1002's 200 remains: commission 30, tax 1.50, payout 168.50
		assert.True(t, resp.TotalSubtotal.Equal(decimal.NewFromInt(200)))
		assert.True(t, resp.CommissionAmount.Equal(decimal.NewFromInt(30)))
		assert.True(t, resp.NetPayout.Equal(decimal.NewFromFloat(168.50)))
	})
}

func TestService_MarkSettlementPaid(t *testing.T) {
	ctx := context.Background()
	payoutDate := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)

	t.Run("records the transfer and is idempotent on the same reference", func(t *testing.T) {
		h := newHarness(t)
		h.addPaidOrder(t, "ORD-1001", 100)
		resp, err := h.svc.GenerateSettlement(ctx, h.tenantID, h.merchantID, payoutDate)
		require.NoError(t, err)

		paid, err := h.svc.MarkSettlementPaid(ctx, h.tenantID, resp.ID, "TXN-4711")
		require.NoError(t, err)
		assert.Equal(t, settlement.StatusPaid, paid.Status)
		assert.Equal(t, "TXN-4711", paid.TransactionReference)

		again, err := h.svc.MarkSettlementPaid(ctx, h.tenantID, resp.ID, "TXN-4711")
		require.NoError(t, err)
		assert.Equal(t, settlement.StatusPaid, again.Status)
	})

	t.Run("rejects a different reference after payment", func(t *testing.T) {
		h := newHarness(t)
		h.addPaidOrder(t, "ORD-1001", 100)
		resp, err := h.svc.GenerateSettlement(ctx, h.tenantID, h.merchantID, payoutDate)
		require.NoError(t, err)

		_, err = h.svc.MarkSettlementPaid(ctx, h.tenantID, resp.ID, "TXN-4711")
		require.NoError(t, err)
		_, err = h.svc.MarkSettlementPaid(ctx, h.tenantID, resp.ID, "TXN-9999")
		require.Error(t, err)
	})
}

func TestService_CancelSettlement(t *testing.T) {
	ctx := context.Background()
	payoutDate := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)

	t.Run("abandons a pending settlement", func(t *testing.T) {
		h := newHarness(t)
		h.addPaidOrder(t, "ORD-1001", 100)
		resp, err := h.svc.GenerateSettlement(ctx, h.tenantID, h.merchantID, payoutDate)
		require.NoError(t, err)

		require.NoError(t, h.svc.CancelSettlement(ctx, h.tenantID, resp.ID, "merchant IBAN invalid"))

		stl := h.settlements.settlements[resp.ID]
		assert.Equal(t, settlement.StatusCancelled, stl.Status)
	})
}
