package jobs

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
)

// Task type names. The payload carries everything the handler needs so a
// retried task never depends on in-memory state.
const (
	TaskSettlementPaidNotice  = "ledger:settlement_paid_notice"
	TaskRefundProcessedNotice = "ledger:refund_processed_notice"
	TaskVatReturnFiledNotice  = "ledger:vat_return_filed_notice"
	TaskComplianceSweep       = "ledger:compliance_sweep"
)

// SettlementPaidNoticePayload notifies a merchant their payout completed
type SettlementPaidNoticePayload struct {
	TenantID             uuid.UUID       `json:"tenant_id"`
	SettlementID         uuid.UUID       `json:"settlement_id"`
	SettlementNumber     string          `json:"settlement_number"`
	MerchantID           uuid.UUID       `json:"merchant_id"`
	NetPayout            decimal.Decimal `json:"net_payout"`
	TransactionReference string          `json:"transaction_reference"`
}

// RefundProcessedNoticePayload notifies the parties a refund reconciled
type RefundProcessedNoticePayload struct {
	TenantID         uuid.UUID       `json:"tenant_id"`
	RefundID         uuid.UUID       `json:"refund_id"`
	RefundNumber     string          `json:"refund_number"`
	MerchantID       uuid.UUID       `json:"merchant_id"`
	RefundTotal      decimal.Decimal `json:"refund_total"`
	IsPostSettlement bool            `json:"is_post_settlement"`
}

// VatReturnFiledNoticePayload notifies finance a return went to the authority
type VatReturnFiledNoticePayload struct {
	TenantID      uuid.UUID       `json:"tenant_id"`
	VatReturnID   uuid.UUID       `json:"vat_return_id"`
	ReturnNumber  string          `json:"return_number"`
	NetVatPayable decimal.Decimal `json:"net_vat_payable"`
}

// ComplianceSweepPayload marks filing obligations overdue for one tenant.
// A nil tenant ID sweeps every tenant with open obligations.
type ComplianceSweepPayload struct {
	TenantID uuid.UUID `json:"tenant_id"`
}

// NewSettlementPaidNoticeTask creates a settlement paid notification task
func NewSettlementPaidNoticeTask(payload SettlementPaidNoticePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSettlementPaidNotice, body), nil
}

// NewRefundProcessedNoticeTask creates a refund processed notification task
func NewRefundProcessedNoticeTask(payload RefundProcessedNoticePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRefundProcessedNotice, body), nil
}

// NewVatReturnFiledNoticeTask creates a VAT return filed notification task
func NewVatReturnFiledNoticeTask(payload VatReturnFiledNoticePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskVatReturnFiledNotice, body), nil
}

// NewComplianceSweepTask creates a compliance sweep task
func NewComplianceSweepTask(payload ComplianceSweepPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskComplianceSweep, body), nil
}
