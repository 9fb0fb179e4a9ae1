package tax

import (
	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	VatReturnAggregateType = "VatReturn"

	VatReturnFiledEventType   = "tax.vat_return.filed"
	VatReturnAmendedEventType = "tax.vat_return.amended"
)

// VatReturnFiledEvent is raised when a return is submitted to the authority
type VatReturnFiledEvent struct {
	shared.BaseDomainEvent
	ReturnNumber  string          `json:"return_number"`
	NetVatPayable decimal.Decimal `json:"net_vat_payable"`
	IsRefund      bool            `json:"is_refund"`
}

// NewVatReturnFiledEvent creates a VAT return filed event
func NewVatReturnFiledEvent(v *VatReturn) *VatReturnFiledEvent {
	return &VatReturnFiledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(VatReturnFiledEventType, VatReturnAggregateType, v.ID, v.TenantID),
		ReturnNumber:    v.ReturnNumber,
		NetVatPayable:   v.NetVatPayable,
		IsRefund:        v.NetVatPayable.IsNegative(),
	}
}

// VatReturnAmendedEvent is raised when a filed return is superseded
type VatReturnAmendedEvent struct {
	shared.BaseDomainEvent
	ReturnNumber      string    `json:"return_number"`
	ChildReturnID     uuid.UUID `json:"child_return_id"`
	ChildReturnNumber string    `json:"child_return_number"`
}

// NewVatReturnAmendedEvent creates a VAT return amended event
func NewVatReturnAmendedEvent(original, child *VatReturn) *VatReturnAmendedEvent {
	return &VatReturnAmendedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(VatReturnAmendedEventType, VatReturnAggregateType, original.ID, original.TenantID),
		ReturnNumber:      original.ReturnNumber,
		ChildReturnID:     child.ID,
		ChildReturnNumber: child.ReturnNumber,
	}
}
