package persistence

import (
	"context"

	"gorm.io/gorm"

	refundapp "github.com/ecommerized/adperfumes-sub001/internal/application/refund"
	settlementapp "github.com/ecommerized/adperfumes-sub001/internal/application/settlement"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/refund"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/settlement"
)

// GormRefundTransactionScope runs the money-moving tail of a refund
// reconciliation inside one database transaction
type GormRefundTransactionScope struct {
	db *gorm.DB
}

// NewGormRefundTransactionScope creates a new GormRefundTransactionScope
func NewGormRefundTransactionScope(db *gorm.DB) *GormRefundTransactionScope {
	return &GormRefundTransactionScope{db: db}
}

// Execute runs fn within a database transaction, handing out repositories
// bound to that transaction
func (s *GormRefundTransactionScope) Execute(ctx context.Context, fn func(repos refundapp.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&refundTxRepositories{tx: tx})
	})
}

type refundTxRepositories struct {
	tx *gorm.DB
}

func (r *refundTxRepositories) RefundRepo() refund.RefundRepository {
	return NewGormRefundRepository(r.tx)
}

func (r *refundTxRepositories) SettlementRepo() settlement.SettlementRepository {
	return NewGormSettlementRepository(r.tx)
}

func (r *refundTxRepositories) DebitNoteRepo() settlement.DebitNoteRepository {
	return NewGormDebitNoteRepository(r.tx)
}

// GormSettlementTransactionScope persists a generated settlement and its
// applied debit notes inside one database transaction
type GormSettlementTransactionScope struct {
	db *gorm.DB
}

// NewGormSettlementTransactionScope creates a new GormSettlementTransactionScope
func NewGormSettlementTransactionScope(db *gorm.DB) *GormSettlementTransactionScope {
	return &GormSettlementTransactionScope{db: db}
}

// Execute runs fn within a database transaction, handing out repositories
// bound to that transaction
func (s *GormSettlementTransactionScope) Execute(ctx context.Context, fn func(repos settlementapp.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&settlementTxRepositories{tx: tx})
	})
}

type settlementTxRepositories struct {
	tx *gorm.DB
}

func (r *settlementTxRepositories) SettlementRepo() settlement.SettlementRepository {
	return NewGormSettlementRepository(r.tx)
}

func (r *settlementTxRepositories) DebitNoteRepo() settlement.DebitNoteRepository {
	return NewGormDebitNoteRepository(r.tx)
}

// Ensure the scopes implement their application interfaces
var (
	_ refundapp.TransactionScope     = (*GormRefundTransactionScope)(nil)
	_ settlementapp.TransactionScope = (*GormSettlementTransactionScope)(nil)
)
