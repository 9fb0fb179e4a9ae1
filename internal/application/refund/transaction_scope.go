package refund

import (
	"context"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/refund"
	"github.com/ecommerized/adperfumes-sub001/internal/domain/settlement"
)

// TransactionalRepositories hands out the repositories participating in one
// reconciliation transaction
type TransactionalRepositories interface {
	RefundRepo() refund.RefundRepository
	SettlementRepo() settlement.SettlementRepository
	DebitNoteRepo() settlement.DebitNoteRepository
}

// TransactionScope runs the money-moving tail of a refund atomically: the
// settlement reduction or debit note and the refund status change commit
// together or not at all.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// NoOpTransactionScope executes without transactional guarantees, handing out
// the repositories it was built with. Used in tests.
type NoOpTransactionScope struct {
	Refunds     refund.RefundRepository
	Settlements settlement.SettlementRepository
	DebitNotes  settlement.DebitNoteRepository
}

// Execute runs fn directly against the configured repositories
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// RefundRepo returns the refund repository
func (s *NoOpTransactionScope) RefundRepo() refund.RefundRepository {
	return s.Refunds
}

// SettlementRepo returns the settlement repository
func (s *NoOpTransactionScope) SettlementRepo() settlement.SettlementRepository {
	return s.Settlements
}

// DebitNoteRepo returns the debit note repository
func (s *NoOpTransactionScope) DebitNoteRepo() settlement.DebitNoteRepository {
	return s.DebitNotes
}

// Ensure NoOpTransactionScope implements both interfaces
var (
	_ TransactionScope          = (*NoOpTransactionScope)(nil)
	_ TransactionalRepositories = (*NoOpTransactionScope)(nil)
)
