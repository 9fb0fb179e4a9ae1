package settlement

import (
	"context"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/settlement"
)

// TransactionalRepositories hands out the repositories participating in one
// payout generation transaction
type TransactionalRepositories interface {
	SettlementRepo() settlement.SettlementRepository
	DebitNoteRepo() settlement.DebitNoteRepository
}

// TransactionScope persists a generated settlement and the debit notes it
// applies atomically: a note is never marked applied without its settlement
// landing, and vice versa.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// NoOpTransactionScope executes without transactional guarantees, handing out
// the repositories it was built with. Used in tests.
type NoOpTransactionScope struct {
	Settlements settlement.SettlementRepository
	DebitNotes  settlement.DebitNoteRepository
}

// Execute runs fn directly against the configured repositories
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
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
