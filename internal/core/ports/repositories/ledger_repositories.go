package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/quartzmarket/ledger/internal/core/domain"
)

// TransferVelocityGuard caps how many completed transfers an account may
// originate within a rolling window. Evaluated inside the saving transaction,
// after the account row is locked, so concurrent transfers serialize.
type TransferVelocityGuard struct {
	AccountID string
	Max       int
	Window    time.Duration
}

// SaveGuards are preconditions enforced atomically with a ledger write.
type SaveGuards struct {
	// NonNegativeAccounts lists accounts whose derived balance must remain >= 0
	// after the new entries apply. Violation fails with ErrInsufficientFunds.
	NonNegativeAccounts []string

	// ZeroAfterAccounts lists accounts whose derived balance must be exactly 0
	// after the new entries apply (escrow closure). Violation fails with
	// ErrInvalidState.
	ZeroAfterAccounts []string

	// Velocity, when set, fails the write with ErrRateLimited if the guard's
	// account already originated Max completed transfers inside Window.
	Velocity *TransferVelocityGuard
}

// LedgerReader defines read operations over the ledger.
type LedgerReader interface {
	// FindTransactionByID retrieves a ledger transaction with its entries.
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.LedgerTransaction, error)

	// SumEntriesByAccount derives an account's balance (in halves) by summing
	// entries belonging to completed transactions only.
	SumEntriesByAccount(ctx context.Context, accountID string) (int64, error)

	// SumEntriesByAccountInTx is SumEntriesByAccount within an open transaction,
	// used for sufficiency checks after the account row is locked.
	SumEntriesByAccountInTx(ctx context.Context, tx pgx.Tx, accountID string) (int64, error)
}

// LedgerWriter defines the atomic write primitive of the ledger engine.
type LedgerWriter interface {
	// SaveTransaction records a balanced ledger transaction: the transaction
	// row is inserted PENDING, entries and history rows are inserted, guards
	// are verified, cached account balances are updated and the row is flipped
	// to COMPLETED — all in one unit of work. On any failure nothing is visible.
	SaveTransaction(ctx context.Context, txn domain.LedgerTransaction, entries []domain.LedgerEntry, history []domain.HistoryRecord, guards SaveGuards) error

	// SaveTransactionInTx is SaveTransaction within a caller-managed database
	// transaction, so status changes on other rows (escrow holdings, disputes)
	// commit atomically with the ledger movement.
	SaveTransactionInTx(ctx context.Context, tx pgx.Tx, txn domain.LedgerTransaction, entries []domain.LedgerEntry, history []domain.HistoryRecord, guards SaveGuards) error
}

// HistoryReader defines read operations for the denormalized history log.
type HistoryReader interface {
	// ListHistoryByUser retrieves a page of history rows for a user, newest first.
	ListHistoryByUser(ctx context.Context, userID string, limit int, offset int) ([]domain.HistoryRecord, error)
}

// LedgerRepositoryFacade combines all ledger-related repository interfaces.
type LedgerRepositoryFacade interface {
	LedgerReader
	LedgerWriter
	HistoryReader
}

// LedgerRepositoryWithTx extends LedgerRepositoryFacade with transaction capabilities.
type LedgerRepositoryWithTx interface {
	LedgerRepositoryFacade
	TransactionManager
}
