package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/quartzmarket/ledger/internal/core/domain"
)

// AccountReader defines read operations for account data.
type AccountReader interface {
	// FindAccountByID retrieves a specific account by its unique identifier.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// FindAccountByOwner retrieves the account for an (ownerType, ownerID, currency)
	// tuple. Returns apperrors.ErrNotFound if none exists; never creates.
	FindAccountByOwner(ctx context.Context, ownerType domain.OwnerType, ownerID string, currencyCode string) (*domain.Account, error)
}

// AccountWriter defines write operations for account data.
type AccountWriter interface {
	// GetOrCreateAccount resolves the account for the owner tuple, lazily
	// creating it on first use. Safe under concurrent first-use: a conditional
	// insert that is a no-op when the tuple already exists, followed by a read.
	GetOrCreateAccount(ctx context.Context, account domain.Account) (*domain.Account, error)
}

// AccountTransactionSupport defines operations used inside a caller's database
// transaction, where lock ordering matters.
type AccountTransactionSupport interface {
	// GetOrCreateAccountInTx is GetOrCreateAccount within an open transaction.
	GetOrCreateAccountInTx(ctx context.Context, tx pgx.Tx, account domain.Account) (*domain.Account, error)

	// FindAccountsByIDsForUpdate selects accounts and locks their rows for
	// update within a transaction. IDs are locked in sorted order to avoid
	// lock-order deadlocks between concurrent writers.
	FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error)

	// UpdateAccountBalancesInTx applies signed deltas (in halves) to the cached
	// balances of multiple accounts within a transaction.
	UpdateAccountBalancesInTx(ctx context.Context, tx pgx.Tx, balanceChanges map[string]int64, userID string, now time.Time) error
}

// AccountRepositoryFacade combines all account-related repository interfaces.
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
	AccountTransactionSupport
}

// AccountRepositoryWithTx extends AccountRepositoryFacade with transaction capabilities.
type AccountRepositoryWithTx interface {
	AccountRepositoryFacade
	TransactionManager
}
