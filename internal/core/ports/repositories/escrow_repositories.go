package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/quartzmarket/ledger/internal/core/domain"
)

// EscrowReader defines read operations for escrow holdings.
type EscrowReader interface {
	// FindEscrowByID retrieves a holding by its unique identifier.
	FindEscrowByID(ctx context.Context, escrowID string) (*domain.EscrowHolding, error)

	// FindEscrowByContractID retrieves the holding for a contract.
	FindEscrowByContractID(ctx context.Context, contractID string) (*domain.EscrowHolding, error)
}

// EscrowWriter defines write operations for escrow holdings.
type EscrowWriter interface {
	// SaveEscrow persists a new holding in CREATED state.
	SaveEscrow(ctx context.Context, holding domain.EscrowHolding) error
}

// EscrowTransactionSupport defines operations used inside a caller's database
// transaction so a status transition commits atomically with its ledger movement.
type EscrowTransactionSupport interface {
	// FindEscrowByIDForUpdate retrieves a holding and locks its row for update.
	FindEscrowByIDForUpdate(ctx context.Context, tx pgx.Tx, escrowID string) (*domain.EscrowHolding, error)

	// UpdateEscrowStatusInTx transitions a holding from one status to another.
	// The UPDATE is guarded on the expected current status; if another writer
	// got there first, zero rows match and ErrInvalidState is returned.
	UpdateEscrowStatusInTx(ctx context.Context, tx pgx.Tx, escrowID string, from, to domain.EscrowStatus, userID string, now time.Time) error
}

// EscrowRepositoryFacade combines all escrow-related repository interfaces.
type EscrowRepositoryFacade interface {
	EscrowReader
	EscrowWriter
	EscrowTransactionSupport
}

// EscrowRepositoryWithTx extends EscrowRepositoryFacade with transaction capabilities.
type EscrowRepositoryWithTx interface {
	EscrowRepositoryFacade
	TransactionManager
}
