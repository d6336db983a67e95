package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/quartzmarket/ledger/internal/core/domain"
)

// DisputeReader defines read operations for disputes.
type DisputeReader interface {
	// FindDisputeByID retrieves a dispute by its unique identifier.
	FindDisputeByID(ctx context.Context, disputeID string) (*domain.Dispute, error)
}

// DisputeWriter defines write operations for disputes.
type DisputeWriter interface {
	// SaveDispute persists a new dispute in OPEN state.
	SaveDispute(ctx context.Context, dispute domain.Dispute) error
}

// DisputeTransactionSupport defines operations used inside a caller's database
// transaction, so a resolution commits atomically with its payout.
type DisputeTransactionSupport interface {
	// SaveDisputeInTx is SaveDispute within an open transaction, so opening a
	// dispute commits atomically with the holding's move to DISPUTED.
	SaveDisputeInTx(ctx context.Context, tx pgx.Tx, dispute domain.Dispute) error

	// FindDisputeByIDForUpdate retrieves a dispute and locks its row for update.
	FindDisputeByIDForUpdate(ctx context.Context, tx pgx.Tx, disputeID string) (*domain.Dispute, error)

	// CloseDisputeInTx moves an OPEN dispute to RESOLVED or DISMISSED, recording
	// the action and note. Guarded on status = OPEN; if another resolution got
	// there first, zero rows match and ErrAlreadyResolved is returned.
	CloseDisputeInTx(ctx context.Context, tx pgx.Tx, disputeID string, status domain.DisputeStatus, action domain.ResolutionAction, note string, userID string, now time.Time) error
}

// DisputeRepositoryFacade combines all dispute-related repository interfaces.
type DisputeRepositoryFacade interface {
	DisputeReader
	DisputeWriter
	DisputeTransactionSupport
}

// DisputeRepositoryWithTx extends DisputeRepositoryFacade with transaction capabilities.
type DisputeRepositoryWithTx interface {
	DisputeRepositoryFacade
	TransactionManager
}
