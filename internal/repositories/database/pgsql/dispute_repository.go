package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quartzmarket/ledger/internal/apperrors"
	"github.com/quartzmarket/ledger/internal/core/domain"
	portsrepo "github.com/quartzmarket/ledger/internal/core/ports/repositories"
)

type PgxDisputeRepository struct {
	BaseRepository
}

// newPgxDisputeRepository creates a new repository for dispute data.
func newPgxDisputeRepository(pool *pgxpool.Pool) portsrepo.DisputeRepositoryWithTx {
	return &PgxDisputeRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.DisputeRepositoryWithTx = (*PgxDisputeRepository)(nil)

const disputeColumns = `dispute_id, escrow_id, opened_by_user_id, reason, status, action, resolution_note, created_at, created_by, last_updated_at, last_updated_by`

func scanDispute(row pgx.Row) (*domain.Dispute, error) {
	var d domain.Dispute
	err := row.Scan(
		&d.DisputeID,
		&d.EscrowID,
		&d.OpenedByUserID,
		&d.Reason,
		&d.Status,
		&d.Action,
		&d.ResolutionNote,
		&d.CreatedAt,
		&d.CreatedBy,
		&d.LastUpdatedAt,
		&d.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// SaveDispute persists a new dispute.
func (r *PgxDisputeRepository) SaveDispute(ctx context.Context, dispute domain.Dispute) error {
	return r.saveDispute(ctx, r.Pool, dispute)
}

// SaveDisputeInTx is SaveDispute within an open transaction.
func (r *PgxDisputeRepository) SaveDisputeInTx(ctx context.Context, tx pgx.Tx, dispute domain.Dispute) error {
	return r.saveDispute(ctx, tx, dispute)
}

func (r *PgxDisputeRepository) saveDispute(ctx context.Context, q querier, dispute domain.Dispute) error {
	query := `
		INSERT INTO disputes (` + disputeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := q.Exec(ctx, query,
		dispute.DisputeID,
		dispute.EscrowID,
		dispute.OpenedByUserID,
		dispute.Reason,
		dispute.Status,
		dispute.Action,
		dispute.ResolutionNote,
		dispute.CreatedAt,
		dispute.CreatedBy,
		dispute.LastUpdatedAt,
		dispute.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to save dispute "+dispute.DisputeID, err)
	}
	return nil
}

// FindDisputeByID retrieves a dispute by its ID.
func (r *PgxDisputeRepository) FindDisputeByID(ctx context.Context, disputeID string) (*domain.Dispute, error) {
	query := `SELECT ` + disputeColumns + ` FROM disputes WHERE dispute_id = $1;`
	d, err := scanDispute(r.Pool.QueryRow(ctx, query, disputeID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find dispute "+disputeID, err)
	}
	return d, nil
}

// FindDisputeByIDForUpdate retrieves a dispute and locks its row for update.
// Must be called within a transaction.
func (r *PgxDisputeRepository) FindDisputeByIDForUpdate(ctx context.Context, tx pgx.Tx, disputeID string) (*domain.Dispute, error) {
	query := `SELECT ` + disputeColumns + ` FROM disputes WHERE dispute_id = $1 FOR UPDATE;`
	d, err := scanDispute(tx.QueryRow(ctx, query, disputeID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to lock dispute "+disputeID, err)
	}
	return d, nil
}

// CloseDisputeInTx moves an OPEN dispute to its final status. Guarded on
// status = OPEN so a retried resolution cannot close (and pay) twice.
func (r *PgxDisputeRepository) CloseDisputeInTx(ctx context.Context, tx pgx.Tx, disputeID string, status domain.DisputeStatus, action domain.ResolutionAction, note string, userID string, now time.Time) error {
	query := `
		UPDATE disputes
		SET status = $2, action = $3, resolution_note = $4, last_updated_at = $5, last_updated_by = $6
		WHERE dispute_id = $1 AND status = $7;
	`
	cmdTag, err := tx.Exec(ctx, query, disputeID, status, action, note, now, userID, domain.DisputeOpen)
	if err != nil {
		return apperrors.NewAppError(500, "failed to close dispute "+disputeID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: dispute %s is not open", apperrors.ErrAlreadyResolved, disputeID)
	}
	return nil
}
