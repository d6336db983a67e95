package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quartzmarket/ledger/internal/apperrors"
	"github.com/quartzmarket/ledger/internal/core/domain"
	portsrepo "github.com/quartzmarket/ledger/internal/core/ports/repositories"
)

type PgxEscrowRepository struct {
	BaseRepository
}

// newPgxEscrowRepository creates a new repository for escrow holding data.
func newPgxEscrowRepository(pool *pgxpool.Pool) portsrepo.EscrowRepositoryWithTx {
	return &PgxEscrowRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.EscrowRepositoryWithTx = (*PgxEscrowRepository)(nil)

const escrowColumns = `escrow_id, contract_id, service_id, buyer_user_id, seller_user_id, amount, currency_code, status, created_at, created_by, last_updated_at, last_updated_by`

func scanEscrow(row pgx.Row) (*domain.EscrowHolding, error) {
	var h domain.EscrowHolding
	err := row.Scan(
		&h.EscrowID,
		&h.ContractID,
		&h.ServiceID,
		&h.BuyerUserID,
		&h.SellerUserID,
		&h.Amount,
		&h.CurrencyCode,
		&h.Status,
		&h.CreatedAt,
		&h.CreatedBy,
		&h.LastUpdatedAt,
		&h.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &h, nil
}

// SaveEscrow persists a new holding.
func (r *PgxEscrowRepository) SaveEscrow(ctx context.Context, holding domain.EscrowHolding) error {
	query := `
		INSERT INTO escrow_holdings (` + escrowColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err := r.Pool.Exec(ctx, query,
		holding.EscrowID,
		holding.ContractID,
		holding.ServiceID,
		holding.BuyerUserID,
		holding.SellerUserID,
		holding.Amount,
		holding.CurrencyCode,
		holding.Status,
		holding.CreatedAt,
		holding.CreatedBy,
		holding.LastUpdatedAt,
		holding.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: escrow for contract %s already exists", apperrors.ErrDuplicate, holding.ContractID)
		}
		return apperrors.NewAppError(500, "failed to save escrow "+holding.EscrowID, err)
	}
	return nil
}

// FindEscrowByID retrieves a holding by its ID.
func (r *PgxEscrowRepository) FindEscrowByID(ctx context.Context, escrowID string) (*domain.EscrowHolding, error) {
	query := `SELECT ` + escrowColumns + ` FROM escrow_holdings WHERE escrow_id = $1;`
	h, err := scanEscrow(r.Pool.QueryRow(ctx, query, escrowID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find escrow "+escrowID, err)
	}
	return h, nil
}

// FindEscrowByContractID retrieves the holding for a contract.
func (r *PgxEscrowRepository) FindEscrowByContractID(ctx context.Context, contractID string) (*domain.EscrowHolding, error) {
	query := `SELECT ` + escrowColumns + ` FROM escrow_holdings WHERE contract_id = $1;`
	h, err := scanEscrow(r.Pool.QueryRow(ctx, query, contractID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find escrow for contract "+contractID, err)
	}
	return h, nil
}

// FindEscrowByIDForUpdate retrieves a holding and locks its row for update.
// Must be called within a transaction.
func (r *PgxEscrowRepository) FindEscrowByIDForUpdate(ctx context.Context, tx pgx.Tx, escrowID string) (*domain.EscrowHolding, error) {
	query := `SELECT ` + escrowColumns + ` FROM escrow_holdings WHERE escrow_id = $1 FOR UPDATE;`
	h, err := scanEscrow(tx.QueryRow(ctx, query, escrowID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to lock escrow "+escrowID, err)
	}
	return h, nil
}

// UpdateEscrowStatusInTx transitions a holding between statuses. The UPDATE is
// guarded on the expected current status: if a concurrent resolution got there
// first zero rows match and the caller gets ErrInvalidState instead of a
// double payout.
func (r *PgxEscrowRepository) UpdateEscrowStatusInTx(ctx context.Context, tx pgx.Tx, escrowID string, from, to domain.EscrowStatus, userID string, now time.Time) error {
	query := `
		UPDATE escrow_holdings
		SET status = $3, last_updated_at = $4, last_updated_by = $5
		WHERE escrow_id = $1 AND status = $2;
	`
	cmdTag, err := tx.Exec(ctx, query, escrowID, from, to, now, userID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update escrow status for "+escrowID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: escrow %s is not %s", apperrors.ErrInvalidState, escrowID, from)
	}
	return nil
}
