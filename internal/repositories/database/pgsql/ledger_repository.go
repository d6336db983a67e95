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

type PgxLedgerRepository struct {
	BaseRepository
	accountRepo portsrepo.AccountRepositoryFacade
}

// newPgxLedgerRepository creates a new repository for ledger transaction and
// entry data.
func newPgxLedgerRepository(pool *pgxpool.Pool, accountRepo portsrepo.AccountRepositoryFacade) portsrepo.LedgerRepositoryWithTx {
	return &PgxLedgerRepository{
		BaseRepository: BaseRepository{Pool: pool},
		accountRepo:    accountRepo,
	}
}

var _ portsrepo.LedgerRepositoryWithTx = (*PgxLedgerRepository)(nil)

// SaveTransaction records a balanced ledger transaction in its own database
// transaction. See SaveTransactionInTx for the sequence.
func (r *PgxLedgerRepository) SaveTransaction(ctx context.Context, txn domain.LedgerTransaction, entries []domain.LedgerEntry, history []domain.HistoryRecord, guards portsrepo.SaveGuards) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx) // No-op once committed

	if err := r.SaveTransactionInTx(ctx, tx, txn, entries, history, guards); err != nil {
		return err
	}

	return r.Commit(ctx, tx)
}

// SaveTransactionInTx performs the ledger engine's atomic write inside a
// caller-managed transaction:
//
//  1. insert the transaction row as PENDING
//  2. lock every touched account row (sorted, FOR UPDATE)
//  3. verify guards against balances derived under those locks
//  4. batch-insert the entry rows
//  5. apply cached balance deltas and batch-insert history rows
//  6. flip the transaction to COMPLETED
//
// Readers only count COMPLETED transactions, so no partial entry set is ever
// observable; if anything fails the caller's rollback discards it all.
func (r *PgxLedgerRepository) SaveTransactionInTx(ctx context.Context, tx pgx.Tx, txn domain.LedgerTransaction, entries []domain.LedgerEntry, history []domain.HistoryRecord, guards portsrepo.SaveGuards) error {
	now := txn.CreatedAt
	userID := txn.CreatedBy

	txnQuery := `
		INSERT INTO ledger_transactions (transaction_id, type, status, description, currency_code, external_ref, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := tx.Exec(ctx, txnQuery,
		txn.TransactionID,
		txn.Type,
		domain.TxnPending,
		txn.Description,
		txn.CurrencyCode,
		txn.ExternalRef,
		now,
		userID,
		now,
		userID,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert ledger transaction "+txn.TransactionID, err)
	}

	balanceChanges := make(map[string]int64)
	for _, entry := range entries {
		balanceChanges[entry.AccountID] += entry.SignedAmount()
	}

	accountIDs := make([]string, 0, len(balanceChanges))
	for accID := range balanceChanges {
		accountIDs = append(accountIDs, accID)
	}

	if _, err := r.accountRepo.FindAccountsByIDsForUpdate(ctx, tx, accountIDs); err != nil {
		return apperrors.NewAppError(500, "failed to lock accounts for ledger write", err)
	}

	if err := r.checkGuards(ctx, tx, balanceChanges, guards, now); err != nil {
		return err
	}

	entryQuery := `
		INSERT INTO ledger_entries (entry_id, transaction_id, account_id, direction, amount, currency_code, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	batch := &pgx.Batch{}
	for _, entry := range entries {
		batch.Queue(entryQuery,
			entry.EntryID,
			txn.TransactionID,
			entry.AccountID,
			entry.Direction,
			entry.Amount,
			entry.CurrencyCode,
			now,
			userID,
			now,
			userID,
		)
	}

	historyQuery := `
		INSERT INTO transaction_history (history_id, user_id, transaction_id, type, amount, currency_code, description, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	for _, h := range history {
		batch.Queue(historyQuery,
			h.HistoryID,
			h.UserID,
			txn.TransactionID,
			h.Type,
			h.Amount,
			h.CurrencyCode,
			h.Description,
			now,
			userID,
			now,
			userID,
		)
	}

	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return apperrors.NewAppError(500, "failed to execute entry batch for transaction "+txn.TransactionID, err)
	}

	if err := r.accountRepo.UpdateAccountBalancesInTx(ctx, tx, balanceChanges, userID, now); err != nil {
		return apperrors.NewAppError(500, "failed to update cached balances", err)
	}

	completeQuery := `
		UPDATE ledger_transactions
		SET status = $2, last_updated_at = $3
		WHERE transaction_id = $1 AND status = $4;
	`
	cmdTag, err := tx.Exec(ctx, completeQuery, txn.TransactionID, domain.TxnCompleted, now, domain.TxnPending)
	if err != nil {
		return apperrors.NewAppError(500, "failed to complete ledger transaction "+txn.TransactionID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewAppError(500, "ledger transaction "+txn.TransactionID+" was not pending at completion", nil)
	}

	return nil
}

// checkGuards verifies the atomic preconditions while the touched account rows
// are locked: sufficiency, escrow closure, and transfer velocity.
func (r *PgxLedgerRepository) checkGuards(ctx context.Context, tx pgx.Tx, balanceChanges map[string]int64, guards portsrepo.SaveGuards, now time.Time) error {
	if guards.Velocity != nil {
		count, err := r.countRecentTransfers(ctx, tx, guards.Velocity.AccountID, now.Add(-guards.Velocity.Window))
		if err != nil {
			return apperrors.NewAppError(500, "failed to count recent transfers", err)
		}
		if count >= guards.Velocity.Max {
			return fmt.Errorf("%w: %d transfers in the current window (max %d)", apperrors.ErrRateLimited, count, guards.Velocity.Max)
		}
	}

	for _, accID := range guards.NonNegativeAccounts {
		derived, err := r.SumEntriesByAccountInTx(ctx, tx, accID)
		if err != nil {
			return apperrors.NewAppError(500, "failed to derive balance for account "+accID, err)
		}
		if derived+balanceChanges[accID] < 0 {
			return fmt.Errorf("%w: account %s has %d halves, change of %d would overdraw", apperrors.ErrInsufficientFunds, accID, derived, balanceChanges[accID])
		}
	}

	for _, accID := range guards.ZeroAfterAccounts {
		derived, err := r.SumEntriesByAccountInTx(ctx, tx, accID)
		if err != nil {
			return apperrors.NewAppError(500, "failed to derive balance for account "+accID, err)
		}
		if after := derived + balanceChanges[accID]; after != 0 {
			return fmt.Errorf("%w: account %s would be left with %d halves, expected 0", apperrors.ErrInvalidState, accID, after)
		}
	}

	return nil
}

// countRecentTransfers counts completed transfers originated (debited) by the
// account since the cutoff. Runs after the account row is locked, so two
// concurrent transfers cannot both pass a stale count.
func (r *PgxLedgerRepository) countRecentTransfers(ctx context.Context, tx pgx.Tx, accountID string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM ledger_transactions t
		JOIN ledger_entries e ON e.transaction_id = t.transaction_id
		WHERE e.account_id = $1
		  AND e.direction = $2
		  AND t.type = $3
		  AND t.status = $4
		  AND t.created_at >= $5;
	`
	var count int
	err := tx.QueryRow(ctx, query, accountID, domain.Debit, domain.TxnTransfer, domain.TxnCompleted, since).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

const sumEntriesQuery = `
	SELECT COALESCE(SUM(CASE WHEN e.direction = 'CREDIT' THEN e.amount ELSE -e.amount END), 0)
	FROM ledger_entries e
	JOIN ledger_transactions t ON t.transaction_id = e.transaction_id
	WHERE e.account_id = $1 AND t.status = 'COMPLETED';
`

// SumEntriesByAccount derives an account balance from completed entries only.
// A read racing an in-flight write never observes partial entries: they belong
// to a transaction still PENDING in the same uncommitted unit of work.
func (r *PgxLedgerRepository) SumEntriesByAccount(ctx context.Context, accountID string) (int64, error) {
	var sum int64
	if err := r.Pool.QueryRow(ctx, sumEntriesQuery, accountID).Scan(&sum); err != nil {
		return 0, apperrors.NewAppError(500, "failed to sum entries for account "+accountID, err)
	}
	return sum, nil
}

// SumEntriesByAccountInTx is SumEntriesByAccount inside an open transaction.
func (r *PgxLedgerRepository) SumEntriesByAccountInTx(ctx context.Context, tx pgx.Tx, accountID string) (int64, error) {
	var sum int64
	if err := tx.QueryRow(ctx, sumEntriesQuery, accountID).Scan(&sum); err != nil {
		return 0, err
	}
	return sum, nil
}

// FindTransactionByID retrieves a ledger transaction with its entries.
func (r *PgxLedgerRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.LedgerTransaction, error) {
	txnQuery := `
		SELECT transaction_id, type, status, description, currency_code, external_ref, created_at, created_by, last_updated_at, last_updated_by
		FROM ledger_transactions
		WHERE transaction_id = $1;
	`
	var txn domain.LedgerTransaction
	err := r.Pool.QueryRow(ctx, txnQuery, transactionID).Scan(
		&txn.TransactionID,
		&txn.Type,
		&txn.Status,
		&txn.Description,
		&txn.CurrencyCode,
		&txn.ExternalRef,
		&txn.CreatedAt,
		&txn.CreatedBy,
		&txn.LastUpdatedAt,
		&txn.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find ledger transaction "+transactionID, err)
	}

	entryQuery := `
		SELECT entry_id, transaction_id, account_id, direction, amount, currency_code, created_at, created_by, last_updated_at, last_updated_by
		FROM ledger_entries
		WHERE transaction_id = $1
		ORDER BY entry_id;
	`
	rows, err := r.Pool.Query(ctx, entryQuery, transactionID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query entries for transaction "+transactionID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var e domain.LedgerEntry
		err := rows.Scan(
			&e.EntryID,
			&e.TransactionID,
			&e.AccountID,
			&e.Direction,
			&e.Amount,
			&e.CurrencyCode,
			&e.CreatedAt,
			&e.CreatedBy,
			&e.LastUpdatedAt,
			&e.LastUpdatedBy,
		)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan entry row for transaction "+transactionID, err)
		}
		txn.Entries = append(txn.Entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating entry rows for transaction "+transactionID, err)
	}

	return &txn, nil
}

// ListHistoryByUser retrieves a page of a user's history rows, newest first.
func (r *PgxLedgerRepository) ListHistoryByUser(ctx context.Context, userID string, limit int, offset int) ([]domain.HistoryRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT history_id, user_id, transaction_id, type, amount, currency_code, description, created_at, created_by, last_updated_at, last_updated_by
		FROM transaction_history
		WHERE user_id = $1
		ORDER BY created_at DESC, history_id DESC
		LIMIT $2 OFFSET $3;
	`
	rows, err := r.Pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query history for user "+userID, err)
	}
	defer rows.Close()

	records := []domain.HistoryRecord{}
	for rows.Next() {
		var h domain.HistoryRecord
		err := rows.Scan(
			&h.HistoryID,
			&h.UserID,
			&h.TransactionID,
			&h.Type,
			&h.Amount,
			&h.CurrencyCode,
			&h.Description,
			&h.CreatedAt,
			&h.CreatedBy,
			&h.LastUpdatedAt,
			&h.LastUpdatedBy,
		)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan history row for user "+userID, err)
		}
		records = append(records, h)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating history rows for user "+userID, err)
	}

	return records, nil
}
