package pgsql

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quartzmarket/ledger/internal/apperrors"
	"github.com/quartzmarket/ledger/internal/core/domain"
	portsrepo "github.com/quartzmarket/ledger/internal/core/ports/repositories"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so the
// insert-or-fetch logic runs identically inside and outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type PgxAccountRepository struct {
	BaseRepository
}

// newPgxAccountRepository creates a new repository for account data.
func newPgxAccountRepository(pool *pgxpool.Pool) portsrepo.AccountRepositoryWithTx {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.AccountRepositoryWithTx = (*PgxAccountRepository)(nil)

const accountColumns = `account_id, owner_type, owner_id, currency_code, name, is_active, created_at, created_by, last_updated_at, last_updated_by, balance`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var acc domain.Account
	err := row.Scan(
		&acc.AccountID,
		&acc.OwnerType,
		&acc.OwnerID,
		&acc.CurrencyCode,
		&acc.Name,
		&acc.IsActive,
		&acc.CreatedAt,
		&acc.CreatedBy,
		&acc.LastUpdatedAt,
		&acc.LastUpdatedBy,
		&acc.Balance,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &acc, nil
}

// getOrCreateAccount implements the insert-or-fetch pattern: a conditional
// insert that is a no-op when the (owner_type, owner_id, currency_code) tuple
// already exists, followed by a read to fetch the resolved row. Safe under
// concurrent first use: the unique index guarantees at most one row.
func (r *PgxAccountRepository) getOrCreateAccount(ctx context.Context, q querier, account domain.Account) (*domain.Account, error) {
	insertQuery := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (owner_type, owner_id, currency_code) DO NOTHING;
	`
	_, err := q.Exec(ctx, insertQuery,
		account.AccountID,
		account.OwnerType,
		account.OwnerID,
		account.CurrencyCode,
		account.Name,
		account.IsActive,
		account.CreatedAt,
		account.CreatedBy,
		account.LastUpdatedAt,
		account.LastUpdatedBy,
		account.Balance,
	)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to insert account for owner "+string(account.OwnerType)+"/"+account.OwnerID, err)
	}

	selectQuery := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE owner_type = $1 AND owner_id = $2 AND currency_code = $3;
	`
	resolved, err := scanAccount(q.QueryRow(ctx, selectQuery, account.OwnerType, account.OwnerID, account.CurrencyCode))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// The row we just ensured exists is gone; accounts are never deleted.
			return nil, apperrors.NewAppError(500, "account vanished after insert-or-fetch", err)
		}
		return nil, apperrors.NewAppError(500, "failed to fetch account after insert", err)
	}
	return resolved, nil
}

// GetOrCreateAccount resolves the account for the owner tuple, creating it
// lazily on first use.
func (r *PgxAccountRepository) GetOrCreateAccount(ctx context.Context, account domain.Account) (*domain.Account, error) {
	return r.getOrCreateAccount(ctx, r.Pool, account)
}

// GetOrCreateAccountInTx is GetOrCreateAccount within an open transaction.
func (r *PgxAccountRepository) GetOrCreateAccountInTx(ctx context.Context, tx pgx.Tx, account domain.Account) (*domain.Account, error) {
	return r.getOrCreateAccount(ctx, tx, account)
}

// FindAccountByID retrieves an account by its ID.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE account_id = $1;
	`
	acc, err := scanAccount(r.Pool.QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account by ID %s: %w", accountID, err)
	}
	return acc, nil
}

// FindAccountByOwner retrieves the account for an owner tuple without creating it.
func (r *PgxAccountRepository) FindAccountByOwner(ctx context.Context, ownerType domain.OwnerType, ownerID string, currencyCode string) (*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE owner_type = $1 AND owner_id = $2 AND currency_code = $3;
	`
	acc, err := scanAccount(r.Pool.QueryRow(ctx, query, ownerType, ownerID, currencyCode))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account for owner %s/%s: %w", ownerType, ownerID, err)
	}
	return acc, nil
}

// FindAccountsByIDsForUpdate retrieves multiple accounts by IDs and locks the
// rows for update. IDs are sorted so concurrent writers acquire locks in the
// same order and cannot deadlock each other. Must be called within a transaction.
func (r *PgxAccountRepository) FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error) {
	if len(accountIDs) == 0 {
		return map[string]domain.Account{}, nil
	}

	sorted := make([]string, len(accountIDs))
	copy(sorted, accountIDs)
	sort.Strings(sorted)

	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE account_id = ANY($1)
		ORDER BY account_id
		FOR UPDATE;
	`

	rows, err := tx.Query(ctx, query, sorted)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts by IDs for update: %w", err)
	}
	defer rows.Close()

	accountsMap := make(map[string]domain.Account)
	for rows.Next() {
		var acc domain.Account
		err := rows.Scan(
			&acc.AccountID,
			&acc.OwnerType,
			&acc.OwnerID,
			&acc.CurrencyCode,
			&acc.Name,
			&acc.IsActive,
			&acc.CreatedAt,
			&acc.CreatedBy,
			&acc.LastUpdatedAt,
			&acc.LastUpdatedBy,
			&acc.Balance,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan locked account row: %w", err)
		}
		accountsMap[acc.AccountID] = acc
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating locked account rows: %w", err)
	}

	if len(accountsMap) != len(sorted) {
		missing := []string{}
		for _, id := range sorted {
			if _, found := accountsMap[id]; !found {
				missing = append(missing, id)
			}
		}
		slog.WarnContext(ctx, "Some accounts requested for update lock were not found", "missing_accounts", missing)
		return nil, fmt.Errorf("%w: could not find or lock all requested accounts, missing: %v", apperrors.ErrNotFound, missing)
	}

	return accountsMap, nil
}

// UpdateAccountBalancesInTx applies signed deltas (in halves) to the cached
// balances of multiple accounts within a transaction. The cache is a read
// optimization only; the ledger remains the source of truth.
func (r *PgxAccountRepository) UpdateAccountBalancesInTx(ctx context.Context, tx pgx.Tx, balanceChanges map[string]int64, userID string, now time.Time) error {
	if len(balanceChanges) == 0 {
		return nil
	}

	query := `
		UPDATE accounts
		SET balance = balance + $2, last_updated_at = $3, last_updated_by = $4
		WHERE account_id = $1;
	`

	batch := &pgx.Batch{}
	accountIDs := make([]string, 0, len(balanceChanges))
	for accountID, delta := range balanceChanges {
		if delta != 0 {
			batch.Queue(query, accountID, delta, now, userID)
			accountIDs = append(accountIDs, accountID)
		}
	}

	if batch.Len() == 0 {
		return nil
	}

	br := tx.SendBatch(ctx, batch)
	var batchErr error
	for i := 0; i < batch.Len(); i++ {
		ct, err := br.Exec()
		if err != nil {
			if batchErr == nil {
				batchErr = fmt.Errorf("failed to update balance for account %s: %w", accountIDs[i], err)
			}
		} else if ct.RowsAffected() == 0 && batchErr == nil {
			batchErr = fmt.Errorf("%w: account %s not found during balance update", apperrors.ErrNotFound, accountIDs[i])
		}
	}

	if err := br.Close(); err != nil && batchErr == nil {
		batchErr = fmt.Errorf("failed to close balance update batch: %w", err)
	}

	return batchErr
}
