package pgsql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quartzmarket/ledger/internal/apperrors"
	"github.com/quartzmarket/ledger/internal/core/domain"
	portsrepo "github.com/quartzmarket/ledger/internal/core/ports/repositories"
)

// PgxUserRepository reads the user directory maintained by the marketplace's
// user service. The ledger core never writes it.
type PgxUserRepository struct {
	BaseRepository
}

// newPgxUserRepository creates a new read-only repository over user data.
func newPgxUserRepository(pool *pgxpool.Pool) portsrepo.UserRepositoryFacade {
	return &PgxUserRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.UserRepositoryFacade = (*PgxUserRepository)(nil)

const userQuery = `SELECT user_id, display_name, is_active FROM users WHERE user_id = $1;`

func scanUser(row pgx.Row) (*domain.UserRef, error) {
	var u domain.UserRef
	if err := row.Scan(&u.UserID, &u.DisplayName, &u.IsActive); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// FindUserByID retrieves a user reference by ID.
func (r *PgxUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.UserRef, error) {
	u, err := scanUser(r.Pool.QueryRow(ctx, userQuery, userID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find user "+userID, err)
	}
	return u, nil
}

// FindUserByIDInTx is FindUserByID within an open transaction.
func (r *PgxUserRepository) FindUserByIDInTx(ctx context.Context, tx pgx.Tx, userID string) (*domain.UserRef, error) {
	u, err := scanUser(tx.QueryRow(ctx, userQuery, userID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find user "+userID, err)
	}
	return u, nil
}
