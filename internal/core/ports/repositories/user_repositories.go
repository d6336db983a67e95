package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/quartzmarket/ledger/internal/core/domain"
)

// UserReader is the boundary to the externally-owned user directory. The core
// only needs to know whether a referenced user exists and is active.
type UserReader interface {
	// FindUserByID retrieves a user reference by ID.
	FindUserByID(ctx context.Context, userID string) (*domain.UserRef, error)

	// FindUserByIDInTx is FindUserByID within an open transaction, so recipient
	// checks read the same snapshot as the eventual ledger write.
	FindUserByIDInTx(ctx context.Context, tx pgx.Tx, userID string) (*domain.UserRef, error)
}

// UserRepositoryFacade combines user-related repository interfaces.
type UserRepositoryFacade interface {
	UserReader
}
