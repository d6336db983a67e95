package services

import (
	"context"

	"github.com/quartzmarket/ledger/internal/core/domain"
)

// AccountSvcFacade is the account registry: it maps an owning entity plus a
// currency to exactly one ledger account, creating it lazily on first use.
// Identity fields are immutable and accounts are never deleted.
type AccountSvcFacade interface {
	// GetOrCreateUserAccount resolves the wallet account for a user.
	GetOrCreateUserAccount(ctx context.Context, userID string, currencyCode string) (*domain.Account, error)

	// GetOrCreatePlatformAccount resolves the singleton platform account.
	GetOrCreatePlatformAccount(ctx context.Context, currencyCode string) (*domain.Account, error)

	// GetOrCreateEscrowAccount resolves the holding account for one escrow.
	GetOrCreateEscrowAccount(ctx context.Context, escrowID string, currencyCode string) (*domain.Account, error)

	// FindUserAccount resolves a user's account without creating it. Returns
	// apperrors.ErrNotFound if the user has no account yet.
	FindUserAccount(ctx context.Context, userID string, currencyCode string) (*domain.Account, error)
}
