package services

import (
	"context"

	"github.com/quartzmarket/ledger/internal/core/domain"
	"github.com/quartzmarket/ledger/internal/dto"
)

// TransferSvcFacade moves value between the platform and users.
type TransferSvcFacade interface {
	// Topup credits a user's wallet from the platform issuing account.
	Topup(ctx context.Context, userID string, req dto.TopupRequest) (*domain.LedgerTransaction, error)

	// Transfer moves value between two users. Preconditions, checked in order
	// against state read inside the same database transaction as the write:
	// positive amount within configured bounds, sender != recipient, recipient
	// active, sender under the rolling hourly velocity limit, sender balance
	// sufficient.
	Transfer(ctx context.Context, fromUserID string, req dto.TransferRequest) (*domain.LedgerTransaction, error)
}
