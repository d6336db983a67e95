package services

import (
	"context"

	"github.com/quartzmarket/ledger/internal/core/domain"
	"github.com/quartzmarket/ledger/internal/dto"
)

// DisputeSvcFacade closes disputes over escrow holdings. Resolution is
// idempotent against retries: re-invoking after completion fails with
// ErrAlreadyResolved instead of paying twice.
type DisputeSvcFacade interface {
	// ResolveDispute applies the admin decision: release to seller, refund to
	// buyer, or dismiss without ledger movement.
	ResolveDispute(ctx context.Context, disputeID string, req dto.ResolveDisputeRequest, adminUserID string) (*domain.Dispute, error)

	// GetDispute retrieves a dispute's current state.
	GetDispute(ctx context.Context, disputeID string) (*domain.Dispute, error)
}
