package services

import (
	"context"

	"github.com/quartzmarket/ledger/internal/core/domain"
	"github.com/quartzmarket/ledger/internal/dto"
)

// EscrowSvcFacade drives the escrow holding lifecycle. Every transition that
// moves funds commits its status change atomically with a balanced ledger
// transaction; a holding can reach a terminal state at most once.
type EscrowSvcFacade interface {
	// CreateEscrow opens a holding for an agreed contract; no funds move.
	CreateEscrow(ctx context.Context, req dto.CreateEscrowRequest, actorUserID string) (*domain.EscrowHolding, error)

	// FundEscrow captures the buyer's payment into the escrow account.
	// Fails with ErrInsufficientFunds if the buyer's balance cannot cover it.
	FundEscrow(ctx context.Context, escrowID string, actorUserID string) (*domain.EscrowHolding, error)

	// ReleaseEscrow pays the held funds to the seller, minus any configured
	// platform fee, and completes the contract.
	ReleaseEscrow(ctx context.Context, escrowID string, actorUserID string) (*domain.EscrowHolding, error)

	// RefundEscrow returns the held funds to the buyer and cancels the contract.
	RefundEscrow(ctx context.Context, escrowID string, actorUserID string) (*domain.EscrowHolding, error)

	// CancelEscrow cancels an unfunded holding; no ledger movement.
	CancelEscrow(ctx context.Context, escrowID string, actorUserID string) (*domain.EscrowHolding, error)

	// OpenDispute places a funded holding on dispute hold; funds stay put.
	OpenDispute(ctx context.Context, req dto.OpenDisputeRequest, actorUserID string) (*domain.Dispute, error)

	// GetEscrow retrieves a holding's current state.
	GetEscrow(ctx context.Context, escrowID string) (*domain.EscrowHolding, error)
}
