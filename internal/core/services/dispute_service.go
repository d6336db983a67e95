package services

import (
	"context"
	"fmt"
	"time"

	"github.com/quartzmarket/ledger/internal/apperrors"
	"github.com/quartzmarket/ledger/internal/core/domain"
	portsrepo "github.com/quartzmarket/ledger/internal/core/ports/repositories"
	portssvc "github.com/quartzmarket/ledger/internal/core/ports/services"
	"github.com/quartzmarket/ledger/internal/dto"
	"github.com/quartzmarket/ledger/internal/platform/config"
)

// disputeService closes disputes over escrow holdings. The dispute row, the
// escrow status flip and any payout commit in one database transaction, and
// the close is guarded on status = OPEN so a retried resolution cannot pay
// twice.
type disputeService struct {
	disputeRepo portsrepo.DisputeRepositoryWithTx
	escrowRepo  portsrepo.EscrowRepositoryWithTx
	ledgerRepo  portsrepo.LedgerRepositoryWithTx
	accountRepo portsrepo.AccountRepositoryFacade
	notifier    portssvc.Notifier
	cfg         *config.Config
}

// NewDisputeService creates a new DisputeService.
func NewDisputeService(disputeRepo portsrepo.DisputeRepositoryWithTx, escrowRepo portsrepo.EscrowRepositoryWithTx, ledgerRepo portsrepo.LedgerRepositoryWithTx, accountRepo portsrepo.AccountRepositoryFacade, notifier portssvc.Notifier, cfg *config.Config) portssvc.DisputeSvcFacade {
	return &disputeService{
		disputeRepo: disputeRepo,
		escrowRepo:  escrowRepo,
		ledgerRepo:  ledgerRepo,
		accountRepo: accountRepo,
		notifier:    notifier,
		cfg:         cfg,
	}
}

var _ portssvc.DisputeSvcFacade = (*disputeService)(nil)

// ResolveDispute applies the admin decision that closes a dispute.
func (s *disputeService) ResolveDispute(ctx context.Context, disputeID string, req dto.ResolveDisputeRequest, adminUserID string) (*domain.Dispute, error) {
	tx, err := s.disputeRepo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = s.disputeRepo.Rollback(ctx, tx) }()

	d, err := s.disputeRepo.FindDisputeByIDForUpdate(ctx, tx, disputeID)
	if err != nil {
		return nil, err
	}
	if d.Status != domain.DisputeOpen {
		return nil, fmt.Errorf("%w: dispute %s is %s", apperrors.ErrAlreadyResolved, disputeID, d.Status)
	}

	h, err := s.escrowRepo.FindEscrowByIDForUpdate(ctx, tx, d.EscrowID)
	if err != nil {
		return nil, err
	}
	if h.Status != domain.EscrowDisputed {
		return nil, fmt.Errorf("%w: escrow %s is %s, expected %s", apperrors.ErrInvalidState, h.EscrowID, h.Status, domain.EscrowDisputed)
	}

	now := time.Now()
	var events []domain.BalanceEvent
	disputeStatus := domain.DisputeResolved

	switch req.Action {
	case domain.ResolveReleaseToSeller:
		feeBasisPoints := int64(0)
		if s.cfg.FeeOnDisputeRelease {
			feeBasisPoints = s.cfg.EscrowFeeBasisPoints
		}
		_, events, err = releaseEscrowInTx(ctx, tx, s.ledgerRepo, s.accountRepo, s.escrowRepo, h, feeBasisPoints, adminUserID, now)
	case domain.ResolveRefundToBuyer:
		_, events, err = refundEscrowInTx(ctx, tx, s.ledgerRepo, s.accountRepo, s.escrowRepo, h, adminUserID, now)
	case domain.ResolveDismiss:
		// No ledger movement. The hold lifts and the holding goes back to
		// FUNDED, where the normal release/refund paths apply again.
		disputeStatus = domain.DisputeDismissed
		err = s.escrowRepo.UpdateEscrowStatusInTx(ctx, tx, h.EscrowID, domain.EscrowDisputed, domain.EscrowFunded, adminUserID, now)
	default:
		return nil, fmt.Errorf("%w: unknown resolution action %q", apperrors.ErrValidation, req.Action)
	}
	if err != nil {
		return nil, err
	}

	if err := s.disputeRepo.CloseDisputeInTx(ctx, tx, d.DisputeID, disputeStatus, req.Action, req.Note, adminUserID, now); err != nil {
		return nil, err
	}
	if err := s.disputeRepo.Commit(ctx, tx); err != nil {
		return nil, err
	}

	publishEvents(ctx, s.notifier, events...)

	action := req.Action
	d.Status = disputeStatus
	d.Action = &action
	d.ResolutionNote = req.Note
	d.LastUpdatedAt = now
	d.LastUpdatedBy = adminUserID
	return d, nil
}

// GetDispute retrieves a dispute's current state.
func (s *disputeService) GetDispute(ctx context.Context, disputeID string) (*domain.Dispute, error) {
	return s.disputeRepo.FindDisputeByID(ctx, disputeID)
}
