package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/quartzmarket/ledger/internal/apperrors"
	"github.com/quartzmarket/ledger/internal/core/domain"
	portsrepo "github.com/quartzmarket/ledger/internal/core/ports/repositories"
	portssvc "github.com/quartzmarket/ledger/internal/core/ports/services"
	"github.com/quartzmarket/ledger/internal/dto"
	"github.com/quartzmarket/ledger/internal/platform/config"
	"github.com/quartzmarket/ledger/internal/utils/qz"
)

// escrowService drives the escrow holding lifecycle. Every transition that
// moves funds runs inside one database transaction: the balanced ledger write
// and the guarded status flip commit together or not at all.
type escrowService struct {
	escrowRepo  portsrepo.EscrowRepositoryWithTx
	disputeRepo portsrepo.DisputeRepositoryWithTx
	ledgerRepo  portsrepo.LedgerRepositoryWithTx
	accountRepo portsrepo.AccountRepositoryFacade
	userRepo    portsrepo.UserRepositoryFacade
	notifier    portssvc.Notifier
	cfg         *config.Config
}

// NewEscrowService creates a new EscrowService.
func NewEscrowService(escrowRepo portsrepo.EscrowRepositoryWithTx, disputeRepo portsrepo.DisputeRepositoryWithTx, ledgerRepo portsrepo.LedgerRepositoryWithTx, accountRepo portsrepo.AccountRepositoryFacade, userRepo portsrepo.UserRepositoryFacade, notifier portssvc.Notifier, cfg *config.Config) portssvc.EscrowSvcFacade {
	return &escrowService{
		escrowRepo:  escrowRepo,
		disputeRepo: disputeRepo,
		ledgerRepo:  ledgerRepo,
		accountRepo: accountRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		cfg:         cfg,
	}
}

var _ portssvc.EscrowSvcFacade = (*escrowService)(nil)

// escrowFee computes the platform's cut of a release, rounded down.
func escrowFee(amount int64, basisPoints int64) int64 {
	return amount * basisPoints / 10_000
}

// releaseEscrowInTx pays the held funds out to the seller, minus the platform
// fee when feeBasisPoints is positive. The escrow account must land on exactly
// zero; the ZeroAfterAccounts guard turns any drift into a failed write.
func releaseEscrowInTx(ctx context.Context, tx pgx.Tx, ledgerRepo portsrepo.LedgerRepositoryWithTx, accountRepo portsrepo.AccountRepositoryFacade, escrowRepo portsrepo.EscrowRepositoryWithTx, h *domain.EscrowHolding, feeBasisPoints int64, actorUserID string, now time.Time) (*domain.LedgerTransaction, []domain.BalanceEvent, error) {
	escrowAcc, err := accountRepo.GetOrCreateAccountInTx(ctx, tx, newEscrowAccount(h.EscrowID, h.CurrencyCode, now))
	if err != nil {
		return nil, nil, err
	}
	sellerAcc, err := accountRepo.GetOrCreateAccountInTx(ctx, tx, newUserAccount(h.SellerUserID, h.CurrencyCode, now))
	if err != nil {
		return nil, nil, err
	}

	fee := escrowFee(h.Amount, feeBasisPoints)
	sellerNet := h.Amount - fee

	description := fmt.Sprintf("Escrow release for contract %s", h.ContractID)
	inputs := []dto.EntryInput{
		{AccountID: escrowAcc.AccountID, Direction: domain.Debit, Amount: h.Amount},
		{AccountID: sellerAcc.AccountID, Direction: domain.Credit, Amount: sellerNet},
	}
	if fee > 0 {
		platformAcc, err := accountRepo.GetOrCreateAccountInTx(ctx, tx, newPlatformAccount(h.CurrencyCode, now))
		if err != nil {
			return nil, nil, err
		}
		inputs = append(inputs, dto.EntryInput{AccountID: platformAcc.AccountID, Direction: domain.Credit, Amount: fee})
	}

	txn, entries := buildTransaction(domain.TxnEscrowRelease, description, h.CurrencyCode, &h.ContractID, inputs, actorUserID, now)
	history := []domain.HistoryRecord{
		newHistoryRecord(h.SellerUserID, txn, domain.HistoryEscrowRelease, sellerNet, description),
	}
	guards := portsrepo.SaveGuards{ZeroAfterAccounts: []string{escrowAcc.AccountID}}

	if err := ledgerRepo.SaveTransactionInTx(ctx, tx, txn, entries, history, guards); err != nil {
		return nil, nil, err
	}
	if err := escrowRepo.UpdateEscrowStatusInTx(ctx, tx, h.EscrowID, h.Status, domain.EscrowReleased, actorUserID, now); err != nil {
		return nil, nil, err
	}

	outcome := domain.ContractCompleted
	events := []domain.BalanceEvent{{
		UserID:          h.SellerUserID,
		Type:            domain.HistoryEscrowRelease,
		Amount:          sellerNet,
		CurrencyCode:    h.CurrencyCode,
		Message:         description,
		TransactionID:   txn.TransactionID,
		ContractID:      h.ContractID,
		ContractOutcome: &outcome,
		OccurredAt:      now,
	}}

	txn.Status = domain.TxnCompleted
	txn.Entries = entries
	return &txn, events, nil
}

// refundEscrowInTx returns the held funds to the buyer in full.
func refundEscrowInTx(ctx context.Context, tx pgx.Tx, ledgerRepo portsrepo.LedgerRepositoryWithTx, accountRepo portsrepo.AccountRepositoryFacade, escrowRepo portsrepo.EscrowRepositoryWithTx, h *domain.EscrowHolding, actorUserID string, now time.Time) (*domain.LedgerTransaction, []domain.BalanceEvent, error) {
	escrowAcc, err := accountRepo.GetOrCreateAccountInTx(ctx, tx, newEscrowAccount(h.EscrowID, h.CurrencyCode, now))
	if err != nil {
		return nil, nil, err
	}
	buyerAcc, err := accountRepo.GetOrCreateAccountInTx(ctx, tx, newUserAccount(h.BuyerUserID, h.CurrencyCode, now))
	if err != nil {
		return nil, nil, err
	}

	description := fmt.Sprintf("Escrow refund for contract %s", h.ContractID)
	txn, entries := buildTransaction(domain.TxnEscrowRefund, description, h.CurrencyCode, &h.ContractID, []dto.EntryInput{
		{AccountID: escrowAcc.AccountID, Direction: domain.Debit, Amount: h.Amount},
		{AccountID: buyerAcc.AccountID, Direction: domain.Credit, Amount: h.Amount},
	}, actorUserID, now)
	history := []domain.HistoryRecord{
		newHistoryRecord(h.BuyerUserID, txn, domain.HistoryEscrowRefund, h.Amount, description),
	}
	guards := portsrepo.SaveGuards{ZeroAfterAccounts: []string{escrowAcc.AccountID}}

	if err := ledgerRepo.SaveTransactionInTx(ctx, tx, txn, entries, history, guards); err != nil {
		return nil, nil, err
	}
	if err := escrowRepo.UpdateEscrowStatusInTx(ctx, tx, h.EscrowID, h.Status, domain.EscrowRefunded, actorUserID, now); err != nil {
		return nil, nil, err
	}

	outcome := domain.ContractCancelled
	events := []domain.BalanceEvent{{
		UserID:          h.BuyerUserID,
		Type:            domain.HistoryEscrowRefund,
		Amount:          h.Amount,
		CurrencyCode:    h.CurrencyCode,
		Message:         description,
		TransactionID:   txn.TransactionID,
		ContractID:      h.ContractID,
		ContractOutcome: &outcome,
		OccurredAt:      now,
	}}

	txn.Status = domain.TxnCompleted
	txn.Entries = entries
	return &txn, events, nil
}

// CreateEscrow opens a holding for an agreed contract. No funds move.
func (s *escrowService) CreateEscrow(ctx context.Context, req dto.CreateEscrowRequest, actorUserID string) (*domain.EscrowHolding, error) {
	halves, err := qz.FromDecimal(req.Amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}
	if halves <= 0 {
		return nil, fmt.Errorf("%w: escrow amount must be positive", apperrors.ErrValidation)
	}
	if req.BuyerUserID == req.SellerUserID {
		return nil, fmt.Errorf("%w: buyer and seller must differ", apperrors.ErrValidation)
	}

	for _, userID := range []string{req.BuyerUserID, req.SellerUserID} {
		user, err := s.userRepo.FindUserByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !user.IsActive {
			return nil, fmt.Errorf("%w: user %s is not active", apperrors.ErrValidation, userID)
		}
	}

	now := time.Now()
	holding := domain.EscrowHolding{
		EscrowID:     uuid.NewString(),
		ContractID:   req.ContractID,
		ServiceID:    req.ServiceID,
		BuyerUserID:  req.BuyerUserID,
		SellerUserID: req.SellerUserID,
		Amount:       halves,
		CurrencyCode: domain.DefaultCurrency,
		Status:       domain.EscrowCreated,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorUserID,
		},
	}

	if err := s.escrowRepo.SaveEscrow(ctx, holding); err != nil {
		return nil, err
	}
	return &holding, nil
}

// FundEscrow captures the buyer's payment into the escrow account.
func (s *escrowService) FundEscrow(ctx context.Context, escrowID string, actorUserID string) (*domain.EscrowHolding, error) {
	tx, err := s.escrowRepo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = s.escrowRepo.Rollback(ctx, tx) }()

	h, err := s.escrowRepo.FindEscrowByIDForUpdate(ctx, tx, escrowID)
	if err != nil {
		return nil, err
	}
	if actorUserID != h.BuyerUserID {
		return nil, fmt.Errorf("%w: only the buyer can fund escrow %s", apperrors.ErrForbidden, escrowID)
	}
	if !h.CanFund() {
		return nil, fmt.Errorf("%w: escrow %s is %s, expected %s", apperrors.ErrInvalidState, escrowID, h.Status, domain.EscrowCreated)
	}

	now := time.Now()
	buyerAcc, err := s.accountRepo.GetOrCreateAccountInTx(ctx, tx, newUserAccount(h.BuyerUserID, h.CurrencyCode, now))
	if err != nil {
		return nil, err
	}
	escrowAcc, err := s.accountRepo.GetOrCreateAccountInTx(ctx, tx, newEscrowAccount(h.EscrowID, h.CurrencyCode, now))
	if err != nil {
		return nil, err
	}

	description := fmt.Sprintf("Escrow funding for contract %s", h.ContractID)
	txn, entries := buildTransaction(domain.TxnEscrowFund, description, h.CurrencyCode, &h.ContractID, []dto.EntryInput{
		{AccountID: buyerAcc.AccountID, Direction: domain.Debit, Amount: h.Amount},
		{AccountID: escrowAcc.AccountID, Direction: domain.Credit, Amount: h.Amount},
	}, actorUserID, now)
	history := []domain.HistoryRecord{
		newHistoryRecord(h.BuyerUserID, txn, domain.HistoryEscrowFund, -h.Amount, description),
	}
	guards := portsrepo.SaveGuards{NonNegativeAccounts: []string{buyerAcc.AccountID}}

	if err := s.ledgerRepo.SaveTransactionInTx(ctx, tx, txn, entries, history, guards); err != nil {
		return nil, err
	}
	if err := s.escrowRepo.UpdateEscrowStatusInTx(ctx, tx, h.EscrowID, domain.EscrowCreated, domain.EscrowFunded, actorUserID, now); err != nil {
		return nil, err
	}
	if err := s.escrowRepo.Commit(ctx, tx); err != nil {
		return nil, err
	}

	publishEvents(ctx, s.notifier, domain.BalanceEvent{
		UserID:        h.BuyerUserID,
		Type:          domain.HistoryEscrowFund,
		Amount:        -h.Amount,
		CurrencyCode:  h.CurrencyCode,
		Message:       description,
		TransactionID: txn.TransactionID,
		ContractID:    h.ContractID,
		OccurredAt:    now,
	})

	h.Status = domain.EscrowFunded
	h.LastUpdatedAt = now
	h.LastUpdatedBy = actorUserID
	return h, nil
}

// ReleaseEscrow pays the held funds to the seller. Outside a dispute only the
// buyer can trigger it, by accepting the delivered work; a DISPUTED holding is
// released through dispute resolution instead.
func (s *escrowService) ReleaseEscrow(ctx context.Context, escrowID string, actorUserID string) (*domain.EscrowHolding, error) {
	tx, err := s.escrowRepo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = s.escrowRepo.Rollback(ctx, tx) }()

	h, err := s.escrowRepo.FindEscrowByIDForUpdate(ctx, tx, escrowID)
	if err != nil {
		return nil, err
	}
	if actorUserID != h.BuyerUserID {
		return nil, fmt.Errorf("%w: only the buyer can release escrow %s", apperrors.ErrForbidden, escrowID)
	}
	if h.Status != domain.EscrowFunded {
		return nil, fmt.Errorf("%w: escrow %s is %s, expected %s", apperrors.ErrInvalidState, escrowID, h.Status, domain.EscrowFunded)
	}

	now := time.Now()
	_, events, err := releaseEscrowInTx(ctx, tx, s.ledgerRepo, s.accountRepo, s.escrowRepo, h, s.cfg.EscrowFeeBasisPoints, actorUserID, now)
	if err != nil {
		return nil, err
	}
	if err := s.escrowRepo.Commit(ctx, tx); err != nil {
		return nil, err
	}

	publishEvents(ctx, s.notifier, events...)

	h.Status = domain.EscrowReleased
	h.LastUpdatedAt = now
	h.LastUpdatedBy = actorUserID
	return h, nil
}

// RefundEscrow returns the held funds to the buyer. Outside a dispute only the
// seller can trigger it, by conceding the contract.
func (s *escrowService) RefundEscrow(ctx context.Context, escrowID string, actorUserID string) (*domain.EscrowHolding, error) {
	tx, err := s.escrowRepo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = s.escrowRepo.Rollback(ctx, tx) }()

	h, err := s.escrowRepo.FindEscrowByIDForUpdate(ctx, tx, escrowID)
	if err != nil {
		return nil, err
	}
	if actorUserID != h.SellerUserID {
		return nil, fmt.Errorf("%w: only the seller can refund escrow %s", apperrors.ErrForbidden, escrowID)
	}
	if h.Status != domain.EscrowFunded {
		return nil, fmt.Errorf("%w: escrow %s is %s, expected %s", apperrors.ErrInvalidState, escrowID, h.Status, domain.EscrowFunded)
	}

	now := time.Now()
	_, events, err := refundEscrowInTx(ctx, tx, s.ledgerRepo, s.accountRepo, s.escrowRepo, h, actorUserID, now)
	if err != nil {
		return nil, err
	}
	if err := s.escrowRepo.Commit(ctx, tx); err != nil {
		return nil, err
	}

	publishEvents(ctx, s.notifier, events...)

	h.Status = domain.EscrowRefunded
	h.LastUpdatedAt = now
	h.LastUpdatedBy = actorUserID
	return h, nil
}

// CancelEscrow cancels an unfunded holding. No ledger movement.
func (s *escrowService) CancelEscrow(ctx context.Context, escrowID string, actorUserID string) (*domain.EscrowHolding, error) {
	tx, err := s.escrowRepo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = s.escrowRepo.Rollback(ctx, tx) }()

	h, err := s.escrowRepo.FindEscrowByIDForUpdate(ctx, tx, escrowID)
	if err != nil {
		return nil, err
	}
	if actorUserID != h.BuyerUserID && actorUserID != h.SellerUserID {
		return nil, fmt.Errorf("%w: only a party to escrow %s can cancel it", apperrors.ErrForbidden, escrowID)
	}
	if !h.CanCancel() {
		return nil, fmt.Errorf("%w: escrow %s is %s, expected %s", apperrors.ErrInvalidState, escrowID, h.Status, domain.EscrowCreated)
	}

	now := time.Now()
	if err := s.escrowRepo.UpdateEscrowStatusInTx(ctx, tx, h.EscrowID, domain.EscrowCreated, domain.EscrowCancelled, actorUserID, now); err != nil {
		return nil, err
	}
	if err := s.escrowRepo.Commit(ctx, tx); err != nil {
		return nil, err
	}

	h.Status = domain.EscrowCancelled
	h.LastUpdatedAt = now
	h.LastUpdatedBy = actorUserID
	return h, nil
}

// OpenDispute places a funded holding on dispute hold. Funds stay in the
// escrow account; the dispute row and the status flip commit together.
func (s *escrowService) OpenDispute(ctx context.Context, req dto.OpenDisputeRequest, actorUserID string) (*domain.Dispute, error) {
	if req.Reason == "" {
		return nil, fmt.Errorf("%w: dispute reason is required", apperrors.ErrValidation)
	}

	tx, err := s.escrowRepo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = s.escrowRepo.Rollback(ctx, tx) }()

	h, err := s.escrowRepo.FindEscrowByIDForUpdate(ctx, tx, req.EscrowID)
	if err != nil {
		return nil, err
	}
	if actorUserID != h.BuyerUserID && actorUserID != h.SellerUserID {
		return nil, fmt.Errorf("%w: only a party to escrow %s can dispute it", apperrors.ErrForbidden, req.EscrowID)
	}
	if !h.CanDispute() {
		return nil, fmt.Errorf("%w: escrow %s is %s, expected %s", apperrors.ErrInvalidState, req.EscrowID, h.Status, domain.EscrowFunded)
	}

	now := time.Now()
	dispute := domain.Dispute{
		DisputeID:      uuid.NewString(),
		EscrowID:       h.EscrowID,
		OpenedByUserID: actorUserID,
		Reason:         req.Reason,
		Status:         domain.DisputeOpen,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorUserID,
		},
	}

	if err := s.disputeRepo.SaveDisputeInTx(ctx, tx, dispute); err != nil {
		return nil, err
	}
	if err := s.escrowRepo.UpdateEscrowStatusInTx(ctx, tx, h.EscrowID, domain.EscrowFunded, domain.EscrowDisputed, actorUserID, now); err != nil {
		return nil, err
	}
	if err := s.escrowRepo.Commit(ctx, tx); err != nil {
		return nil, err
	}

	return &dispute, nil
}

// GetEscrow retrieves a holding's current state.
func (s *escrowService) GetEscrow(ctx context.Context, escrowID string) (*domain.EscrowHolding, error) {
	return s.escrowRepo.FindEscrowByID(ctx, escrowID)
}
