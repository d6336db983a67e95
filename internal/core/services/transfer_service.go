package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quartzmarket/ledger/internal/apperrors"
	"github.com/quartzmarket/ledger/internal/core/domain"
	portsrepo "github.com/quartzmarket/ledger/internal/core/ports/repositories"
	portssvc "github.com/quartzmarket/ledger/internal/core/ports/services"
	"github.com/quartzmarket/ledger/internal/dto"
	"github.com/quartzmarket/ledger/internal/platform/config"
	"github.com/quartzmarket/ledger/internal/utils/qz"
)

// transferService moves value between the platform and users.
type transferService struct {
	ledgerRepo  portsrepo.LedgerRepositoryWithTx
	accountRepo portsrepo.AccountRepositoryFacade
	userRepo    portsrepo.UserRepositoryFacade
	notifier    portssvc.Notifier
	cfg         *config.Config
}

// NewTransferService creates a new TransferService.
func NewTransferService(ledgerRepo portsrepo.LedgerRepositoryWithTx, accountRepo portsrepo.AccountRepositoryFacade, userRepo portsrepo.UserRepositoryFacade, notifier portssvc.Notifier, cfg *config.Config) portssvc.TransferSvcFacade {
	return &transferService{
		ledgerRepo:  ledgerRepo,
		accountRepo: accountRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		cfg:         cfg,
	}
}

var _ portssvc.TransferSvcFacade = (*transferService)(nil)

// newHistoryRecord builds one denormalized history row for a user.
func newHistoryRecord(userID string, txn domain.LedgerTransaction, historyType domain.HistoryType, signedAmount int64, description string) domain.HistoryRecord {
	return domain.HistoryRecord{
		HistoryID:     uuid.NewString(),
		UserID:        userID,
		TransactionID: txn.TransactionID,
		Type:          historyType,
		Amount:        signedAmount,
		CurrencyCode:  txn.CurrencyCode,
		Description:   description,
		AuditFields:   txn.AuditFields,
	}
}

// Topup credits a user's wallet from the platform issuing account. The
// platform side is allowed to go negative: it is where QZ enters circulation.
func (s *transferService) Topup(ctx context.Context, userID string, req dto.TopupRequest) (*domain.LedgerTransaction, error) {
	halves, err := qz.FromDecimal(req.Amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}
	if halves <= 0 {
		return nil, fmt.Errorf("%w: topup amount must be positive", apperrors.ErrValidation)
	}

	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: user %s is not active", apperrors.ErrValidation, userID)
	}

	now := time.Now()
	userAcc, err := s.accountRepo.GetOrCreateAccount(ctx, newUserAccount(userID, domain.DefaultCurrency, now))
	if err != nil {
		return nil, err
	}
	platformAcc, err := s.accountRepo.GetOrCreateAccount(ctx, newPlatformAccount(domain.DefaultCurrency, now))
	if err != nil {
		return nil, err
	}

	description := req.Description
	if description == "" {
		description = "Wallet topup"
	}

	txn, entries := buildTransaction(domain.TxnTopup, description, domain.DefaultCurrency, nil, []dto.EntryInput{
		{AccountID: platformAcc.AccountID, Direction: domain.Debit, Amount: halves},
		{AccountID: userAcc.AccountID, Direction: domain.Credit, Amount: halves},
	}, userID, now)

	history := []domain.HistoryRecord{
		newHistoryRecord(userID, txn, domain.HistoryTopup, halves, description),
	}

	if err := s.ledgerRepo.SaveTransaction(ctx, txn, entries, history, portsrepo.SaveGuards{}); err != nil {
		return nil, err
	}

	publishEvents(ctx, s.notifier, domain.BalanceEvent{
		UserID:        userID,
		Type:          domain.HistoryTopup,
		Amount:        halves,
		CurrencyCode:  txn.CurrencyCode,
		Message:       description,
		TransactionID: txn.TransactionID,
		OccurredAt:    now,
	})

	txn.Status = domain.TxnCompleted
	txn.Entries = entries
	return &txn, nil
}

// Transfer moves value between two users. Preconditions are checked in order;
// the first failure names the reason. Everything that depends on shared state
// (recipient active, velocity, sufficiency) is evaluated inside the same
// database transaction that writes the entries, against locked rows.
func (s *transferService) Transfer(ctx context.Context, fromUserID string, req dto.TransferRequest) (*domain.LedgerTransaction, error) {
	halves, err := qz.FromDecimal(req.Amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}
	if halves < s.cfg.TransferMinHalves || halves > s.cfg.TransferMaxHalves {
		return nil, fmt.Errorf("%w: transfer amount %s is outside the allowed range [%s, %s] QZ",
			apperrors.ErrValidation, qz.Format(halves), qz.Format(s.cfg.TransferMinHalves), qz.Format(s.cfg.TransferMaxHalves))
	}

	if fromUserID == req.ToUserID {
		return nil, apperrors.ErrSelfTransfer
	}

	tx, err := s.ledgerRepo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = s.ledgerRepo.Rollback(ctx, tx) }()

	recipient, err := s.userRepo.FindUserByIDInTx(ctx, tx, req.ToUserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %s", apperrors.ErrRecipientNotFound, req.ToUserID)
		}
		return nil, err
	}
	if !recipient.IsActive {
		return nil, fmt.Errorf("%w: user %s is not active", apperrors.ErrRecipientNotFound, req.ToUserID)
	}

	now := time.Now()
	senderAcc, err := s.accountRepo.GetOrCreateAccountInTx(ctx, tx, newUserAccount(fromUserID, domain.DefaultCurrency, now))
	if err != nil {
		return nil, err
	}
	recipientAcc, err := s.accountRepo.GetOrCreateAccountInTx(ctx, tx, newUserAccount(req.ToUserID, domain.DefaultCurrency, now))
	if err != nil {
		return nil, err
	}

	description := req.Description
	if description == "" {
		description = "Transfer to " + recipient.DisplayName
	}

	txn, entries := buildTransaction(domain.TxnTransfer, description, domain.DefaultCurrency, nil, []dto.EntryInput{
		{AccountID: senderAcc.AccountID, Direction: domain.Debit, Amount: halves},
		{AccountID: recipientAcc.AccountID, Direction: domain.Credit, Amount: halves},
	}, fromUserID, now)

	history := []domain.HistoryRecord{
		newHistoryRecord(fromUserID, txn, domain.HistoryTransferOut, -halves, description),
		newHistoryRecord(req.ToUserID, txn, domain.HistoryTransferIn, halves, description),
	}

	guards := portsrepo.SaveGuards{
		NonNegativeAccounts: []string{senderAcc.AccountID},
		Velocity: &portsrepo.TransferVelocityGuard{
			AccountID: senderAcc.AccountID,
			Max:       s.cfg.TransferHourlyLimit,
			Window:    s.cfg.TransferWindow,
		},
	}

	if err := s.ledgerRepo.SaveTransactionInTx(ctx, tx, txn, entries, history, guards); err != nil {
		return nil, err
	}

	if err := s.ledgerRepo.Commit(ctx, tx); err != nil {
		return nil, err
	}

	publishEvents(ctx, s.notifier,
		domain.BalanceEvent{
			UserID:        fromUserID,
			Type:          domain.HistoryTransferOut,
			Amount:        -halves,
			CurrencyCode:  txn.CurrencyCode,
			Message:       description,
			TransactionID: txn.TransactionID,
			OccurredAt:    now,
		},
		domain.BalanceEvent{
			UserID:        req.ToUserID,
			Type:          domain.HistoryTransferIn,
			Amount:        halves,
			CurrencyCode:  txn.CurrencyCode,
			Message:       description,
			TransactionID: txn.TransactionID,
			OccurredAt:    now,
		},
	)

	txn.Status = domain.TxnCompleted
	txn.Entries = entries
	return &txn, nil
}
