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
	"github.com/quartzmarket/ledger/internal/utils/qz"
)

var (
	ErrEntriesUnbalanced  = fmt.Errorf("%w: entries do not balance to zero", apperrors.ErrValidation)
	ErrEntriesMinCount    = fmt.Errorf("%w: a transaction needs at least two entries", apperrors.ErrValidation)
	ErrEntriesMinAccounts = fmt.Errorf("%w: a transaction must affect at least two accounts", apperrors.ErrValidation)
	ErrAmountNotPositive  = fmt.Errorf("%w: entry amounts must be positive", apperrors.ErrValidation)
	ErrDescriptionMissing = fmt.Errorf("%w: description is required", apperrors.ErrValidation)
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// ledgerService is the double-entry engine's service surface.
type ledgerService struct {
	ledgerRepo  portsrepo.LedgerRepositoryWithTx
	accountRepo portsrepo.AccountRepositoryFacade
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(ledgerRepo portsrepo.LedgerRepositoryWithTx, accountRepo portsrepo.AccountRepositoryFacade) portssvc.LedgerSvcFacade {
	return &ledgerService{
		ledgerRepo:  ledgerRepo,
		accountRepo: accountRepo,
	}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// validateEntries checks the structural invariants of a movement description:
// at least two entries across at least two accounts, every amount positive,
// and debits equal to credits.
func validateEntries(entries []dto.EntryInput) error {
	if len(entries) < 2 {
		return ErrEntriesMinCount
	}

	var debits, credits int64
	accounts := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.Amount <= 0 {
			return ErrAmountNotPositive
		}
		accounts[e.AccountID] = struct{}{}
		switch e.Direction {
		case domain.Debit:
			debits += e.Amount
		case domain.Credit:
			credits += e.Amount
		default:
			return fmt.Errorf("%w: unknown entry direction %q", apperrors.ErrValidation, e.Direction)
		}
	}

	if len(accounts) < 2 {
		return ErrEntriesMinAccounts
	}
	if debits != credits {
		return fmt.Errorf("%w: debits sum to %d halves and credits to %d", ErrEntriesUnbalanced, debits, credits)
	}
	return nil
}

// buildTransaction materializes a request into a transaction row and its
// entry rows, all sharing one transaction ID.
func buildTransaction(txnType domain.TransactionType, description, currencyCode string, externalRef *string, entries []dto.EntryInput, actorUserID string, now time.Time) (domain.LedgerTransaction, []domain.LedgerEntry) {
	txn := domain.LedgerTransaction{
		TransactionID: uuid.NewString(),
		Type:          txnType,
		Status:        domain.TxnPending,
		Description:   description,
		CurrencyCode:  currencyCode,
		ExternalRef:   externalRef,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorUserID,
		},
	}

	rows := make([]domain.LedgerEntry, len(entries))
	for i, e := range entries {
		rows[i] = domain.LedgerEntry{
			EntryID:       uuid.NewString(),
			TransactionID: txn.TransactionID,
			AccountID:     e.AccountID,
			Direction:     e.Direction,
			Amount:        e.Amount,
			CurrencyCode:  currencyCode,
			AuditFields:   txn.AuditFields,
		}
	}
	return txn, rows
}

// RecordTransaction validates and records a balanced movement.
func (s *ledgerService) RecordTransaction(ctx context.Context, req dto.RecordTransactionRequest, actorUserID string) (*domain.LedgerTransaction, error) {
	if req.Description == "" {
		return nil, ErrDescriptionMissing
	}
	if err := validateEntries(req.Entries); err != nil {
		return nil, err
	}

	txn, entries := buildTransaction(req.Type, req.Description, req.CurrencyCode, req.ExternalRef, req.Entries, actorUserID, time.Now())
	if err := s.ledgerRepo.SaveTransaction(ctx, txn, entries, nil, portsrepo.SaveGuards{}); err != nil {
		return nil, err
	}

	txn.Status = domain.TxnCompleted
	txn.Entries = entries
	return &txn, nil
}

// GetBalance derives a user's balance from completed entries. A user who has
// never touched money simply has no account yet; that reads as zero.
func (s *ledgerService) GetBalance(ctx context.Context, userID string, currencyCode string) (int64, error) {
	acc, err := s.accountRepo.FindAccountByOwner(ctx, domain.OwnerUser, userID, currencyCode)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return s.ledgerRepo.SumEntriesByAccount(ctx, acc.AccountID)
}

// GetTransactionByID retrieves a ledger transaction with its entries.
func (s *ledgerService) GetTransactionByID(ctx context.Context, transactionID string) (*domain.LedgerTransaction, error) {
	return s.ledgerRepo.FindTransactionByID(ctx, transactionID)
}

// ListTransactionHistory retrieves a page of a user's history, newest first.
func (s *ledgerService) ListTransactionHistory(ctx context.Context, userID string, limit int, offset int) (*dto.ListHistoryResponse, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}

	records, err := s.ledgerRepo.ListHistoryByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return &dto.ListHistoryResponse{
		Entries: dto.ToHistoryEntryResponses(records),
		Limit:   limit,
		Offset:  offset,
	}, nil
}

// ReconcileAccount recomputes an account's balance from the ledger and
// compares it to the cached column. The ledger is the source of truth.
func (s *ledgerService) ReconcileAccount(ctx context.Context, accountID string) (*dto.ReconciliationResponse, error) {
	acc, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	derived, err := s.ledgerRepo.SumEntriesByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	drift := acc.Balance - derived
	return &dto.ReconciliationResponse{
		AccountID:      accountID,
		CachedBalance:  qz.ToDecimal(acc.Balance),
		DerivedBalance: qz.ToDecimal(derived),
		DriftHalves:    drift,
		Consistent:     drift == 0,
	}, nil
}
