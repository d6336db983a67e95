package services_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"

	"github.com/quartzmarket/ledger/internal/core/domain"
	portsrepo "github.com/quartzmarket/ledger/internal/core/ports/repositories"
	portssvc "github.com/quartzmarket/ledger/internal/core/ports/services"
)

// --- Mock AccountRepository ---

type MockAccountRepository struct {
	mock.Mock
}

var _ portsrepo.AccountRepositoryFacade = (*MockAccountRepository)(nil)

func (m *MockAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountByOwner(ctx context.Context, ownerType domain.OwnerType, ownerID string, currencyCode string) (*domain.Account, error) {
	args := m.Called(ctx, ownerType, ownerID, currencyCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) GetOrCreateAccount(ctx context.Context, account domain.Account) (*domain.Account, error) {
	args := m.Called(ctx, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) GetOrCreateAccountInTx(ctx context.Context, tx pgx.Tx, account domain.Account) (*domain.Account, error) {
	args := m.Called(ctx, tx, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, tx, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) UpdateAccountBalancesInTx(ctx context.Context, tx pgx.Tx, balanceChanges map[string]int64, userID string, now time.Time) error {
	args := m.Called(ctx, tx, balanceChanges, userID, now)
	return args.Error(0)
}

// --- Mock LedgerRepository ---

type MockLedgerRepository struct {
	mock.Mock
}

var _ portsrepo.LedgerRepositoryWithTx = (*MockLedgerRepository)(nil)

func (m *MockLedgerRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.LedgerTransaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerTransaction), args.Error(1)
}

func (m *MockLedgerRepository) SumEntriesByAccount(ctx context.Context, accountID string) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerRepository) SumEntriesByAccountInTx(ctx context.Context, tx pgx.Tx, accountID string) (int64, error) {
	args := m.Called(ctx, tx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerRepository) SaveTransaction(ctx context.Context, txn domain.LedgerTransaction, entries []domain.LedgerEntry, history []domain.HistoryRecord, guards portsrepo.SaveGuards) error {
	args := m.Called(ctx, txn, entries, history, guards)
	return args.Error(0)
}

func (m *MockLedgerRepository) SaveTransactionInTx(ctx context.Context, tx pgx.Tx, txn domain.LedgerTransaction, entries []domain.LedgerEntry, history []domain.HistoryRecord, guards portsrepo.SaveGuards) error {
	args := m.Called(ctx, tx, txn, entries, history, guards)
	return args.Error(0)
}

func (m *MockLedgerRepository) ListHistoryByUser(ctx context.Context, userID string, limit int, offset int) ([]domain.HistoryRecord, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.HistoryRecord), args.Error(1)
}

func (m *MockLedgerRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockLedgerRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockLedgerRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

// --- Mock EscrowRepository ---

type MockEscrowRepository struct {
	mock.Mock
}

var _ portsrepo.EscrowRepositoryWithTx = (*MockEscrowRepository)(nil)

func (m *MockEscrowRepository) FindEscrowByID(ctx context.Context, escrowID string) (*domain.EscrowHolding, error) {
	args := m.Called(ctx, escrowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EscrowHolding), args.Error(1)
}

func (m *MockEscrowRepository) FindEscrowByContractID(ctx context.Context, contractID string) (*domain.EscrowHolding, error) {
	args := m.Called(ctx, contractID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EscrowHolding), args.Error(1)
}

func (m *MockEscrowRepository) SaveEscrow(ctx context.Context, holding domain.EscrowHolding) error {
	args := m.Called(ctx, holding)
	return args.Error(0)
}

func (m *MockEscrowRepository) FindEscrowByIDForUpdate(ctx context.Context, tx pgx.Tx, escrowID string) (*domain.EscrowHolding, error) {
	args := m.Called(ctx, tx, escrowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EscrowHolding), args.Error(1)
}

func (m *MockEscrowRepository) UpdateEscrowStatusInTx(ctx context.Context, tx pgx.Tx, escrowID string, from, to domain.EscrowStatus, userID string, now time.Time) error {
	args := m.Called(ctx, tx, escrowID, from, to, userID, now)
	return args.Error(0)
}

func (m *MockEscrowRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockEscrowRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockEscrowRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

// --- Mock DisputeRepository ---

type MockDisputeRepository struct {
	mock.Mock
}

var _ portsrepo.DisputeRepositoryWithTx = (*MockDisputeRepository)(nil)

func (m *MockDisputeRepository) FindDisputeByID(ctx context.Context, disputeID string) (*domain.Dispute, error) {
	args := m.Called(ctx, disputeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dispute), args.Error(1)
}

func (m *MockDisputeRepository) SaveDispute(ctx context.Context, dispute domain.Dispute) error {
	args := m.Called(ctx, dispute)
	return args.Error(0)
}

func (m *MockDisputeRepository) SaveDisputeInTx(ctx context.Context, tx pgx.Tx, dispute domain.Dispute) error {
	args := m.Called(ctx, tx, dispute)
	return args.Error(0)
}

func (m *MockDisputeRepository) FindDisputeByIDForUpdate(ctx context.Context, tx pgx.Tx, disputeID string) (*domain.Dispute, error) {
	args := m.Called(ctx, tx, disputeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dispute), args.Error(1)
}

func (m *MockDisputeRepository) CloseDisputeInTx(ctx context.Context, tx pgx.Tx, disputeID string, status domain.DisputeStatus, action domain.ResolutionAction, note string, userID string, now time.Time) error {
	args := m.Called(ctx, tx, disputeID, status, action, note, userID, now)
	return args.Error(0)
}

func (m *MockDisputeRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockDisputeRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockDisputeRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

// --- Mock UserRepository ---

type MockUserRepository struct {
	mock.Mock
}

var _ portsrepo.UserRepositoryFacade = (*MockUserRepository)(nil)

func (m *MockUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.UserRef, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserRef), args.Error(1)
}

func (m *MockUserRepository) FindUserByIDInTx(ctx context.Context, tx pgx.Tx, userID string) (*domain.UserRef, error) {
	args := m.Called(ctx, tx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserRef), args.Error(1)
}

// --- Mock Notifier ---

type MockNotifier struct {
	mock.Mock
}

var _ portssvc.Notifier = (*MockNotifier)(nil)

func (m *MockNotifier) PublishBalanceEvent(ctx context.Context, event domain.BalanceEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
