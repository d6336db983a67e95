package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/quartzmarket/ledger/internal/core/domain"
	portsrepo "github.com/quartzmarket/ledger/internal/core/ports/repositories"
	portssvc "github.com/quartzmarket/ledger/internal/core/ports/services"
)

// systemActor marks rows created by the engine itself rather than by a user.
const systemActor = "system"

// accountService is the account registry. It maps an owning entity plus a
// currency to exactly one account, creating it lazily on first use.
type accountService struct {
	accountRepo portsrepo.AccountRepositoryFacade
}

// NewAccountService creates a new AccountService.
func NewAccountService(accountRepo portsrepo.AccountRepositoryFacade) portssvc.AccountSvcFacade {
	return &accountService{accountRepo: accountRepo}
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

// newAccount builds the account row a lazy creation would insert. The account
// ID is generated speculatively; if the owner tuple already has an account the
// insert is a no-op and the existing row wins.
func newAccount(ownerType domain.OwnerType, ownerID, currencyCode, name, createdBy string, now time.Time) domain.Account {
	return domain.Account{
		AccountID:    uuid.NewString(),
		OwnerType:    ownerType,
		OwnerID:      ownerID,
		CurrencyCode: currencyCode,
		Name:         name,
		IsActive:     true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     createdBy,
			LastUpdatedAt: now,
			LastUpdatedBy: createdBy,
		},
		Balance: 0,
	}
}

func newUserAccount(userID, currencyCode string, now time.Time) domain.Account {
	return newAccount(domain.OwnerUser, userID, currencyCode, "Wallet "+userID, userID, now)
}

func newPlatformAccount(currencyCode string, now time.Time) domain.Account {
	// The platform account is a singleton per currency: empty owner ID.
	return newAccount(domain.OwnerPlatform, "", currencyCode, "Platform treasury", systemActor, now)
}

func newEscrowAccount(escrowID, currencyCode string, now time.Time) domain.Account {
	return newAccount(domain.OwnerEscrow, escrowID, currencyCode, "Escrow "+escrowID, systemActor, now)
}

// GetOrCreateUserAccount resolves the wallet account for a user.
func (s *accountService) GetOrCreateUserAccount(ctx context.Context, userID string, currencyCode string) (*domain.Account, error) {
	return s.accountRepo.GetOrCreateAccount(ctx, newUserAccount(userID, currencyCode, time.Now()))
}

// GetOrCreatePlatformAccount resolves the singleton platform account.
func (s *accountService) GetOrCreatePlatformAccount(ctx context.Context, currencyCode string) (*domain.Account, error) {
	return s.accountRepo.GetOrCreateAccount(ctx, newPlatformAccount(currencyCode, time.Now()))
}

// GetOrCreateEscrowAccount resolves the holding account for one escrow.
func (s *accountService) GetOrCreateEscrowAccount(ctx context.Context, escrowID string, currencyCode string) (*domain.Account, error) {
	return s.accountRepo.GetOrCreateAccount(ctx, newEscrowAccount(escrowID, currencyCode, time.Now()))
}

// FindUserAccount resolves a user's account without creating it.
func (s *accountService) FindUserAccount(ctx context.Context, userID string, currencyCode string) (*domain.Account, error) {
	return s.accountRepo.FindAccountByOwner(ctx, domain.OwnerUser, userID, currencyCode)
}
