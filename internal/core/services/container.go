package services

import (
	portsrepo "github.com/quartzmarket/ledger/internal/core/ports/repositories"
	portssvc "github.com/quartzmarket/ledger/internal/core/ports/services"
	"github.com/quartzmarket/ledger/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly
// initialized dependencies.
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, notifier portssvc.Notifier) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Account = NewAccountService(repos.AccountRepo)
	container.Ledger = NewLedgerService(repos.LedgerRepo, repos.AccountRepo)
	container.Transfer = NewTransferService(repos.LedgerRepo, repos.AccountRepo, repos.UserRepo, notifier, cfg)
	container.Escrow = NewEscrowService(repos.EscrowRepo, repos.DisputeRepo, repos.LedgerRepo, repos.AccountRepo, repos.UserRepo, notifier, cfg)
	container.Dispute = NewDisputeService(repos.DisputeRepo, repos.EscrowRepo, repos.LedgerRepo, repos.AccountRepo, notifier, cfg)

	return container
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.AccountSvcFacade  = (*accountService)(nil)
	_ portssvc.LedgerSvcFacade   = (*ledgerService)(nil)
	_ portssvc.TransferSvcFacade = (*transferService)(nil)
	_ portssvc.EscrowSvcFacade   = (*escrowService)(nil)
	_ portssvc.DisputeSvcFacade  = (*disputeService)(nil)
)
