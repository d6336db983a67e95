package services

import (
	"context"

	"github.com/quartzmarket/ledger/internal/core/domain"
	"github.com/quartzmarket/ledger/internal/dto"
)

// LedgerReaderSvc defines read operations over the ledger.
type LedgerReaderSvc interface {
	// GetBalance derives a user's balance (in halves) from completed entries.
	// Returns 0 if the user has no account yet; never creates one.
	GetBalance(ctx context.Context, userID string, currencyCode string) (int64, error)

	// GetTransactionByID retrieves a ledger transaction with its entries.
	GetTransactionByID(ctx context.Context, transactionID string) (*domain.LedgerTransaction, error)

	// ListTransactionHistory retrieves a page of a user's denormalized history.
	ListTransactionHistory(ctx context.Context, userID string, limit int, offset int) (*dto.ListHistoryResponse, error)
}

// LedgerWriterSvc defines the ledger engine's write contract.
type LedgerWriterSvc interface {
	// RecordTransaction validates and records a balanced movement. Entries must
	// number at least two, touch at least two accounts, carry positive amounts
	// and sum to zero per currency; the write is all-or-nothing.
	RecordTransaction(ctx context.Context, req dto.RecordTransactionRequest, actorUserID string) (*domain.LedgerTransaction, error)
}

// LedgerAuditorSvc defines reconciliation operations.
type LedgerAuditorSvc interface {
	// ReconcileAccount recomputes an account's balance from the ledger and
	// compares it to the cached value. The ledger is the source of truth.
	ReconcileAccount(ctx context.Context, accountID string) (*dto.ReconciliationResponse, error)
}

// LedgerSvcFacade combines all ledger-related service interfaces.
type LedgerSvcFacade interface {
	LedgerReaderSvc
	LedgerWriterSvc
	LedgerAuditorSvc
}
