package domain

// EntryDirection indicates whether a ledger entry is a debit or a credit.
type EntryDirection string

const (
	Debit  EntryDirection = "DEBIT"
	Credit EntryDirection = "CREDIT"
)

// TransactionType categorizes the economic event a ledger transaction records.
type TransactionType string

const (
	TxnTopup         TransactionType = "TOPUP"
	TxnTransfer      TransactionType = "TRANSFER"
	TxnPayment       TransactionType = "PAYMENT"
	TxnRefund        TransactionType = "REFUND"
	TxnEscrowFund    TransactionType = "ESCROW_FUND"
	TxnEscrowRelease TransactionType = "ESCROW_RELEASE"
	TxnEscrowRefund  TransactionType = "ESCROW_REFUND"
)

// TransactionStatus indicates the state of a ledger transaction. A transaction
// is created PENDING and flipped to COMPLETED in the same unit of work that
// inserts its entries; it never leaves COMPLETED.
type TransactionStatus string

const (
	TxnPending   TransactionStatus = "PENDING"
	TxnCompleted TransactionStatus = "COMPLETED"
	TxnFailed    TransactionStatus = "FAILED"
)

// LedgerTransaction represents a single, balanced economic event composed of
// at least two entries that sum to zero per currency.
type LedgerTransaction struct {
	TransactionID string            `json:"transactionID"` // Primary key (UUID)
	Type          TransactionType   `json:"type"`
	Status        TransactionStatus `json:"status"`
	Description   string            `json:"description"`
	CurrencyCode  string            `json:"currencyCode"`
	ExternalRef   *string           `json:"externalRef,omitempty"` // Links to a contract/dispute/escrow
	AuditFields
	Entries []LedgerEntry `json:"entries,omitempty"`
}

// LedgerEntry is a single line item within a LedgerTransaction, affecting one
// account. Amount is a positive integer in halves. Entries are immutable once
// their transaction completes.
type LedgerEntry struct {
	EntryID       string         `json:"entryID"`       // Primary key (UUID)
	TransactionID string         `json:"transactionID"` // FK -> LedgerTransaction
	AccountID     string         `json:"accountID"`     // FK -> Account
	Direction     EntryDirection `json:"direction"`
	Amount        int64          `json:"amount"` // Positive, in halves
	CurrencyCode  string         `json:"currencyCode"`
	AuditFields
}

// SignedAmount returns the entry's effect on its account balance: credits
// increase the balance, debits decrease it.
func (e LedgerEntry) SignedAmount() int64 {
	if e.Direction == Credit {
		return e.Amount
	}
	return -e.Amount
}
