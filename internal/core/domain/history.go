package domain

// HistoryType categorizes a user-facing history row. Unlike TransactionType it
// distinguishes the two sides of a transfer so the UI can label direction.
type HistoryType string

const (
	HistoryTopup         HistoryType = "TOPUP"
	HistoryTransferOut   HistoryType = "TRANSFER"
	HistoryTransferIn    HistoryType = "TRANSFER_IN"
	HistoryEscrowFund    HistoryType = "ESCROW_FUND"
	HistoryEscrowRelease HistoryType = "ESCROW_RELEASE"
	HistoryEscrowRefund  HistoryType = "ESCROW_REFUND"
)

// HistoryRecord is a denormalized per-user row written alongside each ledger
// movement, for display only. It is never used for balance computation and can
// be regenerated from the ledger.
type HistoryRecord struct {
	HistoryID     string      `json:"historyID"` // Primary key (UUID)
	UserID        string      `json:"userID"`
	TransactionID string      `json:"transactionID"` // FK -> LedgerTransaction
	Type          HistoryType `json:"type"`
	Amount        int64       `json:"amount"` // Signed, in halves: positive = incoming
	CurrencyCode  string      `json:"currencyCode"`
	Description   string      `json:"description"`
	AuditFields
}
