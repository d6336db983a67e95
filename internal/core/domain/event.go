package domain

import "time"

// BalanceEvent describes a balance-affecting event for the notification
// collaborator. It is emitted only after the ledger transaction committed,
// never before; delivery and formatting belong entirely to the collaborator.
type BalanceEvent struct {
	UserID          string           `json:"userID"`
	Type            HistoryType      `json:"type"`
	Amount          int64            `json:"amount"` // Signed, in halves
	CurrencyCode    string           `json:"currencyCode"`
	Message         string           `json:"message"`
	TransactionID   string           `json:"transactionID"`
	ContractID      string           `json:"contractID,omitempty"`
	ContractOutcome *ContractOutcome `json:"contractOutcome,omitempty"`
	OccurredAt      time.Time        `json:"occurredAt"`
}
