package dto

import (
	"time"

	"github.com/quartzmarket/ledger/internal/core/domain"
	"github.com/quartzmarket/ledger/internal/utils/qz"
	"github.com/shopspring/decimal"
)

// TopupRequest defines the data needed to top up a wallet. Amount is in QZ
// (may carry a half, e.g. "4.5"); it is converted to halves before hitting the
// ledger.
type TopupRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required,qzamount"`
	Description string          `json:"description"`
}

// TransferRequest defines a peer-to-peer transfer. An explicit command object:
// every field of the operation's contract is statically typed.
type TransferRequest struct {
	ToUserID    string          `json:"toUserID" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required,qzamount"`
	Description string          `json:"description"`
}

// BalanceResponse is the wallet summary for a user.
type BalanceResponse struct {
	UserID       string          `json:"userID"`
	CurrencyCode string          `json:"currencyCode"`
	Balance      decimal.Decimal `json:"balance"`       // In QZ
	BalanceUnits int64           `json:"balanceHalves"` // In halves
}

// ToBalanceResponse renders a balance in halves as a wallet summary.
func ToBalanceResponse(userID, currencyCode string, halves int64) BalanceResponse {
	return BalanceResponse{
		UserID:       userID,
		CurrencyCode: currencyCode,
		Balance:      qz.ToDecimal(halves),
		BalanceUnits: halves,
	}
}

// HistoryEntryResponse is one user-facing transaction history row.
type HistoryEntryResponse struct {
	HistoryID     string             `json:"historyID"`
	TransactionID string             `json:"transactionID"`
	Type          domain.HistoryType `json:"type"`
	Amount        decimal.Decimal    `json:"amount"` // Signed, in QZ
	CurrencyCode  string             `json:"currencyCode"`
	Description   string             `json:"description"`
	CreatedAt     time.Time          `json:"createdAt"`
}

// ListHistoryResponse is a page of history rows.
type ListHistoryResponse struct {
	Entries []HistoryEntryResponse `json:"entries"`
	Limit   int                    `json:"limit"`
	Offset  int                    `json:"offset"`
}

// ToHistoryEntryResponse converts a domain.HistoryRecord to its response DTO.
func ToHistoryEntryResponse(h domain.HistoryRecord) HistoryEntryResponse {
	return HistoryEntryResponse{
		HistoryID:     h.HistoryID,
		TransactionID: h.TransactionID,
		Type:          h.Type,
		Amount:        qz.ToDecimal(h.Amount),
		CurrencyCode:  h.CurrencyCode,
		Description:   h.Description,
		CreatedAt:     h.CreatedAt,
	}
}

// ToHistoryEntryResponses converts a slice of history records.
func ToHistoryEntryResponses(hs []domain.HistoryRecord) []HistoryEntryResponse {
	out := make([]HistoryEntryResponse, len(hs))
	for i, h := range hs {
		out[i] = ToHistoryEntryResponse(h)
	}
	return out
}

// ReconciliationResponse reports drift between the cached account balance and
// the balance derived from completed ledger entries. Ledger wins.
type ReconciliationResponse struct {
	AccountID      string          `json:"accountID"`
	CachedBalance  decimal.Decimal `json:"cachedBalance"`  // In QZ
	DerivedBalance decimal.Decimal `json:"derivedBalance"` // In QZ
	DriftHalves    int64           `json:"driftHalves"`
	Consistent     bool            `json:"consistent"`
}
