package dto

import (
	"github.com/quartzmarket/ledger/internal/core/domain"
)

// EntryInput is one line of a movement description passed to the ledger engine.
// Amount is a positive integer in halves.
type EntryInput struct {
	AccountID string                `json:"accountID" binding:"required"`
	Direction domain.EntryDirection `json:"direction" binding:"required,oneof=DEBIT CREDIT"`
	Amount    int64                 `json:"amount" binding:"required,gt=0"`
}

// RecordTransactionRequest describes a balanced money movement. Entries must
// number at least two and sum to zero per currency.
type RecordTransactionRequest struct {
	Type         domain.TransactionType `json:"type" binding:"required"`
	Description  string                 `json:"description" binding:"required"`
	CurrencyCode string                 `json:"currencyCode" binding:"required"`
	ExternalRef  *string                `json:"externalRef"`
	Entries      []EntryInput           `json:"entries" binding:"required,min=2,dive"`
}
