package dto

import (
	"time"

	"github.com/quartzmarket/ledger/internal/core/domain"
	"github.com/quartzmarket/ledger/internal/utils/qz"
	"github.com/shopspring/decimal"
)

// CreateEscrowRequest opens a holding for an agreed contract. No funds move
// until the buyer funds it.
type CreateEscrowRequest struct {
	ContractID   string          `json:"contractID" binding:"required"`
	ServiceID    string          `json:"serviceID" binding:"required"`
	BuyerUserID  string          `json:"buyerUserID" binding:"required"`
	SellerUserID string          `json:"sellerUserID" binding:"required"`
	Amount       decimal.Decimal `json:"amount" binding:"required,qzamount"`
}

// EscrowResponse is the holding's state for contract detail UIs.
type EscrowResponse struct {
	EscrowID     string              `json:"escrowID"`
	ContractID   string              `json:"contractID"`
	ServiceID    string              `json:"serviceID"`
	BuyerUserID  string              `json:"buyerUserID"`
	SellerUserID string              `json:"sellerUserID"`
	Amount       decimal.Decimal     `json:"amount"` // In QZ
	CurrencyCode string              `json:"currencyCode"`
	Status       domain.EscrowStatus `json:"status"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

// ToEscrowResponse converts a domain.EscrowHolding to its response DTO.
func ToEscrowResponse(h *domain.EscrowHolding) EscrowResponse {
	return EscrowResponse{
		EscrowID:     h.EscrowID,
		ContractID:   h.ContractID,
		ServiceID:    h.ServiceID,
		BuyerUserID:  h.BuyerUserID,
		SellerUserID: h.SellerUserID,
		Amount:       qz.ToDecimal(h.Amount),
		CurrencyCode: h.CurrencyCode,
		Status:       h.Status,
		CreatedAt:    h.CreatedAt,
		UpdatedAt:    h.LastUpdatedAt,
	}
}
