package dto

import (
	"time"

	"github.com/quartzmarket/ledger/internal/core/domain"
)

// OpenDisputeRequest places a funded holding on dispute hold. No ledger
// movement; funds stay in the escrow account.
type OpenDisputeRequest struct {
	EscrowID string `json:"escrowID" binding:"required"`
	Reason   string `json:"reason" binding:"required"`
}

// ResolveDisputeRequest is the admin decision that closes a dispute.
type ResolveDisputeRequest struct {
	Action domain.ResolutionAction `json:"action" binding:"required,oneof=RELEASE_TO_SELLER REFUND_TO_BUYER DISMISS_NO_ACTION"`
	Note   string                  `json:"note" binding:"required"`
}

// DisputeResponse is the dispute's state for admin UIs.
type DisputeResponse struct {
	DisputeID      string                   `json:"disputeID"`
	EscrowID       string                   `json:"escrowID"`
	OpenedByUserID string                   `json:"openedByUserID"`
	Reason         string                   `json:"reason"`
	Status         domain.DisputeStatus     `json:"status"`
	Action         *domain.ResolutionAction `json:"action,omitempty"`
	ResolutionNote string                   `json:"resolutionNote,omitempty"`
	CreatedAt      time.Time                `json:"createdAt"`
	UpdatedAt      time.Time                `json:"updatedAt"`
}

// ToDisputeResponse converts a domain.Dispute to its response DTO.
func ToDisputeResponse(d *domain.Dispute) DisputeResponse {
	return DisputeResponse{
		DisputeID:      d.DisputeID,
		EscrowID:       d.EscrowID,
		OpenedByUserID: d.OpenedByUserID,
		Reason:         d.Reason,
		Status:         d.Status,
		Action:         d.Action,
		ResolutionNote: d.ResolutionNote,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.LastUpdatedAt,
	}
}
