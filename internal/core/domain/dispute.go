package domain

// DisputeStatus indicates the state of a dispute over an escrow holding.
type DisputeStatus string

const (
	DisputeOpen      DisputeStatus = "OPEN"
	DisputeResolved  DisputeStatus = "RESOLVED"
	DisputeDismissed DisputeStatus = "DISMISSED"
)

// ResolutionAction is the admin decision that closes a dispute.
type ResolutionAction string

const (
	ResolveReleaseToSeller ResolutionAction = "RELEASE_TO_SELLER"
	ResolveRefundToBuyer   ResolutionAction = "REFUND_TO_BUYER"
	ResolveDismiss         ResolutionAction = "DISMISS_NO_ACTION"
)

// Dispute represents a contested escrow holding awaiting an admin decision.
type Dispute struct {
	DisputeID      string            `json:"disputeID"` // Primary key (UUID)
	EscrowID       string            `json:"escrowID"`  // FK -> EscrowHolding
	OpenedByUserID string            `json:"openedByUserID"`
	Reason         string            `json:"reason"`
	Status         DisputeStatus     `json:"status"`
	Action         *ResolutionAction `json:"action,omitempty"` // Set once resolved/dismissed
	ResolutionNote string            `json:"resolutionNote"`
	AuditFields
}
