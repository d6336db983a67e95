package domain

// EscrowStatus indicates where a holding is in its lifecycle.
//
// Legal transitions:
//
//	CREATED  -> FUNDED | CANCELLED
//	FUNDED   -> RELEASED | REFUNDED | DISPUTED
//	DISPUTED -> RELEASED | REFUNDED | FUNDED (via dispute resolution; a
//	            dismissed dispute lifts the hold and returns the holding
//	            to FUNDED)
//
// RELEASED, REFUNDED and CANCELLED are terminal. Funds move into the escrow
// account only on the FUNDED transition and out only on RELEASED/REFUNDED,
// always via a balanced ledger transaction.
type EscrowStatus string

const (
	EscrowCreated   EscrowStatus = "CREATED"
	EscrowFunded    EscrowStatus = "FUNDED"
	EscrowReleased  EscrowStatus = "RELEASED"
	EscrowRefunded  EscrowStatus = "REFUNDED"
	EscrowDisputed  EscrowStatus = "DISPUTED"
	EscrowCancelled EscrowStatus = "CANCELLED"
)

// ContractOutcome is the status the owning contract should take after a
// terminal escrow transition. The contract layer is an external collaborator;
// the outcome travels on the post-commit event rather than being written here.
type ContractOutcome string

const (
	ContractCompleted ContractOutcome = "COMPLETED"
	ContractCancelled ContractOutcome = "CANCELLED"
)

// EscrowHolding represents funds held in trust for one contract between a
// buyer and a seller.
type EscrowHolding struct {
	EscrowID     string       `json:"escrowID"` // Primary key (UUID)
	ContractID   string       `json:"contractID"`
	ServiceID    string       `json:"serviceID"`
	BuyerUserID  string       `json:"buyerUserID"`
	SellerUserID string       `json:"sellerUserID"`
	Amount       int64        `json:"amount"` // In halves
	CurrencyCode string       `json:"currencyCode"`
	Status       EscrowStatus `json:"status"`
	AuditFields
}

// CanFund reports whether the holding may accept the buyer's payment.
func (h EscrowHolding) CanFund() bool { return h.Status == EscrowCreated }

// CanRelease reports whether funds may be paid out to the seller.
func (h EscrowHolding) CanRelease() bool {
	return h.Status == EscrowFunded || h.Status == EscrowDisputed
}

// CanRefund reports whether funds may be returned to the buyer.
func (h EscrowHolding) CanRefund() bool {
	return h.Status == EscrowFunded || h.Status == EscrowDisputed
}

// CanDispute reports whether either party may place the holding on dispute hold.
func (h EscrowHolding) CanDispute() bool { return h.Status == EscrowFunded }

// CanCancel reports whether the holding may be cancelled without any ledger
// movement (no funds have been captured yet).
func (h EscrowHolding) CanCancel() bool { return h.Status == EscrowCreated }
