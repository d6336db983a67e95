package domain

// OwnerType identifies which kind of entity a ledger account belongs to.
type OwnerType string

const (
	OwnerUser     OwnerType = "USER"
	OwnerPlatform OwnerType = "PLATFORM"
	OwnerEscrow   OwnerType = "ESCROW"
)

// Account represents a ledger account within the core domain.
// At most one account exists per (OwnerType, OwnerID, CurrencyCode) tuple; the
// OwnerID is empty for the singleton platform account. Accounts are created
// lazily on first use and never deleted.
type Account struct {
	AccountID    string    `json:"accountID"` // Primary key (UUID)
	OwnerType    OwnerType `json:"ownerType"`
	OwnerID      string    `json:"ownerID"` // UserID or EscrowID; empty for platform
	CurrencyCode string    `json:"currencyCode"`
	Name         string    `json:"name"` // Display name
	IsActive     bool      `json:"isActive"`
	AuditFields
	Balance int64 `json:"balance"` // Cached balance in halves; ledger is authoritative
}
