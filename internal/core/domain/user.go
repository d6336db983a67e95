package domain

// UserRef is the core's read-only view of a marketplace user. The user record
// itself (credentials, profile) is owned by an external collaborator; the
// ledger only needs identity and activity to validate movement endpoints.
type UserRef struct {
	UserID      string `json:"userID"`
	DisplayName string `json:"displayName"`
	IsActive    bool   `json:"isActive"`
}
