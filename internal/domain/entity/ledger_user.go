package entity

import "time"

// Ledger roles
const (
	LedgerRoleUser  = "user"
	LedgerRoleAdmin = "admin"
)

// LedgerUser is an account in the ledger schema. Either Email or
// WalletAddress is always set.
type LedgerUser struct {
	ID            int64     `json:"id"`
	Email         *string   `json:"email,omitempty"`
	PasswordHash  string    `json:"-"`
	FullName      string    `json:"full_name"`
	WalletAddress *string   `json:"wallet_address,omitempty"`
	Role          string    `json:"role"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (u *LedgerUser) IsAdmin() bool {
	return u.Role == LedgerRoleAdmin
}

// LedgerUserFilter narrows the admin user listing.
type LedgerUserFilter struct {
	Search   string
	IsActive *bool
	Page     int
	Limit    int
}
