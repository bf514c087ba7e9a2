package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountNumberPrefix starts every ledger account number.
const AccountNumberPrefix = "MW"

// Wallet holds a single currency balance for a ledger user
type Wallet struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"user_id"`
	AccountNumber string          `json:"account_number"`
	Balance       decimal.Decimal `json:"balance"`
	Currency      string          `json:"currency"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// CanDebit reports whether the balance covers amount.
func (w *Wallet) CanDebit(amount decimal.Decimal) bool {
	return w.Balance.GreaterThanOrEqual(amount)
}
