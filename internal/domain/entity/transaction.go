package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger movement
type TransactionType string

const (
	TransactionTypeTransfer      TransactionType = "transfer"
	TransactionTypeInternational TransactionType = "international_transfer"
	TransactionTypeLoanDisbursal TransactionType = "loan_disbursement"
	TransactionTypeLoanRepayment TransactionType = "loan_repayment"
	TransactionTypeDeposit       TransactionType = "deposit"
	TransactionTypeWithdrawal    TransactionType = "withdrawal"
)

// TransactionStatus of a ledger movement
type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// Transaction is an immutable ledger entry. SenderID is nil for credits
// issued by the system (loan disbursement, admin credit), ReceiverID is
// nil for debits to the system.
type Transaction struct {
	ID              int64             `json:"id"`
	TxHash          string            `json:"tx_hash"`
	SenderID        *int64            `json:"sender_id,omitempty"`
	ReceiverID      *int64            `json:"receiver_id,omitempty"`
	Amount          decimal.Decimal   `json:"amount"`
	Currency        string            `json:"currency"`
	ConvertedAmount *decimal.Decimal  `json:"converted_amount,omitempty"`
	TargetCurrency  *string           `json:"target_currency,omitempty"`
	ExchangeRate    *decimal.Decimal  `json:"exchange_rate,omitempty"`
	Fee             decimal.Decimal   `json:"fee"`
	Type            TransactionType   `json:"type"`
	Status          TransactionStatus `json:"status"`
	Description     string            `json:"description,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`

	// Populated by list queries that join the counterpart users.
	SenderName   string `json:"sender_name,omitempty"`
	ReceiverName string `json:"receiver_name,omitempty"`
}

// TransactionFilter narrows transaction history queries.
type TransactionFilter struct {
	UserID *int64 // sender or receiver
	Type   string
	Status string
	From   *time.Time
	To     *time.Time
	Page   int
	Limit  int
}

// Direction of a transaction relative to the viewing user.
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// DirectionFor reports whether the transaction moved money into or out of
// the given user's wallet.
func (t *Transaction) DirectionFor(userID int64) string {
	if t.SenderID != nil && *t.SenderID == userID {
		return DirectionOut
	}
	return DirectionIn
}

// IsParty reports whether the user sent or received the transaction.
func (t *Transaction) IsParty(userID int64) bool {
	return (t.SenderID != nil && *t.SenderID == userID) ||
		(t.ReceiverID != nil && *t.ReceiverID == userID)
}

// CurrencyBalance is the summed wallet balance of one currency.
type CurrencyBalance struct {
	Currency string          `json:"currency"`
	Total    decimal.Decimal `json:"total"`
	Wallets  int64           `json:"wallets"`
}

// CurrencyVolume is the number and summed amount of transactions booked in
// one currency.
type CurrencyVolume struct {
	Currency     string          `json:"currency"`
	Transactions int64           `json:"transactions"`
	Volume       decimal.Decimal `json:"volume"`
}

// LedgerStats is the admin overview of the ledger.
type LedgerStats struct {
	TotalUsers        int64             `json:"total_users"`
	ActiveUsers       int64             `json:"active_users"`
	Balances          []CurrencyBalance `json:"balances"`
	TodayTransactions int64             `json:"today_transactions"`
	TodayVolume       []CurrencyVolume  `json:"today_volume"`
	PendingLoans      int64             `json:"pending_loans"`
}
