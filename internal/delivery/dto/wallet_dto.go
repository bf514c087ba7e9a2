package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type WalletResponse struct {
	AccountNumber string          `json:"account_number"`
	Balance       decimal.Decimal `json:"balance"`
	Currency      string          `json:"currency"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type TransactionResponse struct {
	ID              int64            `json:"id"`
	TxHash          string           `json:"tx_hash"`
	Type            string           `json:"type"`
	Status          string           `json:"status"`
	Direction       string           `json:"direction,omitempty"`
	SenderID        *int64           `json:"sender_id,omitempty"`
	SenderName      string           `json:"sender_name,omitempty"`
	ReceiverID      *int64           `json:"receiver_id,omitempty"`
	ReceiverName    string           `json:"receiver_name,omitempty"`
	Amount          decimal.Decimal  `json:"amount"`
	Currency        string           `json:"currency"`
	Fee             decimal.Decimal  `json:"fee"`
	ConvertedAmount *decimal.Decimal `json:"converted_amount,omitempty"`
	TargetCurrency  *string          `json:"target_currency,omitempty"`
	ExchangeRate    *decimal.Decimal `json:"exchange_rate,omitempty"`
	Description     string           `json:"description,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}
