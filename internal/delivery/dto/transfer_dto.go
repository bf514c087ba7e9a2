package dto

import "github.com/shopspring/decimal"

// TransferRequest names the recipient by email, account number or wallet address.
type TransferRequest struct {
	Recipient   string          `json:"recipient" validate:"required,max=255"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" validate:"omitempty,max=255"`
}

type TransferResponse struct {
	Transaction *TransactionResponse `json:"transaction"`
	Balance     decimal.Decimal      `json:"balance"`
}
