package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// Request DTOs

type SetUserStatusRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

type AdjustWalletRequest struct {
	Type   string          `json:"type" validate:"required,oneof=deposit withdrawal"`
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason" validate:"required,min=3,max=255"`
}

// TransactionQuery carries the admin transaction filters parsed from the URL.
type TransactionQuery struct {
	Type   string
	Status string
	UserID *int64
	From   *time.Time
	To     *time.Time
	Page   int
	Limit  int
}

// Response DTOs

type CurrencyBalanceResponse struct {
	Currency string          `json:"currency"`
	Total    decimal.Decimal `json:"total"`
	Wallets  int64           `json:"wallets"`
}

type CurrencyVolumeResponse struct {
	Currency     string          `json:"currency"`
	Transactions int64           `json:"transactions"`
	Volume       decimal.Decimal `json:"volume"`
}

type LedgerStatsResponse struct {
	TotalUsers        int64                     `json:"total_users"`
	ActiveUsers       int64                     `json:"active_users"`
	Balances          []CurrencyBalanceResponse `json:"balances"`
	TodayTransactions int64                     `json:"today_transactions"`
	TodayVolume       []CurrencyVolumeResponse  `json:"today_volume"`
	PendingLoans      int64                     `json:"pending_loans"`
}

type AdjustWalletResponse struct {
	Transaction *TransactionResponse `json:"transaction"`
	Balance     decimal.Decimal      `json:"balance"`
}

type BackupResponse struct {
	Filename  string         `json:"filename"`
	SizeBytes int            `json:"size_bytes"`
	Tables    map[string]int `json:"tables"`
	CreatedAt time.Time      `json:"created_at"`
}

// ExportFile is a generated download.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}
