package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type ConvertRequest struct {
	From   string          `json:"from" validate:"required,iso4217"`
	To     string          `json:"to" validate:"required,iso4217"`
	Amount decimal.Decimal `json:"amount"`
}

type ConvertResponse struct {
	From      string          `json:"from"`
	To        string          `json:"to"`
	Amount    decimal.Decimal `json:"amount"`
	Rate      decimal.Decimal `json:"rate"`
	Converted decimal.Decimal `json:"converted"`
}

type RatesResponse struct {
	Base      string                     `json:"base"`
	Rates     map[string]decimal.Decimal `json:"rates"`
	FetchedAt time.Time                  `json:"fetched_at"`
}
