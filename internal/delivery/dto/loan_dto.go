package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// Request DTOs

type LoanRequestRequest struct {
	Amount     decimal.Decimal `json:"amount"`
	TermMonths int             `json:"term_months" validate:"required,gte=1,lte=60"`
	Purpose    string          `json:"purpose" validate:"required,min=3,max=1000"`
}

type RepayLoanRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type ApproveLoanRequest struct {
	InterestRate *decimal.Decimal `json:"interest_rate"`
}

type RejectLoanRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=1000"`
}

// Response DTOs

type LoanResponse struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"user_id"`
	UserName        string          `json:"user_name,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	TermMonths      int             `json:"term_months"`
	InterestRate    decimal.Decimal `json:"interest_rate"`
	Purpose         string          `json:"purpose"`
	Status          string          `json:"status"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	TotalDue        decimal.Decimal `json:"total_due"`
	RepaidAmount    decimal.Decimal `json:"repaid_amount"`
	Outstanding     decimal.Decimal `json:"outstanding"`
	ReviewedAt      *time.Time      `json:"reviewed_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

type LoanRepaymentResponse struct {
	Loan        *LoanResponse        `json:"loan"`
	Transaction *TransactionResponse `json:"transaction"`
	Balance     decimal.Decimal      `json:"balance"`
}
