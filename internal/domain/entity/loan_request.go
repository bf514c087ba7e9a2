package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanStatus of a loan request
type LoanStatus string

const (
	LoanStatusPending  LoanStatus = "pending"
	LoanStatusApproved LoanStatus = "approved"
	LoanStatusRejected LoanStatus = "rejected"
	LoanStatusRepaid   LoanStatus = "repaid"
)

// Loan term bounds in months
const (
	LoanMinTermMonths = 1
	LoanMaxTermMonths = 60
)

// LoanRequest is a user's request for credit from the system
type LoanRequest struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"user_id"`
	Amount          decimal.Decimal `json:"amount"`
	TermMonths      int             `json:"term_months"`
	InterestRate    decimal.Decimal `json:"interest_rate"`
	Purpose         string          `json:"purpose"`
	Status          LoanStatus      `json:"status"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	RepaidAmount    decimal.Decimal `json:"repaid_amount"`
	ReviewedBy      *int64          `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time      `json:"reviewed_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	UserName string `json:"user_name,omitempty"`
}

// TotalDue is the principal plus flat interest: amount * (1 + rate/100).
func (l *LoanRequest) TotalDue() decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(l.InterestRate.Div(decimal.NewFromInt(100)))
	return l.Amount.Mul(factor).Round(2)
}

// Outstanding is what remains to be repaid.
func (l *LoanRequest) Outstanding() decimal.Decimal {
	rest := l.TotalDue().Sub(l.RepaidAmount)
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}

func (l *LoanRequest) IsPending() bool {
	return l.Status == LoanStatusPending
}

// LoanFilter narrows loan listings.
type LoanFilter struct {
	UserID *int64
	Status string
	Page   int
	Limit  int
}
