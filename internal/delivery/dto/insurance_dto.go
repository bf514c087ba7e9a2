package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

type CreateInsuranceRequest struct {
	Provider       string          `json:"provider" validate:"required,max=255"`
	PolicyNumber   string          `json:"policy_number" validate:"required,max=100"`
	CoverageType   string          `json:"coverage_type" validate:"omitempty,max=100"`
	CoverageAmount decimal.Decimal `json:"coverage_amount"`
	StartDate      string          `json:"start_date" validate:"required"` // Format: YYYY-MM-DD
	EndDate        string          `json:"end_date" validate:"required"`   // Format: YYYY-MM-DD
}

type UpdateInsuranceRequest struct {
	Provider       *string          `json:"provider" validate:"omitempty,max=255"`
	PolicyNumber   *string          `json:"policy_number" validate:"omitempty,max=100"`
	CoverageType   *string          `json:"coverage_type" validate:"omitempty,max=100"`
	CoverageAmount *decimal.Decimal `json:"coverage_amount"`
	StartDate      *string          `json:"start_date"`
	EndDate        *string          `json:"end_date"`
	Status         *string          `json:"status" validate:"omitempty,oneof=active cancelled"`
}

// Response DTOs

type InsuranceResponse struct {
	ID             uuid.UUID       `json:"id"`
	Provider       string          `json:"provider"`
	PolicyNumber   string          `json:"policy_number"`
	CoverageType   string          `json:"coverage_type,omitempty"`
	CoverageAmount decimal.Decimal `json:"coverage_amount"`
	StartDate      string          `json:"start_date"`
	EndDate        string          `json:"end_date"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
}
