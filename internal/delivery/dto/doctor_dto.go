package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

type CreateDoctorRequest struct {
	FullName        string          `json:"full_name" validate:"required,min=2,max=255"`
	Specialization  string          `json:"specialization" validate:"required,max=100"`
	Hospital        string          `json:"hospital" validate:"omitempty,max=255"`
	Email           string          `json:"email" validate:"omitempty,email"`
	PhoneNumber     string          `json:"phone_number" validate:"omitempty,min=10,max=20"`
	Biography       string          `json:"biography" validate:"omitempty"`
	ConsultationFee decimal.Decimal `json:"consultation_fee"`
	Rating          float64         `json:"rating" validate:"gte=0,lte=5"`
	IsAvailable     *bool           `json:"is_available"`
}

type UpdateDoctorRequest struct {
	FullName        *string          `json:"full_name" validate:"omitempty,min=2,max=255"`
	Specialization  *string          `json:"specialization" validate:"omitempty,max=100"`
	Hospital        *string          `json:"hospital" validate:"omitempty,max=255"`
	Email           *string          `json:"email" validate:"omitempty,email"`
	PhoneNumber     *string          `json:"phone_number" validate:"omitempty,min=10,max=20"`
	Biography       *string          `json:"biography"`
	ConsultationFee *decimal.Decimal `json:"consultation_fee"`
	Rating          *float64         `json:"rating" validate:"omitempty,gte=0,lte=5"`
	IsAvailable     *bool            `json:"is_available"`
}

// Response DTOs

type DoctorResponse struct {
	ID              uuid.UUID       `json:"id"`
	FullName        string          `json:"full_name"`
	Specialization  string          `json:"specialization"`
	Hospital        string          `json:"hospital,omitempty"`
	Email           string          `json:"email,omitempty"`
	PhoneNumber     string          `json:"phone_number,omitempty"`
	Biography       string          `json:"biography,omitempty"`
	ConsultationFee decimal.Decimal `json:"consultation_fee"`
	Rating          float64         `json:"rating"`
	IsAvailable     bool            `json:"is_available"`
	CreatedAt       time.Time       `json:"created_at"`
}
