package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type IssueMedicalCardRequest struct {
	BloodType             string   `json:"blood_type" validate:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	Allergies             []string `json:"allergies" validate:"omitempty,max=50,dive,max=255"`
	ChronicConditions     []string `json:"chronic_conditions" validate:"omitempty,max=50,dive,max=255"`
	EmergencyContactName  string   `json:"emergency_contact_name" validate:"omitempty,max=255"`
	EmergencyContactPhone string   `json:"emergency_contact_phone" validate:"omitempty,min=10,max=20"`
}

type UpdateMedicalCardRequest struct {
	BloodType             *string  `json:"blood_type" validate:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	Allergies             []string `json:"allergies" validate:"omitempty,max=50,dive,max=255"`
	ChronicConditions     []string `json:"chronic_conditions" validate:"omitempty,max=50,dive,max=255"`
	EmergencyContactName  *string  `json:"emergency_contact_name" validate:"omitempty,max=255"`
	EmergencyContactPhone *string  `json:"emergency_contact_phone" validate:"omitempty,min=10,max=20"`
}

// Response DTOs

type MedicalCardResponse struct {
	ID                    uuid.UUID `json:"id"`
	CardNumber            string    `json:"card_number"`
	HolderName            string    `json:"holder_name,omitempty"`
	BloodType             string    `json:"blood_type,omitempty"`
	Allergies             []string  `json:"allergies"`
	ChronicConditions     []string  `json:"chronic_conditions"`
	EmergencyContactName  string    `json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone string    `json:"emergency_contact_phone,omitempty"`
	IssuedAt              time.Time `json:"issued_at"`
	ExpiresAt             time.Time `json:"expires_at"`
	IsExpired             bool      `json:"is_expired"`
}
