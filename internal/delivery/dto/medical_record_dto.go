package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type CreateMedicalRecordRequest struct {
	DoctorID    *uuid.UUID `json:"doctor_id"`
	Title       string     `json:"title" validate:"required,max=255"`
	RecordType  string     `json:"record_type" validate:"required,oneof=diagnosis lab_result prescription imaging vaccination other"`
	Description string     `json:"description" validate:"omitempty,max=5000"`
	Diagnosis   string     `json:"diagnosis" validate:"omitempty,max=5000"`
	Treatment   string     `json:"treatment" validate:"omitempty,max=5000"`
	Medications []string   `json:"medications" validate:"omitempty,max=50,dive,max=255"`
	Attachments []string   `json:"attachments" validate:"omitempty,max=20,dive,url"`
	RecordDate  string     `json:"record_date" validate:"required"` // Format: YYYY-MM-DD
}

type UpdateMedicalRecordRequest struct {
	DoctorID    *uuid.UUID `json:"doctor_id"`
	Title       *string    `json:"title" validate:"omitempty,max=255"`
	RecordType  *string    `json:"record_type" validate:"omitempty,oneof=diagnosis lab_result prescription imaging vaccination other"`
	Description *string    `json:"description" validate:"omitempty,max=5000"`
	Diagnosis   *string    `json:"diagnosis" validate:"omitempty,max=5000"`
	Treatment   *string    `json:"treatment" validate:"omitempty,max=5000"`
	Medications []string   `json:"medications" validate:"omitempty,max=50,dive,max=255"`
	Attachments []string   `json:"attachments" validate:"omitempty,max=20,dive,url"`
	RecordDate  *string    `json:"record_date"`
}

// Response DTOs

type MedicalRecordResponse struct {
	ID          uuid.UUID       `json:"id"`
	Title       string          `json:"title"`
	RecordType  string          `json:"record_type"`
	Description string          `json:"description,omitempty"`
	Diagnosis   string          `json:"diagnosis,omitempty"`
	Treatment   string          `json:"treatment,omitempty"`
	Medications []string        `json:"medications"`
	Attachments []string        `json:"attachments"`
	RecordDate  string          `json:"record_date"`
	Doctor      *DoctorResponse `json:"doctor,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
