package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MedicalCardValidity is how long an issued card stays valid.
const MedicalCardValidity = 5 * 365 * 24 * time.Hour

// MedicalCard is the emergency card of a patient, one per user
type MedicalCard struct {
	ID                    uuid.UUID                    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID                uuid.UUID                    `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	CardNumber            string                       `gorm:"type:varchar(20);not null;uniqueIndex" json:"card_number"`
	BloodType             string                       `gorm:"type:varchar(3)" json:"blood_type,omitempty"`
	Allergies             datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"allergies,omitempty"`
	ChronicConditions     datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"chronic_conditions,omitempty"`
	EmergencyContactName  string                       `gorm:"type:varchar(255)" json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone string                       `gorm:"type:varchar(20)" json:"emergency_contact_phone,omitempty"`
	IssuedAt              time.Time                    `gorm:"not null" json:"issued_at"`
	ExpiresAt             time.Time                    `gorm:"not null" json:"expires_at"`
	CreatedAt             time.Time                    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time                    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (MedicalCard) TableName() string {
	return "medical_cards"
}
