package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RecordType classifies a medical record
type RecordType string

const (
	RecordTypeDiagnosis    RecordType = "diagnosis"
	RecordTypeLabResult    RecordType = "lab_result"
	RecordTypePrescription RecordType = "prescription"
	RecordTypeImaging      RecordType = "imaging"
	RecordTypeVaccination  RecordType = "vaccination"
	RecordTypeOther        RecordType = "other"
)

// MedicalRecord is a patient-owned health record entry
type MedicalRecord struct {
	ID          uuid.UUID                    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID      uuid.UUID                    `gorm:"type:uuid;not null;index" json:"user_id"`
	DoctorID    *uuid.UUID                   `gorm:"type:uuid;index" json:"doctor_id,omitempty"`
	Title       string                       `gorm:"type:varchar(255);not null" json:"title"`
	RecordType  RecordType                   `gorm:"type:varchar(32);not null;index" json:"record_type"`
	Description string                       `gorm:"type:text" json:"description,omitempty"`
	Diagnosis   string                       `gorm:"type:text" json:"diagnosis,omitempty"`
	Treatment   string                       `gorm:"type:text" json:"treatment,omitempty"`
	Medications datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"medications,omitempty"`
	Attachments datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"attachments,omitempty"`
	RecordDate  time.Time                    `gorm:"type:date;not null;index" json:"record_date"`
	CreatedAt   time.Time                    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time                    `gorm:"autoUpdateTime" json:"updated_at"`

	User   User    `gorm:"foreignKey:UserID" json:"-"`
	Doctor *Doctor `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
}

func (MedicalRecord) TableName() string {
	return "medical_records"
}

// RecordFilter narrows a patient's record list.
type RecordFilter struct {
	RecordType string
	Page       int
	Limit      int
}
