package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Doctor is a directory entry patients can book appointments with
type Doctor struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	FullName        string          `gorm:"type:varchar(255);not null;index" json:"full_name"`
	Specialization  string          `gorm:"type:varchar(100);not null;index" json:"specialization"`
	Hospital        string          `gorm:"type:varchar(255)" json:"hospital,omitempty"`
	Email           string          `gorm:"type:varchar(255);uniqueIndex:idx_doctors_email,where:email <> ''" json:"email,omitempty"`
	PhoneNumber     string          `gorm:"type:varchar(20)" json:"phone_number,omitempty"`
	Biography       string          `gorm:"type:text" json:"biography,omitempty"`
	ConsultationFee decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"consultation_fee"`
	Rating          float64         `gorm:"type:numeric(2,1);not null;default:0" json:"rating"`
	IsAvailable     bool            `gorm:"not null;default:true;index" json:"is_available"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Doctor) TableName() string {
	return "doctors"
}

// DoctorFilter narrows the public doctor directory.
type DoctorFilter struct {
	Name           string // ILIKE on full name
	Specialization string // ILIKE on specialization
	AvailableOnly  bool
	Page           int
	Limit          int
}
