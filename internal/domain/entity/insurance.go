package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InsuranceStatus represents the state of a policy
type InsuranceStatus string

const (
	InsuranceStatusActive    InsuranceStatus = "active"
	InsuranceStatusExpired   InsuranceStatus = "expired"
	InsuranceStatusCancelled InsuranceStatus = "cancelled"
)

// Insurance is a patient's health insurance policy
type Insurance struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_insurance_owner_policy" json:"user_id"`
	Provider       string          `gorm:"type:varchar(255);not null" json:"provider"`
	PolicyNumber   string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_insurance_owner_policy" json:"policy_number"`
	CoverageType   string          `gorm:"type:varchar(100)" json:"coverage_type,omitempty"`
	CoverageAmount decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"coverage_amount"`
	StartDate      time.Time       `gorm:"type:date;not null" json:"start_date"`
	EndDate        time.Time       `gorm:"type:date;not null" json:"end_date"`
	Status         InsuranceStatus `gorm:"type:varchar(16);not null;default:'active'" json:"status"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Insurance) TableName() string {
	return "insurances"
}

// EffectiveStatus reports an active policy past its end date as expired.
func (i *Insurance) EffectiveStatus(now time.Time) InsuranceStatus {
	if i.Status == InsuranceStatusActive && now.After(i.EndDate.AddDate(0, 0, 1)) {
		return InsuranceStatusExpired
	}
	return i.Status
}
