package entity

import (
	"time"

	"github.com/google/uuid"
)

// Notification types shared by the portal and the ledger.
const (
	NotificationTypeInfo        = "info"
	NotificationTypeAppointment = "appointment"
	NotificationTypeReminder    = "reminder"
	NotificationTypeTransfer    = "transfer"
	NotificationTypeLoan        = "loan"
	NotificationTypeWallet      = "wallet"
)

// Notification is an in-portal message for a patient
type Notification struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_notifications_user_read" json:"user_id"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Type      string    `gorm:"type:varchar(32);not null;default:'info'" json:"type"`
	IsRead    bool      `gorm:"not null;default:false;index:idx_notifications_user_read" json:"is_read"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
