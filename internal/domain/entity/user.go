package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is a medical portal account
type User struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	RoleID      int        `gorm:"not null;index" json:"role_id"`
	Email       string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password    string     `gorm:"type:text;not null" json:"-"`
	FullName    string     `gorm:"type:varchar(255);not null" json:"full_name"`
	PhoneNumber string     `gorm:"type:varchar(20)" json:"phone_number,omitempty"`
	DateOfBirth *time.Time `gorm:"type:date" json:"date_of_birth,omitempty"`
	Gender      string     `gorm:"type:varchar(10)" json:"gender,omitempty"`
	Address     string     `gorm:"type:text" json:"address,omitempty"`
	BloodType   string     `gorm:"type:varchar(3)" json:"blood_type,omitempty"`
	IsActive    *bool      `gorm:"not null;default:true;index" json:"is_active"`
	TOTPSecret  string     `gorm:"column:totp_secret;type:varchar(64)" json:"-"`
	TOTPEnabled bool       `gorm:"column:totp_enabled;not null;default:false" json:"totp_enabled"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Role        Role         `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	MedicalCard *MedicalCard `gorm:"foreignKey:UserID" json:"medical_card,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// Active treats a missing flag as active, matching the column default.
func (u *User) Active() bool {
	return u.IsActive == nil || *u.IsActive
}

// IsAdmin checks the admin role
func (u *User) IsAdmin() bool {
	return u.RoleID == RoleIDAdmin
}
