package entity

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// DefaultAppointmentMinutes is used when the patient gives no duration.
const DefaultAppointmentMinutes = 30

// Appointment is a patient visit with a directory doctor
type Appointment struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID          uuid.UUID         `gorm:"type:uuid;not null;index" json:"user_id"`
	DoctorID        uuid.UUID         `gorm:"type:uuid;not null;index" json:"doctor_id"`
	ScheduledAt     time.Time         `gorm:"not null;index" json:"scheduled_at"`
	DurationMinutes int               `gorm:"not null;default:30" json:"duration_minutes"`
	Reason          string            `gorm:"type:text" json:"reason,omitempty"`
	Status          AppointmentStatus `gorm:"type:varchar(16);not null;default:'scheduled';index" json:"status"`
	Notes           string            `gorm:"type:text" json:"notes,omitempty"`
	ReminderSent    bool              `gorm:"not null;default:false" json:"reminder_sent"`
	CreatedAt       time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"autoUpdateTime" json:"updated_at"`

	User   User   `gorm:"foreignKey:UserID" json:"-"`
	Doctor Doctor `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// EndsAt returns the end of the appointment slot
func (a *Appointment) EndsAt() time.Time {
	return a.ScheduledAt.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// IsCancelled checks if appointment is cancelled
func (a *Appointment) IsCancelled() bool {
	return a.Status == AppointmentStatusCancelled
}

// IsClosed reports whether the appointment can no longer change.
func (a *Appointment) IsClosed() bool {
	return a.Status == AppointmentStatusCancelled || a.Status == AppointmentStatusCompleted
}

// Cancel changes appointment status to cancelled
func (a *Appointment) Cancel() {
	a.Status = AppointmentStatusCancelled
}

// AppointmentScope selects upcoming, past or all appointments.
type AppointmentScope string

const (
	AppointmentScopeAll      AppointmentScope = "all"
	AppointmentScopeUpcoming AppointmentScope = "upcoming"
	AppointmentScopePast     AppointmentScope = "past"
)
