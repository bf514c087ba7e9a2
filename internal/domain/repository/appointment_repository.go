package repository

import (
	"context"
	"time"

	"medledger/internal/domain/entity"

	"github.com/google/uuid"
)

type AppointmentRepository interface {
	// CreateExclusive inserts the appointment unless the doctor has an
	// overlapping one, in which case it returns ErrSlotTaken.
	CreateExclusive(ctx context.Context, appointment *entity.Appointment) error
	// RescheduleExclusive moves the appointment with the same overlap rule.
	RescheduleExclusive(ctx context.Context, appointment *entity.Appointment) error
	FindByUser(ctx context.Context, userID uuid.UUID, scope entity.AppointmentScope, now time.Time) ([]entity.Appointment, error)
	FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*entity.Appointment, error)
	Cancel(ctx context.Context, id, userID uuid.UUID) (int64, error)
	CountUpcoming(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error)
	FindDueReminders(ctx context.Context, from, to time.Time) ([]entity.Appointment, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID) error
}
