package repository

import (
	"context"
	"errors"
	"time"

	"medledger/internal/domain/entity"
	domainRepo "medledger/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type appointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) domainRepo.AppointmentRepository {
	return &appointmentRepository{db: db}
}

func (r *appointmentRepository) CreateExclusive(ctx context.Context, appointment *entity.Appointment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.lockDoctorSlot(tx, appointment); err != nil {
			return err
		}
		return tx.Omit("User", "Doctor").Create(appointment).Error
	})
}

func (r *appointmentRepository) RescheduleExclusive(ctx context.Context, appointment *entity.Appointment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.lockDoctorSlot(tx, appointment); err != nil {
			return err
		}
		return tx.Model(&entity.Appointment{}).
			Where("id = ?", appointment.ID).
			Updates(map[string]interface{}{
				"scheduled_at":     appointment.ScheduledAt,
				"duration_minutes": appointment.DurationMinutes,
				"status":           appointment.Status,
				"reminder_sent":    false,
			}).Error
	})
}

// lockDoctorSlot serialises bookings per doctor by locking the doctor row,
// then rejects the slot if a live appointment overlaps it.
func (r *appointmentRepository) lockDoctorSlot(tx *gorm.DB, appointment *entity.Appointment) error {
	var doctor entity.Doctor
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", appointment.DoctorID).
		First(&doctor).Error; err != nil {
		return err
	}

	var overlapping int64
	err := tx.Model(&entity.Appointment{}).
		Where("doctor_id = ? AND status <> ? AND id <> ?", appointment.DoctorID, entity.AppointmentStatusCancelled, appointment.ID).
		Where("scheduled_at < ? AND scheduled_at + (duration_minutes * INTERVAL '1 minute') > ?", appointment.EndsAt(), appointment.ScheduledAt).
		Count(&overlapping).Error
	if err != nil {
		return err
	}
	if overlapping > 0 {
		return domainRepo.ErrSlotTaken
	}
	return nil
}

func (r *appointmentRepository) FindByUser(ctx context.Context, userID uuid.UUID, scope entity.AppointmentScope, now time.Time) ([]entity.Appointment, error) {
	var appointments []entity.Appointment

	query := r.db.WithContext(ctx).Preload("Doctor").Where("user_id = ?", userID)
	switch scope {
	case entity.AppointmentScopeUpcoming:
		query = query.Where("scheduled_at >= ? AND status IN ?", now,
			[]entity.AppointmentStatus{entity.AppointmentStatusScheduled, entity.AppointmentStatusConfirmed}).
			Order("scheduled_at ASC")
	case entity.AppointmentScopePast:
		query = query.Where("scheduled_at < ?", now).Order("scheduled_at DESC")
	default:
		query = query.Order("scheduled_at DESC")
	}

	if err := query.Find(&appointments).Error; err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*entity.Appointment, error) {
	var appointment entity.Appointment
	err := r.db.WithContext(ctx).Preload("Doctor").
		Where("id = ? AND user_id = ?", id, userID).
		First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

// Cancel cancels only a live appointment. Zero affected rows means it was
// already cancelled or completed.
func (r *appointmentRepository) Cancel(ctx context.Context, id, userID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Model(&entity.Appointment{}).
		Where("id = ? AND user_id = ? AND status NOT IN ?", id, userID,
			[]entity.AppointmentStatus{entity.AppointmentStatusCancelled, entity.AppointmentStatusCompleted}).
		Update("status", entity.AppointmentStatusCancelled)
	return result.RowsAffected, result.Error
}

func (r *appointmentRepository) CountUpcoming(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Appointment{}).
		Where("user_id = ? AND scheduled_at >= ? AND status IN ?", userID, now,
			[]entity.AppointmentStatus{entity.AppointmentStatusScheduled, entity.AppointmentStatusConfirmed}).
		Count(&count).Error
	return count, err
}

func (r *appointmentRepository) FindDueReminders(ctx context.Context, from, to time.Time) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := r.db.WithContext(ctx).Preload("Doctor").
		Where("reminder_sent = ? AND scheduled_at BETWEEN ? AND ? AND status IN ?", false, from, to,
			[]entity.AppointmentStatus{entity.AppointmentStatusScheduled, entity.AppointmentStatusConfirmed}).
		Order("scheduled_at ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) MarkReminderSent(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&entity.Appointment{}).
		Where("id = ?", id).
		Update("reminder_sent", true).Error
}
