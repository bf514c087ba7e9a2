package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medledger/internal/converter"
	"medledger/internal/delivery/dto"
	"medledger/internal/delivery/http/middleware"
	"medledger/internal/domain/entity"
	"medledger/internal/domain/repository"
	"medledger/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrAppointmentInPast   = errors.New("appointment time must be in the future")
	ErrDoctorUnavailable   = errors.New("doctor is not accepting appointments")
	ErrAppointmentConflict = errors.New("doctor already has an appointment at this time")
	ErrAppointmentClosed   = errors.New("appointment is already cancelled or completed")
	ErrInvalidScope        = errors.New("scope must be one of: upcoming, past, all")
)

const appointmentTimeLayout = "Mon, 02 Jan 2006 15:04 MST"

type AppointmentUsecase interface {
	GetMyAppointments(ctx context.Context, scope string) ([]dto.AppointmentResponse, error)
	CreateAppointment(ctx context.Context, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error)
	CancelAppointment(ctx context.Context, id uuid.UUID) error
	RescheduleAppointment(ctx context.Context, id uuid.UUID, req *dto.RescheduleAppointmentRequest) (*dto.AppointmentResponse, error)
	// SendReminders notifies patients of appointments starting within lead
	// and returns how many reminders were sent.
	SendReminders(ctx context.Context, lead time.Duration) (int, error)
}

type appointmentUsecase struct {
	log              *logrus.Logger
	appointmentRepo  repository.AppointmentRepository
	doctorRepo       repository.DoctorRepository
	notificationRepo repository.NotificationRepository
	auditService     service.AuditService
	now              func() time.Time
}

func NewAppointmentUsecase(
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	doctorRepo repository.DoctorRepository,
	notificationRepo repository.NotificationRepository,
	auditService service.AuditService,
) AppointmentUsecase {
	return &appointmentUsecase{
		log:              log,
		appointmentRepo:  appointmentRepo,
		doctorRepo:       doctorRepo,
		notificationRepo: notificationRepo,
		auditService:     auditService,
		now:              time.Now,
	}
}

func (u *appointmentUsecase) GetMyAppointments(ctx context.Context, scope string) ([]dto.AppointmentResponse, error) {
	userID, ok := middleware.GetPortalUserID(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	appointmentScope := entity.AppointmentScope(scope)
	switch appointmentScope {
	case "":
		appointmentScope = entity.AppointmentScopeAll
	case entity.AppointmentScopeAll, entity.AppointmentScopeUpcoming, entity.AppointmentScopePast:
	default:
		return nil, ErrInvalidScope
	}

	appointments, err := u.appointmentRepo.FindByUser(ctx, userID, appointmentScope, u.now())
	if err != nil {
		u.log.Warnf("Failed to find appointments for user %s: %+v", userID, err)
		return nil, err
	}

	return converter.AppointmentsToResponses(appointments), nil
}

// CreateAppointment books a slot with a doctor.
//
// Flow:
// 1. Validate the time is in the future
// 2. Validate the doctor exists and is available
// 3. Insert under the doctor row lock, rejecting overlapping slots
// 4. Notify the patient
func (u *appointmentUsecase) CreateAppointment(ctx context.Context, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error) {
	userID, ok := middleware.GetPortalUserID(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	if !req.ScheduledAt.After(u.now()) {
		return nil, ErrAppointmentInPast
	}

	doctor, err := u.availableDoctor(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}

	duration := req.DurationMinutes
	if duration == 0 {
		duration = entity.DefaultAppointmentMinutes
	}

	appointment := &entity.Appointment{
		UserID:          userID,
		DoctorID:        doctor.ID,
		ScheduledAt:     req.ScheduledAt.UTC(),
		DurationMinutes: duration,
		Reason:          req.Reason,
		Status:          entity.AppointmentStatusScheduled,
	}

	if err := u.appointmentRepo.CreateExclusive(ctx, appointment); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, ErrAppointmentConflict
		}
		u.log.Warnf("Failed to create appointment: %+v", err)
		return nil, err
	}
	appointment.Doctor = *doctor

	u.notify(ctx, userID, "Appointment booked",
		fmt.Sprintf("Your appointment with %s is scheduled for %s.", doctor.FullName, appointment.ScheduledAt.Format(appointmentTimeLayout)))

	_ = u.auditService.LogCreate(ctx, middleware.ActorFromContext(ctx), entity.AuditActionAppointmentCreate, "appointment", appointment.ID.String(),
		map[string]interface{}{"doctor_id": doctor.ID.String(), "scheduled_at": appointment.ScheduledAt})

	return converter.AppointmentToResponse(appointment), nil
}

func (u *appointmentUsecase) CancelAppointment(ctx context.Context, id uuid.UUID) error {
	appointment, err := u.findOwned(ctx, id)
	if err != nil {
		return err
	}
	if appointment.IsClosed() {
		return ErrAppointmentClosed
	}

	affected, err := u.appointmentRepo.Cancel(ctx, appointment.ID, appointment.UserID)
	if err != nil {
		u.log.Warnf("Failed to cancel appointment: %+v", err)
		return err
	}
	// Closed concurrently
	if affected == 0 {
		return ErrAppointmentClosed
	}

	u.notify(ctx, appointment.UserID, "Appointment cancelled",
		fmt.Sprintf("Your appointment on %s has been cancelled.", appointment.ScheduledAt.Format(appointmentTimeLayout)))

	_ = u.auditService.LogEvent(ctx, middleware.ActorFromContext(ctx), entity.AuditActionAppointmentCancel,
		map[string]interface{}{"entity": "appointment", "entity_id": appointment.ID.String()})
	return nil
}

func (u *appointmentUsecase) RescheduleAppointment(ctx context.Context, id uuid.UUID, req *dto.RescheduleAppointmentRequest) (*dto.AppointmentResponse, error) {
	appointment, err := u.findOwned(ctx, id)
	if err != nil {
		return nil, err
	}
	if appointment.IsClosed() {
		return nil, ErrAppointmentClosed
	}

	if !req.ScheduledAt.After(u.now()) {
		return nil, ErrAppointmentInPast
	}

	doctor, err := u.availableDoctor(ctx, appointment.DoctorID)
	if err != nil {
		return nil, err
	}

	appointment.ScheduledAt = req.ScheduledAt.UTC()
	if req.DurationMinutes != 0 {
		appointment.DurationMinutes = req.DurationMinutes
	}
	appointment.ReminderSent = false

	if err := u.appointmentRepo.RescheduleExclusive(ctx, appointment); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, ErrAppointmentConflict
		}
		u.log.Warnf("Failed to reschedule appointment: %+v", err)
		return nil, err
	}
	appointment.Doctor = *doctor

	u.notify(ctx, appointment.UserID, "Appointment rescheduled",
		fmt.Sprintf("Your appointment with %s moved to %s.", doctor.FullName, appointment.ScheduledAt.Format(appointmentTimeLayout)))

	return converter.AppointmentToResponse(appointment), nil
}

func (u *appointmentUsecase) SendReminders(ctx context.Context, lead time.Duration) (int, error) {
	now := u.now()
	due, err := u.appointmentRepo.FindDueReminders(ctx, now, now.Add(lead))
	if err != nil {
		u.log.Warnf("Failed to find due reminders: %+v", err)
		return 0, err
	}

	sent := 0
	for i := range due {
		appointment := &due[i]
		message := fmt.Sprintf("Reminder: you see %s on %s.",
			appointment.Doctor.FullName, appointment.ScheduledAt.Format(appointmentTimeLayout))
		notification := &entity.Notification{
			UserID:  appointment.UserID,
			Title:   "Upcoming appointment",
			Message: message,
			Type:    entity.NotificationTypeReminder,
		}
		if err := u.notificationRepo.Create(ctx, notification); err != nil {
			u.log.Warnf("Failed to create reminder for appointment %s: %+v", appointment.ID, err)
			continue
		}
		if err := u.appointmentRepo.MarkReminderSent(ctx, appointment.ID); err != nil {
			u.log.Warnf("Failed to mark reminder sent for appointment %s: %+v", appointment.ID, err)
			continue
		}
		sent++
	}

	return sent, nil
}

func (u *appointmentUsecase) findOwned(ctx context.Context, id uuid.UUID) (*entity.Appointment, error) {
	userID, ok := middleware.GetPortalUserID(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	appointment, err := u.appointmentRepo.FindByIDForUser(ctx, id, userID)
	if err != nil {
		u.log.Warnf("Failed to find appointment: %+v", err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}
	return appointment, nil
}

func (u *appointmentUsecase) availableDoctor(ctx context.Context, id uuid.UUID) (*entity.Doctor, error) {
	doctor, err := u.doctorRepo.FindByID(ctx, id)
	if err != nil {
		u.log.Warnf("Failed to find doctor: %+v", err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}
	if !doctor.IsAvailable {
		return nil, ErrDoctorUnavailable
	}
	return doctor, nil
}

// notify is best effort; the appointment itself already succeeded.
func (u *appointmentUsecase) notify(ctx context.Context, userID uuid.UUID, title, message string) {
	notification := &entity.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    entity.NotificationTypeAppointment,
	}
	if err := u.notificationRepo.Create(ctx, notification); err != nil {
		u.log.Warnf("Failed to create appointment notification: %+v", err)
	}
}
