package converter

import (
	"medledger/internal/delivery/dto"
	"medledger/internal/domain/entity"
)

// AppointmentToResponse converts an Appointment entity; the doctor fields
// are filled only when Doctor was preloaded.
func AppointmentToResponse(appointment *entity.Appointment) *dto.AppointmentResponse {
	if appointment == nil {
		return nil
	}

	return &dto.AppointmentResponse{
		ID:              appointment.ID,
		DoctorID:        appointment.DoctorID,
		DoctorName:      appointment.Doctor.FullName,
		Specialization:  appointment.Doctor.Specialization,
		ScheduledAt:     appointment.ScheduledAt,
		EndsAt:          appointment.EndsAt(),
		DurationMinutes: appointment.DurationMinutes,
		Reason:          appointment.Reason,
		Status:          string(appointment.Status),
		Notes:           appointment.Notes,
		CreatedAt:       appointment.CreatedAt,
	}
}

func AppointmentsToResponses(appointments []entity.Appointment) []dto.AppointmentResponse {
	responses := make([]dto.AppointmentResponse, len(appointments))
	for i := range appointments {
		responses[i] = *AppointmentToResponse(&appointments[i])
	}
	return responses
}
