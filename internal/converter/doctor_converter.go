package converter

import (
	"medledger/internal/delivery/dto"
	"medledger/internal/domain/entity"
)

// DoctorToResponse converts a Doctor entity to DoctorResponse DTO
func DoctorToResponse(doctor *entity.Doctor) *dto.DoctorResponse {
	if doctor == nil {
		return nil
	}

	return &dto.DoctorResponse{
		ID:              doctor.ID,
		FullName:        doctor.FullName,
		Specialization:  doctor.Specialization,
		Hospital:        doctor.Hospital,
		Email:           doctor.Email,
		PhoneNumber:     doctor.PhoneNumber,
		Biography:       doctor.Biography,
		ConsultationFee: doctor.ConsultationFee,
		Rating:          doctor.Rating,
		IsAvailable:     doctor.IsAvailable,
		CreatedAt:       doctor.CreatedAt,
	}
}

// DoctorsToResponses converts a slice of Doctor entities to slice of DoctorResponse DTOs
func DoctorsToResponses(doctors []entity.Doctor) []dto.DoctorResponse {
	responses := make([]dto.DoctorResponse, len(doctors))
	for i := range doctors {
		responses[i] = *DoctorToResponse(&doctors[i])
	}
	return responses
}
