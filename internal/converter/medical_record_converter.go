package converter

import (
	"medledger/internal/delivery/dto"
	"medledger/internal/domain/entity"
)

func MedicalRecordToResponse(record *entity.MedicalRecord) *dto.MedicalRecordResponse {
	if record == nil {
		return nil
	}

	return &dto.MedicalRecordResponse{
		ID:          record.ID,
		Title:       record.Title,
		RecordType:  string(record.RecordType),
		Description: record.Description,
		Diagnosis:   record.Diagnosis,
		Treatment:   record.Treatment,
		Medications: nonNil(record.Medications),
		Attachments: nonNil(record.Attachments),
		RecordDate:  record.RecordDate.Format(dateLayout),
		Doctor:      DoctorToResponse(record.Doctor),
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}

func MedicalRecordsToResponses(records []entity.MedicalRecord) []dto.MedicalRecordResponse {
	responses := make([]dto.MedicalRecordResponse, len(records))
	for i := range records {
		responses[i] = *MedicalRecordToResponse(&records[i])
	}
	return responses
}

// nonNil keeps JSON list fields as [] instead of null.
func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
