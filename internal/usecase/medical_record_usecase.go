package usecase

import (
	"context"
	"errors"

	"medledger/internal/converter"
	"medledger/internal/delivery/dto"
	"medledger/internal/delivery/http/middleware"
	"medledger/internal/domain/entity"
	"medledger/internal/domain/repository"
	"medledger/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var ErrRecordNotFound = errors.New("medical record not found")

type MedicalRecordUsecase interface {
	GetMyRecords(ctx context.Context, filter entity.RecordFilter) (*dto.Page[dto.MedicalRecordResponse], error)
	GetRecord(ctx context.Context, id uuid.UUID) (*dto.MedicalRecordResponse, error)
	CreateRecord(ctx context.Context, req *dto.CreateMedicalRecordRequest) (*dto.MedicalRecordResponse, error)
	UpdateRecord(ctx context.Context, id uuid.UUID, req *dto.UpdateMedicalRecordRequest) (*dto.MedicalRecordResponse, error)
	DeleteRecord(ctx context.Context, id uuid.UUID) error
}

type medicalRecordUsecase struct {
	log          *logrus.Logger
	recordRepo   repository.MedicalRecordRepository
	doctorRepo   repository.DoctorRepository
	auditService service.AuditService
}

func NewMedicalRecordUsecase(
	log *logrus.Logger,
	recordRepo repository.MedicalRecordRepository,
	doctorRepo repository.DoctorRepository,
	auditService service.AuditService,
) MedicalRecordUsecase {
	return &medicalRecordUsecase{
		log:          log,
		recordRepo:   recordRepo,
		doctorRepo:   doctorRepo,
		auditService: auditService,
	}
}

// GetMyRecords lists the caller's records, newest first
func (u *medicalRecordUsecase) GetMyRecords(ctx context.Context, filter entity.RecordFilter) (*dto.Page[dto.MedicalRecordResponse], error) {
	userID, ok := middleware.GetPortalUserID(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	filter.Page, filter.Limit = entity.NormalizePage(filter.Page, filter.Limit)
	records, total, err := u.recordRepo.FindByUser(ctx, userID, filter)
	if err != nil {
		u.log.Warnf("Failed to find medical records for user %s: %+v", userID, err)
		return nil, err
	}

	return dto.NewPage(converter.MedicalRecordsToResponses(records), filter.Page, filter.Limit, total), nil
}

func (u *medicalRecordUsecase) GetRecord(ctx context.Context, id uuid.UUID) (*dto.MedicalRecordResponse, error) {
	record, err := u.findOwned(ctx, id)
	if err != nil {
		return nil, err
	}
	return converter.MedicalRecordToResponse(record), nil
}

func (u *medicalRecordUsecase) CreateRecord(ctx context.Context, req *dto.CreateMedicalRecordRequest) (*dto.MedicalRecordResponse, error) {
	userID, ok := middleware.GetPortalUserID(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	recordDate, err := parseDate(req.RecordDate)
	if err != nil {
		return nil, err
	}

	record := &entity.MedicalRecord{
		UserID:      userID,
		Title:       req.Title,
		RecordType:  entity.RecordType(req.RecordType),
		Description: req.Description,
		Diagnosis:   req.Diagnosis,
		Treatment:   req.Treatment,
		Medications: req.Medications,
		Attachments: req.Attachments,
		RecordDate:  recordDate,
	}

	if req.DoctorID != nil {
		doctor, err := u.requireDoctor(ctx, *req.DoctorID)
		if err != nil {
			return nil, err
		}
		record.DoctorID = &doctor.ID
		record.Doctor = doctor
	}

	if err := u.recordRepo.Create(ctx, record); err != nil {
		u.log.Warnf("Failed to create medical record: %+v", err)
		return nil, err
	}

	_ = u.auditService.LogCreate(ctx, middleware.ActorFromContext(ctx), entity.AuditActionRecordCreate, "medical_record", record.ID.String(),
		map[string]interface{}{"title": record.Title, "record_type": record.RecordType})

	return converter.MedicalRecordToResponse(record), nil
}

func (u *medicalRecordUsecase) UpdateRecord(ctx context.Context, id uuid.UUID, req *dto.UpdateMedicalRecordRequest) (*dto.MedicalRecordResponse, error) {
	record, err := u.findOwned(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		record.Title = *req.Title
	}
	if req.RecordType != nil {
		record.RecordType = entity.RecordType(*req.RecordType)
	}
	if req.Description != nil {
		record.Description = *req.Description
	}
	if req.Diagnosis != nil {
		record.Diagnosis = *req.Diagnosis
	}
	if req.Treatment != nil {
		record.Treatment = *req.Treatment
	}
	if req.Medications != nil {
		record.Medications = req.Medications
	}
	if req.Attachments != nil {
		record.Attachments = req.Attachments
	}
	if req.RecordDate != nil {
		recordDate, err := parseDate(*req.RecordDate)
		if err != nil {
			return nil, err
		}
		record.RecordDate = recordDate
	}
	if req.DoctorID != nil {
		doctor, err := u.requireDoctor(ctx, *req.DoctorID)
		if err != nil {
			return nil, err
		}
		record.DoctorID = &doctor.ID
		record.Doctor = doctor
	}

	if err := u.recordRepo.Update(ctx, record); err != nil {
		u.log.Warnf("Failed to update medical record: %+v", err)
		return nil, err
	}

	_ = u.auditService.LogEvent(ctx, middleware.ActorFromContext(ctx), entity.AuditActionRecordUpdate,
		map[string]interface{}{"entity": "medical_record", "entity_id": record.ID.String()})

	return converter.MedicalRecordToResponse(record), nil
}

func (u *medicalRecordUsecase) DeleteRecord(ctx context.Context, id uuid.UUID) error {
	userID, ok := middleware.GetPortalUserID(ctx)
	if !ok {
		return ErrUnauthenticated
	}

	affected, err := u.recordRepo.Delete(ctx, id, userID)
	if err != nil {
		u.log.Warnf("Failed to delete medical record: %+v", err)
		return err
	}
	if affected == 0 {
		return ErrRecordNotFound
	}

	_ = u.auditService.LogEvent(ctx, middleware.ActorFromContext(ctx), entity.AuditActionRecordDelete,
		map[string]interface{}{"entity": "medical_record", "entity_id": id.String()})
	return nil
}

// findOwned hides records of other users behind ErrRecordNotFound.
func (u *medicalRecordUsecase) findOwned(ctx context.Context, id uuid.UUID) (*entity.MedicalRecord, error) {
	userID, ok := middleware.GetPortalUserID(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	record, err := u.recordRepo.FindByIDForUser(ctx, id, userID)
	if err != nil {
		u.log.Warnf("Failed to find medical record: %+v", err)
		return nil, err
	}
	if record == nil {
		return nil, ErrRecordNotFound
	}
	return record, nil
}

func (u *medicalRecordUsecase) requireDoctor(ctx context.Context, id uuid.UUID) (*entity.Doctor, error) {
	doctor, err := u.doctorRepo.FindByID(ctx, id)
	if err != nil {
		u.log.Warnf("Failed to find doctor: %+v", err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}
	return doctor, nil
}
