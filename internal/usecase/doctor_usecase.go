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

var (
	ErrDoctorNotFound    = errors.New("doctor not found")
	ErrDoctorEmailExists = errors.New("doctor email already exists")
	ErrDoctorHasRecords  = errors.New("doctor is referenced by appointments or records")
	ErrInvalidFee        = errors.New("consultation fee must not be negative")
)

type DoctorUsecase interface {
	GetAllDoctors(ctx context.Context, filter entity.DoctorFilter) (*dto.Page[dto.DoctorResponse], error)
	GetDoctor(ctx context.Context, id uuid.UUID) (*dto.DoctorResponse, error)
	CreateDoctor(ctx context.Context, req *dto.CreateDoctorRequest) (*dto.DoctorResponse, error)
	UpdateDoctor(ctx context.Context, id uuid.UUID, req *dto.UpdateDoctorRequest) (*dto.DoctorResponse, error)
	DeleteDoctor(ctx context.Context, id uuid.UUID) error
}

type doctorUsecase struct {
	log          *logrus.Logger
	doctorRepo   repository.DoctorRepository
	auditService service.AuditService
}

func NewDoctorUsecase(
	log *logrus.Logger,
	doctorRepo repository.DoctorRepository,
	auditService service.AuditService,
) DoctorUsecase {
	return &doctorUsecase{
		log:          log,
		doctorRepo:   doctorRepo,
		auditService: auditService,
	}
}

func (u *doctorUsecase) GetAllDoctors(ctx context.Context, filter entity.DoctorFilter) (*dto.Page[dto.DoctorResponse], error) {
	filter.Page, filter.Limit = entity.NormalizePage(filter.Page, filter.Limit)

	doctors, total, err := u.doctorRepo.FindAll(ctx, filter)
	if err != nil {
		u.log.Warnf("Failed to find doctors: %+v", err)
		return nil, err
	}

	return dto.NewPage(converter.DoctorsToResponses(doctors), filter.Page, filter.Limit, total), nil
}

func (u *doctorUsecase) GetDoctor(ctx context.Context, id uuid.UUID) (*dto.DoctorResponse, error) {
	doctor, err := u.findDoctor(ctx, id)
	if err != nil {
		return nil, err
	}
	return converter.DoctorToResponse(doctor), nil
}

func (u *doctorUsecase) CreateDoctor(ctx context.Context, req *dto.CreateDoctorRequest) (*dto.DoctorResponse, error) {
	if req.ConsultationFee.IsNegative() {
		return nil, ErrInvalidFee
	}

	doctor := &entity.Doctor{
		FullName:        req.FullName,
		Specialization:  req.Specialization,
		Hospital:        req.Hospital,
		Email:           req.Email,
		PhoneNumber:     req.PhoneNumber,
		Biography:       req.Biography,
		ConsultationFee: req.ConsultationFee.Round(2),
		Rating:          req.Rating,
		IsAvailable:     true,
	}
	if req.IsAvailable != nil {
		doctor.IsAvailable = *req.IsAvailable
	}

	if err := u.doctorRepo.Create(ctx, doctor); err != nil {
		if isDuplicateKeyError(err, "email") {
			return nil, ErrDoctorEmailExists
		}
		u.log.Warnf("Failed to create doctor: %+v", err)
		return nil, err
	}

	response := converter.DoctorToResponse(doctor)
	_ = u.auditService.LogCreate(ctx, middleware.ActorFromContext(ctx), entity.AuditActionDoctorCreate, "doctor", doctor.ID.String(), response)

	return response, nil
}

func (u *doctorUsecase) UpdateDoctor(ctx context.Context, id uuid.UUID, req *dto.UpdateDoctorRequest) (*dto.DoctorResponse, error) {
	doctor, err := u.findDoctor(ctx, id)
	if err != nil {
		return nil, err
	}
	before := converter.DoctorToResponse(doctor)

	if req.FullName != nil {
		doctor.FullName = *req.FullName
	}
	if req.Specialization != nil {
		doctor.Specialization = *req.Specialization
	}
	if req.Hospital != nil {
		doctor.Hospital = *req.Hospital
	}
	if req.Email != nil {
		doctor.Email = *req.Email
	}
	if req.PhoneNumber != nil {
		doctor.PhoneNumber = *req.PhoneNumber
	}
	if req.Biography != nil {
		doctor.Biography = *req.Biography
	}
	if req.ConsultationFee != nil {
		if req.ConsultationFee.IsNegative() {
			return nil, ErrInvalidFee
		}
		doctor.ConsultationFee = req.ConsultationFee.Round(2)
	}
	if req.Rating != nil {
		doctor.Rating = *req.Rating
	}
	if req.IsAvailable != nil {
		doctor.IsAvailable = *req.IsAvailable
	}

	if err := u.doctorRepo.Update(ctx, doctor); err != nil {
		if isDuplicateKeyError(err, "email") {
			return nil, ErrDoctorEmailExists
		}
		u.log.Warnf("Failed to update doctor: %+v", err)
		return nil, err
	}

	response := converter.DoctorToResponse(doctor)
	_ = u.auditService.LogUpdate(ctx, middleware.ActorFromContext(ctx), entity.AuditActionDoctorUpdate, "doctor", doctor.ID.String(), before, response)

	return response, nil
}

func (u *doctorUsecase) DeleteDoctor(ctx context.Context, id uuid.UUID) error {
	doctor, err := u.findDoctor(ctx, id)
	if err != nil {
		return err
	}

	if err := u.doctorRepo.Delete(ctx, id); err != nil {
		if isForeignKeyError(err, "doctor") {
			return ErrDoctorHasRecords
		}
		u.log.Warnf("Failed to delete doctor: %+v", err)
		return err
	}

	_ = u.auditService.LogDelete(ctx, middleware.ActorFromContext(ctx), entity.AuditActionDoctorDelete, "doctor", id.String(), converter.DoctorToResponse(doctor))
	return nil
}

func (u *doctorUsecase) findDoctor(ctx context.Context, id uuid.UUID) (*entity.Doctor, error) {
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
