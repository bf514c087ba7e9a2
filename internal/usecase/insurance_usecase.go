package usecase

import (
	"context"
	"errors"
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
	ErrInsuranceNotFound     = errors.New("insurance policy not found")
	ErrPolicyNumberExists    = errors.New("policy number already registered")
	ErrInvalidCoveragePeriod = errors.New("end date must not be before start date")
	ErrInvalidCoverageAmount = errors.New("coverage amount must not be negative")
)

type InsuranceUsecase interface {
	GetMyInsurances(ctx context.Context) ([]dto.InsuranceResponse, error)
	CreateInsurance(ctx context.Context, req *dto.CreateInsuranceRequest) (*dto.InsuranceResponse, error)
	UpdateInsurance(ctx context.Context, id uuid.UUID, req *dto.UpdateInsuranceRequest) (*dto.InsuranceResponse, error)
	DeleteInsurance(ctx context.Context, id uuid.UUID) error
}

type insuranceUsecase struct {
	log           *logrus.Logger
	insuranceRepo repository.InsuranceRepository
	auditService  service.AuditService
	now           func() time.Time
}

func NewInsuranceUsecase(
	log *logrus.Logger,
	insuranceRepo repository.InsuranceRepository,
	auditService service.AuditService,
) InsuranceUsecase {
	return &insuranceUsecase{
		log:           log,
		insuranceRepo: insuranceRepo,
		auditService:  auditService,
		now:           time.Now,
	}
}

func (u *insuranceUsecase) GetMyInsurances(ctx context.Context) ([]dto.InsuranceResponse, error) {
	userID, ok := middleware.GetPortalUserID(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	policies, err := u.insuranceRepo.FindByUser(ctx, userID)
	if err != nil {
		u.log.Warnf("Failed to find insurances for user %s: %+v", userID, err)
		return nil, err
	}

	return converter.InsurancesToResponses(policies, u.now()), nil
}

func (u *insuranceUsecase) CreateInsurance(ctx context.Context, req *dto.CreateInsuranceRequest) (*dto.InsuranceResponse, error) {
	userID, ok := middleware.GetPortalUserID(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return nil, err
	}
	if endDate.Before(startDate) {
		return nil, ErrInvalidCoveragePeriod
	}
	if req.CoverageAmount.IsNegative() {
		return nil, ErrInvalidCoverageAmount
	}

	insurance := &entity.Insurance{
		UserID:         userID,
		Provider:       req.Provider,
		PolicyNumber:   req.PolicyNumber,
		CoverageType:   req.CoverageType,
		CoverageAmount: req.CoverageAmount.Round(2),
		StartDate:      startDate,
		EndDate:        endDate,
		Status:         entity.InsuranceStatusActive,
	}

	if err := u.insuranceRepo.Create(ctx, insurance); err != nil {
		if isDuplicateKeyError(err, "idx_insurance_owner_policy") {
			return nil, ErrPolicyNumberExists
		}
		u.log.Warnf("Failed to create insurance: %+v", err)
		return nil, err
	}

	response := converter.InsuranceToResponse(insurance, u.now())
	_ = u.auditService.LogCreate(ctx, middleware.ActorFromContext(ctx), entity.AuditActionInsuranceCreate, "insurance", insurance.ID.String(), response)

	return response, nil
}

func (u *insuranceUsecase) UpdateInsurance(ctx context.Context, id uuid.UUID, req *dto.UpdateInsuranceRequest) (*dto.InsuranceResponse, error) {
	userID, ok := middleware.GetPortalUserID(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	insurance, err := u.insuranceRepo.FindByIDForUser(ctx, id, userID)
	if err != nil {
		u.log.Warnf("Failed to find insurance: %+v", err)
		return nil, err
	}
	if insurance == nil {
		return nil, ErrInsuranceNotFound
	}
	before := converter.InsuranceToResponse(insurance, u.now())

	if req.Provider != nil {
		insurance.Provider = *req.Provider
	}
	if req.PolicyNumber != nil {
		insurance.PolicyNumber = *req.PolicyNumber
	}
	if req.CoverageType != nil {
		insurance.CoverageType = *req.CoverageType
	}
	if req.CoverageAmount != nil {
		if req.CoverageAmount.IsNegative() {
			return nil, ErrInvalidCoverageAmount
		}
		insurance.CoverageAmount = req.CoverageAmount.Round(2)
	}
	if req.StartDate != nil {
		if insurance.StartDate, err = parseDate(*req.StartDate); err != nil {
			return nil, err
		}
	}
	if req.EndDate != nil {
		if insurance.EndDate, err = parseDate(*req.EndDate); err != nil {
			return nil, err
		}
	}
	if req.Status != nil {
		insurance.Status = entity.InsuranceStatus(*req.Status)
	}
	if insurance.EndDate.Before(insurance.StartDate) {
		return nil, ErrInvalidCoveragePeriod
	}

	if err := u.insuranceRepo.Update(ctx, insurance); err != nil {
		if isDuplicateKeyError(err, "idx_insurance_owner_policy") {
			return nil, ErrPolicyNumberExists
		}
		u.log.Warnf("Failed to update insurance: %+v", err)
		return nil, err
	}

	response := converter.InsuranceToResponse(insurance, u.now())
	_ = u.auditService.LogUpdate(ctx, middleware.ActorFromContext(ctx), entity.AuditActionInsuranceUpdate, "insurance", insurance.ID.String(), before, response)

	return response, nil
}

func (u *insuranceUsecase) DeleteInsurance(ctx context.Context, id uuid.UUID) error {
	userID, ok := middleware.GetPortalUserID(ctx)
	if !ok {
		return ErrUnauthenticated
	}

	affected, err := u.insuranceRepo.Delete(ctx, id, userID)
	if err != nil {
		u.log.Warnf("Failed to delete insurance: %+v", err)
		return err
	}
	if affected == 0 {
		return ErrInsuranceNotFound
	}

	_ = u.auditService.LogEvent(ctx, middleware.ActorFromContext(ctx), entity.AuditActionInsuranceDelete,
		map[string]interface{}{"entity": "insurance", "entity_id": id.String()})
	return nil
}
