package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"medledger/internal/converter"
	"medledger/internal/delivery/dto"
	"medledger/internal/delivery/http/middleware"
	"medledger/internal/domain/entity"
	"medledger/internal/domain/repository"
	"medledger/internal/service"

	"github.com/sirupsen/logrus"
)

var (
	ErrMedicalCardNotFound      = errors.New("medical card not found")
	ErrMedicalCardAlreadyIssued = errors.New("medical card already issued")
)

// cardNumberAttempts bounds retries on a card number collision.
const cardNumberAttempts = 5

type MedicalCardUsecase interface {
	GetMyCard(ctx context.Context) (*dto.MedicalCardResponse, error)
	IssueCard(ctx context.Context, req *dto.IssueMedicalCardRequest) (*dto.MedicalCardResponse, error)
	UpdateCard(ctx context.Context, req *dto.UpdateMedicalCardRequest) (*dto.MedicalCardResponse, error)
}

type medicalCardUsecase struct {
	log          *logrus.Logger
	cardRepo     repository.MedicalCardRepository
	userRepo     repository.UserRepository
	auditService service.AuditService
	now          func() time.Time
}

func NewMedicalCardUsecase(
	log *logrus.Logger,
	cardRepo repository.MedicalCardRepository,
	userRepo repository.UserRepository,
	auditService service.AuditService,
) MedicalCardUsecase {
	return &medicalCardUsecase{
		log:          log,
		cardRepo:     cardRepo,
		userRepo:     userRepo,
		auditService: auditService,
		now:          time.Now,
	}
}

func (u *medicalCardUsecase) GetMyCard(ctx context.Context) (*dto.MedicalCardResponse, error) {
	user, card, err := u.load(ctx)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, ErrMedicalCardNotFound
	}
	return converter.MedicalCardToResponse(card, user.FullName, u.now()), nil
}

func (u *medicalCardUsecase) IssueCard(ctx context.Context, req *dto.IssueMedicalCardRequest) (*dto.MedicalCardResponse, error) {
	user, existing, err := u.load(ctx)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrMedicalCardAlreadyIssued
	}

	bloodType := req.BloodType
	if bloodType == "" {
		bloodType = user.BloodType
	}

	issuedAt := u.now().UTC()
	card := &entity.MedicalCard{
		UserID:                user.ID,
		BloodType:             bloodType,
		Allergies:             req.Allergies,
		ChronicConditions:     req.ChronicConditions,
		EmergencyContactName:  req.EmergencyContactName,
		EmergencyContactPhone: req.EmergencyContactPhone,
		IssuedAt:              issuedAt,
		ExpiresAt:             issuedAt.Add(entity.MedicalCardValidity),
	}

	for attempt := 1; ; attempt++ {
		card.CardNumber, err = newCardNumber()
		if err != nil {
			return nil, err
		}

		err = u.cardRepo.Create(ctx, card)
		if err == nil {
			break
		}
		if isDuplicateKeyError(err, "user_id") {
			return nil, ErrMedicalCardAlreadyIssued
		}
		if isDuplicateKeyError(err, "card_number") && attempt < cardNumberAttempts {
			continue
		}
		u.log.Warnf("Failed to issue medical card: %+v", err)
		return nil, err
	}

	_ = u.auditService.LogCreate(ctx, middleware.ActorFromContext(ctx), entity.AuditActionCardIssue, "medical_card", card.ID.String(),
		map[string]interface{}{"card_number": card.CardNumber})

	return converter.MedicalCardToResponse(card, user.FullName, u.now()), nil
}

func (u *medicalCardUsecase) UpdateCard(ctx context.Context, req *dto.UpdateMedicalCardRequest) (*dto.MedicalCardResponse, error) {
	user, card, err := u.load(ctx)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, ErrMedicalCardNotFound
	}

	if req.BloodType != nil {
		card.BloodType = *req.BloodType
	}
	if req.Allergies != nil {
		card.Allergies = req.Allergies
	}
	if req.ChronicConditions != nil {
		card.ChronicConditions = req.ChronicConditions
	}
	if req.EmergencyContactName != nil {
		card.EmergencyContactName = *req.EmergencyContactName
	}
	if req.EmergencyContactPhone != nil {
		card.EmergencyContactPhone = *req.EmergencyContactPhone
	}

	if err := u.cardRepo.Update(ctx, card); err != nil {
		u.log.Warnf("Failed to update medical card: %+v", err)
		return nil, err
	}

	_ = u.auditService.LogEvent(ctx, middleware.ActorFromContext(ctx), entity.AuditActionCardUpdate,
		map[string]interface{}{"entity": "medical_card", "entity_id": card.ID.String()})

	return converter.MedicalCardToResponse(card, user.FullName, u.now()), nil
}

func (u *medicalCardUsecase) load(ctx context.Context) (*entity.User, *entity.MedicalCard, error) {
	userID, ok := middleware.GetPortalUserID(ctx)
	if !ok {
		return nil, nil, ErrUnauthenticated
	}

	user, err := u.userRepo.FindByID(ctx, userID)
	if err != nil {
		u.log.Warnf("Failed to find user by ID: %+v", err)
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, ErrUserNotFound
	}

	card, err := u.cardRepo.FindByUser(ctx, userID)
	if err != nil {
		u.log.Warnf("Failed to find medical card: %+v", err)
		return nil, nil, err
	}
	return user, card, nil
}

// newCardNumber returns MC-XXXX-XXXX-XXXX with random digits.
func newCardNumber() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000_000_000))
	if err != nil {
		return "", fmt.Errorf("generate card number: %w", err)
	}
	digits := fmt.Sprintf("%012d", n.Int64())
	return fmt.Sprintf("MC-%s-%s-%s", digits[0:4], digits[4:8], digits[8:12]), nil
}
