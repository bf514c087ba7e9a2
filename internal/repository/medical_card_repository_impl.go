package repository

import (
	"context"
	"errors"

	"medledger/internal/domain/entity"
	domainRepo "medledger/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type medicalCardRepository struct {
	db *gorm.DB
}

func NewMedicalCardRepository(db *gorm.DB) domainRepo.MedicalCardRepository {
	return &medicalCardRepository{db: db}
}

func (r *medicalCardRepository) Create(ctx context.Context, card *entity.MedicalCard) error {
	return r.db.WithContext(ctx).Create(card).Error
}

func (r *medicalCardRepository) FindByUser(ctx context.Context, userID uuid.UUID) (*entity.MedicalCard, error) {
	var card entity.MedicalCard
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&card).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &card, nil
}

func (r *medicalCardRepository) Update(ctx context.Context, card *entity.MedicalCard) error {
	return r.db.WithContext(ctx).Save(card).Error
}
