package repository

import (
	"context"
	"errors"
	"time"

	"medledger/internal/domain/entity"
	domainRepo "medledger/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type insuranceRepository struct {
	db *gorm.DB
}

func NewInsuranceRepository(db *gorm.DB) domainRepo.InsuranceRepository {
	return &insuranceRepository{db: db}
}

func (r *insuranceRepository) Create(ctx context.Context, insurance *entity.Insurance) error {
	return r.db.WithContext(ctx).Omit("User").Create(insurance).Error
}

func (r *insuranceRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]entity.Insurance, error) {
	var policies []entity.Insurance
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("end_date DESC").Find(&policies).Error
	if err != nil {
		return nil, err
	}
	return policies, nil
}

func (r *insuranceRepository) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*entity.Insurance, error) {
	var insurance entity.Insurance
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&insurance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &insurance, nil
}

func (r *insuranceRepository) Update(ctx context.Context, insurance *entity.Insurance) error {
	return r.db.WithContext(ctx).Omit("User").Save(insurance).Error
}

func (r *insuranceRepository) Delete(ctx context.Context, id, userID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&entity.Insurance{})
	return result.RowsAffected, result.Error
}

func (r *insuranceRepository) CountActive(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Insurance{}).
		Where("user_id = ? AND status = ? AND end_date >= ?", userID, entity.InsuranceStatusActive, now.Format("2006-01-02")).
		Count(&count).Error
	return count, err
}
