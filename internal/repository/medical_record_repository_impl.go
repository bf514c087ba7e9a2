package repository

import (
	"context"
	"errors"

	"medledger/internal/domain/entity"
	domainRepo "medledger/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type medicalRecordRepository struct {
	db *gorm.DB
}

func NewMedicalRecordRepository(db *gorm.DB) domainRepo.MedicalRecordRepository {
	return &medicalRecordRepository{db: db}
}

func (r *medicalRecordRepository) Create(ctx context.Context, record *entity.MedicalRecord) error {
	return r.db.WithContext(ctx).Omit("User", "Doctor").Create(record).Error
}

func (r *medicalRecordRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter entity.RecordFilter) ([]entity.MedicalRecord, int64, error) {
	var records []entity.MedicalRecord
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.MedicalRecord{}).Where("user_id = ?", userID)
	if filter.RecordType != "" {
		query = query.Where("record_type = ?", filter.RecordType)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := entity.NormalizePage(filter.Page, filter.Limit)
	err := query.Preload("Doctor").
		Order("record_date DESC, created_at DESC").
		Limit(limit).
		Offset(entity.Offset(page, limit)).
		Find(&records).Error
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (r *medicalRecordRepository) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*entity.MedicalRecord, error) {
	var record entity.MedicalRecord
	err := r.db.WithContext(ctx).Preload("Doctor").
		Where("id = ? AND user_id = ?", id, userID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *medicalRecordRepository) Update(ctx context.Context, record *entity.MedicalRecord) error {
	return r.db.WithContext(ctx).Omit("User", "Doctor").Save(record).Error
}

func (r *medicalRecordRepository) Delete(ctx context.Context, id, userID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&entity.MedicalRecord{})
	return result.RowsAffected, result.Error
}

func (r *medicalRecordRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.MedicalRecord{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
