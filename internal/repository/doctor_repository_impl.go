package repository

import (
	"context"
	"errors"

	"medledger/internal/domain/entity"
	domainRepo "medledger/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type doctorRepository struct {
	db *gorm.DB
}

func NewDoctorRepository(db *gorm.DB) domainRepo.DoctorRepository {
	return &doctorRepository{db: db}
}

func (r *doctorRepository) Create(ctx context.Context, doctor *entity.Doctor) error {
	return r.db.WithContext(ctx).Create(doctor).Error
}

func (r *doctorRepository) FindAll(ctx context.Context, filter entity.DoctorFilter) ([]entity.Doctor, int64, error) {
	var doctors []entity.Doctor
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Doctor{})
	if filter.Name != "" {
		query = query.Where("full_name ILIKE ?", "%"+filter.Name+"%")
	}
	if filter.Specialization != "" {
		query = query.Where("specialization ILIKE ?", "%"+filter.Specialization+"%")
	}
	if filter.AvailableOnly {
		query = query.Where("is_available = ?", true)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := entity.NormalizePage(filter.Page, filter.Limit)
	err := query.
		Order("rating DESC, full_name ASC").
		Limit(limit).
		Offset(entity.Offset(page, limit)).
		Find(&doctors).Error
	if err != nil {
		return nil, 0, err
	}

	return doctors, total, nil
}

func (r *doctorRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Doctor, error) {
	var doctor entity.Doctor
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&doctor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doctor, nil
}

func (r *doctorRepository) Update(ctx context.Context, doctor *entity.Doctor) error {
	return r.db.WithContext(ctx).Save(doctor).Error
}

func (r *doctorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Doctor{}).Error
}
