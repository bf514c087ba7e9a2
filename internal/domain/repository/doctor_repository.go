package repository

import (
	"context"

	"medledger/internal/domain/entity"

	"github.com/google/uuid"
)

type DoctorRepository interface {
	Create(ctx context.Context, doctor *entity.Doctor) error
	FindAll(ctx context.Context, filter entity.DoctorFilter) ([]entity.Doctor, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Doctor, error)
	Update(ctx context.Context, doctor *entity.Doctor) error
	Delete(ctx context.Context, id uuid.UUID) error
}
