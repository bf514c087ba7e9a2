package repository

import (
	"context"

	"medledger/internal/domain/entity"

	"github.com/google/uuid"
)

// MedicalRecordRepository scopes every lookup to the owning user.
type MedicalRecordRepository interface {
	Create(ctx context.Context, record *entity.MedicalRecord) error
	FindByUser(ctx context.Context, userID uuid.UUID, filter entity.RecordFilter) ([]entity.MedicalRecord, int64, error)
	FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*entity.MedicalRecord, error)
	Update(ctx context.Context, record *entity.MedicalRecord) error
	Delete(ctx context.Context, id, userID uuid.UUID) (int64, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}
