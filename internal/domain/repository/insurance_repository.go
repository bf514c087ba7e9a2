package repository

import (
	"context"
	"time"

	"medledger/internal/domain/entity"

	"github.com/google/uuid"
)

type InsuranceRepository interface {
	Create(ctx context.Context, insurance *entity.Insurance) error
	FindByUser(ctx context.Context, userID uuid.UUID) ([]entity.Insurance, error)
	FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*entity.Insurance, error)
	Update(ctx context.Context, insurance *entity.Insurance) error
	Delete(ctx context.Context, id, userID uuid.UUID) (int64, error)
	CountActive(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error)
}
