package repository

import (
	"context"

	"medledger/internal/domain/entity"

	"github.com/google/uuid"
)

type MedicalCardRepository interface {
	Create(ctx context.Context, card *entity.MedicalCard) error
	FindByUser(ctx context.Context, userID uuid.UUID) (*entity.MedicalCard, error)
	Update(ctx context.Context, card *entity.MedicalCard) error
}
