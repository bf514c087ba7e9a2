package converter

import (
	"time"

	"medledger/internal/delivery/dto"
	"medledger/internal/domain/entity"
)

func MedicalCardToResponse(card *entity.MedicalCard, holderName string, now time.Time) *dto.MedicalCardResponse {
	if card == nil {
		return nil
	}

	return &dto.MedicalCardResponse{
		ID:                    card.ID,
		CardNumber:            card.CardNumber,
		HolderName:            holderName,
		BloodType:             card.BloodType,
		Allergies:             nonNil(card.Allergies),
		ChronicConditions:     nonNil(card.ChronicConditions),
		EmergencyContactName:  card.EmergencyContactName,
		EmergencyContactPhone: card.EmergencyContactPhone,
		IssuedAt:              card.IssuedAt,
		ExpiresAt:             card.ExpiresAt,
		IsExpired:             now.After(card.ExpiresAt),
	}
}
