package converter

import (
	"time"

	"medledger/internal/delivery/dto"
	"medledger/internal/domain/entity"
)

// InsuranceToResponse reports the status as of now.
func InsuranceToResponse(insurance *entity.Insurance, now time.Time) *dto.InsuranceResponse {
	if insurance == nil {
		return nil
	}

	return &dto.InsuranceResponse{
		ID:             insurance.ID,
		Provider:       insurance.Provider,
		PolicyNumber:   insurance.PolicyNumber,
		CoverageType:   insurance.CoverageType,
		CoverageAmount: insurance.CoverageAmount,
		StartDate:      insurance.StartDate.Format(dateLayout),
		EndDate:        insurance.EndDate.Format(dateLayout),
		Status:         string(insurance.EffectiveStatus(now)),
		CreatedAt:      insurance.CreatedAt,
	}
}

func InsurancesToResponses(insurances []entity.Insurance, now time.Time) []dto.InsuranceResponse {
	responses := make([]dto.InsuranceResponse, len(insurances))
	for i := range insurances {
		responses[i] = *InsuranceToResponse(&insurances[i], now)
	}
	return responses
}
