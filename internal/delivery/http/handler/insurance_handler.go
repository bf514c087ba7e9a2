package handler

import (
	"errors"
	"net/http"

	"medledger/internal/delivery/dto"
	"medledger/internal/usecase"
	"medledger/pkg/response"
	"medledger/pkg/validator"
)

type InsuranceHandler struct {
	insuranceUsecase usecase.InsuranceUsecase
	validator        *validator.CustomValidator
}

func NewInsuranceHandler(insuranceUsecase usecase.InsuranceUsecase, validator *validator.CustomValidator) *InsuranceHandler {
	return &InsuranceHandler{
		insuranceUsecase: insuranceUsecase,
		validator:        validator,
	}
}

func (h *InsuranceHandler) GetMyInsurances(w http.ResponseWriter, r *http.Request) {
	policies, err := h.insuranceUsecase.GetMyInsurances(r.Context())
	if err != nil {
		h.writeError(w, err, "Failed to get insurance policies")
		return
	}

	response.Success(w, http.StatusOK, "Insurance policies retrieved successfully", policies)
}

func (h *InsuranceHandler) CreateInsurance(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateInsuranceRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	policy, err := h.insuranceUsecase.CreateInsurance(r.Context(), &req)
	if err != nil {
		h.writeError(w, err, "Failed to create insurance policy")
		return
	}

	response.Success(w, http.StatusCreated, "Insurance policy created successfully", policy)
}

func (h *InsuranceHandler) UpdateInsurance(w http.ResponseWriter, r *http.Request) {
	insuranceID, ok := pathUUID(w, r, "id", "insurance")
	if !ok {
		return
	}

	var req dto.UpdateInsuranceRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	policy, err := h.insuranceUsecase.UpdateInsurance(r.Context(), insuranceID, &req)
	if err != nil {
		h.writeError(w, err, "Failed to update insurance policy")
		return
	}

	response.Success(w, http.StatusOK, "Insurance policy updated successfully", policy)
}

func (h *InsuranceHandler) DeleteInsurance(w http.ResponseWriter, r *http.Request) {
	insuranceID, ok := pathUUID(w, r, "id", "insurance")
	if !ok {
		return
	}

	if err := h.insuranceUsecase.DeleteInsurance(r.Context(), insuranceID); err != nil {
		h.writeError(w, err, "Failed to delete insurance policy")
		return
	}

	response.Success(w, http.StatusOK, "Insurance policy deleted successfully", nil)
}

func (h *InsuranceHandler) writeError(w http.ResponseWriter, err error, fallback string) {
	if unauthenticated(w, err) {
		return
	}

	switch {
	case errors.Is(err, usecase.ErrInsuranceNotFound):
		response.NotFound(w, "Insurance policy not found")
	case errors.Is(err, usecase.ErrPolicyNumberExists):
		response.Conflict(w, err.Error())
	case errors.Is(err, usecase.ErrInvalidCoveragePeriod),
		errors.Is(err, usecase.ErrInvalidCoverageAmount),
		errors.Is(err, usecase.ErrInvalidDateFormat):
		response.BadRequest(w, err.Error())
	default:
		response.InternalServerError(w, fallback)
	}
}
