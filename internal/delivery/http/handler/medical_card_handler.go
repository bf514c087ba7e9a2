package handler

import (
	"errors"
	"net/http"

	"medledger/internal/delivery/dto"
	"medledger/internal/usecase"
	"medledger/pkg/response"
	"medledger/pkg/validator"
)

type MedicalCardHandler struct {
	cardUsecase usecase.MedicalCardUsecase
	validator   *validator.CustomValidator
}

func NewMedicalCardHandler(cardUsecase usecase.MedicalCardUsecase, validator *validator.CustomValidator) *MedicalCardHandler {
	return &MedicalCardHandler{
		cardUsecase: cardUsecase,
		validator:   validator,
	}
}

func (h *MedicalCardHandler) GetMyCard(w http.ResponseWriter, r *http.Request) {
	card, err := h.cardUsecase.GetMyCard(r.Context())
	if err != nil {
		h.writeError(w, err, "Failed to get medical card")
		return
	}

	response.Success(w, http.StatusOK, "Medical card retrieved successfully", card)
}

func (h *MedicalCardHandler) IssueCard(w http.ResponseWriter, r *http.Request) {
	var req dto.IssueMedicalCardRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	card, err := h.cardUsecase.IssueCard(r.Context(), &req)
	if err != nil {
		h.writeError(w, err, "Failed to issue medical card")
		return
	}

	response.Success(w, http.StatusCreated, "Medical card issued successfully", card)
}

func (h *MedicalCardHandler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateMedicalCardRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	card, err := h.cardUsecase.UpdateCard(r.Context(), &req)
	if err != nil {
		h.writeError(w, err, "Failed to update medical card")
		return
	}

	response.Success(w, http.StatusOK, "Medical card updated successfully", card)
}

func (h *MedicalCardHandler) writeError(w http.ResponseWriter, err error, fallback string) {
	if unauthenticated(w, err) {
		return
	}

	switch {
	case errors.Is(err, usecase.ErrMedicalCardNotFound):
		response.NotFound(w, "Medical card not found")
	case errors.Is(err, usecase.ErrUserNotFound):
		response.NotFound(w, "User not found")
	case errors.Is(err, usecase.ErrMedicalCardAlreadyIssued):
		response.Conflict(w, err.Error())
	default:
		response.InternalServerError(w, fallback)
	}
}
