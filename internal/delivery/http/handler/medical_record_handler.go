package handler

import (
	"errors"
	"net/http"

	"medledger/internal/delivery/dto"
	"medledger/internal/domain/entity"
	"medledger/internal/usecase"
	"medledger/pkg/response"
	"medledger/pkg/validator"
)

type MedicalRecordHandler struct {
	recordUsecase usecase.MedicalRecordUsecase
	validator     *validator.CustomValidator
}

func NewMedicalRecordHandler(recordUsecase usecase.MedicalRecordUsecase, validator *validator.CustomValidator) *MedicalRecordHandler {
	return &MedicalRecordHandler{
		recordUsecase: recordUsecase,
		validator:     validator,
	}
}

func (h *MedicalRecordHandler) GetMyRecords(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	filter := entity.RecordFilter{
		RecordType: r.URL.Query().Get("type"),
		Page:       page,
		Limit:      limit,
	}

	records, err := h.recordUsecase.GetMyRecords(r.Context(), filter)
	if err != nil {
		h.writeError(w, err, "Failed to get medical records")
		return
	}

	successPage(w, "Medical records retrieved successfully", records)
}

func (h *MedicalRecordHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	recordID, ok := pathUUID(w, r, "id", "record")
	if !ok {
		return
	}

	record, err := h.recordUsecase.GetRecord(r.Context(), recordID)
	if err != nil {
		h.writeError(w, err, "Failed to get medical record")
		return
	}

	response.Success(w, http.StatusOK, "Medical record retrieved successfully", record)
}

func (h *MedicalRecordHandler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateMedicalRecordRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	record, err := h.recordUsecase.CreateRecord(r.Context(), &req)
	if err != nil {
		h.writeError(w, err, "Failed to create medical record")
		return
	}

	response.Success(w, http.StatusCreated, "Medical record created successfully", record)
}

func (h *MedicalRecordHandler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	recordID, ok := pathUUID(w, r, "id", "record")
	if !ok {
		return
	}

	var req dto.UpdateMedicalRecordRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	record, err := h.recordUsecase.UpdateRecord(r.Context(), recordID, &req)
	if err != nil {
		h.writeError(w, err, "Failed to update medical record")
		return
	}

	response.Success(w, http.StatusOK, "Medical record updated successfully", record)
}

func (h *MedicalRecordHandler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	recordID, ok := pathUUID(w, r, "id", "record")
	if !ok {
		return
	}

	if err := h.recordUsecase.DeleteRecord(r.Context(), recordID); err != nil {
		h.writeError(w, err, "Failed to delete medical record")
		return
	}

	response.Success(w, http.StatusOK, "Medical record deleted successfully", nil)
}

func (h *MedicalRecordHandler) writeError(w http.ResponseWriter, err error, fallback string) {
	if unauthenticated(w, err) {
		return
	}

	switch {
	case errors.Is(err, usecase.ErrRecordNotFound):
		response.NotFound(w, "Medical record not found")
	case errors.Is(err, usecase.ErrDoctorNotFound):
		response.NotFound(w, "Doctor not found")
	case errors.Is(err, usecase.ErrInvalidDateFormat):
		response.BadRequest(w, err.Error())
	default:
		response.InternalServerError(w, fallback)
	}
}
