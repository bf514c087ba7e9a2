package handler

import (
	"errors"
	"net/http"

	"medledger/internal/delivery/dto"
	"medledger/internal/usecase"
	"medledger/pkg/response"
	"medledger/pkg/validator"
)

type CurrencyHandler struct {
	currencyUsecase usecase.CurrencyUsecase
	validator       *validator.CustomValidator
}

func NewCurrencyHandler(currencyUsecase usecase.CurrencyUsecase, validator *validator.CustomValidator) *CurrencyHandler {
	return &CurrencyHandler{
		currencyUsecase: currencyUsecase,
		validator:       validator,
	}
}

func (h *CurrencyHandler) GetRates(w http.ResponseWriter, r *http.Request) {
	rates, err := h.currencyUsecase.GetRates(r.Context(), r.URL.Query().Get("base"))
	if err != nil {
		writeCurrencyError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Exchange rates retrieved successfully", rates)
}

func (h *CurrencyHandler) Convert(w http.ResponseWriter, r *http.Request) {
	var req dto.ConvertRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	result, err := h.currencyUsecase.Convert(r.Context(), &req)
	if err != nil {
		writeCurrencyError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Amount converted successfully", result)
}

func writeCurrencyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, usecase.ErrUnsupportedCurrency), errors.Is(err, usecase.ErrInvalidAmount):
		response.UnprocessableEntity(w, err.Error())
	case errors.Is(err, usecase.ErrRatesUnavailable):
		response.BadGateway(w, err.Error())
	default:
		response.InternalServerError(w, "Failed to get exchange rates")
	}
}
