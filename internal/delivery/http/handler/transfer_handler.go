package handler

import (
	"errors"
	"net/http"

	"medledger/internal/delivery/dto"
	"medledger/internal/service"
	"medledger/internal/usecase"
	"medledger/pkg/response"
	"medledger/pkg/validator"
)

type TransferHandler struct {
	transferUsecase usecase.TransferUsecase
	validator       *validator.CustomValidator
}

func NewTransferHandler(transferUsecase usecase.TransferUsecase, validator *validator.CustomValidator) *TransferHandler {
	return &TransferHandler{
		transferUsecase: transferUsecase,
		validator:       validator,
	}
}

// Transfer moves money to a wallet of the same currency
// @Summary Send money
// @Description Recipient may be an email, an account number or a wallet address
// @Tags Transfers
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.TransferRequest true "Transfer"
// @Success 201 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Failure 429 {object} response.Response
// @Router /ledger/transfers [post]
func (h *TransferHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req dto.TransferRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	result, err := h.transferUsecase.Transfer(r.Context(), &req)
	if err != nil {
		writeTransferError(w, err)
		return
	}

	response.Success(w, http.StatusCreated, "Transfer completed successfully", result)
}

// InternationalTransfer converts into the recipient's currency
// @Summary Send money abroad
// @Tags Transfers
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.TransferRequest true "Transfer"
// @Success 201 {object} response.Response
// @Failure 502 {object} response.Response
// @Router /ledger/transfers/international [post]
func (h *TransferHandler) InternationalTransfer(w http.ResponseWriter, r *http.Request) {
	var req dto.TransferRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	result, err := h.transferUsecase.InternationalTransfer(r.Context(), &req)
	if err != nil {
		writeTransferError(w, err)
		return
	}

	response.Success(w, http.StatusCreated, "International transfer completed successfully", result)
}

func writeTransferError(w http.ResponseWriter, err error) {
	if unauthenticated(w, err) {
		return
	}

	switch {
	case errors.Is(err, usecase.ErrRecipientNotFound):
		response.NotFound(w, "Recipient not found")
	case errors.Is(err, usecase.ErrUserNotFound), errors.Is(err, usecase.ErrWalletNotFound):
		response.NotFound(w, "Wallet not found")
	case errors.Is(err, usecase.ErrSelfTransfer):
		response.BadRequest(w, err.Error())
	case errors.Is(err, usecase.ErrAccountInactive):
		response.Forbidden(w, "Account is inactive")
	case errors.Is(err, usecase.ErrInvalidAmount),
		errors.Is(err, usecase.ErrCurrencyMismatch),
		errors.Is(err, usecase.ErrInsufficientFunds),
		errors.Is(err, usecase.ErrUnsupportedCurrency):
		response.UnprocessableEntity(w, err.Error())
	case errors.Is(err, service.ErrDailyLimitExceeded):
		response.TooManyRequests(w, "Daily transfer limit exceeded")
	case errors.Is(err, usecase.ErrRatesUnavailable):
		response.BadGateway(w, err.Error())
	default:
		response.InternalServerError(w, "Failed to complete transfer")
	}
}
