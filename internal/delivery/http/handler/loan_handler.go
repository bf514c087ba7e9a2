package handler

import (
	"errors"
	"net/http"

	"medledger/internal/delivery/dto"
	"medledger/internal/usecase"
	"medledger/pkg/response"
	"medledger/pkg/validator"
)

type LoanHandler struct {
	loanUsecase usecase.LoanUsecase
	validator   *validator.CustomValidator
}

func NewLoanHandler(loanUsecase usecase.LoanUsecase, validator *validator.CustomValidator) *LoanHandler {
	return &LoanHandler{
		loanUsecase: loanUsecase,
		validator:   validator,
	}
}

func (h *LoanHandler) RequestLoan(w http.ResponseWriter, r *http.Request) {
	var req dto.LoanRequestRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	loan, err := h.loanUsecase.RequestLoan(r.Context(), &req)
	if err != nil {
		h.writeError(w, err, "Failed to request loan")
		return
	}

	response.Success(w, http.StatusCreated, "Loan requested successfully", loan)
}

func (h *LoanHandler) GetMyLoans(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)

	loans, err := h.loanUsecase.GetMyLoans(r.Context(), page, limit)
	if err != nil {
		h.writeError(w, err, "Failed to get loans")
		return
	}

	successPage(w, "Loans retrieved successfully", loans)
}

func (h *LoanHandler) RepayLoan(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathInt64(w, r, "id", "loan")
	if !ok {
		return
	}

	var req dto.RepayLoanRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	repayment, err := h.loanUsecase.RepayLoan(r.Context(), loanID, &req)
	if err != nil {
		h.writeError(w, err, "Failed to repay loan")
		return
	}

	response.Success(w, http.StatusOK, "Repayment recorded successfully", repayment)
}

func (h *LoanHandler) GetAllLoans(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)

	loans, err := h.loanUsecase.GetAllLoans(r.Context(), r.URL.Query().Get("status"), page, limit)
	if err != nil {
		h.writeError(w, err, "Failed to get loans")
		return
	}

	successPage(w, "Loans retrieved successfully", loans)
}

func (h *LoanHandler) ApproveLoan(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathInt64(w, r, "id", "loan")
	if !ok {
		return
	}

	var req dto.ApproveLoanRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	loan, err := h.loanUsecase.ApproveLoan(r.Context(), loanID, &req)
	if err != nil {
		h.writeError(w, err, "Failed to approve loan")
		return
	}

	response.Success(w, http.StatusOK, "Loan approved successfully", loan)
}

func (h *LoanHandler) RejectLoan(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathInt64(w, r, "id", "loan")
	if !ok {
		return
	}

	var req dto.RejectLoanRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	loan, err := h.loanUsecase.RejectLoan(r.Context(), loanID, &req)
	if err != nil {
		h.writeError(w, err, "Failed to reject loan")
		return
	}

	response.Success(w, http.StatusOK, "Loan rejected successfully", loan)
}

func (h *LoanHandler) writeError(w http.ResponseWriter, err error, fallback string) {
	if unauthenticated(w, err) {
		return
	}

	switch {
	case errors.Is(err, usecase.ErrLoanNotFound):
		response.NotFound(w, "Loan request not found")
	case errors.Is(err, usecase.ErrWalletNotFound):
		response.NotFound(w, "Wallet not found")
	case errors.Is(err, usecase.ErrLoanPendingExists),
		errors.Is(err, usecase.ErrLoanNotPending),
		errors.Is(err, usecase.ErrLoanNotRepayable):
		response.Conflict(w, err.Error())
	case errors.Is(err, usecase.ErrInvalidLoanStatus):
		response.BadRequest(w, err.Error())
	case errors.Is(err, usecase.ErrInvalidAmount),
		errors.Is(err, usecase.ErrInvalidInterestRate),
		errors.Is(err, usecase.ErrRepaymentExceedsBalance),
		errors.Is(err, usecase.ErrInsufficientFunds):
		response.UnprocessableEntity(w, err.Error())
	default:
		response.InternalServerError(w, fallback)
	}
}
