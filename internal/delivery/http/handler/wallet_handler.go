package handler

import (
	"errors"
	"net/http"

	"medledger/internal/usecase"
	"medledger/pkg/response"

	"github.com/gorilla/mux"
)

type WalletHandler struct {
	walletUsecase usecase.WalletUsecase
}

func NewWalletHandler(walletUsecase usecase.WalletUsecase) *WalletHandler {
	return &WalletHandler{
		walletUsecase: walletUsecase,
	}
}

func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.walletUsecase.GetWallet(r.Context())
	if err != nil {
		h.writeError(w, err, "Failed to get wallet")
		return
	}

	response.Success(w, http.StatusOK, "Wallet retrieved successfully", wallet)
}

func (h *WalletHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)

	transactions, err := h.walletUsecase.ListTransactions(r.Context(), r.URL.Query().Get("type"), page, limit)
	if err != nil {
		h.writeError(w, err, "Failed to get transactions")
		return
	}

	successPage(w, "Transactions retrieved successfully", transactions)
}

func (h *WalletHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	transaction, err := h.walletUsecase.GetTransaction(r.Context(), mux.Vars(r)["hash"])
	if err != nil {
		h.writeError(w, err, "Failed to get transaction")
		return
	}

	response.Success(w, http.StatusOK, "Transaction retrieved successfully", transaction)
}

func (h *WalletHandler) writeError(w http.ResponseWriter, err error, fallback string) {
	if unauthenticated(w, err) {
		return
	}

	switch {
	case errors.Is(err, usecase.ErrWalletNotFound):
		response.NotFound(w, "Wallet not found")
	case errors.Is(err, usecase.ErrTransactionNotFound):
		response.NotFound(w, "Transaction not found")
	default:
		response.InternalServerError(w, fallback)
	}
}
