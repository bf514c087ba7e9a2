package handler

import (
	"errors"
	"net/http"
	"strconv"

	"medledger/internal/delivery/dto"
	"medledger/internal/service"
	"medledger/internal/usecase"
	"medledger/pkg/response"
	"medledger/pkg/validator"

	"github.com/sirupsen/logrus"
)

type LedgerAdminHandler struct {
	adminUsecase usecase.LedgerAdminUsecase
	validator    *validator.CustomValidator
	log          *logrus.Logger
}

func NewLedgerAdminHandler(adminUsecase usecase.LedgerAdminUsecase, validator *validator.CustomValidator, log *logrus.Logger) *LedgerAdminHandler {
	return &LedgerAdminHandler{
		adminUsecase: adminUsecase,
		validator:    validator,
		log:          log,
	}
}

func (h *LedgerAdminHandler) GetAllUsers(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)

	users, err := h.adminUsecase.GetAllUsers(r.Context(), r.URL.Query().Get("search"), queryOptionalBool(r, "is_active"), page, limit)
	if err != nil {
		h.writeError(w, err, "Failed to get users")
		return
	}

	successPage(w, "Users retrieved successfully", users)
}

func (h *LedgerAdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathInt64(w, r, "id", "user")
	if !ok {
		return
	}

	user, err := h.adminUsecase.GetUser(r.Context(), userID)
	if err != nil {
		h.writeError(w, err, "Failed to get user")
		return
	}

	response.Success(w, http.StatusOK, "User retrieved successfully", user)
}

func (h *LedgerAdminHandler) SetUserStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathInt64(w, r, "id", "user")
	if !ok {
		return
	}

	var req dto.SetUserStatusRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	user, err := h.adminUsecase.SetUserStatus(r.Context(), userID, &req)
	if err != nil {
		h.writeError(w, err, "Failed to update user status")
		return
	}

	response.Success(w, http.StatusOK, "User status updated successfully", user)
}

// AdjustWallet deposits into or withdraws from a user's wallet
// @Summary Adjust a wallet balance
// @Tags Ledger Admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body dto.AdjustWalletRequest true "Adjustment"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /ledger/admin/users/{id}/wallet/adjust [post]
func (h *LedgerAdminHandler) AdjustWallet(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathInt64(w, r, "id", "user")
	if !ok {
		return
	}

	var req dto.AdjustWalletRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	result, err := h.adminUsecase.AdjustWallet(r.Context(), userID, &req)
	if err != nil {
		h.writeError(w, err, "Failed to adjust wallet")
		return
	}

	response.Success(w, http.StatusOK, "Wallet adjusted successfully", result)
}

func (h *LedgerAdminHandler) GetAllTransactions(w http.ResponseWriter, r *http.Request) {
	query, ok := transactionQuery(w, r)
	if !ok {
		return
	}

	transactions, err := h.adminUsecase.GetAllTransactions(r.Context(), query)
	if err != nil {
		h.writeError(w, err, "Failed to get transactions")
		return
	}

	successPage(w, "Transactions retrieved successfully", transactions)
}

// ExportTransactions downloads the filtered transactions as a spreadsheet
// @Summary Export transactions
// @Tags Ledger Admin
// @Security BearerAuth
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Router /ledger/admin/transactions/export [get]
func (h *LedgerAdminHandler) ExportTransactions(w http.ResponseWriter, r *http.Request) {
	query, ok := transactionQuery(w, r)
	if !ok {
		return
	}

	file, err := h.adminUsecase.ExportTransactions(r.Context(), query)
	if err != nil {
		h.writeError(w, err, "Failed to export transactions")
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Content)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Content); err != nil {
		h.log.Warnf("Failed to write export: %+v", err)
	}
}

func (h *LedgerAdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.adminUsecase.GetStats(r.Context())
	if err != nil {
		h.writeError(w, err, "Failed to get stats")
		return
	}

	response.Success(w, http.StatusOK, "Stats retrieved successfully", stats)
}

func (h *LedgerAdminHandler) RunBackup(w http.ResponseWriter, r *http.Request) {
	backup, err := h.adminUsecase.RunBackup(r.Context())
	if err != nil {
		if errors.Is(err, service.ErrBackupNotConfigured) {
			response.ServiceUnavailable(w, "Backup is not configured")
			return
		}
		response.BadGateway(w, "Failed to deliver backup")
		return
	}

	response.Success(w, http.StatusOK, "Backup sent successfully", backup)
}

func (h *LedgerAdminHandler) writeError(w http.ResponseWriter, err error, fallback string) {
	if unauthenticated(w, err) {
		return
	}

	switch {
	case errors.Is(err, usecase.ErrUserNotFound):
		response.NotFound(w, "User not found")
	case errors.Is(err, usecase.ErrCannotDeactivateSelf), errors.Is(err, usecase.ErrInvalidAdjustmentType):
		response.BadRequest(w, err.Error())
	case errors.Is(err, usecase.ErrInvalidAmount), errors.Is(err, usecase.ErrInsufficientFunds):
		response.UnprocessableEntity(w, err.Error())
	default:
		response.InternalServerError(w, fallback)
	}
}

func transactionQuery(w http.ResponseWriter, r *http.Request) (*dto.TransactionQuery, bool) {
	page, limit := pageParams(r)
	query := &dto.TransactionQuery{
		Type:   r.URL.Query().Get("type"),
		Status: r.URL.Query().Get("status"),
		Page:   page,
		Limit:  limit,
	}

	if raw := r.URL.Query().Get("user_id"); raw != "" {
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.BadRequest(w, "Invalid user_id")
			return nil, false
		}
		query.UserID = &userID
	}

	var err error
	if query.From, err = queryTime(r, "from"); err != nil {
		response.BadRequest(w, "Invalid from date")
		return nil, false
	}
	if query.To, err = queryTime(r, "to"); err != nil {
		response.BadRequest(w, "Invalid to date")
		return nil, false
	}
	return query, true
}
