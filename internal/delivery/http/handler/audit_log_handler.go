package handler

import (
	"errors"
	"net/http"

	"medledger/internal/domain/entity"
	"medledger/internal/usecase"
	"medledger/pkg/response"
)

type AuditLogHandler struct {
	auditLogUsecase usecase.AuditLogUsecase
}

func NewAuditLogHandler(auditLogUsecase usecase.AuditLogUsecase) *AuditLogHandler {
	return &AuditLogHandler{
		auditLogUsecase: auditLogUsecase,
	}
}

func (h *AuditLogHandler) GetAuditLog(w http.ResponseWriter, r *http.Request) {
	auditLogID, ok := pathInt64(w, r, "id", "audit log")
	if !ok {
		return
	}

	auditLog, err := h.auditLogUsecase.GetAuditLog(r.Context(), auditLogID)
	if err != nil {
		if errors.Is(err, usecase.ErrAuditLogNotFound) {
			response.NotFound(w, "Audit log not found")
			return
		}
		response.InternalServerError(w, "Failed to get audit log")
		return
	}

	response.Success(w, http.StatusOK, "Audit log retrieved successfully", auditLog)
}

func (h *AuditLogHandler) GetAllAuditLogs(w http.ResponseWriter, r *http.Request) {
	from, err := queryTime(r, "from")
	if err != nil {
		response.BadRequest(w, "Invalid from date")
		return
	}
	to, err := queryTime(r, "to")
	if err != nil {
		response.BadRequest(w, "Invalid to date")
		return
	}

	page, limit := pageParams(r)
	filter := entity.AuditLogFilter{
		ActorRealm: r.URL.Query().Get("realm"),
		ActorID:    r.URL.Query().Get("actor_id"),
		Action:     r.URL.Query().Get("action"),
		From:       from,
		To:         to,
		Page:       page,
		Limit:      limit,
	}

	auditLogs, err := h.auditLogUsecase.GetAllAuditLogs(r.Context(), filter)
	if err != nil {
		response.InternalServerError(w, "Failed to get audit logs")
		return
	}

	successPage(w, "Audit logs retrieved successfully", auditLogs)
}
