package handler

import (
	"errors"
	"net/http"

	"medledger/internal/delivery/dto"
	"medledger/internal/usecase"
	"medledger/pkg/response"
)

type NotificationHandler struct {
	notificationUsecase usecase.NotificationUsecase
}

func NewNotificationHandler(notificationUsecase usecase.NotificationUsecase) *NotificationHandler {
	return &NotificationHandler{
		notificationUsecase: notificationUsecase,
	}
}

func (h *NotificationHandler) GetMyNotifications(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)

	notifications, err := h.notificationUsecase.GetMyNotifications(r.Context(), queryBool(r, "unread_only"), page, limit)
	if err != nil {
		h.writeError(w, err, "Failed to get notifications")
		return
	}

	successPage(w, "Notifications retrieved successfully", notifications)
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.notificationUsecase.UnreadCount(r.Context())
	if err != nil {
		h.writeError(w, err, "Failed to count notifications")
		return
	}

	response.Success(w, http.StatusOK, "Unread count retrieved successfully", dto.CountResponse{Count: count})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	notificationID, ok := pathUUID(w, r, "id", "notification")
	if !ok {
		return
	}

	if err := h.notificationUsecase.MarkRead(r.Context(), notificationID); err != nil {
		h.writeError(w, err, "Failed to update notification")
		return
	}

	response.Success(w, http.StatusOK, "Notification marked as read", nil)
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	count, err := h.notificationUsecase.MarkAllRead(r.Context())
	if err != nil {
		h.writeError(w, err, "Failed to update notifications")
		return
	}

	response.Success(w, http.StatusOK, "Notifications marked as read", dto.CountResponse{Count: count})
}

func (h *NotificationHandler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	notificationID, ok := pathUUID(w, r, "id", "notification")
	if !ok {
		return
	}

	if err := h.notificationUsecase.DeleteNotification(r.Context(), notificationID); err != nil {
		h.writeError(w, err, "Failed to delete notification")
		return
	}

	response.Success(w, http.StatusOK, "Notification deleted successfully", nil)
}

func (h *NotificationHandler) writeError(w http.ResponseWriter, err error, fallback string) {
	if unauthenticated(w, err) {
		return
	}

	switch {
	case errors.Is(err, usecase.ErrNotificationNotFound):
		response.NotFound(w, "Notification not found")
	default:
		response.InternalServerError(w, fallback)
	}
}
