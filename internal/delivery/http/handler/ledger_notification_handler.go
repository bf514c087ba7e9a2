package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"medledger/internal/converter"
	"medledger/internal/delivery/dto"
	"medledger/internal/usecase"
	"medledger/pkg/response"

	"github.com/sirupsen/logrus"
)

// StreamHeartbeat keeps idle event streams open through proxies.
const StreamHeartbeat = 25 * time.Second

type LedgerNotificationHandler struct {
	notificationUsecase usecase.LedgerNotificationUsecase
	log                 *logrus.Logger
	heartbeat           time.Duration
}

func NewLedgerNotificationHandler(notificationUsecase usecase.LedgerNotificationUsecase, log *logrus.Logger) *LedgerNotificationHandler {
	return &LedgerNotificationHandler{
		notificationUsecase: notificationUsecase,
		log:                 log,
		heartbeat:           StreamHeartbeat,
	}
}

func (h *LedgerNotificationHandler) GetMyNotifications(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)

	notifications, err := h.notificationUsecase.GetMyNotifications(r.Context(), queryBool(r, "unread_only"), page, limit)
	if err != nil {
		h.writeError(w, err, "Failed to get notifications")
		return
	}

	successPage(w, "Notifications retrieved successfully", notifications)
}

func (h *LedgerNotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.notificationUsecase.UnreadCount(r.Context())
	if err != nil {
		h.writeError(w, err, "Failed to count notifications")
		return
	}

	response.Success(w, http.StatusOK, "Unread count retrieved successfully", dto.CountResponse{Count: count})
}

func (h *LedgerNotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	notificationID, ok := pathInt64(w, r, "id", "notification")
	if !ok {
		return
	}

	if err := h.notificationUsecase.MarkRead(r.Context(), notificationID); err != nil {
		h.writeError(w, err, "Failed to update notification")
		return
	}

	response.Success(w, http.StatusOK, "Notification marked as read", nil)
}

func (h *LedgerNotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	count, err := h.notificationUsecase.MarkAllRead(r.Context())
	if err != nil {
		h.writeError(w, err, "Failed to update notifications")
		return
	}

	response.Success(w, http.StatusOK, "Notifications marked as read", dto.CountResponse{Count: count})
}

// Stream pushes notifications as Server-Sent Events until the client leaves.
// @Summary Live notifications
// @Tags Ledger Notifications
// @Security BearerAuth
// @Produce text/event-stream
// @Router /ledger/notifications/stream [get]
func (h *LedgerNotificationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalServerError(w, "Streaming is not supported")
		return
	}

	feed, unsubscribe, err := h.notificationUsecase.Subscribe(r.Context())
	if err != nil {
		h.writeError(w, err, "Failed to subscribe to notifications")
		return
	}
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case notification, open := <-feed:
			if !open {
				return
			}
			payload, err := json.Marshal(converter.LedgerNotificationToResponse(&notification))
			if err != nil {
				h.log.Warnf("Failed to encode notification %d: %+v", notification.ID, err)
				continue
			}
			if _, err := fmt.Fprintf(w, "id: %d\nevent: notification\ndata: %s\n\n", notification.ID, payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (h *LedgerNotificationHandler) writeError(w http.ResponseWriter, err error, fallback string) {
	if unauthenticated(w, err) {
		return
	}

	if errors.Is(err, usecase.ErrNotificationNotFound) {
		response.NotFound(w, "Notification not found")
		return
	}
	response.InternalServerError(w, fallback)
}
