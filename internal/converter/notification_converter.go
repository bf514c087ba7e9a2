package converter

import (
	"medledger/internal/delivery/dto"
	"medledger/internal/domain/entity"
)

func NotificationsToResponses(notifications []entity.Notification) []dto.NotificationResponse {
	responses := make([]dto.NotificationResponse, len(notifications))
	for i, n := range notifications {
		responses[i] = dto.NotificationResponse{
			ID:        n.ID,
			Title:     n.Title,
			Message:   n.Message,
			Type:      n.Type,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		}
	}
	return responses
}

func LedgerNotificationToResponse(n *entity.LedgerNotification) *dto.LedgerNotificationResponse {
	if n == nil {
		return nil
	}

	return &dto.LedgerNotificationResponse{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      n.Type,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

func LedgerNotificationsToResponses(notifications []entity.LedgerNotification) []dto.LedgerNotificationResponse {
	responses := make([]dto.LedgerNotificationResponse, len(notifications))
	for i := range notifications {
		responses[i] = *LedgerNotificationToResponse(&notifications[i])
	}
	return responses
}
