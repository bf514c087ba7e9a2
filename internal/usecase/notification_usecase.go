package usecase

import (
	"context"
	"errors"

	"medledger/internal/converter"
	"medledger/internal/delivery/dto"
	"medledger/internal/delivery/http/middleware"
	"medledger/internal/domain/entity"
	"medledger/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationUsecase interface {
	GetMyNotifications(ctx context.Context, unreadOnly bool, page, limit int) (*dto.Page[dto.NotificationResponse], error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkAllRead(ctx context.Context) (int64, error)
	DeleteNotification(ctx context.Context, id uuid.UUID) error
	UnreadCount(ctx context.Context) (int64, error)
}

type notificationUsecase struct {
	log              *logrus.Logger
	notificationRepo repository.NotificationRepository
}

func NewNotificationUsecase(log *logrus.Logger, notificationRepo repository.NotificationRepository) NotificationUsecase {
	return &notificationUsecase{
		log:              log,
		notificationRepo: notificationRepo,
	}
}

func (u *notificationUsecase) GetMyNotifications(ctx context.Context, unreadOnly bool, page, limit int) (*dto.Page[dto.NotificationResponse], error) {
	userID, ok := middleware.GetPortalUserID(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	page, limit = entity.NormalizePage(page, limit)
	notifications, total, err := u.notificationRepo.FindByUser(ctx, userID, unreadOnly, limit, entity.Offset(page, limit))
	if err != nil {
		u.log.Warnf("Failed to find notifications: %+v", err)
		return nil, err
	}

	return dto.NewPage(converter.NotificationsToResponses(notifications), page, limit, total), nil
}

func (u *notificationUsecase) MarkRead(ctx context.Context, id uuid.UUID) error {
	userID, ok := middleware.GetPortalUserID(ctx)
	if !ok {
		return ErrUnauthenticated
	}

	affected, err := u.notificationRepo.MarkRead(ctx, id, userID)
	if err != nil {
		u.log.Warnf("Failed to mark notification read: %+v", err)
		return err
	}
	if affected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (u *notificationUsecase) MarkAllRead(ctx context.Context) (int64, error) {
	userID, ok := middleware.GetPortalUserID(ctx)
	if !ok {
		return 0, ErrUnauthenticated
	}

	affected, err := u.notificationRepo.MarkAllRead(ctx, userID)
	if err != nil {
		u.log.Warnf("Failed to mark notifications read: %+v", err)
		return 0, err
	}
	return affected, nil
}

func (u *notificationUsecase) DeleteNotification(ctx context.Context, id uuid.UUID) error {
	userID, ok := middleware.GetPortalUserID(ctx)
	if !ok {
		return ErrUnauthenticated
	}

	affected, err := u.notificationRepo.Delete(ctx, id, userID)
	if err != nil {
		u.log.Warnf("Failed to delete notification: %+v", err)
		return err
	}
	if affected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (u *notificationUsecase) UnreadCount(ctx context.Context) (int64, error) {
	userID, ok := middleware.GetPortalUserID(ctx)
	if !ok {
		return 0, ErrUnauthenticated
	}

	count, err := u.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		u.log.Warnf("Failed to count unread notifications: %+v", err)
		return 0, err
	}
	return count, nil
}
