package usecase

import (
	"context"

	"medledger/internal/converter"
	"medledger/internal/delivery/dto"
	"medledger/internal/delivery/http/middleware"
	"medledger/internal/domain/entity"
	"medledger/internal/domain/repository"

	"github.com/sirupsen/logrus"
)

// NotificationSubscriber hands out live notification feeds.
type NotificationSubscriber interface {
	Subscribe(userID int64) (<-chan entity.LedgerNotification, func())
}

type LedgerNotificationUsecase interface {
	GetMyNotifications(ctx context.Context, unreadOnly bool, page, limit int) (*dto.Page[dto.LedgerNotificationResponse], error)
	MarkRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context) (int64, error)
	UnreadCount(ctx context.Context) (int64, error)
	// Subscribe returns a feed of notifications created for the caller
	// from now on. The returned func releases it.
	Subscribe(ctx context.Context) (<-chan entity.LedgerNotification, func(), error)
}

type ledgerNotificationUsecase struct {
	db               repository.DBTX
	log              *logrus.Logger
	notificationRepo repository.LedgerNotificationRepository
	subscriber       NotificationSubscriber
}

func NewLedgerNotificationUsecase(
	db repository.DBTX,
	log *logrus.Logger,
	notificationRepo repository.LedgerNotificationRepository,
	subscriber NotificationSubscriber,
) LedgerNotificationUsecase {
	return &ledgerNotificationUsecase{
		db:               db,
		log:              log,
		notificationRepo: notificationRepo,
		subscriber:       subscriber,
	}
}

func (u *ledgerNotificationUsecase) GetMyNotifications(ctx context.Context, unreadOnly bool, page, limit int) (*dto.Page[dto.LedgerNotificationResponse], error) {
	userID, ok := middleware.GetLedgerUserID(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	page, limit = entity.NormalizePage(page, limit)
	notifications, total, err := u.notificationRepo.FindByUser(ctx, u.db, userID, unreadOnly, limit, entity.Offset(page, limit))
	if err != nil {
		u.log.Warnf("Failed to find ledger notifications: %+v", err)
		return nil, err
	}

	return dto.NewPage(converter.LedgerNotificationsToResponses(notifications), page, limit, total), nil
}

func (u *ledgerNotificationUsecase) MarkRead(ctx context.Context, id int64) error {
	userID, ok := middleware.GetLedgerUserID(ctx)
	if !ok {
		return ErrUnauthenticated
	}

	affected, err := u.notificationRepo.MarkRead(ctx, u.db, id, userID)
	if err != nil {
		u.log.Warnf("Failed to mark ledger notification read: %+v", err)
		return err
	}
	if affected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (u *ledgerNotificationUsecase) MarkAllRead(ctx context.Context) (int64, error) {
	userID, ok := middleware.GetLedgerUserID(ctx)
	if !ok {
		return 0, ErrUnauthenticated
	}

	affected, err := u.notificationRepo.MarkAllRead(ctx, u.db, userID)
	if err != nil {
		u.log.Warnf("Failed to mark ledger notifications read: %+v", err)
		return 0, err
	}
	return affected, nil
}

func (u *ledgerNotificationUsecase) UnreadCount(ctx context.Context) (int64, error) {
	userID, ok := middleware.GetLedgerUserID(ctx)
	if !ok {
		return 0, ErrUnauthenticated
	}

	count, err := u.notificationRepo.CountUnread(ctx, u.db, userID)
	if err != nil {
		u.log.Warnf("Failed to count unread ledger notifications: %+v", err)
		return 0, err
	}
	return count, nil
}

func (u *ledgerNotificationUsecase) Subscribe(ctx context.Context) (<-chan entity.LedgerNotification, func(), error) {
	userID, ok := middleware.GetLedgerUserID(ctx)
	if !ok {
		return nil, nil, ErrUnauthenticated
	}

	feed, unsubscribe := u.subscriber.Subscribe(userID)
	return feed, unsubscribe, nil
}
