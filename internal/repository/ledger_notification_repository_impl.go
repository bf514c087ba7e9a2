package repository

import (
	"context"
	"fmt"

	"medledger/internal/domain/entity"
	domainRepo "medledger/internal/domain/repository"
)

type ledgerNotificationRepository struct{}

func NewLedgerNotificationRepository() domainRepo.LedgerNotificationRepository {
	return &ledgerNotificationRepository{}
}

func (r *ledgerNotificationRepository) Create(ctx context.Context, q domainRepo.DBTX, n *entity.LedgerNotification) error {
	const query = `INSERT INTO ledger.notifications (user_id, title, message, type)
VALUES ($1, $2, $3, $4)
RETURNING id, is_read, created_at`

	return q.QueryRow(ctx, query, n.UserID, n.Title, n.Message, n.Type).Scan(&n.ID, &n.IsRead, &n.CreatedAt)
}

func (r *ledgerNotificationRepository) FindByUser(ctx context.Context, q domainRepo.DBTX, userID int64, unreadOnly bool, limit, offset int) ([]entity.LedgerNotification, int64, error) {
	const countQuery = `SELECT COUNT(*) FROM ledger.notifications WHERE user_id = $1 AND (NOT $2 OR NOT is_read)`
	const query = `SELECT id, user_id, title, message, type, is_read, created_at
FROM ledger.notifications
WHERE user_id = $1 AND (NOT $2 OR NOT is_read)
ORDER BY created_at DESC, id DESC
LIMIT $3 OFFSET $4`

	var total int64
	if err := q.QueryRow(ctx, countQuery, userID, unreadOnly).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	rows, err := q.Query(ctx, query, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []entity.LedgerNotification
	for rows.Next() {
		var n entity.LedgerNotification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, total, rows.Err()
}

func (r *ledgerNotificationRepository) MarkRead(ctx context.Context, q domainRepo.DBTX, id, userID int64) (int64, error) {
	tag, err := q.Exec(ctx, `UPDATE ledger.notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return 0, fmt.Errorf("mark notification read: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *ledgerNotificationRepository) MarkAllRead(ctx context.Context, q domainRepo.DBTX, userID int64) (int64, error) {
	tag, err := q.Exec(ctx, `UPDATE ledger.notifications SET is_read = TRUE WHERE user_id = $1 AND NOT is_read`, userID)
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *ledgerNotificationRepository) CountUnread(ctx context.Context, q domainRepo.DBTX, userID int64) (int64, error) {
	var count int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM ledger.notifications WHERE user_id = $1 AND NOT is_read`, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}
