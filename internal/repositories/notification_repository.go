package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"realtime-service/internal/models"
)

// NotificationRepository persists per-recipient event records.
type NotificationRepository interface {
	Create(ctx context.Context, n models.Notification) (models.Notification, error)
	ListForUser(ctx context.Context, recipientID int) ([]models.Notification, error)
	MarkRead(ctx context.Context, notificationID int, recipientID int) error
	MarkAllRead(ctx context.Context, recipientID int) (int, error)
}

// NotificationRepo is a sqlx implementation of NotificationRepository.
type NotificationRepo struct {
	db *sqlx.DB
}

// NewNotificationRepo constructs a NotificationRepo.
func NewNotificationRepo(db *sqlx.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

// Create inserts one notification row. No deduplication or batching: each
// triggering event produces exactly one row.
func (r *NotificationRepo) Create(ctx context.Context, n models.Notification) (models.Notification, error) {
	var stored models.Notification
	err := r.db.QueryRowxContext(ctx, `INSERT INTO notifications (recipient_id, type, title, message, related_id)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, recipient_id, type, title, message, related_id, is_read, created_at`,
		n.RecipientID, n.Type, n.Title, n.Message, n.RelatedID).
		StructScan(&stored)
	return stored, err
}

// ListForUser returns the recipient's notifications, newest first.
func (r *NotificationRepo) ListForUser(ctx context.Context, recipientID int) ([]models.Notification, error) {
	var list []models.Notification
	err := r.db.SelectContext(ctx, &list, `SELECT id, recipient_id, type, title, message, related_id, is_read, created_at
        FROM notifications WHERE recipient_id=$1 ORDER BY created_at DESC, id DESC`, recipientID)
	return list, err
}

// MarkRead flags one notification as read, scoped to its recipient.
func (r *NotificationRepo) MarkRead(ctx context.Context, notificationID int, recipientID int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id=$1 AND recipient_id=$2`, notificationID, recipientID)
	return err
}

// MarkAllRead flags every unread notification for the recipient.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, recipientID int) (int, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE recipient_id=$1 AND is_read = FALSE`, recipientID)
	if err != nil {
		return 0, err
	}
	count, err := res.RowsAffected()
	return int(count), err
}
