package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/colegio-altavista/portal-api/internal/models"
)

// NotificationRepository provides database access for broadcast
// notifications.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository creates a new instance of NotificationRepository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a notification.
func (r *NotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	if notification.SentAt.IsZero() {
		notification.SentAt = time.Now().UTC()
	}
	const query = `INSERT INTO notifications (id, message, audience, author_id, sent_at)
VALUES (:id, :message, :audience, :author_id, :sent_at)`
	if _, err := r.db.NamedExecContext(ctx, query, notification); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// ListRecentForAudience returns the newest notifications addressed to
// everyone or to the given segment.
func (r *NotificationRepository) ListRecentForAudience(ctx context.Context, audience models.NotificationAudience, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 5
	}
	query := fmt.Sprintf(`SELECT id, message, audience, author_id, sent_at
FROM notifications
WHERE audience = $1 OR audience = $2
ORDER BY sent_at DESC
LIMIT %d`, limit)
	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, models.NotificationAudienceAll, audience); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// List returns all notifications newest first, paginated.
func (r *NotificationRepository) List(ctx context.Context, page, pageSize int) ([]models.Notification, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`SELECT id, message, audience, author_id, sent_at
FROM notifications ORDER BY sent_at DESC LIMIT %d OFFSET %d`, pageSize, offset)
	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, query); err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM notifications`); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}
	return notifications, total, nil
}
