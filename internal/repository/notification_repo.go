package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/pingmatch/ping/internal/db"
)

// NotificationRepository provides data access methods for the Notification model.
type NotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new repository bound to the given DB connection.
func NewNotificationRepository(database *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: database}
}

// Create inserts a single notification.
func (r *NotificationRepository) Create(ctx context.Context, n *db.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

// ListByUser returns the user's notifications, newest first.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID uint64, limit int) ([]db.Notification, error) {
	var notifications []db.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

// CountUnread counts the user's unread notifications.
func (r *NotificationRepository) CountUnread(ctx context.Context, userID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkAllRead flips every unread notification of the user to read.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID uint64) error {
	return r.db.WithContext(ctx).
		Model(&db.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
}

// ListUnreadWithSubscriptions returns unread notifications for users that
// have at least one push subscription, for the push sweep.
func (r *NotificationRepository) ListUnreadWithSubscriptions(ctx context.Context, limit int) ([]db.Notification, error) {
	var notifications []db.Notification
	err := r.db.WithContext(ctx).
		Where("is_read = ?", false).
		Where("user_id IN (?)", r.db.Model(&db.PushSubscription{}).Select("user_id")).
		Order("created_at ASC").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}
