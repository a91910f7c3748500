// internal/repository/notification.go
package repository

import (
	"context"
	"fmt"

	"github.com/dangerclosesec/pathway/internal/domain"
	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationFilter narrows a user's notification listing.
type NotificationFilter struct {
	UnreadOnly bool
	Type       model.NotificationType
}

type NotificationRepositoryIface interface {
	CreateBatch(ctx context.Context, notifications []*model.Notification) error
	FindByUser(ctx context.Context, userID uuid.UUID, filter NotificationFilter, page Page) ([]*model.Notification, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) CreateBatch(ctx context.Context, notifications []*model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&notifications).Error; err != nil {
		return fmt.Errorf("creating notifications: %w", err)
	}
	return nil
}

// FindByUser returns the user's notifications newest first.
func (r *NotificationRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter NotificationFilter, page Page) ([]*model.Notification, error) {
	var notifications []*model.Notification
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if filter.UnreadOnly {
		query = query.Where("read = ?", false)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if err := page.apply(query).Order("created_at DESC").Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("finding notifications: %w", err)
	}
	return notifications, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead flags one notification read. Notifications of other users are
// reported as not found.
func (r *NotificationRepository) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if result.Error != nil {
		return fmt.Errorf("marking notification read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true)
	if result.Error != nil {
		return 0, fmt.Errorf("marking notifications read: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *NotificationRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Notification{}, "id = ? AND user_id = ?", id, userID)
	if result.Error != nil {
		return fmt.Errorf("deleting notification: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}
