// internal/service/notification.go
package service

import (
	"context"
	"fmt"

	"github.com/dangerclosesec/pathway/internal/domain"
	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/dangerclosesec/pathway/internal/repository"
	"github.com/google/uuid"
)

type NotificationService struct {
	repo repository.NotificationRepositoryIface
}

func NewNotificationService(repo repository.NotificationRepositoryIface) *NotificationService {
	return &NotificationService{repo: repo}
}

type ListNotificationsInput struct {
	UnreadOnly bool                   `json:"unread_only"`
	Type       model.NotificationType `json:"type"`
	Offset     int                    `json:"offset"`
	Limit      int                    `json:"limit"`
}

type ListNotificationsOutput struct {
	Notifications []*model.Notification `json:"notifications"`
	Unread        int64                 `json:"unread"`
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, input ListNotificationsInput) (*ListNotificationsOutput, error) {
	switch input.Type {
	case "", model.NotificationAdmission, model.NotificationJob, model.NotificationReminder,
		model.NotificationSystem, model.NotificationSuccess:
	default:
		return nil, fmt.Errorf("%w: unknown notification type %q", domain.ErrInvalidInput, input.Type)
	}

	notifications, err := s.repo.FindByUser(ctx, userID,
		repository.NotificationFilter{UnreadOnly: input.UnreadOnly, Type: input.Type},
		repository.Page{Offset: input.Offset, Limit: input.Limit},
	)
	if err != nil {
		return nil, err
	}

	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ListNotificationsOutput{Notifications: notifications, Unread: unread}, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, userID, id)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *NotificationService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.Delete(ctx, userID, id)
}
