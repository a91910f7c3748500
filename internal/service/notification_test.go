package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dangerclosesec/pathway/internal/domain"
	"github.com/dangerclosesec/pathway/internal/mocks"
	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/dangerclosesec/pathway/internal/repository"
	"github.com/dangerclosesec/pathway/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestNotificationList(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("passes filter and page through", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockNotificationRepositoryIface(ctrl)
		svc := service.NewNotificationService(repo)

		found := []*model.Notification{{ID: uuid.New(), UserID: userID, Type: model.NotificationAdmission}}
		repo.EXPECT().
			FindByUser(ctx, userID,
				repository.NotificationFilter{UnreadOnly: true, Type: model.NotificationAdmission},
				repository.Page{Offset: 10, Limit: 5}).
			Return(found, nil)
		repo.EXPECT().CountUnread(ctx, userID).Return(int64(3), nil)

		out, err := svc.List(ctx, userID, service.ListNotificationsInput{
			UnreadOnly: true,
			Type:       model.NotificationAdmission,
			Offset:     10,
			Limit:      5,
		})
		require.NoError(t, err)
		assert.Equal(t, found, out.Notifications)
		assert.Equal(t, int64(3), out.Unread)
	})

	t.Run("unknown type", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := service.NewNotificationService(mocks.NewMockNotificationRepositoryIface(ctrl))

		_, err := svc.List(ctx, userID, service.ListNotificationsInput{Type: "billing"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("store failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockNotificationRepositoryIface(ctrl)
		svc := service.NewNotificationService(repo)

		repo.EXPECT().FindByUser(ctx, userID, gomock.Any(), gomock.Any()).
			Return(nil, domain.ErrStoreUnavailable)

		_, err := svc.List(ctx, userID, service.ListNotificationsInput{})
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	})
}

func TestNotificationMarkAndDelete(t *testing.T) {
	ctx := context.Background()
	userID, id := uuid.New(), uuid.New()

	ctrl := gomock.NewController(t)
	repo := mocks.NewMockNotificationRepositoryIface(ctrl)
	svc := service.NewNotificationService(repo)

	repo.EXPECT().MarkRead(ctx, userID, id).Return(nil)
	repo.EXPECT().MarkAllRead(ctx, userID).Return(int64(4), nil)
	repo.EXPECT().Delete(ctx, userID, id).Return(domain.ErrNotFound)

	require.NoError(t, svc.MarkRead(ctx, userID, id))

	n, err := svc.MarkAllRead(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	err = svc.Delete(ctx, userID, id)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
