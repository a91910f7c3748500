package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dangerclosesec/pathway/internal/mocks"
	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/dangerclosesec/pathway/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func expiredOfferings(n int) []*model.Offering {
	out := make([]*model.Offering, n)
	for i := range out {
		out[i] = &model.Offering{ID: uuid.New(), Title: "expired", Status: model.OfferingActive}
	}
	return out
}

func TestCloseExpired(t *testing.T) {
	ctx := context.Background()

	t.Run("closes in batches until a short page", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockOfferingRepositoryIface(ctrl)
		closer := service.NewOfferingCloser(repo, nil, time.Minute, nil)
		closer.SetBatchSize(2)

		gomock.InOrder(
			repo.EXPECT().FindExpired(ctx, gomock.Any(), 2).Return(expiredOfferings(2), nil),
			repo.EXPECT().Close(ctx, gomock.Len(2)).Return(int64(2), nil),
			repo.EXPECT().FindExpired(ctx, gomock.Any(), 2).Return(expiredOfferings(1), nil),
			repo.EXPECT().Close(ctx, gomock.Len(1)).Return(int64(1), nil),
		)

		n, err := closer.CloseExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("dry run changes nothing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockOfferingRepositoryIface(ctrl)
		closer := service.NewOfferingCloser(repo, nil, time.Minute, nil)
		closer.SetDryRun(true)

		repo.EXPECT().FindExpired(ctx, gomock.Any(), 100).Return(expiredOfferings(3), nil)

		n, err := closer.CloseExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("nothing expired", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockOfferingRepositoryIface(ctrl)
		closer := service.NewOfferingCloser(repo, nil, time.Minute, nil)

		repo.EXPECT().FindExpired(ctx, gomock.Any(), gomock.Any()).Return(nil, nil)

		n, err := closer.CloseExpired(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("query failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockOfferingRepositoryIface(ctrl)
		closer := service.NewOfferingCloser(repo, nil, time.Minute, nil)

		repo.EXPECT().FindExpired(ctx, gomock.Any(), gomock.Any()).Return(nil, errors.New("timeout"))

		_, err := closer.CloseExpired(ctx)
		assert.ErrorContains(t, err, "finding expired offerings")
	})
}

func TestOfferingCloserStartStop(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockOfferingRepositoryIface(ctrl)
	repo.EXPECT().FindExpired(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()

	closer := service.NewOfferingCloser(repo, nil, 10*time.Millisecond, nil)
	closer.Start()
	time.Sleep(30 * time.Millisecond)
	closer.Stop()
}
