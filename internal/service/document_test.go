package service_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/dangerclosesec/pathway/internal/domain"
	"github.com/dangerclosesec/pathway/internal/mocks"
	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/dangerclosesec/pathway/internal/service"
	"github.com/dangerclosesec/pathway/internal/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type memoryStore struct {
	objects   map[string][]byte
	uploadErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: make(map[string][]byte)}
}

func (m *memoryStore) Upload(_ context.Context, folder, name string, r io.Reader) (*storage.Object, error) {
	if m.uploadErr != nil {
		return nil, m.uploadErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	id := folder + "/" + name
	m.objects[id] = b
	return &storage.Object{URL: "https://files.test/" + id, PublicID: id, Bytes: len(b)}, nil
}

func (m *memoryStore) Delete(_ context.Context, publicID string) error {
	delete(m.objects, publicID)
	return nil
}

func TestDocumentUpload(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("stores and records", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockDocumentRepositoryIface(ctrl)
		store := newMemoryStore()
		svc := service.NewDocumentService(repo, store, "documents")

		repo.EXPECT().Create(ctx, gomock.Any()).Return(nil)

		doc, err := svc.Upload(ctx, userID, service.UploadDocumentInput{Name: "transcript.pdf", Type: model.DocumentTranscript}, strings.NewReader("%PDF"))
		require.NoError(t, err)
		assert.Equal(t, userID, doc.UserID)
		assert.Equal(t, model.DocumentPending, doc.Status)
		assert.Contains(t, doc.URL, userID.String())
		assert.Len(t, store.objects, 1)
	})

	t.Run("removes the upload when recording fails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockDocumentRepositoryIface(ctrl)
		store := newMemoryStore()
		svc := service.NewDocumentService(repo, store, "documents")

		repo.EXPECT().Create(ctx, gomock.Any()).Return(errors.New("insert failed"))

		_, err := svc.Upload(ctx, userID, service.UploadDocumentInput{Name: "id.png"}, strings.NewReader("png"))
		require.Error(t, err)
		assert.Empty(t, store.objects)
	})

	t.Run("storage not configured", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := service.NewDocumentService(mocks.NewMockDocumentRepositoryIface(ctrl), nil, "documents")

		_, err := svc.Upload(ctx, userID, service.UploadDocumentInput{Name: "cv.pdf"}, strings.NewReader("x"))
		assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	})

	t.Run("storage failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := newMemoryStore()
		store.uploadErr = errors.New("quota exceeded")
		svc := service.NewDocumentService(mocks.NewMockDocumentRepositoryIface(ctrl), store, "documents")

		_, err := svc.Upload(ctx, userID, service.UploadDocumentInput{Name: "cv.pdf"}, strings.NewReader("x"))
		assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	})

	t.Run("unknown type", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := service.NewDocumentService(mocks.NewMockDocumentRepositoryIface(ctrl), newMemoryStore(), "documents")

		_, err := svc.Upload(ctx, userID, service.UploadDocumentInput{Name: "a", Type: "passport-photo"}, strings.NewReader("x"))
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestDocumentDelete(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	doc := &model.Document{ID: uuid.New(), UserID: owner, PublicID: "documents/x/cv.pdf"}

	t.Run("owner deletes", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockDocumentRepositoryIface(ctrl)
		store := newMemoryStore()
		store.objects[doc.PublicID] = []byte("x")
		svc := service.NewDocumentService(repo, store, "documents")

		repo.EXPECT().FindByID(ctx, doc.ID).Return(doc, nil)
		repo.EXPECT().Delete(ctx, doc.ID).Return(nil)

		require.NoError(t, svc.Delete(ctx, owner, doc.ID))
		assert.Empty(t, store.objects)
	})

	t.Run("other users see not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockDocumentRepositoryIface(ctrl)
		svc := service.NewDocumentService(repo, newMemoryStore(), "documents")

		repo.EXPECT().FindByID(ctx, doc.ID).Return(doc, nil)

		err := svc.Delete(ctx, uuid.New(), doc.ID)
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	})
}
