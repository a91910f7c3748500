package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dangerclosesec/pathway/internal/auth"
	"github.com/dangerclosesec/pathway/internal/domain"
	"github.com/dangerclosesec/pathway/internal/middleware"
	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/dangerclosesec/pathway/internal/session"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userTable map[uuid.UUID]*model.User

func (t userTable) CurrentUser(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := t[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

type failingLoader struct{}

func (failingLoader) CurrentUser(context.Context, uuid.UUID) (*model.User, error) {
	return nil, errors.New("connection refused")
}

func echoUser(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := middleware.UserFromContext(r.Context())
		require.True(t, ok)
		w.Write([]byte(u.ID.String()))
	})
}

func TestAuthMiddleware(t *testing.T) {
	tm := auth.NewTokenManager("test_secret", time.Hour)
	student := &model.User{ID: uuid.New(), Email: "s@example.com", Role: model.RoleStudent, Status: model.StatusActive}
	locked := &model.User{ID: uuid.New(), Email: "l@example.com", Role: model.RoleStudent, Status: model.StatusLocked}
	users := userTable{student.ID: student, locked.ID: locked}
	sessions := session.NewManager()

	token := func(u *model.User) string {
		tok, err := tm.Generate(u.ID.String(), u.Email, string(u.Role))
		require.NoError(t, err)
		return tok
	}
	h := middleware.AuthMiddleware(tm, users, sessions)(echoUser(t))

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token(student))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, student.ID.String(), rec.Body.String())

		_, ok := sessions.Get(student.ID)
		assert.True(t, ok, "session attached")
	})

	t.Run("query token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/?access_token="+token(student), nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Token abc")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("foreign signature", func(t *testing.T) {
		other := auth.NewTokenManager("another_secret", time.Hour)
		tok, err := other.Generate(student.ID.String(), student.Email, "student")
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("locked account", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token(locked))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		ghost := &model.User{ID: uuid.New(), Email: "g@example.com", Role: model.RoleStudent}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token(ghost))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("store failure", func(t *testing.T) {
		failing := middleware.AuthMiddleware(tm, failingLoader{}, sessions)(echoUser(t))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token(student))
		rec := httptest.NewRecorder()
		failing.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	tm := auth.NewTokenManager("test_secret", time.Hour)
	admin := &model.User{ID: uuid.New(), Email: "a@example.com", Role: model.RoleAdmin, Status: model.StatusActive}
	student := &model.User{ID: uuid.New(), Email: "s@example.com", Role: model.RoleStudent, Status: model.StatusActive}
	users := userTable{admin.ID: admin, student.ID: student}

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := middleware.AuthMiddleware(tm, users, session.NewManager())(middleware.RequireRole(model.RoleAdmin)(ok))

	for _, tc := range []struct {
		user *model.User
		want int
	}{
		{admin, http.StatusNoContent},
		{student, http.StatusForbidden},
	} {
		tok, err := tm.Generate(tc.user.ID.String(), tc.user.Email, string(tc.user.Role))
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, tc.want, rec.Code, string(tc.user.Role))
	}
}
