package session

import (
	"context"
	"testing"

	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerPublish(t *testing.T) {
	m := NewManager()
	u := &model.User{ID: uuid.New(), FirstName: "Ada", Role: model.RoleStudent}

	s := m.Attach(u)
	var got []string
	unsubscribe := s.Subscribe(func(u model.User) { got = append(got, u.FirstName) })

	updated := *u
	updated.FirstName = "Grace"
	m.Publish(&updated)
	assert.Equal(t, []string{"Grace"}, got)
	assert.Equal(t, "Grace", s.User().FirstName)

	unsubscribe()
	unsubscribe()
	updated.FirstName = "Linus"
	m.Publish(&updated)
	assert.Equal(t, []string{"Grace"}, got)
	assert.Equal(t, 0, s.Subscribers())
}

func TestAttachRefreshesWithoutNotifying(t *testing.T) {
	m := NewManager()
	u := &model.User{ID: uuid.New(), FirstName: "Ada"}
	s := m.Attach(u)

	calls := 0
	s.Subscribe(func(model.User) { calls++ })

	again := *u
	again.FirstName = "Ada L."
	assert.Same(t, s, m.Attach(&again))
	assert.Equal(t, 0, calls)
	assert.Equal(t, "Ada L.", s.User().FirstName)
}

func TestPublishUnknownUser(t *testing.T) {
	m := NewManager()
	m.Publish(&model.User{ID: uuid.New()})
	_, ok := m.Get(uuid.New())
	assert.False(t, ok)
}

func TestForgetKeepsSubscribedSessions(t *testing.T) {
	m := NewManager()
	u := &model.User{ID: uuid.New()}
	s := m.Attach(u)
	unsubscribe := s.Subscribe(func(model.User) {})

	m.Forget(u.ID)
	_, ok := m.Get(u.ID)
	assert.True(t, ok)

	unsubscribe()
	m.Forget(u.ID)
	_, ok = m.Get(u.ID)
	assert.False(t, ok)
}

func TestContext(t *testing.T) {
	m := NewManager()
	s := m.Attach(&model.User{ID: uuid.New()})

	ctx := NewContext(context.Background(), s)
	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, s, got)

	_, ok = FromContext(context.Background())
	assert.False(t, ok)
}
