package handler

import (
	"testing"
	"time"

	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/dangerclosesec/pathway/internal/session"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestUserKeepsNewest(t *testing.T) {
	l := newLatestUser()
	for _, name := range []string{"Ada", "Grace", "Hedy"} {
		l.offer(model.User{FirstName: name})
	}

	select {
	case u := <-l.ch:
		assert.Equal(t, "Hedy", u.FirstName)
	default:
		t.Fatal("expected a pending user")
	}
	assert.Empty(t, l.ch)
}

func TestProfilePublishDoesNotWaitForStream(t *testing.T) {
	sessions := session.NewManager()
	user := &model.User{ID: uuid.New(), FirstName: "Ada"}
	s := sessions.Attach(user)

	// Nobody drains the slot, as with a client that stopped reading.
	l := newLatestUser()
	unsubscribe := s.Subscribe(l.offer)
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			sessions.Publish(user)
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publishing blocked on an unread stream")
	}
	require.Len(t, l.ch, 1)
}
