// Package session tracks the authenticated users of this process. A Session
// is passed explicitly through the request context; components interested
// in profile changes subscribe to it instead of listening for global events.
package session

import (
	"context"
	"sync"

	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/google/uuid"
)

// Session holds the latest known state of one user.
type Session struct {
	mu     sync.RWMutex
	user   model.User
	subs   map[uint64]func(model.User)
	nextID uint64
}

func newSession(u model.User) *Session {
	return &Session{user: u, subs: make(map[uint64]func(model.User))}
}

// User returns a copy of the current user.
func (s *Session) User() model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Subscribe registers fn to receive every later update. The returned func
// removes the subscription; it is safe to call more than once.
func (s *Session) Subscribe(fn func(model.User)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Subscribers returns the number of active subscriptions.
func (s *Session) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

func (s *Session) set(u model.User) {
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
}

func (s *Session) update(u model.User) {
	s.mu.Lock()
	s.user = u
	fns := make([]func(model.User), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(u)
	}
}

// Manager owns the sessions of this process, one per user.
type Manager struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[uuid.UUID]*Session)}
}

// Attach returns the user's session, creating it when needed, and refreshes
// its snapshot without notifying subscribers.
func (m *Manager) Attach(u *model.User) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[u.ID]
	if !ok {
		s = newSession(*u)
		m.sessions[u.ID] = s
		return s
	}
	s.set(*u)
	return s
}

func (m *Manager) Get(id uuid.UUID) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Publish pushes an updated user to every subscriber of its session.
func (m *Manager) Publish(u *model.User) {
	s, ok := m.Get(u.ID)
	if !ok {
		return
	}
	s.update(*u)
}

// Forget drops the user's session if nobody is subscribed to it.
func (m *Manager) Forget(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok && s.Subscribers() == 0 {
		delete(m.sessions, id)
	}
}

type ctxKey struct{}

// NewContext returns ctx carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored by NewContext.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok
}
