// Package live pushes application views to subscribers whenever the
// underlying rows change.
package live

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dangerclosesec/pathway/internal/admission"
	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/google/uuid"
)

type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	// OpResync asks every subscription to reload because changes may have
	// been missed.
	OpResync Op = "resync"
)

// Change is one row-level change announced by the store.
type Change struct {
	Op             Op        `json:"op"`
	ID             uuid.UUID `json:"id"`
	ApplicantID    uuid.UUID `json:"applicant_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
}

// Filter scopes a subscription to one applicant or one organization. A zero
// Filter matches every change.
type Filter struct {
	ApplicantID    *uuid.UUID
	OrganizationID *uuid.UUID
}

func (f Filter) Matches(c Change) bool {
	if c.Op == OpResync {
		return true
	}
	if f.ApplicantID != nil && *f.ApplicantID != c.ApplicantID {
		return false
	}
	if f.OrganizationID != nil && *f.OrganizationID != c.OrganizationID {
		return false
	}
	return true
}

// Loader returns the complete current set for a filter.
type Loader func(ctx context.Context, f Filter) ([]model.Application, error)

// View is a recomputed, appliedAt-ordered snapshot. Change is nil for the
// initial snapshot.
type View struct {
	Applications []model.Application `json:"applications"`
	Summary      admission.Summary   `json:"summary"`
	Change       *Change             `json:"change,omitempty"`
}

// Handler receives views on the subscription's own goroutine. It must not
// call Unsubscribe; cancel the Watch context instead.
type Handler func(View)

const queueSize = 16

// Broker fans store changes out to subscriptions.
type Broker struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	logger *slog.Logger
}

func NewBroker(logger *slog.Logger) *Broker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broker{subs: make(map[uint64]*Subscription), logger: logger}
}

// Subscription is one live query.
type Subscription struct {
	id      uint64
	broker  *Broker
	filter  Filter
	loader  Loader
	handler Handler

	queue  chan Change
	cancel context.CancelFunc
	done   chan struct{}

	// deliverMu is held while the handler runs so Unsubscribe can wait for an
	// in-flight delivery.
	deliverMu sync.Mutex
	closed    atomic.Bool
	once      sync.Once
}

// Watch loads the initial snapshot, then delivers it and every later change
// matching filter until ctx is done or Unsubscribe is called.
func (b *Broker) Watch(ctx context.Context, filter Filter, loader Loader, handler Handler) (*Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription{
		broker:  b,
		filter:  filter,
		loader:  loader,
		handler: handler,
		queue:   make(chan Change, queueSize),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	// Register before loading so changes racing the snapshot are not lost.
	b.mu.Lock()
	s.id = b.nextID
	b.nextID++
	b.subs[s.id] = s
	b.mu.Unlock()

	initial, err := loader(ctx, filter)
	if err != nil {
		s.Unsubscribe()
		close(s.done)
		return nil, err
	}

	go s.run(ctx, initial)
	return s, nil
}

// Publish routes c to every matching subscription without blocking. When a
// subscriber is behind, the change is coalesced into the reload already
// queued for it.
func (b *Broker) Publish(c Change) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs {
		if !s.filter.Matches(c) {
			continue
		}
		select {
		case s.queue <- c:
		default:
			b.logger.Debug("live subscriber behind, coalescing change", "subscription", s.id, "application_id", c.ID)
		}
	}
}

// Resync queues a reload on every subscription, for when the change feed
// was interrupted and announcements may have been lost.
func (b *Broker) Resync() {
	b.Publish(Change{Op: OpResync})
}

// Active returns the number of registered subscriptions.
func (b *Broker) Active() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Broker) remove(id uint64) {
	b.mu.Lock()
	delete(b.subs, id)
	b.mu.Unlock()
}

func (s *Subscription) run(ctx context.Context, initial []model.Application) {
	defer close(s.done)
	defer s.Unsubscribe()

	s.deliver(initial, nil)

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-s.queue:
			if s.closed.Load() {
				return
			}
			c = s.drain(c)
			apps, err := s.loader(ctx, s.filter)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.broker.logger.Warn("live reload failed", "subscription", s.id, "error", err)
				continue
			}
			change := c
			s.deliver(apps, &change)
		}
	}
}

// drain empties the queue so a burst of changes costs one reload. The view
// reports the last change of the burst.
func (s *Subscription) drain(last Change) Change {
	for {
		select {
		case c := <-s.queue:
			last = c
		default:
			return last
		}
	}
}

func (s *Subscription) deliver(apps []model.Application, c *Change) {
	admission.SortByAppliedAt(apps)
	view := View{Applications: apps, Summary: admission.Aggregate(apps), Change: c}

	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	if s.closed.Load() {
		return
	}
	s.handler(view)
}

// Unsubscribe stops delivery. When it returns no handler call is running and
// none will start; queued changes are discarded.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.closed.Store(true)
		s.broker.remove(s.id)
		s.cancel()
	})
	s.deliverMu.Lock()
	s.deliverMu.Unlock()
}

// Done is closed once the subscription goroutine has exited.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}
