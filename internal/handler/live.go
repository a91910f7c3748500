// internal/handler/live.go
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dangerclosesec/pathway/internal/live"
	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/dangerclosesec/pathway/internal/service"
	"github.com/dangerclosesec/pathway/internal/session"
	chmw "github.com/go-chi/chi/v5/middleware"
)

const (
	heartbeatInterval  = 25 * time.Second
	streamWriteTimeout = 10 * time.Second
)

// LiveHandler streams application views and profile updates as server-sent
// events.
type LiveHandler struct {
	applications *service.ApplicationService
	heartbeat    time.Duration
	writeTimeout time.Duration
}

func NewLiveHandler(applications *service.ApplicationService) *LiveHandler {
	return &LiveHandler{applications: applications, heartbeat: heartbeatInterval, writeTimeout: streamWriteTimeout}
}

type sseEvent struct {
	name string
	data any
}

// latestUser holds at most one pending user. Offering a newer user replaces
// the pending one, so publishers never wait on a slow stream.
type latestUser struct {
	ch chan model.User
}

func newLatestUser() *latestUser {
	return &latestUser{ch: make(chan model.User, 1)}
}

func (l *latestUser) offer(u model.User) {
	for {
		select {
		case l.ch <- u:
			return
		default:
		}
		select {
		case <-l.ch:
		default:
		}
	}
}

// Stream sends a "snapshot" event with the current applications in scope,
// an "applications" event after every relevant change and a "profile" event
// whenever the user's own record changes. The stream ends when the client
// disconnects.
func (h *LiveHandler) Stream(w http.ResponseWriter, r *http.Request) {
	actor, _, ok := currentActor(w, r)
	if !ok {
		return
	}

	rc := http.NewResponseController(w)
	// Each write gets its own deadline instead of the server-wide one, so a
	// long stream survives and a client that stops reading is dropped.
	extend := func() {
		if err := rc.SetWriteDeadline(time.Now().Add(h.writeTimeout)); err != nil && !errors.Is(err, http.ErrNotSupported) {
			slog.WarnContext(r.Context(), "failed to set write deadline", "error", err)
		}
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	events := make(chan sseEvent, 8)
	push := func(e sseEvent) {
		select {
		case events <- e:
		case <-ctx.Done():
		}
	}

	sub, err := h.applications.Watch(ctx, actor, func(v live.View) {
		name := "applications"
		if v.Change == nil {
			name = "snapshot"
		}
		push(sseEvent{name: name, data: v})
	})
	if err != nil {
		respondWithServiceError(w, r, "Live query error", err)
		return
	}
	defer func() {
		// Release a handler blocked in push before waiting for it.
		cancel()
		sub.Unsubscribe()
	}()

	profiles := newLatestUser()
	if s, ok := session.FromContext(ctx); ok {
		unsubscribe := s.Subscribe(profiles.offer)
		defer unsubscribe()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	extend()
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		slog.WarnContext(ctx, "streaming not supported", "error", err, "requestID", chmw.GetReqID(ctx))
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Done():
			return
		case <-ticker.C:
			extend()
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		case u := <-profiles.ch:
			extend()
			if err := writeEvent(w, sseEvent{name: "profile", data: u}); err != nil {
				slog.DebugContext(ctx, "live stream closed", "error", err)
				return
			}
		case e := <-events:
			extend()
			if err := writeEvent(w, e); err != nil {
				slog.DebugContext(ctx, "live stream closed", "error", err)
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, e sseEvent) error {
	data, err := json.Marshal(e.data)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", e.name, err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.name, data)
	return err
}
