// internal/handler/application.go
package handler

import (
	"context"
	"net/http"

	"github.com/dangerclosesec/pathway/internal/admission"
	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/dangerclosesec/pathway/internal/repository"
	"github.com/dangerclosesec/pathway/internal/service"
	"github.com/google/uuid"
)

type ApplicationHandler struct {
	applications *service.ApplicationService
}

func NewApplicationHandler(applications *service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{applications: applications}
}

type ApplyRequest struct {
	OfferingID uuid.UUID `json:"offering_id"`
}

// TransitionRequest carries the event and the status the caller last saw.
type TransitionRequest struct {
	Event          admission.Event         `json:"event"`
	ExpectedStatus model.ApplicationStatus `json:"expected_status"`
}

type ApplicationResponse struct {
	BaseResponse
	Application   *model.Application `json:"application"`
	AllowedEvents []admission.Event  `json:"allowed_events"`
}

func (h *ApplicationHandler) Apply(w http.ResponseWriter, r *http.Request) {
	_, user, ok := currentActor(w, r)
	if !ok {
		return
	}

	var req ApplyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.OfferingID == uuid.Nil {
		respondWithError(w, http.StatusBadRequest, "offering_id is required")
		return
	}

	app, err := h.applications.Apply(r.Context(), user, req.OfferingID)
	if err != nil {
		respondWithServiceError(w, r, "Application submission error", err)
		return
	}
	respondWithApplication(w, http.StatusCreated, app)
}

func (h *ApplicationHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _, ok := currentActor(w, r)
	if !ok {
		return
	}

	apps, err := h.applications.List(r.Context(), actor, model.ApplicationStatus(r.URL.Query().Get("status")))
	if err != nil {
		respondWithServiceError(w, r, "Application listing error", err)
		return
	}
	respondWithJSON(w, http.StatusOK, ListResponse{BaseResponse: BaseResponse{Ok: true}, Data: apps, Total: int64(len(apps))})
}

func (h *ApplicationHandler) Summary(w http.ResponseWriter, r *http.Request) {
	actor, _, ok := currentActor(w, r)
	if !ok {
		return
	}

	summary, err := h.applications.Summary(r.Context(), actor)
	if err != nil {
		respondWithServiceError(w, r, "Application summary error", err)
		return
	}
	respondWithData(w, http.StatusOK, summary)
}

func (h *ApplicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	app, err := h.applications.Get(r.Context(), actor, id)
	if err != nil {
		respondWithServiceError(w, r, "Application lookup error", err)
		return
	}
	respondWithApplication(w, http.StatusOK, app)
}

// Review handles approve and reject by the owning organization.
func (h *ApplicationHandler) Review(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.applications.Review)
}

// Respond handles accept and decline by the applicant.
func (h *ApplicationHandler) Respond(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.applications.Respond)
}

type transitionFunc func(ctx context.Context, actor admission.Actor, id uuid.UUID, expected model.ApplicationStatus, event admission.Event) (*model.Application, error)

func (h *ApplicationHandler) transition(w http.ResponseWriter, r *http.Request, fn transitionFunc) {
	actor, _, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req TransitionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !req.Event.Valid() || !req.ExpectedStatus.Valid() {
		respondWithError(w, http.StatusBadRequest, "event and expected_status are required")
		return
	}

	app, err := fn(r.Context(), actor, id, req.ExpectedStatus, req.Event)
	if err != nil {
		respondWithServiceError(w, r, "Application transition error", err)
		return
	}
	respondWithApplication(w, http.StatusOK, app)
}

func (h *ApplicationHandler) History(w http.ResponseWriter, r *http.Request) {
	actor, _, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	events, total, err := h.applications.History(r.Context(), actor, id, repository.Page{
		Offset: queryInt(r, "offset", 0),
		Limit:  queryInt(r, "limit", 0),
	})
	if err != nil {
		respondWithServiceError(w, r, "Application history error", err)
		return
	}
	respondWithJSON(w, http.StatusOK, ListResponse{BaseResponse: BaseResponse{Ok: true}, Data: events, Total: total})
}

func (h *ApplicationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.applications.Delete(r.Context(), actor, id); err != nil {
		respondWithServiceError(w, r, "Application deletion error", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func respondWithApplication(w http.ResponseWriter, code int, app *model.Application) {
	events := admission.AllowedEvents(app)
	if events == nil {
		events = []admission.Event{}
	}
	respondWithJSON(w, code, ApplicationResponse{
		BaseResponse:  BaseResponse{Ok: true},
		Application:   app,
		AllowedEvents: events,
	})
}
