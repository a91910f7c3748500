// internal/handler/offering.go
package handler

import (
	"net/http"

	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/dangerclosesec/pathway/internal/service"
	"github.com/google/uuid"
)

type OfferingHandler struct {
	offerings *service.OfferingService
}

func NewOfferingHandler(offerings *service.OfferingService) *OfferingHandler {
	return &OfferingHandler{offerings: offerings}
}

// List returns offerings filtered by the organization_id, kind, status and
// q query parameters.
func (h *OfferingHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	input := service.ListOfferingsInput{
		Kind:   model.OfferingKind(q.Get("kind")),
		Status: model.OfferingStatus(q.Get("status")),
		Search: q.Get("q"),
		Offset: queryInt(r, "offset", 0),
		Limit:  queryInt(r, "limit", 0),
	}
	if raw := q.Get("organization_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid organization_id")
			return
		}
		input.OrganizationID = &id
	}

	out, err := h.offerings.List(r.Context(), input)
	if err != nil {
		respondWithServiceError(w, r, "Offering listing error", err)
		return
	}
	respondWithJSON(w, http.StatusOK, ListResponse{BaseResponse: BaseResponse{Ok: true}, Data: out.Offerings, Total: out.Total})
}

func (h *OfferingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	offering, err := h.offerings.Get(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, "Offering lookup error", err)
		return
	}
	respondWithData(w, http.StatusOK, offering)
}

func (h *OfferingHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _, ok := currentActor(w, r)
	if !ok {
		return
	}

	var input service.OfferingInput
	if !decodeJSON(w, r, &input) {
		return
	}

	offering, err := h.offerings.Create(r.Context(), actor, input)
	if err != nil {
		respondWithServiceError(w, r, "Offering creation error", err)
		return
	}
	respondWithData(w, http.StatusCreated, offering)
}

func (h *OfferingHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, _, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var input service.OfferingInput
	if !decodeJSON(w, r, &input) {
		return
	}

	offering, err := h.offerings.Update(r.Context(), actor, id, input)
	if err != nil {
		respondWithServiceError(w, r, "Offering update error", err)
		return
	}
	respondWithData(w, http.StatusOK, offering)
}

func (h *OfferingHandler) Close(w http.ResponseWriter, r *http.Request) {
	actor, _, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	offering, err := h.offerings.Close(r.Context(), actor, id)
	if err != nil {
		respondWithServiceError(w, r, "Offering close error", err)
		return
	}
	respondWithData(w, http.StatusOK, offering)
}

func (h *OfferingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.offerings.Delete(r.Context(), actor, id); err != nil {
		respondWithServiceError(w, r, "Offering deletion error", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
