// internal/handler/organization.go
package handler

import (
	"net/http"

	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/dangerclosesec/pathway/internal/service"
)

type OrganizationHandler struct {
	organizations *service.OrganizationService
	users         *service.UserService
}

func NewOrganizationHandler(organizations *service.OrganizationService, users *service.UserService) *OrganizationHandler {
	return &OrganizationHandler{organizations: organizations, users: users}
}

func (h *OrganizationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	org, err := h.organizations.Get(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, "Organization lookup error", err)
		return
	}
	respondWithData(w, http.StatusOK, org)
}

func (h *OrganizationHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, _, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var input service.UpdateOrganizationInput
	if !decodeJSON(w, r, &input) {
		return
	}

	org, err := h.organizations.Update(r.Context(), actor, id, input)
	if err != nil {
		respondWithServiceError(w, r, "Organization update error", err)
		return
	}
	respondWithData(w, http.StatusOK, org)
}

type Member struct {
	Role string      `json:"role"`
	User *model.User `json:"user"`
}

// Members lists the organization's users. Contact fields are filtered for
// the viewer.
func (h *OrganizationHandler) Members(w http.ResponseWriter, r *http.Request) {
	actor, viewer, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	memberships, err := h.organizations.Members(r.Context(), actor, id)
	if err != nil {
		respondWithServiceError(w, r, "Organization members error", err)
		return
	}

	users := make([]*model.User, 0, len(memberships))
	for _, m := range memberships {
		u, err := h.users.CurrentUser(r.Context(), m.UserID)
		if err != nil {
			respondWithServiceError(w, r, "Organization member lookup error", err)
			return
		}
		users = append(users, u)
	}
	total := int64(len(users))
	respondWithUsers(w, r, viewer, http.StatusOK, users, &total)
}
