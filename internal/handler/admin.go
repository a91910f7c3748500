// internal/handler/admin.go
package handler

import (
	"net/http"

	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/dangerclosesec/pathway/internal/service"
)

// AdminHandler serves the administrator endpoints. Routes are expected to
// sit behind middleware.RequireRole(model.RoleAdmin).
type AdminHandler struct {
	users         *service.UserService
	organizations *service.OrganizationService
	documents     *service.DocumentService
	reports       *service.ReportService
}

func NewAdminHandler(
	users *service.UserService,
	organizations *service.OrganizationService,
	documents *service.DocumentService,
	reports *service.ReportService,
) *AdminHandler {
	return &AdminHandler{
		users:         users,
		organizations: organizations,
		documents:     documents,
		reports:       reports,
	}
}

func (h *AdminHandler) Report(w http.ResponseWriter, r *http.Request) {
	report, err := h.reports.Platform(r.Context())
	if err != nil {
		respondWithServiceError(w, r, "Platform report error", err)
		return
	}
	respondWithData(w, http.StatusOK, report)
}

func (h *AdminHandler) OrganizationReport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	summary, err := h.reports.Organization(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, "Organization report error", err)
		return
	}
	respondWithData(w, http.StatusOK, summary)
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	viewer, ok := currentUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	out, err := h.users.ListUsers(r.Context(), service.ListUsersInput{
		Role:   model.Role(q.Get("role")),
		Status: model.UserStatus(q.Get("status")),
		Offset: queryInt(r, "offset", 0),
		Limit:  queryInt(r, "limit", 0),
	})
	if err != nil {
		respondWithServiceError(w, r, "User listing error", err)
		return
	}
	respondWithUsers(w, r, viewer, http.StatusOK, out.Users, &out.Total)
}

type StatusRequest struct {
	Status string `json:"status"`
}

func (h *AdminHandler) SetUserStatus(w http.ResponseWriter, r *http.Request) {
	viewer, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req StatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.SetStatus(r.Context(), id, model.UserStatus(req.Status))
	if err != nil {
		respondWithServiceError(w, r, "User status error", err)
		return
	}
	respondWithUsers(w, r, viewer, http.StatusOK, user, nil)
}

func (h *AdminHandler) ListOrganizations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := h.organizations.List(r.Context(), service.ListOrganizationsInput{
		OrgType: model.OrganizationType(q.Get("type")),
		Status:  model.OrganizationStatus(q.Get("status")),
		Offset:  queryInt(r, "offset", 0),
		Limit:   queryInt(r, "limit", 0),
	})
	if err != nil {
		respondWithServiceError(w, r, "Organization listing error", err)
		return
	}
	respondWithJSON(w, http.StatusOK, ListResponse{BaseResponse: BaseResponse{Ok: true}, Data: out.Organizations, Total: out.Total})
}

func (h *AdminHandler) SetOrganizationStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req StatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	org, err := h.organizations.SetStatus(r.Context(), id, model.OrganizationStatus(req.Status))
	if err != nil {
		respondWithServiceError(w, r, "Organization status error", err)
		return
	}
	respondWithData(w, http.StatusOK, org)
}

func (h *AdminHandler) VerifyDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.documents.Verify(r.Context(), id); err != nil {
		respondWithServiceError(w, r, "Document verification error", err)
		return
	}
	respondWithJSON(w, http.StatusOK, BaseResponse{Ok: true})
}
