package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dangerclosesec/pathway/internal/admission"
	"github.com/dangerclosesec/pathway/internal/domain"
	"github.com/dangerclosesec/pathway/internal/middleware"
	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/dangerclosesec/pathway/internal/serializer"
	"github.com/go-chi/chi/v5"
	chmw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type ErrorResponse struct { // TypeGen: ErrorResponse
	BaseResponse
	Error   string    `json:"error"`
	Details *[]string `json:"details,omitempty"`
	Code    *string   `json:"error_code,omitempty"`
	Link    *string   `json:"error_link,omitempty"`
}

type BaseResponse struct { // TypeGen: DefaultResponse
	Ok bool `json:"ok"`
}

// DataResponse wraps a successful payload.
type DataResponse struct {
	BaseResponse
	Data any `json:"data"`
}

// ListResponse wraps a page of results.
type ListResponse struct {
	BaseResponse
	Data  any   `json:"data"`
	Total int64 `json:"total"`
}

// respondWithError sends an error response with a message
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

// respondWithErrorCode sends an error response carrying a machine readable code
func respondWithErrorCode(w http.ResponseWriter, code int, message, errorCode string) {
	respondWithJSON(w, code, ErrorResponse{Error: message, Code: &errorCode})
}

// respondWithJSON sends a JSON response
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	// Sets content type header
	w.Header().Set("Content-Type", "application/json")

	// Sets the HTTP status code
	w.WriteHeader(code)

	// Encodes the response
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// If encoding fails, logs the error and sends a plain text response
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

func respondWithData(w http.ResponseWriter, code int, data any) {
	respondWithJSON(w, code, DataResponse{BaseResponse: BaseResponse{Ok: true}, Data: data})
}

// respondWithUsers renders users for viewer, hiding fields viewer may not see.
func respondWithUsers(w http.ResponseWriter, r *http.Request, viewer *model.User, code int, users any, total *int64) {
	data, err := serializer.Sanitize(viewer, users)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to serialize users", "error", err, "requestID", chmw.GetReqID(r.Context()))
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if total != nil {
		respondWithJSON(w, code, ListResponse{BaseResponse: BaseResponse{Ok: true}, Data: data, Total: *total})
		return
	}
	respondWithData(w, code, data)
}

// errorStatus maps a domain error to the HTTP status and code reported to
// clients. Unknown errors are reported as 500.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrPasswordTooWeak),
		errors.Is(err, domain.ErrPasswordsDoNotMatch),
		errors.Is(err, domain.ErrInvalidVerificationCode),
		errors.Is(err, domain.ErrVerificationExpired),
		errors.Is(err, domain.ErrAlreadyVerified),
		errors.Is(err, domain.ErrInvalidRole):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrNotAuthorized):
		return http.StatusForbidden, "not_authorized"
	case errors.Is(err, domain.ErrEmailNotVerified):
		return http.StatusForbidden, "email_not_verified"
	case errors.Is(err, domain.ErrAccountSuspended):
		return http.StatusForbidden, "account_suspended"
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrOrganizationNotFound),
		errors.Is(err, domain.ErrOfferingNotFound),
		errors.Is(err, domain.ErrApplicationNotFound),
		errors.Is(err, domain.ErrNotificationNotFound),
		errors.Is(err, domain.ErrDocumentNotFound),
		errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrAlreadyApplied):
		return http.StatusConflict, "already_applied"
	case errors.Is(err, domain.ErrOrganizationLimitReached):
		return http.StatusConflict, "organization_limit_reached"
	case errors.Is(err, domain.ErrStaleState):
		return http.StatusConflict, "stale_state"
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		return http.StatusConflict, "email_exists"
	case errors.Is(err, domain.ErrOfferingClosed):
		return http.StatusUnprocessableEntity, "offering_closed"
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusUnprocessableEntity, "invalid_transition"
	case errors.Is(err, domain.ErrInvalidDeadline):
		return http.StatusUnprocessableEntity, "invalid_deadline"
	case errors.Is(err, domain.ErrStoreUnavailable), errors.Is(err, domain.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "unavailable"
	}
	return http.StatusInternalServerError, "internal"
}

// respondWithServiceError logs err and reports it to the client. Internal
// errors are not echoed back.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status, code := errorStatus(err)
	slog.ErrorContext(r.Context(), msg, "error", err, "status", status, "requestID", chmw.GetReqID(r.Context()))

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "Internal server error"
	} else if status == http.StatusServiceUnavailable {
		message = "Service temporarily unavailable"
	}
	respondWithErrorCode(w, status, message, code)
}

// decodeJSON parses the request body into v, reporting bad payloads itself.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	return true
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// currentUser returns the authenticated user, or reports 401.
func currentUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Not authenticated")
		return nil, false
	}
	return &user, true
}

func currentActor(w http.ResponseWriter, r *http.Request) (admission.Actor, *model.User, bool) {
	user, ok := currentUser(w, r)
	if !ok {
		return admission.Actor{}, nil, false
	}
	return admission.ActorFromUser(user), user, true
}

// queryInt reads a non-negative integer query parameter.
func queryInt(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < 0 {
		return def
	}
	return v
}
