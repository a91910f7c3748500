// internal/handler/auth.go
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dangerclosesec/pathway/internal/domain"
	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/dangerclosesec/pathway/internal/service"
	chmw "github.com/go-chi/chi/v5/middleware"
)

type AuthHandler struct {
	userService *service.UserService
}

func NewAuthHandler(userService *service.UserService) *AuthHandler {
	return &AuthHandler{userService: userService}
}

type SignupResponse struct {
	BaseResponse
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

func (h *AuthHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	// Parses the request body
	var input service.SignupInput
	if !decodeJSON(w, r, &input) {
		return
	}

	// Calls the service layer to handle the signup
	output, err := h.userService.Signup(r.Context(), input)
	if err != nil {
		respondWithServiceError(w, r, "User registration error", err)
		return
	}

	// Returns successful response
	respondWithJSON(w, http.StatusCreated, SignupResponse{
		BaseResponse: BaseResponse{Ok: true},
		User:         output.User,
		Token:        output.Token,
	})
}

type LoginStatus string

const (
	LoginStatusSuccess LoginStatus = "success"
	LoginStatusFailed  LoginStatus = "login_failed"
)

type LoginResponse struct {
	BaseResponse
	Status LoginStatus `json:"status"`
	User   *model.User `json:"user,omitempty"`
	Token  string      `json:"token,omitempty"`
	Error  string      `json:"error,omitempty"`
}

func (h *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var input service.LoginInput
	if !decodeJSON(w, r, &input) {
		return
	}

	output, err := h.userService.Login(r.Context(), input)
	if err != nil {
		slog.ErrorContext(r.Context(), "User login error", "error", err, "requestID", chmw.GetReqID(r.Context()))
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			respondWithJSON(w, http.StatusUnauthorized, LoginResponse{
				Status: LoginStatusFailed,
				Error:  "Invalid email or password",
			})
		case errors.Is(err, domain.ErrAccountSuspended):
			respondWithJSON(w, http.StatusForbidden, LoginResponse{
				Status: LoginStatusFailed,
				Error:  "Account suspended",
			})
		default:
			respondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, LoginResponse{
		BaseResponse: BaseResponse{Ok: true},
		Status:       LoginStatusSuccess,
		User:         output.User,
		Token:        output.Token,
	})
}

func (h *AuthHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.userService.Logout(r.Context(), service.LogoutInput{UserID: user.ID}); err != nil {
		respondWithServiceError(w, r, "User logout error", err)
		return
	}

	expiration := time.Now().Add(-1 * time.Hour)
	cookie := http.Cookie{Name: "token", Value: "", Expires: expiration}

	http.SetCookie(w, &cookie)

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "User logged out successfully"})
}

func (h *AuthHandler) VerifyHandler(w http.ResponseWriter, r *http.Request) {
	var input service.VerifyInput

	query := r.URL.Query()
	input.Code = query.Get("code")
	input.UserID = query.Get("user")

	if err := h.userService.VerifyEmail(r.Context(), input); err != nil {
		respondWithServiceError(w, r, "User verification error", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "User verified successfully"})
}

func (h *AuthHandler) ResendVerificationHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.userService.ResendVerification(r.Context(), user.ID); err != nil {
		respondWithServiceError(w, r, "Resend verification error", err)
		return
	}

	respondWithJSON(w, http.StatusAccepted, map[string]string{"message": "Verification email sent"})
}

// MeHandler returns the authenticated identity.
func (h *AuthHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	subject, err := h.userService.CurrentSubject(r.Context(), user.ID)
	if err != nil {
		respondWithServiceError(w, r, "Current user lookup error", err)
		return
	}
	respondWithData(w, http.StatusOK, subject)
}

func (h *AuthHandler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input service.UpdateProfileInput
	if !decodeJSON(w, r, &input) {
		return
	}

	updated, err := h.userService.UpdateProfile(r.Context(), user.ID, input)
	if err != nil {
		respondWithServiceError(w, r, "Profile update error", err)
		return
	}
	respondWithData(w, http.StatusOK, updated)
}
