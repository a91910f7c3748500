// internal/middleware/auth.go
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dangerclosesec/pathway/internal/auth"
	"github.com/dangerclosesec/pathway/internal/domain"
	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/dangerclosesec/pathway/internal/session"
	"github.com/google/uuid"
)

type UserContextKey string

var UserIDKey UserContextKey = "pathway_user_id"

// SubjectLoader resolves the user behind a validated token.
type SubjectLoader interface {
	CurrentUser(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// AuthMiddleware validates the bearer token, loads the user and attaches
// their session to the request context. EventSource clients cannot set
// headers, so an access_token query parameter is accepted as well.
func AuthMiddleware(tokenManager *auth.TokenManager, users SubjectLoader, sessions *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				respondWithError(w, http.StatusUnauthorized, "No authorization header")
				return
			}

			claims, err := tokenManager.Validate(token)
			if err != nil {
				respondWithError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			userID, err := uuid.Parse(claims.UserID)
			if err != nil {
				respondWithError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			user, err := users.CurrentUser(r.Context(), userID)
			if err != nil {
				if errors.Is(err, domain.ErrUserNotFound) {
					respondWithError(w, http.StatusUnauthorized, "Invalid token")
					return
				}
				slog.ErrorContext(r.Context(), "loading authenticated user", "error", err, "user_id", userID)
				respondWithError(w, http.StatusServiceUnavailable, "Service unavailable")
				return
			}

			switch user.Status {
			case model.StatusLocked, model.StatusSuspended:
				respondWithError(w, http.StatusForbidden, "Account "+string(user.Status))
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, user.ID.String())
			ctx = session.NewContext(ctx, sessions.Attach(user))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if t := r.URL.Query().Get("access_token"); t != "" {
			return t, true
		}
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// UserFromContext returns the authenticated user's current snapshot.
func UserFromContext(ctx context.Context) (model.User, bool) {
	s, ok := session.FromContext(ctx)
	if !ok {
		return model.User{}, false
	}
	return s.User(), true
}

// RequireRole rejects authenticated users whose role is not listed.
func RequireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				respondWithError(w, http.StatusUnauthorized, "Not authenticated")
				return
			}
			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			respondWithError(w, http.StatusForbidden, "Forbidden")
		})
	}
}

// respondWithError sends a JSON error response
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithJSON sends a JSON response
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}
