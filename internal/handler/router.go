// internal/handler/router.go
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dangerclosesec/pathway/internal/auth"
	"github.com/dangerclosesec/pathway/internal/middleware"
	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/dangerclosesec/pathway/internal/service"
	"github.com/dangerclosesec/pathway/internal/session"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig carries everything the HTTP surface depends on. A nil Limiter
// disables rate limiting.
type RouterConfig struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	ReportPanics   bool

	TokenManager *auth.TokenManager
	Sessions     *session.Manager
	Limiter      middleware.Limiter
	ApplyLimit   int
	ApplyWindow  time.Duration

	Users         *service.UserService
	Offerings     *service.OfferingService
	Applications  *service.ApplicationService
	Notifications *service.NotificationService
	Documents     *service.DocumentService
	Organizations *service.OrganizationService
	Reports       *service.ReportService
}

// NewRouter builds the chi router for the public API.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	authHandler := NewAuthHandler(cfg.Users)
	offeringHandler := NewOfferingHandler(cfg.Offerings)
	applicationHandler := NewApplicationHandler(cfg.Applications)
	liveHandler := NewLiveHandler(cfg.Applications)
	notificationHandler := NewNotificationHandler(cfg.Notifications)
	documentHandler := NewDocumentHandler(cfg.Documents)
	organizationHandler := NewOrganizationHandler(cfg.Organizations, cfg.Users)
	adminHandler := NewAdminHandler(cfg.Users, cfg.Organizations, cfg.Documents, cfg.Reports)

	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestMeta)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Recovery(logger, cfg.ReportPanics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	authenticate := middleware.AuthMiddleware(cfg.TokenManager, cfg.Users, cfg.Sessions)

	r.Route("/api", func(r chi.Router) {
		// Live queries stay open, so they sit outside the request timeout.
		r.With(authenticate).Get("/applications/live", liveHandler.Stream)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(30 * time.Second))

			// Public routes
			r.Get("/auth/signup/verify", authHandler.VerifyHandler)
			r.Group(func(r chi.Router) {
				r.Use(chimw.AllowContentType("application/json"))
				r.Use(middleware.RateLimit(cfg.Limiter, middleware.IPKey("auth"), 20, time.Minute))

				r.Post("/auth/signup", authHandler.SignupHandler)
				r.Post("/auth/login", authHandler.LoginHandler)
			})

			r.Get("/offerings", offeringHandler.List)
			r.Get("/offerings/{id}", offeringHandler.Get)
			r.Get("/organizations/{id}", organizationHandler.Get)

			// Protected routes
			r.Group(func(r chi.Router) {
				r.Use(authenticate)

				r.Post("/auth/logout", authHandler.LogoutHandler)
				r.Post("/auth/verify/resend", authHandler.ResendVerificationHandler)
				r.Get("/me", authHandler.MeHandler)
				r.With(chimw.AllowContentType("application/json")).Patch("/me", authHandler.UpdateProfileHandler)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(model.RoleInstitute, model.RoleCompany, model.RoleAdmin))
					r.Post("/offerings", offeringHandler.Create)
					r.Put("/offerings/{id}", offeringHandler.Update)
					r.Post("/offerings/{id}/close", offeringHandler.Close)
					r.Delete("/offerings/{id}", offeringHandler.Delete)
				})

				r.With(
					middleware.RequireRole(model.RoleStudent),
					middleware.RateLimit(cfg.Limiter, middleware.UserKey("apply"), cfg.ApplyLimit, cfg.ApplyWindow),
				).Post("/applications", applicationHandler.Apply)
				r.Get("/applications", applicationHandler.List)
				r.Get("/applications/summary", applicationHandler.Summary)
				r.Get("/applications/{id}", applicationHandler.Get)
				r.Get("/applications/{id}/events", applicationHandler.History)
				r.Post("/applications/{id}/review", applicationHandler.Review)
				r.Post("/applications/{id}/respond", applicationHandler.Respond)
				r.Delete("/applications/{id}", applicationHandler.Delete)

				r.Route("/notifications", func(r chi.Router) {
					r.Get("/", notificationHandler.List)
					r.Get("/unread", notificationHandler.UnreadCount)
					r.Post("/read", notificationHandler.MarkAllRead)
					r.Post("/{id}/read", notificationHandler.MarkRead)
					r.Delete("/{id}", notificationHandler.Delete)
				})

				r.Route("/documents", func(r chi.Router) {
					r.Get("/", documentHandler.List)
					r.Post("/", documentHandler.Upload)
					r.Delete("/{id}", documentHandler.Delete)
				})

				r.Put("/organizations/{id}", organizationHandler.Update)
				r.Get("/organizations/{id}/members", organizationHandler.Members)

				r.Route("/admin", func(r chi.Router) {
					r.Use(middleware.RequireRole(model.RoleAdmin))
					r.Get("/report", adminHandler.Report)
					r.Get("/organizations", adminHandler.ListOrganizations)
					r.Get("/organizations/{id}/report", adminHandler.OrganizationReport)
					r.Put("/organizations/{id}/status", adminHandler.SetOrganizationStatus)
					r.Get("/users", adminHandler.ListUsers)
					r.Put("/users/{id}/status", adminHandler.SetUserStatus)
					r.Post("/documents/{id}/verify", adminHandler.VerifyDocument)
				})
			})
		})
	})

	return r
}
