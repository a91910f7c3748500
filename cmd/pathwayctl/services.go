package main

import (
	"log"

	"github.com/dangerclosesec/pathway/internal/auth"
	"github.com/dangerclosesec/pathway/internal/config"
	"github.com/dangerclosesec/pathway/internal/email"
	"github.com/dangerclosesec/pathway/internal/repository"
	"github.com/dangerclosesec/pathway/internal/service"
	"gorm.io/gorm"
)

// services is the subset of the API wiring the commands need. Nothing here
// starts background work except the cache janitor, stopped by close.
type services struct {
	cfg           *config.Config
	users         *service.UserService
	offerings     *service.OfferingService
	reports       *service.ReportService
	offeringRepo  *repository.OfferingRepository
	cache         *service.CacheService
	organizations *service.OrganizationService
}

func newServices(cfg *config.Config, db *gorm.DB, provider email.Provider) *services {
	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	offeringRepo := repository.NewOfferingRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)

	cache := service.NewCacheService(service.CacheConfig{
		TTL:         cfg.Cache.TTL,
		CleanupFreq: cfg.Cache.CleanupFreq,
		Prefix:      "pathway:",
	})

	emailService, err := email.NewEmailService(cfg, provider)
	if err != nil {
		log.Fatalf("Error initializing email service: %v", err)
	}

	users := service.NewUserService(
		userRepo,
		service.NewUserFactorService(repository.NewUserFactorRepository(db), auth.NewPasswordHasher()),
		auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.ExpiryPeriod),
		emailService,
		cache,
		nil,
		cfg,
	)

	return &services{
		cfg:           cfg,
		users:         users,
		offerings:     service.NewOfferingService(offeringRepo, cache),
		reports:       service.NewReportService(applicationRepo, userRepo, offeringRepo, orgRepo),
		offeringRepo:  offeringRepo,
		cache:         cache,
		organizations: service.NewOrganizationService(orgRepo),
	}
}

func (s *services) close() {
	s.cache.Close()
}
