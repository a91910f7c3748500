// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dangerclosesec/pathway"
	"github.com/dangerclosesec/pathway/internal/admission"
	"github.com/dangerclosesec/pathway/internal/audit"
	"github.com/dangerclosesec/pathway/internal/auth"
	"github.com/dangerclosesec/pathway/internal/config"
	"github.com/dangerclosesec/pathway/internal/email"
	"github.com/dangerclosesec/pathway/internal/handler"
	"github.com/dangerclosesec/pathway/internal/live"
	"github.com/dangerclosesec/pathway/internal/middleware"
	"github.com/dangerclosesec/pathway/internal/notify"
	"github.com/dangerclosesec/pathway/internal/queue"
	"github.com/dangerclosesec/pathway/internal/repository"
	"github.com/dangerclosesec/pathway/internal/service"
	"github.com/dangerclosesec/pathway/internal/session"
	"github.com/dangerclosesec/pathway/internal/storage"

	"github.com/redis/go-redis/v9"
	"github.com/rollbar/rollbar-go"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "startup error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Initialize structured logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   a.Key,
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	}))
	slog.SetDefault(log)

	// Load configuration
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Rollbar.Token != "" {
		rollbar.SetToken(cfg.Rollbar.Token)
		rollbar.SetEnvironment(cfg.Environment)
		defer rollbar.Close()
	}

	// Initialize database
	db, err := setupDatabase(cfg)
	if err != nil {
		return fmt.Errorf("setting up database: %w", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	factorRepo := repository.NewUserFactorRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	offeringRepo := repository.NewOfferingRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	eventRepo := repository.NewApplicationEventRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	documentRepo := repository.NewDocumentRepository(db)

	// Optional shared cache and rate limiting
	var redisClient redis.UniversalClient
	var limiter middleware.Limiter = middleware.NewRateLimiter()
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable, continuing with degraded cache", "addr", cfg.Redis.Addr, "error", err)
		}
		redisClient = client
		limiter = middleware.NewRedisLimiter(client, "pathway")
	}

	// Initialize cache service
	cacheService := service.NewCacheService(service.CacheConfig{
		TTL:         cfg.Cache.TTL,
		CleanupFreq: cfg.Cache.CleanupFreq,
		Redis:       redisClient,
		Prefix:      "pathway:",
	})
	defer cacheService.Close()

	// Initialize auth services
	passwordHasher := auth.NewPasswordHasher()
	tokenManager := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.ExpiryPeriod)
	sessions := session.NewManager()

	// Initialize email service
	emailService, err := email.NewEmailService(cfg, email.Provider(cfg.Email.Provider))
	if err != nil {
		return fmt.Errorf("initializing email service: %w", err)
	}

	// Optional application event stream
	var events queue.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer := queue.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		events = producer
	}

	// Optional document storage
	var store storage.Store
	if cfg.Cloudinary.URL != "" {
		c, err := storage.NewCloudinary(cfg.Cloudinary.URL)
		if err != nil {
			return fmt.Errorf("initializing document storage: %w", err)
		}
		store = c
	} else {
		log.Warn("CLOUDINARY_URL not set, document uploads are disabled")
	}

	userService := service.NewUserService(
		userRepo,
		service.NewUserFactorService(factorRepo, passwordHasher),
		tokenManager,
		emailService,
		cacheService,
		sessions,
		cfg,
	)

	dispatcher := notify.NewDispatcher(userRepo, offeringRepo, notificationRepo, cfg.BaseURL,
		notify.WithMail(emailService),
		notify.WithOrganizations(orgRepo),
		notify.WithEvents(events),
		notify.WithLogger(log),
	)

	lifecycleOpts := []admission.Option{
		admission.WithJournal(audit.NewJournal(eventRepo)),
		admission.WithNotifier(dispatcher),
		admission.WithLogger(log),
	}
	appOpts := []service.ApplicationOption{
		service.WithReceivedNotifier(dispatcher),
		service.WithEventHistory(eventRepo),
	}

	// Optional relationship based authorization
	if cfg.Permify.Enabled {
		permify, err := auth.NewPermifyService(cfg.Permify.Host, auth.WithTenant(cfg.Permify.Tenant))
		if err != nil {
			return fmt.Errorf("connecting to permify: %w", err)
		}
		version, err := permify.WriteSchema(ctx, pathway.PermifySchema)
		if err != nil {
			return fmt.Errorf("writing permify schema: %w", err)
		}
		log.Info("permify schema written", "version", version)

		authorizer := auth.NewAuthorizer(permify)
		lifecycleOpts = append(lifecycleOpts, admission.WithAuthorizer(authorizer))
		appOpts = append(appOpts, service.WithApplicationRecorder(authorizer))
		userService.SetMembershipRecorder(authorizer)
	}

	lifecycle := admission.NewManager(applicationRepo, lifecycleOpts...)

	// Live queries are fed by the database trigger on applications
	broker := live.NewBroker(log)
	listener := live.NewPGListener(databaseDSN(cfg), cfg.Live.Channel, broker, log)
	go func() {
		if err := listener.Run(ctx); err != nil {
			log.Error("live listener stopped", "error", err)
		}
	}()

	applicationService := service.NewApplicationService(applicationRepo, offeringRepo, lifecycle, broker, log, appOpts...)

	closer := service.NewOfferingCloser(offeringRepo, cacheService, cfg.Closer.Interval, log)
	closer.SetBatchSize(cfg.Closer.BatchSize)
	closer.SetDryRun(cfg.Closer.DryRun)
	closer.Start()
	defer closer.Stop()

	router := handler.NewRouter(handler.RouterConfig{
		Logger:         log,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		ReportPanics:   cfg.Rollbar.Token != "",
		TokenManager:   tokenManager,
		Sessions:       sessions,
		Limiter:        limiter,
		ApplyLimit:     cfg.RateLimit.Applications,
		ApplyWindow:    cfg.RateLimit.Window,
		Users:          userService,
		Offerings:      service.NewOfferingService(offeringRepo, cacheService),
		Applications:   applicationService,
		Notifications:  service.NewNotificationService(notificationRepo),
		Documents:      service.NewDocumentService(documentRepo, store, cfg.Cloudinary.Folder),
		Organizations:  service.NewOrganizationService(orgRepo),
		Reports:        service.NewReportService(applicationRepo, userRepo, offeringRepo, orgRepo),
	})

	// Create server
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Server error channel
	serverErrors := make(chan error, 1)

	// Start server
	go func() {
		log.Info("server starting", "port", cfg.Server.Port)
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for shutdown or error
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case <-ctx.Done():
		log.Info("shutdown started")

		// Give outstanding requests a deadline for completion
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// Gracefully shutdown the server
		if err := srv.Shutdown(shutdownCtx); err != nil {
			// If shutdown times out, forcefully close
			srv.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}

func databaseDSN(cfg *config.Config) string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s search_path=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Name,
		cfg.Database.SSLMode,
		cfg.Database.SearchPath,
	)
}

func setupDatabase(cfg *config.Config) (*gorm.DB, error) {
	logLevel := logger.Info
	if cfg.Production() {
		logLevel = logger.Warn
	}

	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(postgres.Open(databaseDSN(cfg)), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting database instance: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnLifetime)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}
