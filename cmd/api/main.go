package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/bidline/crm-api/docs"
	"github.com/bidline/crm-api/internal/auth"
	"github.com/bidline/crm-api/internal/config"
	"github.com/bidline/crm-api/internal/database"
	"github.com/bidline/crm-api/internal/http/handler"
	"github.com/bidline/crm-api/internal/http/middleware"
	"github.com/bidline/crm-api/internal/http/router"
	"github.com/bidline/crm-api/internal/jobs"
	"github.com/bidline/crm-api/internal/logger"
	"github.com/bidline/crm-api/internal/mailbox"
	"github.com/bidline/crm-api/internal/repository"
	"github.com/bidline/crm-api/internal/service"
)

// @title Bidline CRM API
// @version 1.0
// @description Sales CRM for construction bids: accounts, contacts, opportunity pipeline, estimates and follow-up scheduling

// @contact.name API Support
// @contact.email support@bidline.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&cfg.Logging, &cfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Environment),
		zap.Int("port", cfg.App.Port),
	)

	docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", cfg.App.Port)

	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Schema migrations run via cmd/migrate; AutoMigrate only covers dev
	if cfg.App.Environment == "development" {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to auto-migrate: %w", err)
		}
	}

	// Initialize repositories
	accountRepo := repository.NewAccountRepository(db)
	contactRepo := repository.NewContactRepository(db)
	opportunityRepo := repository.NewOpportunityRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	estimateRepo := repository.NewEstimateRepository(db)
	suppressionRepo := repository.NewSuppressionRepository(db)
	weeklyNoteRepo := repository.NewWeeklyNoteRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Initialize services
	tokens := auth.NewTokenService(&cfg.Auth)
	validationService := service.NewValidationService(accountRepo, contactRepo, opportunityRepo, log)
	accountService := service.NewAccountService(accountRepo, opportunityRepo, validationService, log)
	contactService := service.NewContactService(contactRepo, activityRepo, validationService, log, db)
	opportunityService := service.NewOpportunityService(opportunityRepo, accountRepo, activityRepo, validationService, log, db)
	activityService := service.NewActivityService(activityRepo, opportunityRepo, contactRepo, log, db)
	taskService := service.NewTaskService(taskRepo, log)
	estimateService := service.NewEstimateService(estimateRepo, opportunityRepo, log, db)
	summaryService := service.NewSummaryService(opportunityRepo, activityRepo, suppressionRepo, taskRepo, weeklyNoteRepo, userRepo, log, db)
	userService := service.NewUserService(userRepo, tokens, log)

	// Initialize middleware
	authMiddleware := auth.NewMiddleware(tokens, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Initialize handlers
	accountHandler := handler.NewAccountHandler(accountService, contactService, log)
	contactHandler := handler.NewContactHandler(contactService, activityService, log)
	opportunityHandler := handler.NewOpportunityHandler(opportunityService, activityService, estimateService, taskService, log)
	activityHandler := handler.NewActivityHandler(activityService, log)
	taskHandler := handler.NewTaskHandler(taskService, log)
	estimateHandler := handler.NewEstimateHandler(estimateService, log)
	summaryHandler := handler.NewSummaryHandler(summaryService, log)
	authHandler := handler.NewAuthHandler(userService, log)

	// Setup router
	rt := router.NewRouter(
		cfg,
		log,
		db,
		authMiddleware,
		rateLimiter,
		accountHandler,
		contactHandler,
		opportunityHandler,
		activityHandler,
		taskHandler,
		estimateHandler,
		summaryHandler,
		authHandler,
	)

	// Start scheduler for the inbox sync job when a mailbox is configured
	var scheduler *jobs.Scheduler
	if cfg.EmailSync.Enabled && cfg.EmailSync.Mailbox != "" {
		source := mailbox.NewDirSource(cfg.EmailSync.Mailbox, log)
		emailSyncService := service.NewEmailSyncService(source, contactRepo, opportunityRepo, activityRepo, cfg.EmailSync.MaxBodyChars, log, db)

		scheduler = jobs.NewScheduler(log)
		cronExpr := fmt.Sprintf("0 */%d * * * *", cfg.EmailSync.IntervalMinutes)
		if err := jobs.RegisterEmailSyncJob(scheduler, emailSyncService, log, cronExpr, cfg.EmailSync.IntervalDuration()); err != nil {
			log.Error("Failed to register email sync job", zap.Error(err))
		} else {
			scheduler.Start()
			log.Info("Scheduler started with email sync job",
				zap.String("mailbox", cfg.EmailSync.Mailbox),
				zap.Int("interval_minutes", cfg.EmailSync.IntervalMinutes),
			)
		}
	} else {
		log.Info("Email sync disabled", zap.Bool("enabled", cfg.EmailSync.Enabled))
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			ctx := scheduler.Stop()
			<-ctx.Done()
			log.Info("Scheduler stopped")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
