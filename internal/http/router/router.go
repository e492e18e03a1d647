package router

import (
	"encoding/json"
	"net/http"

	"github.com/bidline/crm-api/internal/auth"
	"github.com/bidline/crm-api/internal/config"
	"github.com/bidline/crm-api/internal/database"
	"github.com/bidline/crm-api/internal/http/handler"
	"github.com/bidline/crm-api/internal/http/middleware"
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/bidline/crm-api/docs" // Import generated swagger docs
)

type Router struct {
	cfg                *config.Config
	logger             *zap.Logger
	db                 *gorm.DB
	authMiddleware     *auth.Middleware
	rateLimiter        *middleware.RateLimiter
	accountHandler     *handler.AccountHandler
	contactHandler     *handler.ContactHandler
	opportunityHandler *handler.OpportunityHandler
	activityHandler    *handler.ActivityHandler
	taskHandler        *handler.TaskHandler
	estimateHandler    *handler.EstimateHandler
	summaryHandler     *handler.SummaryHandler
	authHandler        *handler.AuthHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	accountHandler *handler.AccountHandler,
	contactHandler *handler.ContactHandler,
	opportunityHandler *handler.OpportunityHandler,
	activityHandler *handler.ActivityHandler,
	taskHandler *handler.TaskHandler,
	estimateHandler *handler.EstimateHandler,
	summaryHandler *handler.SummaryHandler,
	authHandler *handler.AuthHandler,
) *Router {
	return &Router{
		cfg:                cfg,
		logger:             logger,
		db:                 db,
		authMiddleware:     authMiddleware,
		rateLimiter:        rateLimiter,
		accountHandler:     accountHandler,
		contactHandler:     contactHandler,
		opportunityHandler: opportunityHandler,
		activityHandler:    activityHandler,
		taskHandler:        taskHandler,
		estimateHandler:    estimateHandler,
		summaryHandler:     summaryHandler,
		authHandler:        authHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP) // Apply IP-based rate limiting globally

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Database health check (readiness probe with detailed stats)
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.HealthCheckWithStats(rt.db)
		if err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats": map[string]interface{}{
				"max_open_connections": stats.MaxOpenConnections,
				"open_connections":     stats.OpenConnections,
				"in_use":               stats.InUse,
				"idle":                 stats.Idle,
				"wait_count":           stats.WaitCount,
				"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
			},
		})
	})

	// Combined readiness check
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]interface{})
		allHealthy := true

		if err := database.HealthCheck(rt.db); err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			checks["database"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
			allHealthy = false
		} else {
			checks["database"] = map[string]interface{}{
				"status": "healthy",
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if allHealthy {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": map[bool]string{true: "healthy", false: "unhealthy"}[allHealthy],
			"checks": checks,
		})
	})

	// Swagger documentation
	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes (no auth required)
		r.Post("/auth/login", rt.authHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)
			r.Use(rt.rateLimiter.Limit)

			// Auth & users
			r.Get("/auth/me", rt.authHandler.Me)
			r.Route("/users", func(r chi.Router) {
				r.Get("/", rt.authHandler.ListUsers)
				r.With(rt.authMiddleware.RequireAdmin).Post("/", rt.authHandler.CreateUser)
				r.Get("/{id}", rt.authHandler.GetUser)
			})

			// Accounts
			r.Route("/accounts", func(r chi.Router) {
				r.Get("/", rt.accountHandler.ListAccounts)
				r.Post("/", rt.accountHandler.CreateAccount)
				r.Get("/search", rt.accountHandler.SearchAccounts)
				r.Get("/hot", rt.accountHandler.ListHotAccounts)
				r.Get("/{id}", rt.accountHandler.GetAccount)
				r.Put("/{id}", rt.accountHandler.UpdateAccount)
				r.Delete("/{id}", rt.accountHandler.DeleteAccount)
				r.Get("/{id}/contacts", rt.accountHandler.ListAccountContacts)
			})

			// Contacts
			r.Route("/contacts", func(r chi.Router) {
				r.Get("/", rt.contactHandler.ListContacts)
				r.Post("/", rt.contactHandler.CreateContact)
				r.Get("/search", rt.contactHandler.SearchContacts)
				r.Get("/due", rt.contactHandler.ListDueContacts)
				r.Get("/{id}", rt.contactHandler.GetContact)
				r.Put("/{id}", rt.contactHandler.UpdateContact)
				r.Delete("/{id}", rt.contactHandler.DeleteContact)
				r.Post("/{id}/log-contact", rt.contactHandler.LogContact)
				r.Get("/{id}/activities", rt.contactHandler.ListContactActivities)
			})

			// Opportunities
			r.Route("/opportunities", func(r chi.Router) {
				r.Get("/", rt.opportunityHandler.ListOpportunities)
				r.Post("/", rt.opportunityHandler.CreateOpportunity)
				r.Get("/pipeline", rt.opportunityHandler.GetPipeline)
				r.Get("/{id}", rt.opportunityHandler.GetOpportunity)
				r.Put("/{id}", rt.opportunityHandler.UpdateOpportunity)
				r.Delete("/{id}", rt.opportunityHandler.DeleteOpportunity)
				r.Put("/{id}/stage", rt.opportunityHandler.UpdateStage)
				r.Post("/{id}/log-contact", rt.opportunityHandler.LogContact)
				r.Get("/{id}/activities", rt.opportunityHandler.ListOpportunityActivities)
				r.Get("/{id}/estimates", rt.opportunityHandler.ListOpportunityEstimates)
				r.Get("/{id}/tasks", rt.opportunityHandler.ListOpportunityTasks)
			})

			// Activities
			r.Route("/activities", func(r chi.Router) {
				r.Post("/", rt.activityHandler.CreateActivity)
				r.Get("/{id}", rt.activityHandler.GetActivity)
				r.Put("/{id}", rt.activityHandler.UpdateActivity)
				r.Delete("/{id}", rt.activityHandler.DeleteActivity)
			})

			// Tasks
			r.Route("/tasks", func(r chi.Router) {
				r.Post("/", rt.taskHandler.CreateTask)
				r.Get("/mine", rt.taskHandler.ListMyTasks)
				r.Get("/{id}", rt.taskHandler.GetTask)
				r.Put("/{id}", rt.taskHandler.UpdateTask)
				r.Delete("/{id}", rt.taskHandler.DeleteTask)
				r.Post("/{id}/complete", rt.taskHandler.CompleteTask)
			})

			// Estimates
			r.Route("/estimates", func(r chi.Router) {
				r.Post("/", rt.estimateHandler.CreateEstimate)
				r.Get("/{id}", rt.estimateHandler.GetEstimate)
				r.Put("/{id}", rt.estimateHandler.UpdateEstimate)
				r.Delete("/{id}", rt.estimateHandler.DeleteEstimate)
				r.Post("/{id}/copy", rt.estimateHandler.CopyEstimate)
				r.Post("/{id}/line-items", rt.estimateHandler.AddLineItem)
				r.Put("/line-items/{itemId}", rt.estimateHandler.UpdateLineItem)
				r.Delete("/line-items/{itemId}", rt.estimateHandler.DeleteLineItem)
			})

			// Summaries
			r.Route("/summary", func(r chi.Router) {
				r.Get("/me", rt.summaryHandler.PersonalSummary)
				r.Get("/team", rt.summaryHandler.TeamSummary)
				r.Post("/suppress", rt.summaryHandler.SuppressOpportunity)
				r.Put("/notes", rt.summaryHandler.SaveWeeklyNotes)
			})
		})
	})

	return r
}
