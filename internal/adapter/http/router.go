package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/iho/oilledger/internal/adapter/http/handler"
	"github.com/iho/oilledger/internal/adapter/http/middleware"
	"github.com/iho/oilledger/internal/domain"
	"github.com/iho/oilledger/internal/infrastructure/auth"
	"github.com/iho/oilledger/internal/infrastructure/metrics"
	"github.com/iho/oilledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	ClientHandler   *handler.ClientHandler
	DriverHandler   *handler.DriverHandler
	OilTypeHandler  *handler.OilTypeHandler
	SaleHandler     *handler.CommerceHandler
	PurchaseHandler *handler.CommerceHandler
	MovementHandler *handler.MovementHandler
	TreasuryHandler *handler.TreasuryHandler
	LedgerHandler   *handler.LedgerHandler
	ActivityHandler *handler.ActivityHandler
	HealthHandler   *handler.HealthHandler

	// JWTManager enables bearer authentication. Nil runs every request as
	// the system actor.
	JWTManager *auth.JWTManager
	// ActivityRecorder, when set, records every authenticated API request.
	ActivityRecorder middleware.ActivityRecorder
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
	Metrics          *metrics.Metrics
	MetricsHandler   http.Handler
	CORSOrigins      []string
	Logger           zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", middleware.IdempotencyKeyHeader},
			ExposedHeaders: []string{middleware.IdempotencyReplayHeader, "Retry-After"},
			MaxAge:         300,
		}))
	}
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Operational endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(cfg.JWTManager))
		if cfg.ActivityRecorder != nil {
			r.Use(middleware.Activity(cfg.ActivityRecorder))
		}

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotency := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger, cfg.Metrics)
			r.Use(idempotency.Wrap)
		}

		read := middleware.RequireCapability(domain.CapViewReports)
		del := middleware.RequireCapability(domain.CapDeleteRecords)

		r.Route("/clients", func(r chi.Router) {
			r.With(read).Get("/", cfg.ClientHandler.List)
			r.With(read).Get("/{id}", cfg.ClientHandler.Get)
			r.With(read).Get("/{id}/statement", cfg.ClientHandler.Statement)
			r.With(middleware.RequireCapability(domain.CapViewLedger)).
				Get("/{id}/balance-logs", cfg.LedgerHandler.SubjectLogs(domain.SubjectClient))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireCapability(domain.CapManageClients))
				r.Post("/", cfg.ClientHandler.Create)
				r.Put("/{id}", cfg.ClientHandler.Update)
			})
			r.With(middleware.RequireCapability(domain.CapAdjustBalances)).
				Put("/{id}/balance", cfg.ClientHandler.AdjustBalance)
		})

		r.Route("/drivers", func(r chi.Router) {
			r.With(read).Get("/", cfg.DriverHandler.List)
			r.With(read).Get("/{id}", cfg.DriverHandler.Get)
			r.With(middleware.RequireCapability(domain.CapViewLedger)).
				Get("/{id}/balance-logs", cfg.LedgerHandler.SubjectLogs(domain.SubjectDriver))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireCapability(domain.CapManageVehicles))
				r.Post("/", cfg.DriverHandler.Create)
				r.Put("/{id}", cfg.DriverHandler.Update)
			})
		})

		r.Route("/oil-types", func(r chi.Router) {
			r.With(read).Get("/", cfg.OilTypeHandler.List)
			r.With(read).Get("/{id}", cfg.OilTypeHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireCapability(domain.CapManageCommerce))
				r.Post("/", cfg.OilTypeHandler.Create)
				r.Put("/{id}", cfg.OilTypeHandler.Update)
			})
		})

		for path, h := range map[string]*handler.CommerceHandler{
			"/sales":     cfg.SaleHandler,
			"/purchases": cfg.PurchaseHandler,
		} {
			r.Route(path, func(r chi.Router) {
				r.With(read).Get("/", h.List)
				r.With(read).Get("/{id}", h.Get)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireCapability(domain.CapManageCommerce))
					r.Post("/", h.Create)
					r.Put("/{id}", h.Update)
				})
				r.With(del).Delete("/{id}", h.Delete)
			})
		}

		r.Route("/vehicle-movements", func(r chi.Router) {
			r.With(read).Get("/", cfg.MovementHandler.List)
			r.With(read).Get("/{id}", cfg.MovementHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireCapability(domain.CapManageVehicles))
				r.Post("/", cfg.MovementHandler.Create)
				r.Put("/{id}", cfg.MovementHandler.Update)
			})
			r.With(del).Delete("/{id}", cfg.MovementHandler.Delete)
		})
		r.With(read).Get("/freight-estimate", cfg.MovementHandler.EstimateFreight)

		r.Route("/treasury/movements", func(r chi.Router) {
			r.With(read).Get("/", cfg.TreasuryHandler.List)
			r.With(middleware.RequireCapability(domain.CapManageTreasury)).Post("/", cfg.TreasuryHandler.Post)
		})

		r.Route("/ledger", func(r chi.Router) {
			r.With(middleware.RequireCapability(domain.CapAdjustBalances)).
				Post("/balance-changes", cfg.LedgerHandler.ApplyChange)
			r.With(middleware.RequireCapability(domain.CapViewLedger)).
				Get("/verify", cfg.LedgerHandler.Verify)
		})

		r.With(middleware.RequireCapability(domain.CapAllocateIDs)).
			Post("/sequences/{prefix}/next", cfg.LedgerHandler.NextID)

		if cfg.ActivityHandler != nil {
			r.With(middleware.RequireCapability(domain.CapViewActivity)).
				Get("/activity", cfg.ActivityHandler.List)
		}
	})

	return r
}
