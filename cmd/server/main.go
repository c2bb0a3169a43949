package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/iho/oilledger/internal/adapter/http"
	"github.com/iho/oilledger/internal/adapter/http/handler"
	"github.com/iho/oilledger/internal/adapter/http/middleware"
	"github.com/iho/oilledger/internal/adapter/repository/memory"
	redisRepo "github.com/iho/oilledger/internal/adapter/repository/redis"
	"github.com/iho/oilledger/internal/app"
	"github.com/iho/oilledger/internal/infrastructure/auth"
	"github.com/iho/oilledger/internal/infrastructure/config"
	"github.com/iho/oilledger/internal/infrastructure/logger"
	"github.com/iho/oilledger/internal/infrastructure/metrics"
	"github.com/iho/oilledger/internal/infrastructure/postgres"
	"github.com/iho/oilledger/internal/infrastructure/redis"
	"github.com/iho/oilledger/internal/usecase"
)

const (
	limiterCleanupInterval = time.Minute
	limiterMaxIdle         = 10 * time.Minute
	tokenLifetime          = 12 * time.Hour
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}

	log.Info().Msg("server stopped")
}

// application is the assembled server with the resources it must release.
type application struct {
	handler     http.Handler
	rateLimiter *middleware.RateLimiter
	closers     []func()
}

func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// setup connects the backing services and builds the HTTP handler.
func setup(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*application, error) {
	a := &application{}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	var (
		repos  app.Repositories
		checks []handler.ReadinessCheck
	)

	switch cfg.StoreDriver {
	case config.StoreMemory:
		log.Warn().Msg("using in-memory store, data is lost on restart")
		repos = app.MemoryRepositories(memory.NewStore())

	default:
		if cfg.MigrateOnStart {
			if err := postgres.RunMigrations(cfg.DatabaseURL, log); err != nil {
				return nil, fmt.Errorf("run migrations: %w", err)
			}
		}

		pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
			DatabaseURL: cfg.DatabaseURL,
			MaxConns:    cfg.DatabaseMaxConns,
			MinConns:    cfg.DatabaseMinConns,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		log.Info().Msg("connected to postgres")

		repos = app.PostgresRepositories(pool, cfg.DatabaseLockTimeout)
		checks = append(checks, handler.ReadinessCheck{Name: "postgres", Check: pool.Ping})
	}

	var (
		idempotencyStore usecase.IdempotencyStore
		cache            usecase.Cache
	)
	if cfg.RedisEnabled {
		client, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		log.Info().Msg("connected to redis")

		idempotencyStore = redisRepo.NewIdempotencyStore(client)
		cache = redisRepo.NewCache(client)
		checks = append(checks, handler.ReadinessCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return client.Ping(ctx).Err() },
		})
	} else {
		idempotencyStore = memory.NewIdempotencyStore()
		cache = memory.NewCache()
	}

	var jwtManager *auth.JWTManager
	if cfg.AuthEnabled {
		jwtManager = auth.NewJWTManager(cfg.JWTSecret, tokenLifetime)
	} else {
		log.Warn().Msg("authentication disabled, requests run as the system actor")
	}

	if cfg.RateLimitRPS > 0 {
		a.rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)
	}

	s := app.NewServices(repos, app.Options{
		FreightRate:    cfg.FreightRatePerUnit,
		Logger:         log,
		Metrics:        m,
		Cache:          cache,
		ActivityWindow: cfg.ActivityReadWindow,
	})

	a.handler = httpAdapter.NewRouter(httpAdapter.RouterConfig{
		ClientHandler:    handler.NewClientHandler(s.Clients, s.Statements),
		DriverHandler:    handler.NewDriverHandler(s.Drivers),
		OilTypeHandler:   handler.NewOilTypeHandler(s.OilTypes),
		SaleHandler:      handler.NewSaleHandler(s.Commerce),
		PurchaseHandler:  handler.NewPurchaseHandler(s.Commerce),
		MovementHandler:  handler.NewMovementHandler(s.Movements),
		TreasuryHandler:  handler.NewTreasuryHandler(s.Treasury),
		LedgerHandler:    handler.NewLedgerHandler(s.Ledger, s.Reconciliation, s.Allocator),
		ActivityHandler:  handler.NewActivityHandler(s.Activity),
		HealthHandler:    handler.NewHealthHandler(checks...),
		JWTManager:       jwtManager,
		ActivityRecorder: s.Activity,
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		RateLimiter:      a.rateLimiter,
		Metrics:          m,
		MetricsHandler:   promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		CORSOrigins:      cfg.CORSOrigins,
		Logger:           log,
	})

	return a, nil
}

// run serves HTTP until ctx ends, then shuts down gracefully.
func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	a, err := setup(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      a.handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("port", cfg.HTTPPort).Str("store", cfg.StoreDriver).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if a.rateLimiter != nil {
		g.Go(func() error {
			ticker := time.NewTicker(limiterCleanupInterval)
			defer ticker.Stop()

			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					if n := a.rateLimiter.CleanupLimiters(limiterMaxIdle); n > 0 {
						log.Debug().Int("removed", n).Msg("dropped idle rate limiters")
					}
				}
			}
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
