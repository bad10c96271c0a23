package main

import (
	"context"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/webstack/auth-service/config"
	"github.com/webstack/auth-service/internal/core/credentials"
	"github.com/webstack/auth-service/internal/core/domain"
	"github.com/webstack/auth-service/internal/core/storage"
	"github.com/webstack/auth-service/internal/logger"
	logicv1 "github.com/webstack/auth-service/internal/logic/v1"
	webv1 "github.com/webstack/auth-service/internal/web/v1"
	"github.com/webstack/auth-service/middleware"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		panic("Configuration validation failed: " + err.Error())
	}

	logger.Setup(cfg.Logging.Level, cfg.IsProduction())

	log.Info().
		Str("service", cfg.Service.Name).
		Str("version", cfg.Service.Version).
		Str("env", cfg.Service.Env).
		Str("port", cfg.Service.Port).
		Msg("Service starting")

	// Initialize OpenTelemetry tracing
	var tp interface{ Shutdown(context.Context) error }
	if cfg.Tracing.Enabled {
		provider, err := middleware.InitTracing(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize tracing")
		} else {
			tp = provider
			log.Info().
				Str("endpoint", cfg.Tracing.Endpoint).
				Float64("sample_rate", cfg.Tracing.SampleRate).
				Msg("Tracing initialized")
		}
	} else {
		log.Info().Msg("Tracing disabled (TRACING_ENABLED=false)")
	}

	// Initialize Pyroscope profiling
	if cfg.Profiling.Enabled {
		if err := middleware.InitProfiling(cfg); err != nil {
			log.Warn().Err(err).Msg("Failed to initialize profiling")
		} else {
			log.Info().
				Str("endpoint", cfg.Profiling.Endpoint).
				Msg("Profiling initialized")
			defer middleware.StopProfiling()
		}
	} else {
		log.Info().Msg("Profiling disabled (PROFILING_ENABLED=false)")
	}

	// Select the storage backend: DATABASE_URL present selects Postgres,
	// absent selects the transient in-memory store.
	hasher := credentials.NewBcryptHasher(cfg.Auth.BcryptCost)
	tokens := credentials.NewRandomTokenSource()

	var store domain.Store
	var closeStore func()
	if cfg.UsePostgres() {
		pg, err := storage.OpenPostgres(context.Background(), cfg.Database.URL, hasher, tokens)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		pg.SetSessionLifetime(cfg.Auth.SessionLifetime)
		store = pg
		closeStore = pg.Close
		log.Info().Msg("Database connection pool established")
	} else {
		mem := storage.NewMemory(hasher, tokens)
		mem.SetSessionLifetime(cfg.Auth.SessionLifetime)
		store = mem
		closeStore = func() {}
		log.Warn().Msg("DATABASE_URL not set, using in-memory storage (data lost on restart)")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	var isShuttingDown atomic.Bool

	if cfg.Tracing.Enabled {
		r.Use(middleware.Tracing(cfg.Service.Name))
	}
	r.Use(middleware.Logging())
	r.Use(middleware.Prometheus())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Readiness check
	// Returns 503 once shutdown has started, to drain traffic before HTTP shutdown.
	r.GET("/ready", func(c *gin.Context) {
		if isShuttingDown.Load() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "shutting_down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Metrics endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Auth API
	authService := logicv1.NewAuthService(store)
	handler := webv1.NewHandler(authService, cfg.IsProduction(), cfg.Auth.SessionLifetime)
	handler.RegisterRoutes(r.Group("/api"))

	srv := &http.Server{
		Addr:    ":" + cfg.Service.Port,
		Handler: r,
	}

	go func() {
		log.Info().Str("port", cfg.Service.Port).Msg("Starting auth service")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	<-ctx.Done()
	log.Info().Msg("Shutdown signal received")

	// Fail readiness first and wait for propagation before closing the server.
	isShuttingDown.Store(true)
	if delay := cfg.Shutdown.ReadinessDrainDelay; delay > 0 {
		log.Info().Dur("delay", delay).Msg("Readiness drain delay started")
		time.Sleep(delay)
		log.Info().Dur("delay", delay).Msg("Readiness drain delay completed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
	defer cancel()

	log.Info().Dur("timeout", cfg.Shutdown.Timeout).Msg("Shutting down server...")

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		log.Info().Msg("HTTP server shutdown complete")
	}

	closeStore()
	log.Info().Msg("Storage closed")

	if tp != nil {
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Tracer shutdown error")
		} else {
			log.Info().Msg("Tracer shutdown complete")
		}
	}

	log.Info().Msg("Graceful shutdown complete")
}
