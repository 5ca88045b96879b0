package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dharmateja03/GoodTurkey/internal/auth"
	"github.com/dharmateja03/GoodTurkey/internal/background"
	"github.com/dharmateja03/GoodTurkey/internal/config"
	"github.com/dharmateja03/GoodTurkey/internal/database"
	"github.com/dharmateja03/GoodTurkey/internal/handlers"
	middlewareCustom "github.com/dharmateja03/GoodTurkey/internal/middleware"
	"github.com/dharmateja03/GoodTurkey/internal/repositories"
	"github.com/dharmateja03/GoodTurkey/internal/routes"
	"github.com/dharmateja03/GoodTurkey/internal/services"
	"github.com/dharmateja03/GoodTurkey/pkg/clock"
	pkglogger "github.com/dharmateja03/GoodTurkey/pkg/logger"
	"github.com/dharmateja03/GoodTurkey/pkg/policy"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Server.SlogLevel()}))
	slog.SetDefault(logger)

	logger.Info("configuration loaded",
		slog.String("env", cfg.Server.Env),
		slog.Duration("unlock_delay", cfg.Policy.UnlockDelay),
		slog.String("schedule_timezone", cfg.Policy.Location.String()))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if cfg.Database.RunMigrations {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		err := db.Migrate(ctx)
		cancel()
		if err != nil {
			logger.Error("failed to run migrations", slog.Any("error", err))
			os.Exit(1)
		}
	}

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	siteRepo := repositories.NewSiteRepository(db)
	windowRepo := repositories.NewWindowRepository(db)
	categoryRepo := repositories.NewCategoryRepository(db)

	// Access attempts are buffered and written in batches
	attempts := background.NewAttemptFlusher(siteRepo, logger, cfg.Policy.AttemptFlushInterval)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
	auditLogger := pkglogger.NewAuditLogger(logger)

	// Schedules are evaluated in the configured zone
	clk := clock.InLocation{Clock: clock.RealClock{}, Location: cfg.Policy.Location}
	lifecycle := policy.NewLifecycle(cfg.Policy.UnlockDelay)

	// Initialize services
	authService := services.NewAuthService(userRepo, tokenManager, logger, auditLogger)
	authService.SetFailurePadder(auth.DefaultFailureDelay)
	siteService := services.NewSiteService(siteRepo, windowRepo, categoryRepo, attempts, lifecycle, clk, logger, auditLogger)
	windowService := services.NewWindowService(windowRepo, logger)
	categoryService := services.NewCategoryService(categoryRepo, logger)
	syncService := services.NewSyncService(siteRepo, windowRepo, clk, logger)

	// Setup CORS middleware
	corsConfig := middlewareCustom.DefaultCORSConfig()
	corsConfig.AllowedOrigins = cfg.Server.AllowedOrigins

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(cfg.Server.WriteTimeout))

	routes.RegisterRoutes(router, routes.Handlers{
		Auth:       handlers.NewAuthHandler(authService, nil),
		Sites:      handlers.NewSiteHandler(siteService),
		Windows:    handlers.NewWindowHandler(windowService),
		Categories: handlers.NewCategoryHandler(categoryService),
		Sync:       handlers.NewSyncHandler(syncService),
	}, tokenManager)

	router.Get("/health", handlers.Health(db))

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start attempt flushing
	flushCtx, flushCancel := context.WithCancel(context.Background())
	defer flushCancel()

	go attempts.Start(flushCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	}

	// Stop after the server so in-flight checks are counted.
	attempts.Stop()

	logger.Info("server stopped gracefully")
}
