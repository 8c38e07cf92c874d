package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"library_management/internal/config"
	"library_management/internal/handler"
	"library_management/internal/metrics"
	"library_management/internal/notify"
	"library_management/internal/repository"
	"library_management/internal/service"
	"library_management/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, relying on environment variables")
	}

	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database Connection ---
	dbPool, err := config.ConnectDB(ctx, cfg.DB)
	if err != nil {
		slog.Error("failed to connect to database", "err", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	// --- Auto Migration ---
	if err := config.AutoMigrate(ctx, dbPool); err != nil {
		slog.Error("failed to auto-migrate database", "err", err)
		os.Exit(1)
	}

	// --- Notifications ---
	locker, closeLocker, err := notify.LockerFromConfig(ctx, cfg.Redis)
	if err != nil {
		slog.Error("failed to set up reminder lock", "err", err)
		os.Exit(1)
	}
	defer closeLocker()
	gateway := notify.GatewayFromConfig(cfg.Twilio)

	// --- Metrics ---
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.New(registry)

	// --- Services ---
	jwtUtil := utils.NewJWTUtil(cfg.JWTSecret, cfg.JWTExpirationHours)
	store := repository.NewStore(dbPool)

	authService := service.NewAuthService(store.Repos().Users, jwtUtil, cfg.InitialAdminEmail)
	userService := service.NewUserService(store.Repos().Users)
	bookService := service.NewBookService(store)
	issueService := service.NewIssueService(service.IssueServiceDeps{
		Store:   store,
		Gateway: gateway,
		Locker:  locker,
		Metrics: appMetrics,
		LockTTL: cfg.ReminderLockTTL,
		Logger:  logger,
	})

	router := handler.NewRouter(handler.RouterDeps{
		Auth:           authService,
		Users:          userService,
		Books:          bookService,
		Issues:         issueService,
		Logger:         logger,
		Metrics:        appMetrics,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		DB:             dbPool,
	})

	// --- Start Server ---
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		slog.Info("server starting", "port", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("listen failed", "err", err)
			stop()
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "err", err)
	}

	slog.Info("server exiting")
}
