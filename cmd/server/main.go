// CV Optimizer Pro - API Server
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
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pwalczak/cv-optimizer/internal/ai"
	"github.com/pwalczak/cv-optimizer/internal/api"
	"github.com/pwalczak/cv-optimizer/internal/auth"
	"github.com/pwalczak/cv-optimizer/internal/config"
	"github.com/pwalczak/cv-optimizer/internal/cvproc"
	"github.com/pwalczak/cv-optimizer/internal/identity"
	"github.com/pwalczak/cv-optimizer/internal/middleware"
	"github.com/pwalczak/cv-optimizer/internal/payment"
	"github.com/pwalczak/cv-optimizer/internal/session"
	"github.com/pwalczak/cv-optimizer/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	// Initialize services.
	sessions := session.NewManager(repo, cfg.Session.SoftLimitBytes, cfg.Session.HardLimitBytes)

	if cfg.OpenRouter.APIKey == "" {
		slog.Warn("OPENROUTER_API_KEY not set, AI requests will be rejected upstream")
	}
	aiClient := ai.NewOpenRouterClient(cfg.OpenRouter, logger)

	if cfg.Stripe.SecretKey == "" {
		slog.Warn("STRIPE_SECRET_KEY not set, payment endpoints will fail")
	}
	payments := payment.NewStripeService(cfg.Stripe.SecretKey)

	orchestrator := cvproc.New(aiClient, sessions, repo, logger)

	r := newRouter(cfg, repo, sessions, orchestrator, payments)

	// Create server.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.OpenRouter.Timeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session.StartCleanupWorker(ctx, repo, cfg.Session.TTL)

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}

// newRouter wires the middleware chain and routes. The metrics and health
// endpoints sit outside the identity middleware so scrapers and health
// checks never mint anonymous users.
func newRouter(cfg *config.Config, repo store.Repository, sessions *session.Manager, orchestrator *cvproc.Orchestrator, payments payment.Service) chi.Router {
	authHandler := auth.NewHandler(repo, cfg.IsDevelopment())
	apiHandler := api.NewHandler(repo, sessions, orchestrator, payments, cfg)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(corsOrigins(cfg)))
	r.Use(middleware.Metrics)

	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware(repo, cfg.IsDevelopment()))
		authHandler.RegisterRoutes(r)
		apiHandler.RegisterRoutes(r, rateLimiter)
	})

	return r
}

func corsOrigins(cfg *config.Config) []string {
	if cfg.FrontendURL != "" {
		return []string{cfg.FrontendURL}
	}
	return []string{"*"}
}
