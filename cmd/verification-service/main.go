package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/guardlink/guardlink-backend/internal/verification/events"
	"github.com/guardlink/guardlink-backend/internal/verification/handler"
	"github.com/guardlink/guardlink-backend/internal/verification/ocr"
	"github.com/guardlink/guardlink-backend/internal/verification/repository"
	"github.com/guardlink/guardlink-backend/internal/verification/risk"
	"github.com/guardlink/guardlink-backend/internal/verification/service"
	"github.com/guardlink/guardlink-backend/pkg/config"
	"github.com/guardlink/guardlink-backend/pkg/database"
	"github.com/guardlink/guardlink-backend/pkg/httputil"
	"github.com/guardlink/guardlink-backend/pkg/logger"
	"github.com/guardlink/guardlink-backend/pkg/messaging"
)

func main() {
	// Load configuration
	cfg, err := config.LoadWithValidation("verification-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("verification-service", cfg.Server.Environment)
	log.Info().Msg("starting Verification Service")

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Connect to RabbitMQ
	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	// Initialize event publisher
	publisher, err := events.NewVerificationEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}

	// Initialize repository
	resultRepo := repository.NewResultRepository(db)

	// Risk policy: defaults with configured threshold overrides
	policy := risk.DefaultPolicy()
	if cfg.Verification.RejectThreshold > 0 {
		policy.RejectThreshold = cfg.Verification.RejectThreshold
	}
	if cfg.Verification.ReviewThreshold > 0 {
		policy.ReviewThreshold = cfg.Verification.ReviewThreshold
	}
	if cfg.Verification.ValidationPassScore > 0 {
		policy.ValidationPassScore = cfg.Verification.ValidationPassScore
	}
	aggregator := risk.NewAggregator(policy)

	// OCR backend (the stub engine ships until a native backend is wired)
	extractor := ocr.NewExtractor(ocr.NewStubEngine(), log)

	// Initialize service and handler
	verificationService := service.NewVerificationService(extractor, aggregator, resultRepo, publisher, log)
	verificationHandler := handler.NewHandler(verificationService, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", "X-User-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "verification-service",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		verificationHandler.Routes(r)
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
