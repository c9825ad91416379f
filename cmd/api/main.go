// cmd/api/main.go
// Main entry point for the SparkVibe matching API
// This file bootstraps all components and starts the server

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/imadgeboyega/sparkvibe-backend/internal/auth"
	"github.com/imadgeboyega/sparkvibe-backend/internal/common/database"
	"github.com/imadgeboyega/sparkvibe-backend/internal/common/logger"
	"github.com/imadgeboyega/sparkvibe-backend/internal/config"
	"github.com/imadgeboyega/sparkvibe-backend/internal/matching"
	"github.com/imadgeboyega/sparkvibe-backend/internal/notification"
)

var startTime = time.Now()

func main() {
	// 1. Load environment variables
	envErr := godotenv.Load()

	// 2. Load configuration
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting SparkVibe matching API", "environment", cfg.Environment)
	if envErr != nil {
		log.Warn("no .env file found, using environment variables", "error", envErr)
	}

	// 3. Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatal("configuration validation failed", "error", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// 4. Connect to PostgreSQL
	db, err := database.NewPostgresDBFromURL(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to PostgreSQL", "error", err)
	}
	defer db.Close()
	log.Info("connected to PostgreSQL")

	// 5. Run database migrations
	if err := database.RunMigrations(ctx, db); err != nil {
		log.Fatal("failed to run migrations", "error", err)
	}
	log.Info("database migrations completed")

	// 6. Connect to Redis (optional)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClientFromURL(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("continuing without Redis", "error", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
			log.Info("connected to Redis")
		}
	} else {
		log.Warn("Redis URL not configured, explore results will not be cached")
	}

	// 7. Notifications
	notifier, err := buildNotifier(ctx, db, cfg.Notifications, log)
	if err != nil {
		log.Fatal("failed to initialize notifications", "error", err)
	}

	// 8. Matching
	var cache matching.ResultCache = matching.NoopCache{}
	if redisClient != nil {
		cache = matching.NewRedisCache(redisClient, cfg.Matching.ExploreCacheTTL, log.With("component", "explore_cache"))
	}

	matchRepo := matching.NewPostgresRepository(db)
	engine := matching.NewEngine(matchRepo, matching.WeightsV1)
	finder := matching.NewFinder(matchRepo, engine, cfg.Matching, log.With("component", "finder"))
	persister := matching.NewPersister(matchRepo, notifier, cache, cfg.Matching, log.With("component", "persister"))
	matchService := matching.NewService(matchRepo, finder, persister, cache, cfg.Matching, log.With("component", "matching"))
	matchHandler := matching.NewHandler(matchService, log.With("component", "http"))
	log.Info("matching engine ready", "weights", matching.WeightsV1.Version)

	// 9. Routes
	router := mux.NewRouter()
	router.HandleFunc("/health", healthCheck).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	authMiddleware := auth.NewMiddleware(cfg.JWTSecret)
	matching.RegisterRoutes(router, matchHandler, authMiddleware)

	// 10. Background jobs
	scheduler := matching.NewScheduler(matchService, cfg.Matching.AutoMatchInterval, log.With("component", "scheduler"))
	scheduler.Start(ctx)

	// 11. Create and start HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutdown signal received")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	// The batch must stop before waiting on notifications: it can still
	// create matches, and the pools close after main returns.
	scheduler.Wait()
	persister.Wait()
	log.Info("server exited gracefully")
}

func buildNotifier(ctx context.Context, db *sqlx.DB, cfg config.NotificationConfig, log *logger.Logger) (*notification.Service, error) {
	push, err := notification.NewPushSender(ctx, cfg, log.With("channel", "push"))
	if err != nil {
		return nil, fmt.Errorf("push: %w", err)
	}
	email, err := notification.NewEmailSender(cfg)
	if err != nil {
		return nil, fmt.Errorf("email: %w", err)
	}
	sms, err := notification.NewSMSSender(cfg, log.With("channel", "sms"))
	if err != nil {
		return nil, fmt.Errorf("sms: %w", err)
	}

	log.Info("notification channels configured",
		"push", cfg.PushProvider, "push_enabled", cfg.EnablePush,
		"email", cfg.EmailProvider, "email_enabled", cfg.EnableEmail,
		"sms", cfg.SMSProvider, "sms_enabled", cfg.EnableSMS,
	)

	repo := notification.NewPostgresRepository(db)
	return notification.NewService(repo, push, email, sms, cfg, log.With("component", "notification")), nil
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(startTime).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}
