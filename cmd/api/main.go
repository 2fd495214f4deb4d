// cmd/api/main.go
// Main entry point for the weekly matching API
// This file bootstraps all components and starts the server

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/imadgeboyega/kiekky-weekly/internal/app"
	"github.com/imadgeboyega/kiekky-weekly/internal/auth"
	"github.com/imadgeboyega/kiekky-weekly/internal/common/utils"
	"github.com/imadgeboyega/kiekky-weekly/internal/config"
	"github.com/imadgeboyega/kiekky-weekly/internal/logger"
	"github.com/imadgeboyega/kiekky-weekly/internal/matching"
)

var startTime = time.Now()

func main() {
	// 1. Load environment variables
	envErr := godotenv.Load()

	// 2. Load configuration
	cfg := config.Load()

	l, err := logger.New(cfg.LogJSON, cfg.LogDebug)
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer l.Sync()

	if envErr != nil {
		l.Debug("no .env file found, using environment variables", zap.Error(envErr))
	}

	// 3. Validate configuration
	if err := cfg.Validate(); err != nil {
		l.Fatal("configuration validation failed", zap.Error(err))
	}
	l.Info("configuration loaded",
		zap.String("environment", cfg.Environment),
		zap.String("store", cfg.StoreBackend),
	)

	// 4. Open storage and build services
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	application, err := app.New(ctx, cfg, l)
	cancel()
	if err != nil {
		l.Fatal("initializing application", zap.Error(err))
	}
	defer application.Close()

	// 5. Routes
	router := newRouter(cfg, application.Service, l)

	// 6. Create and start HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute, // generation is synchronous
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		l.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error("server forced to shutdown", zap.Error(err))
		return
	}

	l.Info("server exited gracefully")
}

func newRouter(cfg *config.Config, service matching.Service, l *zap.Logger) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", healthCheck).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	var authMiddleware *auth.Middleware
	if cfg.AuthEnabled {
		authMiddleware = auth.NewMiddleware(cfg.JWTSecret)
	} else {
		l.Warn("authentication disabled, matching routes are open")
	}
	matching.RegisterRoutes(router, matching.NewHandler(service, l), authMiddleware)

	router.Use(loggingMiddleware(l))
	return router
}

// healthCheck returns server health status
func healthCheck(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(startTime).String(),
	})
}

// loggingMiddleware logs all requests
func loggingMiddleware(l *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Wrap response writer to capture status code
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			l.Info("request",
				zap.String("method", r.Method),
				zap.String("uri", r.RequestURI),
				zap.Int("status", wrapped.statusCode),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
