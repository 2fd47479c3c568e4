// Command session runs the duel server: the real-time room/match core
// (spec C1-C6) mounted on the same gin router and port as the
// surrounding (out-of-scope) HTTP surface would be (spec §6 External
// HTTP surface). Grounded on the teacher's cmd/v1/session/main.go
// startup sequence: load .env, validate config, build the dependency
// graph, mount routes, serve with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cardduel/server/internal/v1/auth"
	"github.com/cardduel/server/internal/v1/config"
	"github.com/cardduel/server/internal/v1/deck"
	"github.com/cardduel/server/internal/v1/health"
	"github.com/cardduel/server/internal/v1/logging"
	"github.com/cardduel/server/internal/v1/match"
	"github.com/cardduel/server/internal/v1/ratelimit"
	"github.com/cardduel/server/internal/v1/room"
	"github.com/cardduel/server/internal/v1/transport"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		// Absence of a .env file is normal in production; the error is ignored.
	}

	cfg, err := config.ValidateEnv()
	if err != nil {
		panic(err)
	}

	if err := logging.Initialize(cfg.TestMode); err != nil {
		panic(err)
	}
	logger := logging.GetLogger()
	defer logger.Sync()
	cfg.LogValidated(logger)

	validator, err := auth.NewValidator(cfg.JWTSecret)
	if err != nil {
		logger.Fatal("failed to build token validator", zap.Error(err))
	}

	// The external deck repository (spec §1 Out of scope) is not part of
	// this core. The loader is built over the empty in-memory stand-in;
	// no real repository adapter is wired in here.
	loader := deck.NewLoader(deck.NewInMemoryRepository(nil))

	limiter, err := ratelimit.NewRateLimiter(cfg)
	if err != nil {
		logger.Fatal("failed to build rate limiter", zap.Error(err))
	}

	matches := match.NewEngine()
	registry := room.NewRegistry(loader, matches)

	allowedOrigins := auth.GetAllowedOriginsFromEnv("ALLOWED_ORIGINS", []string{"http://localhost:3000"}, os.Getenv)
	hub := transport.NewHub(validator, registry, matches, limiter, allowedOrigins)

	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = allowedOrigins
	router.Use(cors.New(corsConfig))

	router.GET("/ws", hub.ServeWs)

	healthHandler := health.NewHandler(loader)
	router.GET("/health/live", healthHandler.Liveness)
	router.GET("/health/ready", healthHandler.Readiness)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// The surrounding system mounts signup/signin, card listing, and deck
	// CRUD routes on this same router (spec §6 External HTTP surface);
	// none of that is part of this core.

	if cfg.TestMode {
		logger.Info("test mode: listener suppressed", zap.String("port", cfg.Port))
		select {}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("duel server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
	logger.Info("server exited")
}
