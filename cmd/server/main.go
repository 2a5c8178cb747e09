// Command server is the share url host: it resolves links built by the trip
// planner to the JSON of the shared trip, destination or note.
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

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/example/onlinetravel/internal/api"
	"github.com/example/onlinetravel/internal/backend"
	"github.com/example/onlinetravel/internal/cache"
	"github.com/example/onlinetravel/internal/config"
	"github.com/example/onlinetravel/internal/middleware"
)

func main() {
	// In production the environment is set directly.
	if os.Getenv("TRAVEL_ENV") != "production" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf("Warning: error loading .env file: %v", err)
		}
	}

	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to load application configuration: %v", err)
	}

	newLogger := zap.NewDevelopment
	if appConfig.IsProduction() {
		newLogger = zap.NewProduction
	}
	logger, err := newLogger()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer logger.Sync()

	initCtx, cancelInitCtx := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInitCtx()

	b, err := backend.New(initCtx, appConfig, logger)
	if err != nil {
		logger.Fatal("CRITICAL_ERROR: Failed to initialize backend", zap.Error(err))
	}

	var shareCache cache.Cache
	if appConfig.RedisEnabled() {
		shareCache, err = cache.NewRedis(initCtx, cache.RedisConfig{
			Address:  appConfig.RedisAddr,
			Password: appConfig.RedisPassword,
			DB:       appConfig.RedisDB,
			Prefix:   "onlinetravel:",
		}, logger)
		if err != nil {
			logger.Fatal("CRITICAL_ERROR: Failed to connect share cache", zap.Error(err))
		}
	} else {
		shareCache = cache.NewMemory(appConfig.ShareCacheTTL)
		logger.Info("Using in-process share cache", zap.Duration("ttl", appConfig.ShareCacheTTL))
	}

	if appConfig.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	if appConfig.ClientURL != "" {
		router.Use(middleware.CORSMiddleware(appConfig))
		logger.Info("CORS Middleware enabled", zap.String("clientURL", appConfig.ClientURL))
	} else {
		logger.Warn("CORS Middleware SKIPPED: CLIENT_URL is not configured")
	}

	shareHandler := api.NewShareHandler(b.Database, b.Files, appConfig.BackendURL(), shareCache, appConfig.ShareCacheTTL, logger)
	api.SetupRoutes(router, b.Verifier, shareHandler, logger)

	serverAddr := fmt.Sprintf(":%s", appConfig.Port)
	httpServer := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Starting HTTP server", zap.String("address", serverAddr), zap.String("ginMode", gin.Mode()), zap.String("backend", appConfig.Backend))

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exiting gracefully")
}
