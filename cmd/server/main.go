package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"fpl-optimizer/internal/api"
	"fpl-optimizer/internal/api/middleware"
	"fpl-optimizer/internal/providers"
	"fpl-optimizer/internal/services"
	"fpl-optimizer/pkg/config"
	"fpl-optimizer/pkg/database"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Setup logging
	if cfg.IsDevelopment() {
		logrus.SetLevel(logrus.DebugLevel)
		gin.SetMode(gin.DebugMode)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Connect to Redis
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logrus.Fatalf("Failed to parse Redis URL: %v", err)
	}
	redisClient := redis.NewClient(opt)
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logrus.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Initialize services
	cacheService := services.NewCacheService(redisClient)
	hub := services.NewHub(logrus.StandardLogger(), cfg.CorsOrigins)

	fplClient := providers.NewFPLClient(
		cfg.FPLBaseURL,
		cfg.ExternalAPITimeout,
		cfg.FPLRateLimit,
		cfg.CircuitBreakerThreshold,
		logrus.StandardLogger(),
	)

	cacheTTL := time.Duration(cfg.CacheExpiration) * time.Second
	snapshotService := services.NewSnapshotService(
		db, cacheService, fplClient, hub,
		logrus.StandardLogger(),
		cfg.SnapshotRefreshCron,
		cacheTTL,
	)
	if err := snapshotService.Start(!cfg.SkipInitialSnapshot); err != nil {
		logrus.Errorf("Failed to start snapshot service: %v", err)
	}
	defer snapshotService.Stop()

	plannerService := services.NewPlannerService(snapshotService, cacheService, hub, logrus.StandardLogger(), cfg)

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.CorsOrigins))

	// Setup API routes under /api/v1
	apiV1 := router.Group("/api/v1")
	api.SetupRoutes(apiV1, db, plannerService, snapshotService, hub, cfg)

	// WebSocket endpoint at root level, token optional
	router.GET("/ws", middleware.OptionalAuth(cfg.JWTSecret), func(c *gin.Context) {
		hub.Serve(c.Writer, c.Request)
	})

	// Setup server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logrus.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}
