// File: app/app.go
package app

import (
	"context"
	"net/http"
	"order-track-api/config"
	"order-track-api/db"
	"order-track-api/handler"
	"order-track-api/logger"
	"order-track-api/repository"
	"order-track-api/router"
	"order-track-api/service"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func Run() {
	config.LoadConfig(".")
	logger.Init()
	logger.Log.Info("Logger initialized")
	logger.Log.Info("Configuration loaded successfully")

	database, err := db.Connect()
	if err != nil {
		logger.Log.Fatalf("Error connecting to the database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations("file://db/migrations"); err != nil {
		logger.Log.Fatalf("Error running migrations: %v", err)
	}

	// --- Wiring All Layers Together ---
	// This section is crucial for dependency injection.
	// We create instances of our repositories, services, and handlers here.

	authCfg := config.AppConfig.Auth
	codec := service.NewTokenCodec(authCfg.SecretKey, authCfg.AccessTTL, authCfg.RefreshTTL)
	tokenRepo := repository.NewTokenRepository(database)

	// The revocation cache backend is configurable: the in-memory map serves
	// a single instance; Redis serves a shared deployment. The order cache
	// reuses the same Redis connection when it is available.
	var revocation service.RevocationCache
	var orderCache service.ICacheClient
	if authCfg.RevocationStore == "redis" {
		redisClient, err := db.ConnectRedis()
		if err != nil {
			logger.Log.Fatalf("Error connecting to redis: %v", err)
		}
		defer redisClient.Close()
		revocation = service.NewRedisRevocationCache(redisClient)
		orderCache = redisClient
	} else {
		memCache := service.NewMemoryRevocationCache(time.Minute)
		defer memCache.Stop()
		revocation = memCache
	}

	authority := service.NewTokenAuthority(codec, tokenRepo, revocation)

	userRepo := repository.NewUserRepository(database)
	userService := service.NewUserService(userRepo, authority)
	authHandler := handler.NewAuthHandler(userService, authority)
	authMW := handler.NewAuthMiddleware(authority, userRepo)

	orderRepo := repository.NewOrderRepository(database)
	orderService := service.NewOrderService(orderRepo, orderCache)
	orderHandler := handler.NewOrderHandler(orderService)

	// Start the router with all handlers
	r := router.NewRouter(authHandler, orderHandler, authMW)

	// --- Start the Server with Graceful Shutdown ---
	port := config.AppConfig.Server.Port
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logger.Log.Infof("Server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Log.Info("Server exited properly")
}
