// File: tripcart/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tripcart/config"
	"tripcart/cron"
	"tripcart/database"
	catalogRepo "tripcart/database/repository/catalog"
	reservationRepo "tripcart/database/repository/reservation"
	"tripcart/handlers"
	"tripcart/middleware"
	"tripcart/routes"
	"tripcart/services/cart"
	"tripcart/services/catalog"
	"tripcart/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/stripe/stripe-go/v76"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitPriceCache()
	utils.InitExpiryIndex()
	stripe.Key = config.AppConfig.StripeKey

	db := database.GetDatabase()

	// repositories.
	reservationStore := reservationRepo.NewMongoReservationRepo(db, utils.SystemClock())
	{
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := reservationStore.EnsureIndexes(ctx); err != nil {
			logger.Sugar().Fatalf("main: failed to ensure reservation indexes: %v", err)
		}
		cancel()
	}
	catalogReads := catalogRepo.NewMongoCatalogRepo(db)
	expiryIndex := reservationRepo.NewRedisExpiryIndex(utils.GetExpiryIndexClient())

	// services.
	registry := &catalog.DefaultUnitRegistry{
		Catalog:       catalogReads,
		PriceCache:    utils.GetPriceCacheClient(),
		PriceCacheTTL: config.PriceCacheTTL(),
		Logger:        logger,
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisTaskQueueDB,
	})
	defer asynqClient.Close()

	cartService := &cart.DefaultCartService{
		Registry:           registry,
		Store:              reservationStore,
		Expiry:             expiryIndex,
		Scheduler:          &cart.AsynqExpiryScheduler{Client: asynqClient},
		Payments:           cart.NewPaymentHandoff(config.AppConfig.StripeKey, logger),
		Clock:              utils.SystemClock(),
		Logger:             logger,
		DefaultTTL:         config.DefaultHoldTTL(),
		MaxTTL:             config.MaxHoldTTL(),
		PaymentGraceTTL:    config.PaymentGraceTTL(),
		MaxHoldsPerSession: config.AppConfig.MaxHoldsPerSession,
		Currency:           config.AppConfig.Currency,
	}

	// Expiry reaper: asynq worker plus backstop sweep.
	cron.InitReaperWorker(reservationStore, expiryIndex)
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go cron.RunSweep(sweepCtx, reservationStore, expiryIndex)

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	handlerBundle := &routes.HandlerBundle{
		Cart:    handlers.NewCartHandler(cartService, logger),
		Payment: handlers.NewPaymentHandler(cartService, logger),
	}
	routes.RegisterRoutes(router, handlerBundle)

	utils.StartHealthMonitor(
		[]*redis.Client{utils.GetPriceCacheClient(), utils.GetExpiryIndexClient()},
		database.MongoClient,
	)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")
	stopSweep()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
