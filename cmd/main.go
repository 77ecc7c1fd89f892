package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/velotrace/velotrace-backend/internal/catalog"
	"github.com/velotrace/velotrace-backend/internal/clients"
	"github.com/velotrace/velotrace-backend/internal/db"
	"github.com/velotrace/velotrace-backend/internal/handlers"
	"github.com/velotrace/velotrace-backend/internal/logger"
	"github.com/velotrace/velotrace-backend/internal/middleware"
	"github.com/velotrace/velotrace-backend/internal/observability"
	"github.com/velotrace/velotrace-backend/internal/repos"
	"github.com/velotrace/velotrace-backend/internal/server"
	"github.com/velotrace/velotrace-backend/internal/services"
	"github.com/velotrace/velotrace-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	port := utils.GetEnv("PORT", "8080", log)
	sweepInterval := utils.GetEnvAsInt("ALERT_SWEEP_INTERVAL_SECONDS", 3600, log)
	allowedOrigins := utils.GetEnv("CORS_ALLOWED_ORIGINS", "", log)

	// Tracing
	shutdownTracing, err := observability.SetupTracing(log)
	if err != nil {
		log.Fatal("Tracing init failed", "error", err)
	}

	// Domain defaults
	defaults, err := catalog.Load(utils.GetEnv("DEFAULTS_PATH", "", log))
	if err != nil {
		log.Fatal("Failed to load category defaults", "error", err)
	}

	// Database
	dbService, err := db.NewDatabaseService(log)
	if err != nil {
		log.Fatal("Database init failed", "error", err)
	}
	if err = dbService.AutoMigrateAll(); err != nil {
		log.Fatal("Auto migration failed", "error", err)
	}
	theDB := dbService.DB()

	// Cache
	redisClient := clients.NewRedisClient(log)

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(theDB, log)
	bikeRepo := repos.NewBikeRepo(theDB, log)
	partRepo := repos.NewPartRepo(theDB, log)
	productRepo := repos.NewProductRepo(theDB, log)
	historyRepo := repos.NewPartHistoryRepo(theDB, log)
	storedPartRepo := repos.NewStoredPartRepo(theDB, log)
	reviewRepo := repos.NewReviewRepo(theDB, log)
	alertRepo := repos.NewAlertRepo(theDB, log)

	// Services
	log.Info("Setting up Services from main...")
	authService := services.NewAuthService(theDB, log, userRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second)
	productService := services.NewProductService(theDB, log, productRepo, reviewRepo, historyRepo, redisClient)
	alertService := services.NewAlertService(theDB, log, bikeRepo, partRepo, historyRepo, alertRepo, defaults)
	partService := services.NewPartService(theDB, log, bikeRepo, partRepo, historyRepo, productService, alertService, defaults)
	historyService := services.NewHistoryService(theDB, log, bikeRepo, partRepo, historyRepo, reviewRepo, productService, defaults)
	garageService := services.NewGarageService(theDB, log, bikeRepo, partRepo, storedPartRepo, partService, alertService)
	reviewService := services.NewReviewService(theDB, log, bikeRepo, partRepo, historyRepo, productRepo, reviewRepo, productService)
	bikeService := services.NewBikeService(theDB, log, bikeRepo)

	// Handlers
	log.Info("Setting up Handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	healthcheckHandler := handlers.NewHealthcheckHandler(theDB)
	bikeHandler := handlers.NewBikeHandler(bikeService)
	partHandler := handlers.NewPartHandler(partService)
	historyHandler := handlers.NewHistoryHandler(historyService)
	garageHandler := handlers.NewGarageHandler(garageService)
	alertHandler := handlers.NewAlertHandler(alertService)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	productHandler := handlers.NewProductHandler(productService)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	var origins []string
	if allowedOrigins != "" {
		origins = strings.Split(allowedOrigins, ",")
	}
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:        authHandler,
		AuthMiddleware:     authMiddleware,
		HealthcheckHandler: healthcheckHandler,
		BikeHandler:        bikeHandler,
		PartHandler:        partHandler,
		HistoryHandler:     historyHandler,
		GarageHandler:      garageHandler,
		AlertHandler:       alertHandler,
		ReviewHandler:      reviewHandler,
		ProductHandler:     productHandler,
		AllowedOrigins:     origins,
	})

	httpServer := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("HTTP server listening", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		// Calendar-based rules fire without any user write, so a periodic
		// sweep re-evaluates every bike.
		ticker := time.NewTicker(time.Duration(sweepInterval) * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if err := alertService.EvaluateAll(gctx); err != nil {
					log.Warn("Alert sweep failed", "error", err)
				}
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("Shutting down HTTP server...")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return shutdownTracing(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("Server exited with error", "error", err)
	}
	log.Info("Server stopped")
}
