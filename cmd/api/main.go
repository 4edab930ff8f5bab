package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/stridehq/stride-backend/api/routes"
	"github.com/stridehq/stride-backend/internal/catalog"
	"github.com/stridehq/stride-backend/internal/config"
	"github.com/stridehq/stride-backend/internal/handlers"
	"github.com/stridehq/stride-backend/internal/services"
	mongostore "github.com/stridehq/stride-backend/internal/store/mongodb"
	"github.com/stridehq/stride-backend/internal/triggers"
	"github.com/stridehq/stride-backend/pkg/commerce"
	"github.com/stridehq/stride-backend/pkg/jwt"
	"github.com/stridehq/stride-backend/pkg/mongodb"
)

func main() {
	// Load .env if present; real deployments use environment variables.
	_ = godotenv.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	// The reward catalog is static; a broken catalog is a startup failure,
	// not a runtime one.
	cat, err := catalog.Default()
	if err != nil {
		logger.Fatalf("Invalid reward catalog: %v", err)
	}

	mongoClient, err := mongodb.NewClient(cfg.MongoDB.URI)
	if err != nil {
		logger.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			logger.Errorf("Error disconnecting from MongoDB: %v", err)
		}
	}()
	db := mongoClient.Database(cfg.MongoDB.Database)

	st := mongostore.NewStore(mongoClient.Mongo(), db)
	indexCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := st.EnsureIndexes(indexCtx); err != nil {
		cancel()
		logger.Fatalf("Failed to ensure indexes: %v", err)
	}
	cancel()

	commerceClient := commerce.NewClient(cfg.Commerce.BaseURL, cfg.Commerce.APIToken, cfg.Commerce.MockAPI)
	tokens := jwt.NewTokenService(cfg.ServiceAuth.Secret, cfg.ServiceAuth.Issuer, time.Duration(cfg.ServiceAuth.ExpiresIn)*time.Second)

	awardService := services.NewAwardService(st, logger)
	redemptionService := services.NewRedemptionService(st, cat, logger)
	fulfillmentService := services.NewFulfillmentService(st, cat, commerceClient, logger)
	dispatcher := triggers.NewDispatcher(awardService, redemptionService, fulfillmentService, logger)

	deps := routes.HandlerDependencies{
		CheckinHandler:    handlers.NewCheckinHandler(st, awardService),
		RedemptionHandler: handlers.NewRedemptionHandler(st, redemptionService, fulfillmentService, logger),
		LedgerHandler:     handlers.NewLedgerHandler(st),
		RewardHandler:     handlers.NewRewardHandler(cat),
		TriggerHandler:    handlers.NewTriggerHandler(dispatcher),
	}
	router := routes.SetupRouter(cfg, logger, tokens, deps)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("listen: %s", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}
	logger.Info("Server exited")
}
