package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/anvika-shop/storefront/internal/api"
	"github.com/anvika-shop/storefront/internal/carrier"
	"github.com/anvika-shop/storefront/internal/config"
	"github.com/anvika-shop/storefront/internal/gateway"
	"github.com/anvika-shop/storefront/internal/metrics"
	"github.com/anvika-shop/storefront/internal/notify"
	"github.com/anvika-shop/storefront/internal/pricing"
	"github.com/anvika-shop/storefront/internal/repository/postgres"
	"github.com/anvika-shop/storefront/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := postgres.EnsureSchema(context.Background(), db); err != nil {
		logger.Fatal("Failed to apply schema", zap.Error(err))
	}

	store := postgres.NewStore(db, logger)
	m := metrics.New()

	gatewayClient := gateway.NewClient(cfg.Gateway, logger)
	carrierClient := carrier.NewClient(cfg.Carrier, logger)
	sender := notify.NewLogSender(logger)

	shipping := pricing.ShippingConfig{
		FlatRate:              cfg.Checkout.ShippingFlatRate,
		FreeShippingThreshold: cfg.Checkout.FreeShippingThreshold,
	}

	fulfillment := service.NewFulfillmentService(store, carrierClient, m, logger)
	checkout := service.NewCheckoutService(
		store, gatewayClient, fulfillment, sender, m,
		shipping, cfg.Gateway.Currency, cfg.AdminEmail, logger,
	)
	cancel := service.NewCancelService(store, gatewayClient, m, logger)
	cart := service.NewCartService(store, logger)
	reviews := service.NewReviewService(store, logger)

	router := api.NewRouter(api.Deps{
		Config:      cfg,
		Store:       store,
		Cart:        cart,
		Checkout:    checkout,
		Cancel:      cancel,
		Fulfillment: fulfillment,
		Reviews:     reviews,
		Logger:      logger,
	})

	logger.Info("Starting server",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
	)
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	if cfg.Environment == "production" {
		zapCfg := zap.NewProductionConfig()
		zapCfg.Level = zap.NewAtomicLevelAt(level)
		return zapCfg.Build()
	}
	zapCfg := zap.NewDevelopmentConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
