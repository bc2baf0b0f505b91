package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Environment string
	Database    DatabaseConfig
	Gateway     GatewayConfig
	Carrier     CarrierConfig
	Checkout    CheckoutConfig
	AdminEmail  string
	LogLevel    string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// GatewayConfig holds the payment gateway credentials. KeySecret signs and
// verifies payment signatures.
type GatewayConfig struct {
	BaseURL   string
	KeyID     string
	KeySecret string
	Currency  string
}

// CarrierConfig holds the shipping aggregator credentials and the warehouse
// pickup identity registered with it.
type CarrierConfig struct {
	BaseURL        string
	Email          string
	Password       string
	PickupPostcode string
	PickupLocation string
}

type CheckoutConfig struct {
	ShippingFlatRate      decimal.Decimal
	FreeShippingThreshold decimal.Decimal
}

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("LOG_LEVEL", "info")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if .env doesn't exist, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	flatRate, err := getDecimal("SHIPPING_FLAT_RATE", "99")
	if err != nil {
		return nil, err
	}
	freeThreshold, err := getDecimal("FREE_SHIPPING_THRESHOLD", "2000")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		Database: DatabaseConfig{
			Host:     getEnvOrViper("DB_HOST", "localhost"),
			Port:     getEnvOrViper("DB_PORT", "5432"),
			User:     getEnvOrViper("DB_USER", "postgres"),
			Password: getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrViper("DB_NAME", "storefront"),
			SSLMode:  getEnvOrViper("DB_SSLMODE", "disable"),
		},
		Gateway: GatewayConfig{
			BaseURL:   getEnvOrViper("GATEWAY_BASE_URL", "https://api.razorpay.com/v1"),
			KeyID:     getEnvOrViper("GATEWAY_KEY_ID", ""),
			KeySecret: getEnvOrViper("GATEWAY_KEY_SECRET", ""),
			Currency:  getEnvOrViper("GATEWAY_CURRENCY", "INR"),
		},
		Carrier: CarrierConfig{
			BaseURL:        getEnvOrViper("CARRIER_BASE_URL", "https://apiv2.shiprocket.in/v1/external"),
			Email:          getEnvOrViper("CARRIER_EMAIL", ""),
			Password:       getEnvOrViper("CARRIER_PASSWORD", ""),
			PickupPostcode: getEnvOrViper("CARRIER_PICKUP_POSTCODE", ""),
			PickupLocation: getEnvOrViper("CARRIER_PICKUP_LOCATION", "Primary"),
		},
		Checkout: CheckoutConfig{
			ShippingFlatRate:      flatRate,
			FreeShippingThreshold: freeThreshold,
		},
		AdminEmail: getEnvOrViper("ADMIN_EMAIL", ""),
		LogLevel:   getEnvOrViper("LOG_LEVEL", "info"),
	}

	// Validate required fields
	if cfg.Gateway.KeyID == "" {
		return nil, fmt.Errorf("GATEWAY_KEY_ID is required")
	}
	if cfg.Gateway.KeySecret == "" {
		return nil, fmt.Errorf("GATEWAY_KEY_SECRET is required")
	}

	return cfg, nil
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}

func getDecimal(key, defaultValue string) (decimal.Decimal, error) {
	val, err := decimal.NewFromString(getEnvOrViper(key, defaultValue))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be a decimal number: %w", key, err)
	}
	return val, nil
}
