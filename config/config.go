package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr        string `mapstructure:"REDIS_ADDR"`
	RedisPassword    string `mapstructure:"REDIS_PASSWORD"`
	RedisPriceDB     int    `mapstructure:"REDIS_PRICE_DB"`
	RedisExpiryDB    int    `mapstructure:"REDIS_EXPIRY_DB"`
	RedisTaskQueueDB int    `mapstructure:"REDIS_TASK_QUEUE_DB"`

	// Hold lifecycle.
	DefaultHoldTTLSec  int `mapstructure:"DEFAULT_HOLD_TTL_SEC"`
	MaxHoldTTLSec      int `mapstructure:"MAX_HOLD_TTL_SEC"`
	PaymentGraceSec    int `mapstructure:"PAYMENT_GRACE_SEC"`
	ReaperSweepMillis  int `mapstructure:"REAPER_SWEEP_MILLIS"`
	PriceCacheTTLSec   int `mapstructure:"PRICE_CACHE_TTL_SEC"`
	MaxHoldsPerSession int `mapstructure:"MAX_HOLDS_PER_SESSION"`

	// Stripe payment handoff.
	StripeKey string `mapstructure:"STRIPE_KEY"`
	Currency  string `mapstructure:"CURRENCY"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_PRICE_DB", 0)
	viper.SetDefault("REDIS_EXPIRY_DB", 1)
	viper.SetDefault("REDIS_TASK_QUEUE_DB", 2)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "tripcart")
	viper.SetDefault("DEFAULT_HOLD_TTL_SEC", 600)
	viper.SetDefault("MAX_HOLD_TTL_SEC", 1800)
	viper.SetDefault("PAYMENT_GRACE_SEC", 300)
	viper.SetDefault("REAPER_SWEEP_MILLIS", 1000)
	viper.SetDefault("PRICE_CACHE_TTL_SEC", 5)
	viper.SetDefault("MAX_HOLDS_PER_SESSION", 20)
	viper.SetDefault("STRIPE_KEY", "")
	viper.SetDefault("CURRENCY", "usd")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// DefaultHoldTTL is the hold TTL applied when the client does not supply one.
func DefaultHoldTTL() time.Duration {
	return time.Duration(AppConfig.DefaultHoldTTLSec) * time.Second
}

// MaxHoldTTL is the longest hold TTL the engine accepts.
func MaxHoldTTL() time.Duration {
	return time.Duration(AppConfig.MaxHoldTTLSec) * time.Second
}

// PaymentGraceTTL is the re-hold TTL applied after a failed payment.
func PaymentGraceTTL() time.Duration {
	return time.Duration(AppConfig.PaymentGraceSec) * time.Second
}

// ReaperSweepInterval is how often the reaper backstop sweep runs.
func ReaperSweepInterval() time.Duration {
	return time.Duration(AppConfig.ReaperSweepMillis) * time.Millisecond
}

// PriceCacheTTL is how long a catalog base price may be cached.
func PriceCacheTTL() time.Duration {
	return time.Duration(AppConfig.PriceCacheTTLSec) * time.Second
}
