package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisEventsDB int    `mapstructure:"REDIS_EVENTS_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Google Maps API key, used for address resolution.
	GoogleAPIKey string `mapstructure:"GOOGLE_API_KEY"`

	// Rental network API.
	RentalAPIBaseURL string `mapstructure:"RENTAL_API_BASE_URL"`
	RentalAPIToken   string `mapstructure:"RENTAL_API_TOKEN"`

	// Fulfillment engine tunables.
	MaxAttempts       int     `mapstructure:"MAX_ATTEMPTS"`
	BackoffSeconds    int     `mapstructure:"BACKOFF_SECONDS"`
	MinBatteryPercent float64 `mapstructure:"MIN_BATTERY_PERCENT"`
	MaxDistanceMeters float64 `mapstructure:"MAX_DISTANCE_METERS"`
	WorkerConcurrency int     `mapstructure:"WORKER_CONCURRENCY"`

	// Mail provider (HTTP API).
	MailAPIURL string `mapstructure:"MAIL_API_URL"`
	MailAPIKey string `mapstructure:"MAIL_API_KEY"`
	MailSender string `mapstructure:"MAIL_SENDER"`
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
	viper.SetDefault("REDIS_EVENTS_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 1)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("GOOGLE_API_KEY", "")
	viper.SetDefault("RENTAL_API_BASE_URL", "https://app.socialbicycles.com/api")
	viper.SetDefault("RENTAL_API_TOKEN", "")
	viper.SetDefault("MAX_ATTEMPTS", 10)
	viper.SetDefault("BACKOFF_SECONDS", 30)
	viper.SetDefault("MIN_BATTERY_PERCENT", 25)
	viper.SetDefault("MAX_DISTANCE_METERS", 400)
	viper.SetDefault("WORKER_CONCURRENCY", 10)
	viper.SetDefault("MAIL_API_URL", "")
	viper.SetDefault("MAIL_API_KEY", "")
	viper.SetDefault("MAIL_SENDER", "bookings@bikebooker.app")

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
