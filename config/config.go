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
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Intake and booking knobs.
	HoldTTLSeconds       int `mapstructure:"HOLD_TTL_SECONDS"`
	SessionIdleMinutes   int `mapstructure:"SESSION_IDLE_MINUTES"`
	MaxClarifyingTurns   int `mapstructure:"MAX_CLARIFYING_TURNS"`
	BookingWindowDays    int `mapstructure:"BOOKING_WINDOW_DAYS"`
	MatchCacheTTLSeconds int `mapstructure:"MATCH_CACHE_TTL_SECONDS"`
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
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 1)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "mediq")
	viper.SetDefault("HOLD_TTL_SECONDS", 300)
	viper.SetDefault("SESSION_IDLE_MINUTES", 30)
	viper.SetDefault("MAX_CLARIFYING_TURNS", 3)
	viper.SetDefault("BOOKING_WINDOW_DAYS", 7)
	viper.SetDefault("MATCH_CACHE_TTL_SECONDS", 60)

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

// HoldTTL is the reservation window for an unconfirmed slot hold.
func HoldTTL() time.Duration {
	return time.Duration(AppConfig.HoldTTLSeconds) * time.Second
}

// SessionIdleTimeout is how long a session may sit inactive before it is
// treated as abandoned.
func SessionIdleTimeout() time.Duration {
	return time.Duration(AppConfig.SessionIdleMinutes) * time.Minute
}
