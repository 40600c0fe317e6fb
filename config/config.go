package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	AdminToken        string `mapstructure:"ADMIN_TOKEN"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration (auth token-hash cache).
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisAuthDB   int    `mapstructure:"REDIS_AUTH_DB"`

	// Session store configuration.
	SessionTTLMinutes   int `mapstructure:"SESSION_TTL_MINUTES"`
	SessionSweepMinutes int `mapstructure:"SESSION_SWEEP_MINUTES"`

	// Realtime (backend event stream) configuration.
	WSURL                  string `mapstructure:"WS_URL"`
	WSServiceToken         string `mapstructure:"WS_SERVICE_TOKEN"`
	WSHeartbeatSeconds     int    `mapstructure:"WS_HEARTBEAT_SECONDS"`
	WSReconnectBaseMs      int    `mapstructure:"WS_RECONNECT_BASE_MS"`
	WSReconnectMaxMs       int    `mapstructure:"WS_RECONNECT_MAX_MS"`
	WSMaxReconnectAttempts int    `mapstructure:"WS_MAX_RECONNECT_ATTEMPTS"`
	WSSendQueueLimit       int    `mapstructure:"WS_SEND_QUEUE_LIMIT"`
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
	viper.SetDefault("REDIS_AUTH_DB", 1)
	viper.SetDefault("SESSION_TTL_MINUTES", 60)
	viper.SetDefault("SESSION_SWEEP_MINUTES", 5)
	viper.SetDefault("WS_URL", "ws://localhost:9000/ws")
	viper.SetDefault("WS_SERVICE_TOKEN", "")
	viper.SetDefault("WS_HEARTBEAT_SECONDS", 30)
	viper.SetDefault("WS_RECONNECT_BASE_MS", 2000)
	viper.SetDefault("WS_RECONNECT_MAX_MS", 30000)
	viper.SetDefault("WS_MAX_RECONNECT_ATTEMPTS", 5)
	viper.SetDefault("WS_SEND_QUEUE_LIMIT", 64)

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
