package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	DatabaseURL       string
	RedisURL          string
	NATSURL           string
	JWTSecret         string
	ChannelBase       string
	SchedulerInterval time.Duration
	ReminderRetention int
	ChatRateLimit     int
	ChatRateWindow    time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CAMPUS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Campus API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("channel.base", "campus")
	v.SetDefault("scheduler.interval", "1m")
	v.SetDefault("reminder.retention_days", 30)
	v.SetDefault("chat.rate_limit", 30)
	v.SetDefault("chat.rate_window", "1m")

	interval, err := time.ParseDuration(v.GetString("scheduler.interval"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid scheduler interval: %w", err)
	}

	rateWindow, err := time.ParseDuration(v.GetString("chat.rate_window"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid chat rate window: %w", err)
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		DatabaseURL:       v.GetString("database.url"),
		RedisURL:          v.GetString("redis.url"),
		NATSURL:           v.GetString("nats.url"),
		JWTSecret:         v.GetString("jwt.secret"),
		ChannelBase:       v.GetString("channel.base"),
		SchedulerInterval: interval,
		ReminderRetention: v.GetInt("reminder.retention_days"),
		ChatRateLimit:     v.GetInt("chat.rate_limit"),
		ChatRateWindow:    rateWindow,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.ReminderRetention <= 0 {
		cfg.ReminderRetention = 30
	}

	if cfg.ChatRateLimit <= 0 {
		cfg.ChatRateLimit = 30
	}

	return cfg, nil
}
