package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the classroom API and its workers.
type Config struct {
	AppName                   string
	AppEnv                    string
	AppPort                   string
	DatabaseDriver            string
	DatabaseURL               string
	RedisURL                  string
	NATSURL                   string
	EventsChannel             string
	JWTSecret                 string
	AutoCloseSchedule         string
	AutoCloseLockTTL          time.Duration
	SubmissionRateLimitMax    int
	SubmissionRateLimitWindow time.Duration
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
	v.SetEnvPrefix("CLASSROOM")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Classroom API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("events.channel", "classroom")
	v.SetDefault("autoclose.schedule", "@every 1m")
	v.SetDefault("autoclose.lock_ttl", "50s")
	v.SetDefault("ratelimit.submissions_max", 20)
	v.SetDefault("ratelimit.submissions_window", "1m")

	lockTTL, err := parseDuration(v.GetString("autoclose.lock_ttl"), 50*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("invalid auto-close lock ttl: %w", err)
	}

	window, err := parseDuration(v.GetString("ratelimit.submissions_window"), time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid submission rate limit window: %w", err)
	}

	cfg := Config{
		AppName:                   v.GetString("app.name"),
		AppEnv:                    v.GetString("app.env"),
		AppPort:                   v.GetString("app.port"),
		DatabaseDriver:            strings.ToLower(strings.TrimSpace(v.GetString("database.driver"))),
		DatabaseURL:               v.GetString("database.url"),
		RedisURL:                  v.GetString("redis.url"),
		NATSURL:                   v.GetString("nats.url"),
		EventsChannel:             v.GetString("events.channel"),
		JWTSecret:                 v.GetString("jwt.secret"),
		AutoCloseSchedule:         v.GetString("autoclose.schedule"),
		AutoCloseLockTTL:          lockTTL,
		SubmissionRateLimitMax:    v.GetInt("ratelimit.submissions_max"),
		SubmissionRateLimitWindow: window,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	switch cfg.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	if cfg.SubmissionRateLimitMax <= 0 {
		cfg.SubmissionRateLimitMax = 20
	}

	return cfg, nil
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	return time.ParseDuration(value)
}
